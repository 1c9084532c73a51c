package golang

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

func TestExtractStructAndMethod(t *testing.T) {
	source := `package demo

// Counter tracks a running total.
type Counter struct {
	total int
}

func (c *Counter) Add(n int) {
	c.total += n
}

func Sum(a, b int) int {
	return a + b
}
`
	p := New()
	src := []byte(source)
	tree, err := lang.DefaultPool.Parse(context.Background(), p, src)
	require.NoError(t, err)

	symbols := lang.ExtractSymbols(tree.RootNode(), src, p)
	require.Len(t, symbols, 2)

	var counter, sum *model.Symbol
	for _, s := range symbols {
		switch s.Name {
		case "Counter":
			counter = s
		case "Sum":
			sum = s
		}
	}
	require.NotNil(t, counter)
	require.NotNil(t, sum)

	require.Equal(t, model.KindStruct, counter.Kind)
	require.Equal(t, "Counter tracks a running total.", counter.Docstring)
	require.Len(t, counter.Children, 1)
	require.Equal(t, "Add", counter.Children[0].Name)
	require.Equal(t, model.KindMethod, counter.Children[0].Kind)

	require.Equal(t, model.KindFunction, sum.Kind)
	require.Equal(t, model.VisibilityPublic, sum.Visibility)
}

func TestUnexportedIsInternal(t *testing.T) {
	source := "package demo\n\nfunc helper() {}\n"
	p := New()
	src := []byte(source)
	tree, err := lang.DefaultPool.Parse(context.Background(), p, src)
	require.NoError(t, err)
	symbols := lang.ExtractSymbols(tree.RootNode(), src, p)
	require.Len(t, symbols, 1)
	require.Equal(t, model.VisibilityInternal, symbols[0].Visibility)
}

func TestResolveLocalImportFindsPackageDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal", "util"), 0o755))

	p := New()
	resolved, ok := p.ResolveLocalImport("internal/util", "main.go", root)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "internal", "util"), resolved)

	_, ok = p.ResolveLocalImport("internal/missing", "main.go", root)
	require.False(t, ok)
}

func TestDiscoverPackagesReadsVendorModulesTxt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "modules.txt"), []byte(`# github.com/stretchr/testify v1.9.0
## explicit
# golang.org/x/sys v0.36.0
`), 0o644))

	p := New()
	packages := p.DiscoverPackages(root)
	require.Contains(t, packages, "github.com/stretchr/testify v1.9.0")
}
