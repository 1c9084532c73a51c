package typescript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

func TestExportedClassAndMethod(t *testing.T) {
	source := `export class Greeter {
    greet(name: string): string {
        return "hi " + name;
    }
}

function helper() {}
`
	p := New()
	src := []byte(source)
	tree, err := lang.DefaultPool.Parse(context.Background(), p, src)
	require.NoError(t, err)

	symbols := lang.ExtractSymbols(tree.RootNode(), src, p)
	require.Len(t, symbols, 2)

	var greeter, helper *model.Symbol
	for _, s := range symbols {
		switch s.Name {
		case "Greeter":
			greeter = s
		case "helper":
			helper = s
		}
	}
	require.NotNil(t, greeter)
	require.NotNil(t, helper)

	require.Equal(t, model.KindClass, greeter.Kind)
	require.Equal(t, model.VisibilityPublic, greeter.Visibility)
	require.Len(t, greeter.Children, 1)
	require.Equal(t, "greet", greeter.Children[0].Name)
	require.Equal(t, model.KindMethod, greeter.Children[0].Kind)

	require.Equal(t, model.VisibilityInternal, helper.Visibility)
}

func TestResolveLocalImportRelativeToCurrentFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util", "helpers.ts"), nil, 0o644))

	p := New()
	resolved, ok := p.ResolveLocalImport("./util/helpers", "src/index.ts", root)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "src", "util", "helpers.ts"), resolved)
}

func TestDiscoverPackagesExpandsScopedPackages(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "lodash"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "@types", "node"), 0o755))

	p := New()
	packages := p.DiscoverPackages(root)
	require.Contains(t, packages, "lodash")
	require.Contains(t, packages, "@types/node")
}
