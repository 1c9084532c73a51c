package rust

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

func TestImplAssociation(t *testing.T) {
	source := `pub struct Foo { x: i32 }
impl Foo {
    pub fn new(x: i32) -> Self { Self { x } }
}
`
	p := New()
	src := []byte(source)
	tree, err := lang.DefaultPool.Parse(context.Background(), p, src)
	require.NoError(t, err)

	symbols := lang.ExtractSymbols(tree.RootNode(), src, p)
	require.Len(t, symbols, 1)

	foo := symbols[0]
	require.Equal(t, "Foo", foo.Name)
	require.Equal(t, model.KindStruct, foo.Kind)
	require.Equal(t, model.VisibilityPublic, foo.Visibility)
	require.Len(t, foo.Children, 1)
	require.Equal(t, "new", foo.Children[0].Name)
	require.Equal(t, model.KindMethod, foo.Children[0].Kind)
	require.Equal(t, "Foo", foo.Children[0].Parent)

	require.NoError(t, foo.Validate())
}

func TestResolveLocalImportUnderSrc(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util", "mod.rs"), nil, 0o644))

	p := New()
	resolved, ok := p.ResolveLocalImport("util", "src/lib.rs", root)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "src", "util", "mod.rs"), resolved)
}

func TestDiscoverPackagesReadsCargoLock(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.lock"), []byte(`[[package]]
name = "serde"
version = "1.0.0"

[[package]]
name = "tokio"
version = "1.38.0"
`), 0o644))

	p := New()
	packages := p.DiscoverPackages(root)
	require.Equal(t, []string{"serde", "tokio"}, packages)
}
