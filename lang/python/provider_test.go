package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

func parse(t *testing.T, source string) (*Provider, []byte, *sitter.Node) {
	t.Helper()
	p := New()
	tree, err := lang.DefaultPool.Parse(context.Background(), p, []byte(source))
	require.NoError(t, err)
	return p, []byte(source), tree.RootNode()
}

func TestExtractFunctionAndClass(t *testing.T) {
	source := `def foo(x: int) -> str:
    """Convert to string."""
    return str(x)

class Bar:
    def method(self):
        pass
`
	p, src, root := parse(t, source)
	symbols := lang.ExtractSymbols(root, src, p)
	require.Len(t, symbols, 2)

	foo := symbols[0]
	require.Equal(t, "foo", foo.Name)
	require.Equal(t, model.KindFunction, foo.Kind)
	require.Contains(t, foo.Signature, "def foo(x: int) -> str")
	require.Equal(t, "Convert to string.", foo.Docstring)

	bar := symbols[1]
	require.Equal(t, "Bar", bar.Name)
	require.Equal(t, model.KindClass, bar.Kind)
	require.Len(t, bar.Children, 1)
	require.Equal(t, "method", bar.Children[0].Name)
	require.Equal(t, model.KindMethod, bar.Children[0].Kind)
	require.Equal(t, "Bar", bar.Children[0].Parent)

	require.NoError(t, bar.Validate())
}

func TestVisibility(t *testing.T) {
	source := "def pub(): pass\ndef _prot(): pass\ndef __priv(): pass\ndef __d__(): pass\n"
	p, src, root := parse(t, source)
	symbols := lang.ExtractSymbols(root, src, p)
	require.Len(t, symbols, 4)
	require.Equal(t, model.VisibilityPublic, symbols[0].Visibility)
	require.Equal(t, model.VisibilityProtected, symbols[1].Visibility)
	require.Equal(t, model.VisibilityPrivate, symbols[2].Visibility)
	require.Equal(t, model.VisibilityPublic, symbols[3].Visibility)
}

func TestCyclomaticComplexity(t *testing.T) {
	source := `def simple(): return 1
def with_if(x):
    if x > 0: return x
    else: return -x
def with_loop(items):
    total = 0
    for item in items:
        if item > 0:
            total += item
    return total
`
	p, src, root := parse(t, source)
	symbols := lang.ExtractSymbols(root, src, p)
	require.Len(t, symbols, 3)

	// Symbol values don't retain their CST node, so re-walk to find each
	// function node by name and compute complexity directly against it.
	complexities := map[string]int{}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			if c.Type() == "function_definition" {
				if nameNode := c.ChildByFieldName("name"); nameNode != nil {
					name := string(src[nameNode.StartByte():nameNode.EndByte()])
					complexities[name] = lang.CyclomaticComplexity(c, p)
				}
			}
			walk(c)
		}
	}
	walk(root)

	require.Equal(t, 1, complexities["simple"])
	require.Equal(t, 2, complexities["with_if"])
	require.Equal(t, 3, complexities["with_loop"])
}

func TestResolveLocalImportTriesModuleAndPackageShapes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "sub", "__init__.py"), nil, 0o644))

	p := New()
	resolved, ok := p.ResolveLocalImport("pkg.sub", "main.py", root)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "pkg", "sub", "__init__.py"), resolved)
}

func TestFindPackageCacheGlobsVenvSitePackages(t *testing.T) {
	root := t.TempDir()
	sitePackages := filepath.Join(root, ".venv", "lib", "python3.12", "site-packages")
	require.NoError(t, os.MkdirAll(sitePackages, 0o755))

	p := New()
	cache, ok := p.FindPackageCache(root)
	require.True(t, ok)
	require.Equal(t, sitePackages, cache)
}
