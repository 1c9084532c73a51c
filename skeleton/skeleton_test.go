package skeleton

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/lang/golang"
	"github.com/rhizome-lab/moss/model"
)

func TestBuildAndFilterTypes(t *testing.T) {
	provider, ok := lang.Default.Get("go")
	require.True(t, ok)

	source := []byte(`package demo

type Greeter struct {
	Name string
}

func (g *Greeter) Hello() string {
	return "hi " + g.Name
}

func standalone() {}
`)
	root, err := Build(provider, "demo.go", source)
	require.NoError(t, err)
	require.Equal(t, "file", root.Kind)
	require.Len(t, root.Children, 2)

	typed := FilterTypes(root)
	require.Len(t, typed.Children, 1)
	require.Equal(t, "Greeter", typed.Children[0].Name)
	require.Empty(t, typed.Children[0].Children, "methods must be stripped under FilterTypes")
}

func TestFilterPublic(t *testing.T) {
	provider, ok := lang.Default.Get("go")
	require.True(t, ok)

	source := []byte(`package demo

func Exported() {}

func unexported() {}
`)
	root, err := Build(provider, "demo.go", source)
	require.NoError(t, err)

	pub := FilterPublic(root)
	require.Len(t, pub.Children, 1)
	require.Equal(t, "Exported", pub.Children[0].Name)
	require.Equal(t, model.VisibilityPublic, pub.Children[0].Visibility)
}
