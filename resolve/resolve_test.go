package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/model"
)

type fakeSearcher struct {
	rows []model.SymbolRow
}

func (f *fakeSearcher) FindSymbols(name string, kindFilter model.Kind, caseInsensitive bool, limit int) ([]model.SymbolRow, error) {
	var out []model.SymbolRow
	for _, r := range f.rows {
		match := r.Name == name
		if caseInsensitive {
			match = strings.EqualFold(r.Name, name)
		}
		if !match {
			continue
		}
		if kindFilter != "" && r.KindStr != string(kindFilter) {
			continue
		}
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "main.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# readme"), 0o644))
	return root
}

func TestResolveDot(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, ".", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.True(t, targets[0].IsDirectory)
}

func TestResolveDirectory(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, "pkg", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.True(t, targets[0].IsDirectory)

	targets, err = Resolve(root, "pkg/", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.True(t, targets[0].IsDirectory)
}

func TestResolveFile(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, "pkg/main.go", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.False(t, targets[0].IsDirectory)
	require.Equal(t, "pkg/main.go", targets[0].FilePath)
	require.Empty(t, targets[0].SymbolPath)
}

func TestResolveFileWithSymbolPath(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, "pkg/main.go/Foo/Bar", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "pkg/main.go", targets[0].FilePath)
	require.Equal(t, []string{"Foo", "Bar"}, targets[0].SymbolPath)
}

func TestResolveLineNumberAndRange(t *testing.T) {
	root := setupRoot(t)

	targets, err := Resolve(root, "pkg/main.go:12", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, 12, targets[0].LineStart)
	require.Equal(t, 12, targets[0].LineEnd)

	targets, err = Resolve(root, "pkg/main.go:5-20", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, 5, targets[0].LineStart)
	require.Equal(t, 20, targets[0].LineEnd)
}

func TestResolveDottedNonexistentFileReturnsNoFallback(t *testing.T) {
	root := setupRoot(t)
	searcher := &fakeSearcher{rows: []model.SymbolRow{{File: "pkg/main.go", Name: "main.go"}}}
	targets, err := Resolve(root, "missing/file.go", searcher)
	require.NoError(t, err)
	require.Empty(t, targets, "dotted nonexistent path must not fall back to symbol search")
}

func TestResolveBareSymbol(t *testing.T) {
	root := setupRoot(t)
	searcher := &fakeSearcher{rows: []model.SymbolRow{
		{File: "pkg/main.go", Name: "Greet", Parent: ""},
	}}
	targets, err := Resolve(root, "Greet", searcher)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "pkg/main.go", targets[0].FilePath)
}

func TestResolveBareSymbolWithParentHint(t *testing.T) {
	root := setupRoot(t)
	searcher := &fakeSearcher{rows: []model.SymbolRow{
		{File: "pkg/main.go", Name: "method", Parent: "Foo"},
		{File: "pkg/other.go", Name: "method", Parent: "Bar"},
	}}
	targets, err := Resolve(root, "Foo/method", searcher)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "pkg/main.go", targets[0].FilePath)
}

func TestResolveGlob(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, "pkg/*.go", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "pkg/main.go", targets[0].FilePath)
}

func TestResolveUnknownReturnsEmpty(t *testing.T) {
	root := setupRoot(t)
	targets, err := Resolve(root, "does/not/exist.go", nil)
	require.NoError(t, err)
	require.Empty(t, targets)
}
