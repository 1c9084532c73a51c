package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	_ "github.com/rhizome-lab/moss/lang/golang"
	_ "github.com/rhizome-lab/moss/lang/python"
	"github.com/rhizome-lab/moss/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestIndex(t *testing.T, root string) *Index {
	t.Helper()
	idx, err := Open(root, lang.Default, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRefreshIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", `package main

func Greet(name string) string {
	return "hello " + name
}

func main() {
	Greet("world")
}
`)

	idx := newTestIndex(t, root)
	ctx := context.Background()

	require.NoError(t, idx.Refresh(ctx))
	rows, err := idx.FindSymbols("Greet", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, idx.Refresh(ctx))
	rows, err = idx.FindSymbols("Greet", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1, "re-running Refresh must not duplicate rows")

	files, err := idx.FindByName("main.go")
	require.NoError(t, err)
	require.Len(t, files, 1, "re-running Refresh must not duplicate file rows either")

	callers, err := idx.FindCallers("Greet")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	require.Equal(t, "main", callers[0].CallerSymbol)
}

func TestIncrementalRefreshConverges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def foo():\n    pass\n")

	idx := newTestIndex(t, root)
	ctx := context.Background()
	require.NoError(t, idx.Refresh(ctx))

	rows, err := idx.FindSymbols("foo", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	writeFile(t, root, "b.py", "def bar():\n    foo()\n")
	require.NoError(t, idx.IncrementalRefresh(ctx))

	rows, err = idx.FindSymbols("bar", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	callers, err := idx.FindCallers("foo")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	require.Equal(t, "b.py", callers[0].CallerFile)

	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))
	require.NoError(t, idx.IncrementalRefresh(ctx))

	callers, err = idx.FindCallers("foo")
	require.NoError(t, err)
	require.Len(t, callers, 0, "removing the caller file must drop its call rows")
}

func TestFindSymbolTieredLookup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", `package main

func Helper() {}
`)
	idx := newTestIndex(t, root)
	require.NoError(t, idx.Refresh(context.Background()))

	sym, err := idx.FindSymbol("main.go", "Helper")
	require.NoError(t, err)
	require.Equal(t, "Helper", sym.Name)

	_, err = idx.FindSymbol("main.go", "NoSuchSymbol")
	require.Error(t, err)

	rows, err := idx.FindSymbols("helper", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1, "case-insensitive exact tier should find Helper")

	rows, err = idx.FindSymbols("Helper", "", false, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1, "exact tier should find Helper")

	rows, err = idx.FindSymbols("HELPER", model.KindFunction, true, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1, "case-insensitive exact tier plus kind filter should still find Helper")

	rows, err = idx.FindSymbols("Helper", model.KindClass, false, 0)
	require.NoError(t, err)
	require.Empty(t, rows, "kind filter should exclude a non-matching kind")
}

func TestFindByNameAndFindLikeAgainstFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "internal/util/helpers.go", "package util\n")
	writeFile(t, root, "internal/util/helpers_test.go", "package util\n")
	idx := newTestIndex(t, root)
	require.NoError(t, idx.Refresh(context.Background()))

	byBasename, err := idx.FindByName("helpers.go")
	require.NoError(t, err)
	require.Len(t, byBasename, 1)
	require.Equal(t, "internal/util/helpers.go", byBasename[0].Path)

	byFullPath, err := idx.FindByName("internal/util/helpers.go")
	require.NoError(t, err)
	require.Len(t, byFullPath, 1)

	like, err := idx.FindLike("util_helpers")
	require.NoError(t, err)
	require.Len(t, like, 2, "both helpers.go and helpers_test.go contain util and helpers")
}

func TestNeedsRefreshHeuristic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	idx := newTestIndex(t, root)
	needs, err := idx.NeedsRefresh()
	require.NoError(t, err)
	require.True(t, needs, "empty index must always need a refresh")

	require.NoError(t, idx.Refresh(context.Background()))
	needs, err = idx.NeedsRefresh()
	require.NoError(t, err)
	require.False(t, needs)
}
