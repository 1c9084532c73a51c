package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/edit"
)

func setupRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(`package main

// Greet returns a greeting.
func Greet(name string) string {
	msg := "hello " + name
	return msg
}

func main() {
	Greet("world")
}
`), 0o644))
	return root
}

func TestEngineOpenIndexesOnce(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	targets, err := e.Resolve("main.go")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "main.go", targets[0].FilePath)
}

func TestEngineSkeletonAndQuery(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	view, err := e.Skeleton("main.go")
	require.NoError(t, err)
	require.Len(t, view.Children, 2)

	matches, err := e.Query("main.go", "Greet", false)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestEngineTrace(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	entries, err := e.Trace("main.go", "Greet", 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.Equal(t, "msg", entries[0].Variable)
}

func TestEngineEditAndCommit(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	editor, err := e.Editor("main.go")
	require.NoError(t, err)

	source, err := os.ReadFile(filepath.Join(root, "main.go"))
	require.NoError(t, err)

	loc, ok := editor.FindSymbol(source, "main")
	require.True(t, ok)

	updated := edit.InsertAfter(source, loc, "// trailing note")
	res, err := edit.Commit(filepath.Join(root, "main.go"), string(updated), false)
	require.NoError(t, err)
	require.True(t, res.Written)

	content, err := os.ReadFile(filepath.Join(root, "main.go"))
	require.NoError(t, err)
	require.Contains(t, string(content), "// trailing note")
}

func TestEngineRulesEmptyWhenNoDirectory(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	loaded, err := e.Rules()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestEngineIncrementalRefreshPicksUpNewFile(t *testing.T) {
	root := setupRepo(t)
	e, err := Open(root)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "extra.go"), []byte("package main\n\nfunc Extra() {}\n"), 0o644))
	require.NoError(t, e.IncrementalRefresh(context.Background()))

	targets, err := e.Resolve("Extra")
	require.NoError(t, err)
	require.Len(t, targets, 1)
}
