package walk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/ignore"
)

func TestWalkSkipsIgnoredAndCollectsRest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("x"), 0o644))

	matcher := ignore.Load(root)
	w := New()
	seen := map[string]bool{}
	for e := range w.Walk(context.Background(), root, matcher) {
		require.NoError(t, e.Err)
		seen[e.RelPath] = true
	}

	require.True(t, seen["src"])
	require.True(t, seen[filepath.ToSlash(filepath.Join("src", "main.go"))])
	require.False(t, seen["debug.log"])
}
