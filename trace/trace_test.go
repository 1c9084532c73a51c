package trace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	_ "github.com/rhizome-lab/moss/lang/golang"
	_ "github.com/rhizome-lab/moss/lang/python"
)

func TestTraceGoShortVarDeclaration(t *testing.T) {
	provider, ok := lang.Default.Get("go")
	require.True(t, ok)

	source := []byte(`package demo

func helper() int { return 1 }

func compute() int {
	x := helper()
	y := x + 1
	return y
}
`)
	entries, found, err := Trace(provider, source, "compute", 10)
	require.NoError(t, err)
	require.True(t, found)
	require.NotEmpty(t, entries)

	require.Equal(t, "x", entries[0].Variable)
	require.False(t, entries[0].IsTerminal)
	require.Len(t, entries[0].Calls, 1)
	require.Equal(t, "helper", entries[0].Calls[0].Name)
	require.True(t, entries[0].Calls[0].Resolved)
}

func TestTracePythonAssignmentWithBranch(t *testing.T) {
	provider, ok := lang.Default.Get("python")
	require.True(t, ok)

	source := []byte(`def compute(flag):
    if flag:
        result = 1
    else:
        result = 2
    return result
`)
	entries, found, err := Trace(provider, source, "compute", 10)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, entries, 2)
	require.True(t, entries[0].IsTerminal)
	require.Equal(t, "if", entries[0].BranchContext)
	require.Equal(t, "else", entries[1].BranchContext)
}

func TestTraceUnknownSymbolNotFound(t *testing.T) {
	provider, ok := lang.Default.Get("go")
	require.True(t, ok)
	source := []byte("package demo\n")
	_, found, err := Trace(provider, source, "NoSuchSymbol", 10)
	require.NoError(t, err)
	require.False(t, found)
}

func TestTraceRespectsMaxDepth(t *testing.T) {
	provider, ok := lang.Default.Get("go")
	require.True(t, ok)
	source := []byte(`package demo

func compute() int {
	a := 1
	b := 2
	c := 3
	return a + b + c
}
`)
	entries, found, err := Trace(provider, source, "compute", 2)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, entries, 2)
}
