package edit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizome-lab/moss/lang"
	_ "github.com/rhizome-lab/moss/lang/golang"
	_ "github.com/rhizome-lab/moss/lang/rust"
)

func goProvider(t *testing.T) lang.Provider {
	t.Helper()
	p, ok := lang.Default.Get("go")
	require.True(t, ok)
	return p
}

func rustProvider(t *testing.T) lang.Provider {
	t.Helper()
	p, ok := lang.Default.Get("rust")
	require.True(t, ok)
	return p
}

func TestFindSymbolIncludesLeadingComment(t *testing.T) {
	source := []byte(`package demo

// Greet says hello.
func Greet() string {
	return "hi"
}
`)
	e := New(goProvider(t))
	loc, ok := e.FindSymbol(source, "Greet")
	require.True(t, ok)
	text := string(source[loc.StartByte:loc.EndByte])
	require.Contains(t, text, "// Greet says hello.")
	require.Contains(t, text, "func Greet")
}

func TestFindSymbolIncludesLeadingAttribute(t *testing.T) {
	source := []byte(`#[derive(Debug)]
pub struct Foo {
    x: i32,
}
`)
	e := New(rustProvider(t))
	loc, ok := e.FindSymbol(source, "Foo")
	require.True(t, ok)
	text := string(source[loc.StartByte:loc.EndByte])
	require.Contains(t, text, "#[derive(Debug)]")
	require.Contains(t, text, "pub struct Foo")
}

func TestDeleteRemovesTrailingNewline(t *testing.T) {
	source := []byte("package demo\n\nfunc A() {}\n\nfunc B() {}\n")
	e := New(goProvider(t))
	loc, ok := e.FindSymbol(source, "A")
	require.True(t, ok)

	out := Delete(source, loc)
	require.NotContains(t, string(out), "func A()")
	require.Contains(t, string(out), "func B()")
	require.Equal(t, "package demo\n\n\nfunc B() {}\n", string(out))
}

func TestReplaceSymbol(t *testing.T) {
	source := []byte("package demo\n\nfunc A() {}\n")
	e := New(goProvider(t))
	loc, ok := e.FindSymbol(source, "A")
	require.True(t, ok)

	out := Replace(source, loc, "func A() { return }")
	require.Contains(t, string(out), "func A() { return }")
}

func TestInsertBeforeAndAfterPreserveIndentation(t *testing.T) {
	source := []byte("package demo\n\nfunc A() {}\n")
	e := New(goProvider(t))
	loc, ok := e.FindSymbol(source, "A")
	require.True(t, ok)

	before := InsertBefore(source, loc, "// inserted")
	require.Contains(t, string(before), "// inserted\nfunc A()")

	after := InsertAfter(source, loc, "// trailing")
	require.Contains(t, string(after), "func A() {}\n// trailing")
}

func TestPrependAppendToContainer(t *testing.T) {
	source := []byte(`package demo

type Foo struct {
	X int
}
`)
	e := New(goProvider(t))
	body, ok := e.FindContainerBody(source, "Foo")
	require.True(t, ok)

	out := PrependToContainer(source, body, "Y int")
	require.Contains(t, string(out), "Y int")
	idxY := indexOf(string(out), "Y int")
	idxX := indexOf(string(out), "X int")
	require.Less(t, idxY, idxX)

	out = AppendToContainer(source, body, "Z int")
	require.Contains(t, string(out), "Z int")
}

func TestPrependAppendToFile(t *testing.T) {
	source := []byte("package demo\n")
	out := PrependToFile(source, "// header\n")
	require.Contains(t, string(out), "// header\npackage demo")

	out = AppendToFile(source, "// footer\n")
	require.Contains(t, string(out), "package demo\n// footer\n")
}

func TestMoveRelocatesAfterDelete(t *testing.T) {
	source := []byte(`package demo

func A() {}

func B() {}

func C() {}
`)
	e := New(goProvider(t))
	out, err := e.Move(source, "A", "C", After)
	require.NoError(t, err)
	text := string(out)
	require.NotContains(t, text, "func A() {}\n\nfunc B")
	idxC := indexOf(text, "func C()")
	idxA := indexOf(text, "func A()")
	require.Greater(t, idxA, idxC, "A should now appear after C")
}

func TestCopyLeavesSourceInPlace(t *testing.T) {
	source := []byte(`package demo

func A() {}

func B() {}
`)
	e := New(goProvider(t))
	out, err := e.Copy(source, "A", "B", After)
	require.NoError(t, err)
	text := string(out)
	require.Equal(t, 2, countOccurrences(text, "func A()"))
}

func TestSwapExchangesRanges(t *testing.T) {
	source := []byte(`package demo

func A() { return }

func B() { panic("x") }
`)
	e := New(goProvider(t))
	out, err := e.Swap(source, "A", "B")
	require.NoError(t, err)
	text := string(out)
	idxA := indexOf(text, "func A()")
	idxB := indexOf(text, "func B()")
	require.Greater(t, idxA, idxB, "A's declaration should now be where B's was")
	require.Contains(t, text, "package demo\n\nfunc B() { panic(\"x\") }")
	require.Contains(t, text, "func B() { panic(\"x\") }\n\nfunc A() { return }")
}

func TestCommitDryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.go")
	require.NoError(t, os.WriteFile(path, []byte("package demo\n"), 0o644))

	res, err := Commit(path, "package demo\n\nfunc X() {}\n", true)
	require.NoError(t, err)
	require.False(t, res.Written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "package demo\n", string(content))
}

func TestCommitWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.go")
	require.NoError(t, os.WriteFile(path, []byte("package demo\n"), 0o644))

	res, err := Commit(path, "package demo\n\nfunc X() {}\n", false)
	require.NoError(t, err)
	require.True(t, res.Written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "package demo\n\nfunc X() {}\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp file should remain")
}

func TestDiffEmptyWhenEqual(t *testing.T) {
	require.Empty(t, Diff("same", "same"))
	require.NotEmpty(t, Diff("a\n", "b\n"))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
