// Package edit implements the Structural Editor: it plans and serializes
// byte-precise structural edits against raw file content, never touching
// a parser's output directly — callers locate via FindSymbol /
// FindContainerBody, then apply one of the eleven operations, each of
// which returns the full new file content.
package edit

import (
	"bytes"
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// Editor locates and edits symbols in one file's content using provider's
// grammar.
type Editor struct {
	Provider lang.Provider
}

// New returns an Editor bound to provider.
func New(provider lang.Provider) *Editor {
	return &Editor{Provider: provider}
}

// FindSymbol returns the whole declaration range of the named symbol: from
// the first character of its leading attribute/docstring block (any
// contiguous run of comment siblings immediately preceding the
// declaration, no blank line between) to the last character of its body.
func (e *Editor) FindSymbol(source []byte, name string) (model.SymbolLocation, bool) {
	node, ok := e.findNode(source, name)
	if !ok {
		return model.SymbolLocation{}, false
	}
	start := node.StartByte()
	if prefix := leadingCommentStart(node, source); prefix < start {
		start = prefix
	}
	return model.SymbolLocation{
		StartByte: int(start),
		EndByte:   int(node.EndByte()),
		StartLine: lineOf(source, int(start)),
		EndLine:   int(node.EndPoint().Row) + 1,
	}, true
}

// FindContainerBody returns the inside of a container (its body, excluding
// open/close delimiters).
func (e *Editor) FindContainerBody(source []byte, name string) (model.BodyLocation, bool) {
	node, ok := e.findNode(source, name)
	if !ok {
		return model.BodyLocation{}, false
	}
	body := e.Provider.ContainerBody(node)
	if body == nil {
		body = findBodyFallback(node)
	}
	if body == nil {
		return model.BodyLocation{}, false
	}
	start, end := trimDelimiters(body, source)
	return model.BodyLocation{
		StartByte: start,
		EndByte:   end,
		StartLine: lineOf(source, start),
		EndLine:   lineOf(source, end),
	}, true
}

func (e *Editor) findNode(source []byte, name string) (*sitter.Node, bool) {
	tree, err := lang.DefaultPool.Parse(context.Background(), e.Provider, source)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	var found *sitter.Node
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if found != nil {
			return
		}
		kind := node.Type()
		if containsAny(e.Provider.ContainerKinds(), kind) || containsAny(e.Provider.FunctionKinds(), kind) || containsAny(e.Provider.TypeKinds(), kind) {
			if n, ok := e.Provider.NodeName(node, source); ok && n == name {
				found = node
				return
			}
		}
		n := int(node.ChildCount())
		for i := 0; i < n; i++ {
			if c := node.Child(i); c != nil {
				walk(c)
				if found != nil {
					return
				}
			}
		}
	}
	walk(tree.RootNode())
	return found, found != nil
}

// bodyKinds are node types that hold a container's members, used as a
// fallback when a language plug-in's ContainerBody returns nil for node
// kinds it doesn't model as LSL-style containers (e.g. Go struct/interface
// bodies, which exist for editing purposes but never host lexically
// nested methods).
var bodyKinds = map[string]bool{
	"field_declaration_list": true,
	"interface_body":         true,
	"class_body":             true,
	"declaration_list":       true,
	"statement_block":        true,
	"block":                  true,
}

func findBodyFallback(node *sitter.Node) *sitter.Node {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if bodyKinds[n.Type()] {
			found = n
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			if c := n.Child(i); c != nil {
				walk(c)
				if found != nil {
					return
				}
			}
		}
	}
	walk(node)
	return found
}

func containsAny(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// attributeKinds are the attribute/decorator node types of the four
// bundled grammars: Rust's `#[derive(...)]` (attribute_item, and
// inner_attribute_item for `#![...]`), and Python/TypeScript's
// `@decorator` (decorator) — a decorated_definition or class member
// wraps its decorators as siblings immediately preceding the
// declaration they annotate, the same shape leading comments take.
var attributeKinds = map[string]bool{
	"attribute_item":       true,
	"inner_attribute_item": true,
	"decorator":            true,
}

// leadingCommentStart walks backward over node's previous siblings,
// extending the range over a contiguous run of comment and
// attribute/decorator nodes with no blank line separating them from the
// declaration or each other.
func leadingCommentStart(node *sitter.Node, source []byte) uint32 {
	start := node.StartByte()
	cur := node.PrevSibling()
	for cur != nil && (strings.Contains(cur.Type(), "comment") || attributeKinds[cur.Type()]) {
		if hasBlankLineBetween(source, cur.EndByte(), start) {
			break
		}
		start = cur.StartByte()
		cur = cur.PrevSibling()
	}
	return start
}

func hasBlankLineBetween(source []byte, from, to uint32) bool {
	between := string(source[from:to])
	return strings.Count(between, "\n") > 1
}

func lineOf(source []byte, byteOffset int) int {
	if byteOffset > len(source) {
		byteOffset = len(source)
	}
	return bytes.Count(source[:byteOffset], []byte("\n")) + 1
}

// trimDelimiters strips a leading/trailing single-token delimiter (e.g.
// "{" / "}") from body's range, leaving the contents.
func trimDelimiters(body *sitter.Node, source []byte) (int, int) {
	start := int(body.StartByte())
	end := int(body.EndByte())
	n := int(body.ChildCount())
	if n > 0 {
		if first := body.Child(0); first != nil && isDelimiter(source, first) {
			start = int(first.EndByte())
		}
		if last := body.Child(n - 1); last != nil && isDelimiter(source, last) {
			end = int(last.StartByte())
		}
	}
	return start, end
}

func isDelimiter(source []byte, node *sitter.Node) bool {
	text := string(source[node.StartByte():node.EndByte()])
	return text == "{" || text == "}" || text == "(" || text == ")"
}

// Delete removes [loc.StartByte, loc.EndByte) plus exactly one trailing
// newline if present.
func Delete(source []byte, loc model.SymbolLocation) []byte {
	end := loc.EndByte
	if end < len(source) && source[end] == '\n' {
		end++
	}
	out := make([]byte, 0, len(source)-(end-loc.StartByte))
	out = append(out, source[:loc.StartByte]...)
	out = append(out, source[end:]...)
	return out
}

// Replace substitutes text for [loc.StartByte, loc.EndByte).
func Replace(source []byte, loc model.SymbolLocation, text string) []byte {
	out := make([]byte, 0, len(source)+len(text))
	out = append(out, source[:loc.StartByte]...)
	out = append(out, text...)
	out = append(out, source[loc.EndByte:]...)
	return out
}

// InsertBefore inserts text + newline immediately before loc.StartByte,
// indented to match loc's own anchor line.
func InsertBefore(source []byte, loc model.SymbolLocation, text string) []byte {
	indented := indentTo(source, loc.StartByte, text) + "\n"
	out := make([]byte, 0, len(source)+len(indented))
	out = append(out, source[:loc.StartByte]...)
	out = append(out, indented...)
	out = append(out, source[loc.StartByte:]...)
	return out
}

// InsertAfter inserts newline + text immediately after loc.EndByte,
// indented to match loc's own anchor line.
func InsertAfter(source []byte, loc model.SymbolLocation, text string) []byte {
	indented := "\n" + indentTo(source, loc.StartByte, text)
	out := make([]byte, 0, len(source)+len(indented))
	out = append(out, source[:loc.EndByte]...)
	out = append(out, indented...)
	out = append(out, source[loc.EndByte:]...)
	return out
}

// PrependToContainer inserts text at the start of body, indented to match
// sibling members (the indentation of the body's first member line).
func PrependToContainer(source []byte, body model.BodyLocation, text string) []byte {
	pos := body.StartByte
	for pos < body.EndByte && (source[pos] == ' ' || source[pos] == '\t' || source[pos] == '\r' || source[pos] == '\n') {
		pos++
	}
	lineStart := bytes.LastIndexByte(source[:pos], '\n') + 1
	insertAt := pos
	if len(bytes.TrimLeft(source[lineStart:pos], " \t")) == 0 {
		insertAt = lineStart
	}
	indented := indentTo(source, pos, text) + "\n"
	out := make([]byte, 0, len(source)+len(indented))
	out = append(out, source[:insertAt]...)
	out = append(out, indented...)
	out = append(out, source[insertAt:]...)
	return out
}

// AppendToContainer inserts text at the end of body, indented to match
// sibling members (the indentation of the body's first member line).
func AppendToContainer(source []byte, body model.BodyLocation, text string) []byte {
	pos := body.StartByte
	for pos < body.EndByte && (source[pos] == ' ' || source[pos] == '\t' || source[pos] == '\r' || source[pos] == '\n') {
		pos++
	}
	indented := indentTo(source, pos, text) + "\n"
	if body.EndByte > 0 && source[body.EndByte-1] != '\n' {
		indented = "\n" + strings.TrimSuffix(indented, "\n")
	}
	out := make([]byte, 0, len(source)+len(indented))
	out = append(out, source[:body.EndByte]...)
	out = append(out, indented...)
	out = append(out, source[body.EndByte:]...)
	return out
}

// PrependToFile inserts text at byte 0.
func PrependToFile(source []byte, text string) []byte {
	out := make([]byte, 0, len(source)+len(text))
	out = append(out, text...)
	out = append(out, source...)
	return out
}

// AppendToFile inserts text at the end of the file.
func AppendToFile(source []byte, text string) []byte {
	out := make([]byte, 0, len(source)+len(text))
	out = append(out, source...)
	out = append(out, text...)
	return out
}

// indentTo takes the column of the first non-whitespace character on
// position's line and applies it to every line of text, the way the
// teacher's preserveIndentation helper does.
func indentTo(source []byte, position int, text string) string {
	if position > len(source) {
		position = len(source)
	}
	lineStart := bytes.LastIndexByte(source[:position], '\n') + 1
	indent := takeIndent(source[lineStart:position])

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

func takeIndent(line []byte) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return string(line[:i])
}

// Diff renders a unified diff between original and modified, empty when
// they are equal.
func Diff(original, modified string) string {
	if original == modified {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "original",
		ToFile:   "modified",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return ""
	}
	return text
}
