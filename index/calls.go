package index

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// callNodeKinds are the call-expression node types across the four
// supported grammars. The SCI only needs the callee's simple name (the
// resolver does the heavy qualification work), so a small fixed set of
// known call-shaped node kinds is enough rather than adding a
// language-specific CallKinds() method to the Provider contract.
var callNodeKinds = map[string]bool{
	"call_expression": true, // go, rust, typescript
	"call":             true, // python
}

// calleeRef is one extracted call site: a simple name and 1-indexed line.
type calleeRef struct {
	Name string
	Line int
}

// callsWithinRange walks root collecting every call expression whose
// 1-indexed start line falls within [startLine, endLine], reducing each
// callee expression to its trailing identifier (the segment after the last
// '.' or "::"), matching the callee_name column's simple-name semantics.
func callsWithinRange(root *sitter.Node, source []byte, startLine, endLine int) []calleeRef {
	var out []calleeRef
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		line := int(node.StartPoint().Row) + 1
		if line > endLine {
			return
		}
		if callNodeKinds[node.Type()] && line >= startLine && line <= endLine {
			if name, ok := calleeName(node, source); ok {
				out = append(out, calleeRef{Name: name, Line: line})
			}
		}
		n := int(node.ChildCount())
		for i := 0; i < n; i++ {
			if c := node.Child(i); c != nil {
				walk(c)
			}
		}
	}
	walk(root)
	return out
}

// calleeName extracts the simple callee name from a call expression node:
// the "function"/"method" field text if present, otherwise the first
// child, reduced to the trailing identifier segment.
func calleeName(node *sitter.Node, source []byte) (string, bool) {
	target := node.ChildByFieldName("function")
	if target == nil {
		target = node.ChildByFieldName("method")
	}
	if target == nil && node.ChildCount() > 0 {
		target = node.Child(0)
	}
	if target == nil {
		return "", false
	}
	text := string(source[target.StartByte():target.EndByte()])
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	last := text
	if idx := strings.LastIndex(last, "::"); idx >= 0 {
		last = last[idx+2:]
	}
	if idx := strings.LastIndex(last, "."); idx >= 0 {
		last = last[idx+1:]
	}
	if last == "" {
		return "", false
	}
	return last, true
}
