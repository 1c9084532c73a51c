// Package trace implements the Value Provenance Tracer: given a symbol,
// it returns an ordered list of TraceEntry values describing each
// assignment-shaped statement in the symbol's body, per spec §4.3.5.
package trace

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// assignmentKinds are the node kinds the tracer treats as an assignment
// site, across the four supported grammars.
var assignmentKinds = map[string]bool{
	"assignment_expression":   true,
	"assignment":              true,
	"let_declaration":         true,
	"variable_declarator":     true,
	"short_var_declaration":   true,
}

// leftFields / rightFields are tried in order against ChildByFieldName to
// find the assignment's target / value, since field names vary by
// grammar and construct.
var leftFields = []string{"left", "name", "pattern"}
var rightFields = []string{"right", "value", "init"}

var callKinds = map[string]bool{
	"call_expression":     true,
	"call":                true,
	"method_call":         true,
	"invocation_expression": true,
}

var identifierSuffix = "identifier"

var reservedWords = map[string]bool{
	"let": true, "mut": true, "const": true, "var": true,
	"true": true, "false": true, "nil": true, "null": true,
	"self": true, "this": true,
}

// Trace locates name in source, walks its body, and returns up to maxDepth
// TraceEntry values ordered by source position.
func Trace(provider lang.Provider, source []byte, name string, maxDepth int) ([]model.TraceEntry, bool, error) {
	tree, err := lang.DefaultPool.Parse(context.Background(), provider, source)
	if err != nil || tree == nil {
		return nil, false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	symbols := lang.ExtractSymbols(root, source, provider)
	sigByName := make(map[string]*model.Symbol)
	flattenSignatures(symbols, sigByName)

	target, found := locateNode(root, source, provider, name)
	if !found {
		return nil, false, nil
	}

	var entries []TraceEntry
	collect(target, source, nil, &entries)

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].start < entries[j].start })

	out := make([]model.TraceEntry, 0, len(entries))
	for i, e := range entries {
		if i >= maxDepth {
			break
		}
		out = append(out, e.build(source, sigByName))
	}
	return out, true, nil
}

func flattenSignatures(symbols []*model.Symbol, out map[string]*model.Symbol) {
	for _, s := range symbols {
		out[s.Name] = s
		flattenSignatures(s.Children, out)
	}
}

func locateNode(root *sitter.Node, source []byte, provider lang.Provider, name string) (*sitter.Node, bool) {
	var found *sitter.Node
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if found != nil {
			return
		}
		kind := node.Type()
		if in(provider.ContainerKinds(), kind) || in(provider.FunctionKinds(), kind) || in(provider.TypeKinds(), kind) {
			if n, ok := provider.NodeName(node, source); ok && n == name {
				found = node
				return
			}
		}
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			if c := node.Child(i); c != nil {
				walk(c)
				if found != nil {
					return
				}
			}
		}
	}
	walk(root)
	return found, found != nil
}

func in(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TraceEntry is the tracer's internal accumulator, carrying the raw nodes
// needed to build the final model.TraceEntry after the full walk (so
// branchContext lookups and signature resolution happen with full
// context).
type TraceEntry struct {
	variable      string
	left          *sitter.Node
	right         *sitter.Node
	start         int
	line          int
	branchContext string
}

func (t TraceEntry) build(source []byte, sigByName map[string]*model.Symbol) model.TraceEntry {
	rhsText := strings.TrimSpace(string(source[t.right.StartByte():t.right.EndByte()]))
	terminal := isLiteral(t.right.Type())

	entry := model.TraceEntry{
		Variable:      t.variable,
		Line:          t.line,
		Source:        rhsText,
		IsTerminal:    terminal,
		BranchContext: t.branchContext,
	}

	if !terminal {
		entry.FlowsFrom = collectIdentifiers(t.right, source)
	}
	entry.Calls = collectCalls(t.right, source, sigByName)
	return entry
}

func isLiteral(kind string) bool {
	if strings.Contains(kind, "literal") {
		return true
	}
	switch kind {
	case "integer", "float", "string", "number", "bool", "true", "false", "nil", "none", "null":
		return true
	}
	return false
}

func collectIdentifiers(node *sitter.Node, source []byte) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		kind := n.Type()
		if kind == "identifier" || kind == "field_identifier" || strings.HasSuffix(kind, "_"+identifierSuffix) {
			text := string(source[n.StartByte():n.EndByte()])
			if !reservedWords[text] && !seen[text] {
				seen[text] = true
				out = append(out, text)
			}
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			if c := n.Child(i); c != nil {
				walk(c)
			}
		}
	}
	walk(node)
	return out
}

func collectCalls(node *sitter.Node, source []byte, sigByName map[string]*model.Symbol) []model.CallRef {
	var out []model.CallRef
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if callKinds[n.Type()] {
			if name, ok := calleeSimpleName(n, source); ok {
				ref := model.CallRef{Name: name, StartLine: int(n.StartPoint().Row) + 1}
				if sym, ok := sigByName[name]; ok {
					ref.Signature = sym.Signature
					ref.StartLine = sym.StartLine
					ref.Resolved = true
				}
				out = append(out, ref)
			}
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			if c := n.Child(i); c != nil {
				walk(c)
			}
		}
	}
	walk(node)
	return out
}

func calleeSimpleName(node *sitter.Node, source []byte) (string, bool) {
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
	text := strings.TrimSpace(string(source[target.StartByte():target.EndByte()]))
	if idx := strings.LastIndex(text, "::"); idx >= 0 {
		text = text[idx+2:]
	}
	if idx := strings.LastIndex(text, "."); idx >= 0 {
		text = text[idx+1:]
	}
	if text == "" {
		return "", false
	}
	return text, true
}

// collect walks node's subtree, recording one TraceEntry per assignment-
// shaped node, tracking the nearest enclosing branch context as it
// descends.
func collect(node *sitter.Node, source []byte, branchStack []string, out *[]TraceEntry) {
	ctx := currentBranchContext(branchStack)

	if assignmentKinds[node.Type()] {
		left := firstField(node, leftFields)
		right := firstField(node, rightFields)
		if left != nil && right != nil {
			*out = append(*out, TraceEntry{
				variable:      strings.TrimSpace(string(source[left.StartByte():left.EndByte()])),
				left:          left,
				right:         right,
				start:         int(node.StartByte()),
				line:          int(node.StartPoint().Row) + 1,
				branchContext: ctx,
			})
		}
	}

	nextStack := pushBranchContext(node, source, branchStack)
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if c := node.Child(i); c != nil {
			collect(c, source, nextStack, out)
		}
	}
}

func firstField(node *sitter.Node, names []string) *sitter.Node {
	for _, name := range names {
		if n := node.ChildByFieldName(name); n != nil {
			return n
		}
	}
	return nil
}

func currentBranchContext(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// pushBranchContext extends the branch-context stack when node is itself
// a conditional construct; the label applies to node's children only.
func pushBranchContext(node *sitter.Node, source []byte, stack []string) []string {
	kind := node.Type()
	switch {
	case strings.Contains(kind, "if"):
		return append(append([]string{}, stack...), "if")
	case strings.Contains(kind, "else"):
		return append(append([]string{}, stack...), "else")
	case strings.Contains(kind, "match_arm") || strings.Contains(kind, "case_clause") || kind == "case":
		pattern := string(source[node.StartByte():node.EndByte()])
		if len(pattern) > 20 {
			pattern = pattern[:20]
		}
		return append(append([]string{}, stack...), "match "+strings.TrimSpace(pattern))
	}
	return stack
}
