package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// CyclomaticComplexity computes McCabe cyclomatic complexity for the
// subtree rooted at node: one base path plus one for every descendant
// whose kind is in the provider's ComplexityNodes set.
func CyclomaticComplexity(node *sitter.Node, provider Provider) int {
	complexity := 1
	decisionKinds := provider.ComplexityNodes()
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if containsKind(decisionKinds, child.Type()) {
				complexity++
			}
			walk(child)
		}
	}
	walk(node)
	return complexity
}

// NestingDepth returns the maximum depth of nested NestingNodes kinds
// within node's subtree, starting at 0 for node itself.
func NestingDepth(node *sitter.Node, provider Provider) int {
	nestingKinds := provider.NestingNodes()
	var walk func(n *sitter.Node, depth int) int
	walk = func(n *sitter.Node, depth int) int {
		max := depth
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			childDepth := depth
			if containsKind(nestingKinds, child.Type()) {
				childDepth++
			}
			if d := walk(child, childDepth); d > max {
				max = d
			}
		}
		return max
	}
	return walk(node, 0)
}
