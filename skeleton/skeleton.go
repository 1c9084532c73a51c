// Package skeleton builds the file-level ViewNode tree spec.md's view
// operation returns: a file root whose children are top-level symbols,
// each carrying its own children, plus composable filter projections.
package skeleton

import (
	"context"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// typeLikeKinds are the kinds FilterTypes retains.
var typeLikeKinds = map[model.Kind]bool{
	model.KindClass:     true,
	model.KindStruct:    true,
	model.KindEnum:      true,
	model.KindTrait:     true,
	model.KindInterface: true,
	model.KindType:      true,
	model.KindModule:    true,
}

// Build parses source with provider and returns a file ViewNode whose
// children are its top-level symbols (each recursively carrying its own
// children), via lang.ExtractSymbols.
func Build(provider lang.Provider, path string, source []byte) (*model.ViewNode, error) {
	tree, err := lang.DefaultPool.Parse(context.Background(), provider, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	symbols := lang.ExtractSymbols(tree.RootNode(), source, provider)

	root := &model.ViewNode{
		Name:    path,
		Kind:    "file",
		Path:    path,
		Grammar: provider.GrammarName(),
	}
	for _, sym := range symbols {
		root.Children = append(root.Children, symbolToViewNode(sym, path, provider))
	}
	return root, nil
}

func symbolToViewNode(sym *model.Symbol, path string, provider lang.Provider) *model.ViewNode {
	node := &model.ViewNode{
		Name:       sym.Name,
		Kind:       string(sym.Kind),
		Path:       path,
		Signature:  sym.Signature,
		Docstring:  sym.Docstring,
		StartLine:  sym.StartLine,
		EndLine:    sym.EndLine,
		Grammar:    provider.GrammarName(),
		Visibility: sym.Visibility,
	}
	for _, child := range sym.Children {
		node.Children = append(node.Children, symbolToViewNode(child, path, provider))
	}
	return node
}

// FilterTypes retains only type-like nodes (and the file root); for each
// retained type, only its type-like children survive — methods are
// stripped. Returns a new tree; the input is untouched.
func FilterTypes(root *model.ViewNode) *model.ViewNode {
	clone := shallowClone(root)
	for _, child := range root.Children {
		if typeLikeKinds[model.Kind(child.Kind)] {
			clone.Children = append(clone.Children, filterTypeChildren(child))
		}
	}
	return clone
}

func filterTypeChildren(node *model.ViewNode) *model.ViewNode {
	clone := shallowClone(node)
	for _, child := range node.Children {
		if typeLikeKinds[model.Kind(child.Kind)] {
			clone.Children = append(clone.Children, filterTypeChildren(child))
		}
	}
	return clone
}

// FilterPublic retains only symbols (at every depth) whose Visibility is
// Public. The file root itself is always kept.
func FilterPublic(root *model.ViewNode) *model.ViewNode {
	clone := shallowClone(root)
	for _, child := range root.Children {
		if filtered := filterPublicNode(child); filtered != nil {
			clone.Children = append(clone.Children, filtered)
		}
	}
	return clone
}

func filterPublicNode(node *model.ViewNode) *model.ViewNode {
	if node.Visibility != model.VisibilityPublic {
		return nil
	}
	clone := shallowClone(node)
	for _, child := range node.Children {
		if filtered := filterPublicNode(child); filtered != nil {
			clone.Children = append(clone.Children, filtered)
		}
	}
	return clone
}

func shallowClone(node *model.ViewNode) *model.ViewNode {
	c := *node
	c.Children = nil
	return &c
}
