package lang

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rhizome-lab/moss/model"
)

// ExtractSymbols runs the language-agnostic extraction algorithm over a
// parsed CST: container/function/type nodes are built into model.Symbol
// values, containers are recursed into via their body (never re-walked
// generically), and impl-style containers (ImplementerName returning true)
// have their children merged onto the matching top-level type symbol
// instead of appearing as their own top-level entry. A type that receives
// merged children has its line range widened to cover them, so the
// containment invariant checked by model.Symbol.Validate holds.
func ExtractSymbols(root *sitter.Node, source []byte, provider Provider) []*model.Symbol {
	var pending []implCandidate
	top := walkSymbols(root, source, provider, false, &pending)

	byName := make(map[string]*model.Symbol, len(top))
	for _, sym := range top {
		byName[sym.Name] = sym
	}
	for _, cand := range pending {
		if target, ok := byName[cand.implementer]; ok {
			target.Children = append(target.Children, cand.children...)
			for _, c := range cand.children {
				if c.StartLine < target.StartLine {
					target.StartLine = c.StartLine
				}
				if c.EndLine > target.EndLine {
					target.EndLine = c.EndLine
				}
			}
		}
	}

	// Languages whose methods are top-level siblings of their type rather
	// than lexically nested (Go's receiver methods) set Parent directly
	// from ExtractFunction; fold those into the named type here too.
	result := make([]*model.Symbol, 0, len(top))
	for _, sym := range top {
		if sym.Parent != "" {
			if target, ok := byName[sym.Parent]; ok && target != sym {
				target.Children = append(target.Children, sym)
				if sym.StartLine < target.StartLine {
					target.StartLine = sym.StartLine
				}
				if sym.EndLine > target.EndLine {
					target.EndLine = sym.EndLine
				}
				continue
			}
		}
		result = append(result, sym)
	}

	for _, sym := range result {
		if len(sym.Children) > 1 {
			sort.SliceStable(sym.Children, func(i, j int) bool {
				return sym.Children[i].StartLine < sym.Children[j].StartLine
			})
		}
	}
	return result
}

type implCandidate struct {
	implementer string
	children    []*model.Symbol
}

func walkSymbols(node *sitter.Node, source []byte, provider Provider, inContainer bool, pending *[]implCandidate) []*model.Symbol {
	var out []*model.Symbol
	n := int(node.ChildCount())
	for i := 0; i < n; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		kind := child.Type()

		if containsKind(provider.ContainerKinds(), kind) {
			if implementer, isImpl := provider.ImplementerName(child, source); isImpl {
				body := provider.ContainerBody(child)
				var children []*model.Symbol
				if body != nil {
					children = walkSymbols(body, source, provider, true, pending)
				}
				for _, c := range children {
					c.Parent = implementer
				}
				*pending = append(*pending, implCandidate{implementer: implementer, children: children})
				continue
			}

			sym, ok := provider.ExtractContainer(child, source)
			if !ok {
				continue
			}
			body := provider.ContainerBody(child)
			var children []*model.Symbol
			if body != nil {
				children = walkSymbols(body, source, provider, true, pending)
			}
			for _, c := range children {
				c.Parent = sym.Name
			}
			sym.Children = children
			out = append(out, sym)
			continue
		}

		if containsKind(provider.FunctionKinds(), kind) {
			sym, ok := provider.ExtractFunction(child, source, inContainer)
			if ok {
				out = append(out, sym)
			}
			continue
		}

		if containsKind(provider.TypeKinds(), kind) {
			sym, ok := provider.ExtractType(child, source)
			if ok {
				out = append(out, sym)
				continue
			}
		}

		out = append(out, walkSymbols(child, source, provider, inContainer, pending)...)
	}
	return out
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CollectImports walks the whole tree collecting import declarations via
// the provider's ImportKinds/ExtractImports, recursing into every node
// (imports may be nested inside conditional blocks in some languages).
func CollectImports(root *sitter.Node, source []byte, provider Provider) []model.Import {
	var out []model.Import
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if containsKind(provider.ImportKinds(), node.Type()) {
			out = append(out, provider.ExtractImports(node, source)...)
			return
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

// CollectExports walks the whole tree collecting exported symbols via the
// provider's ExtractExports, applied to every node whose kind is in
// PublicSymbolKinds.
func CollectExports(root *sitter.Node, source []byte, provider Provider) []model.Export {
	var out []model.Export
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if containsKind(provider.PublicSymbolKinds(), node.Type()) {
			out = append(out, provider.ExtractExports(node, source)...)
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
