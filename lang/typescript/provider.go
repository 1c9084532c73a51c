// Package typescript implements the Language Support Layer contract for
// TypeScript, grounded on tree-sitter-typescript's grammar. Visibility is
// export-based rather than naming-convention-based.
package typescript

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	ts_sitter "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// Provider implements lang.Provider for TypeScript.
type Provider struct{}

func init() {
	lang.Default.MustRegister(&Provider{}, "ts")
}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string         { return "typescript" }
func (p *Provider) Extensions() []string { return []string{".ts", ".tsx"} }
func (p *Provider) GrammarName() string  { return "typescript" }
func (p *Provider) Grammar() *sitter.Language {
	return ts_sitter.GetLanguage()
}

func (p *Provider) ContainerKinds() []string {
	return []string{"class_declaration", "interface_declaration"}
}
func (p *Provider) FunctionKinds() []string {
	return []string{"function_declaration", "method_definition"}
}
func (p *Provider) TypeKinds() []string {
	return []string{"class_declaration", "interface_declaration", "enum_declaration", "type_alias_declaration"}
}
func (p *Provider) ImportKinds() []string { return []string{"import_statement"} }

func (p *Provider) ComplexityNodes() []string {
	return []string{
		"if_statement", "for_statement", "for_in_statement", "while_statement",
		"do_statement", "switch_case", "catch_clause", "ternary_expression",
		"binary_expression",
	}
}

func (p *Provider) NestingNodes() []string {
	return []string{
		"if_statement", "for_statement", "for_in_statement", "while_statement",
		"do_statement", "switch_statement", "function_declaration",
		"method_definition", "class_declaration", "arrow_function",
	}
}

func (p *Provider) ScopeCreatingKinds() []string {
	return []string{"arrow_function", "function_expression", "for_statement", "for_in_statement", "statement_block"}
}

func (p *Provider) ControlFlowKinds() []string {
	return []string{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement"}
}

func (p *Provider) PublicSymbolKinds() []string {
	return []string{"export_statement"}
}

func (p *Provider) VisibilityMechanism() model.VisibilityMechanism {
	return model.MechanismExplicitExport
}

func (p *Provider) NodeName(node *sitter.Node, source []byte) (string, bool) {
	if n := node.ChildByFieldName("name"); n != nil {
		return string(source[n.StartByte():n.EndByte()]), true
	}
	return "", false
}

// isExported reports whether node is directly wrapped in an export
// statement (its parent is export_statement).
func isExported(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Type() == "export_statement" {
		return true
	}
	return false
}

func (p *Provider) IsPublic(node *sitter.Node, source []byte) bool {
	return isExported(node)
}

func (p *Provider) GetVisibility(node *sitter.Node, source []byte) model.Visibility {
	if isExported(node) {
		return model.VisibilityPublic
	}
	// Class members: explicit accessibility modifiers take precedence.
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "accessibility_modifier":
			text := string(source[c.StartByte():c.EndByte()])
			switch text {
			case "private":
				return model.VisibilityPrivate
			case "protected":
				return model.VisibilityProtected
			case "public":
				return model.VisibilityPublic
			}
		}
	}
	return model.VisibilityInternal
}

func (p *Provider) ExtractFunction(node *sitter.Node, source []byte, inContainer bool) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	params := "()"
	if pn := node.ChildByFieldName("parameters"); pn != nil {
		params = string(source[pn.StartByte():pn.EndByte()])
	}
	ret := ""
	if rn := node.ChildByFieldName("return_type"); rn != nil {
		ret = string(source[rn.StartByte():rn.EndByte()])
	}

	keyword := "function"
	if node.Type() == "method_definition" {
		keyword = ""
	}
	prefix := strings.TrimSpace(keyword + " " + name)
	signature := strings.TrimSpace(prefix + params + ret)

	kind := model.KindFunction
	if inContainer {
		kind = model.KindMethod
	}

	return &model.Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  signature,
		Docstring:  p.ExtractDocstring(node, source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Visibility: p.GetVisibility(node, source),
	}, true
}

func (p *Provider) ExtractContainer(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	return p.ExtractType(node, source)
}

func (p *Provider) ExtractType(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	kind := model.KindClass
	keyword := "class"
	switch node.Type() {
	case "interface_declaration":
		kind = model.KindInterface
		keyword = "interface"
	case "enum_declaration":
		kind = model.KindEnum
		keyword = "enum"
	case "type_alias_declaration":
		kind = model.KindType
		keyword = "type"
	}

	signature := keyword + " " + name
	if hc := node.ChildByFieldName("heritage"); hc != nil {
		signature += " " + string(source[hc.StartByte():hc.EndByte()])
	}

	return &model.Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  signature,
		Docstring:  p.ExtractDocstring(node, source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Visibility: p.GetVisibility(node, source),
	}, true
}

func (p *Provider) ContainerBody(node *sitter.Node) *sitter.Node {
	return node.ChildByFieldName("body")
}

func (p *Provider) ImplementerName(node *sitter.Node, source []byte) (string, bool) {
	return "", false
}

// ExtractDocstring reads a leading /** ... */ JSDoc block immediately
// preceding the node, stripping leading `*` margins.
func (p *Provider) ExtractDocstring(node *sitter.Node, source []byte) string {
	target := node
	if parent := node.Parent(); parent != nil && parent.Type() == "export_statement" {
		target = parent
	}
	parent := target.Parent()
	if parent == nil {
		return ""
	}
	idx := -1
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if parent.Child(i) == target {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}
	sib := parent.Child(idx - 1)
	if sib == nil || sib.Type() != "comment" {
		return ""
	}
	text := string(source[sib.StartByte():sib.EndByte()])
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, " ")
}

func (p *Provider) ExtractImports(node *sitter.Node, source []byte) []model.Import {
	line := int(node.StartPoint().Row) + 1
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	module := strings.Trim(string(source[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)
	isRelative := strings.HasPrefix(module, ".")

	var names []string
	isWildcard := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			switch c.Type() {
			case "namespace_import":
				isWildcard = true
			case "import_specifier":
				if nm := c.ChildByFieldName("name"); nm != nil {
					names = append(names, string(source[nm.StartByte():nm.EndByte()]))
				}
			default:
				walk(c)
			}
		}
	}
	walk(node)

	return []model.Import{{Module: module, Names: names, IsWildcard: isWildcard, IsRelative: isRelative, Line: line}}
}

func (p *Provider) ExtractExports(node *sitter.Node, source []byte) []model.Export {
	line := int(node.StartPoint().Row) + 1
	var out []model.Export
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		var kind model.Kind
		switch c.Type() {
		case "class_declaration":
			kind = model.KindClass
		case "interface_declaration":
			kind = model.KindInterface
		case "function_declaration":
			kind = model.KindFunction
		case "enum_declaration":
			kind = model.KindEnum
		case "type_alias_declaration":
			kind = model.KindType
		default:
			continue
		}
		if name, ok := p.NodeName(c, source); ok {
			out = append(out, model.Export{Name: name, Kind: kind, Line: line})
		}
	}
	return out
}

func (p *Provider) IsTestSymbol(sym *model.Symbol) bool {
	return strings.HasSuffix(sym.Name, "Test") || strings.HasPrefix(sym.Name, "test")
}

func (p *Provider) FilePathToModuleName(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, ".ts"), ".tsx")
	return trimmed
}

func (p *Provider) IsStdlibImport(module string) bool {
	return false
}

// ModuleNameToPaths returns the file and directory-index shapes a
// specifier can resolve to under Node's module resolution.
func (p *Provider) ModuleNameToPaths(module string) []string {
	return []string{module + ".ts", module + ".tsx", filepath.Join(module, "index.ts")}
}

// ResolveLocalImport resolves relative specifiers ("./", "../") against
// currentFile's directory, and bare specifiers against projectRoot.
func (p *Provider) ResolveLocalImport(importPath, currentFile, projectRoot string) (string, bool) {
	base := projectRoot
	if strings.HasPrefix(importPath, ".") {
		base = filepath.Dir(filepath.Join(projectRoot, currentFile))
	}
	for _, candidate := range p.ModuleNameToPaths(importPath) {
		full := filepath.Join(base, candidate)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, true
		}
	}
	return "", false
}

// ResolveExternalImport looks for importName as a top-level entry under
// projectRoot/node_modules.
func (p *Provider) ResolveExternalImport(importName, projectRoot string) (string, bool) {
	dir := filepath.Join(projectRoot, "node_modules", importName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// FindPackageCache returns projectRoot/node_modules: npm installs
// packages directly into the project rather than a separate content
// cache the way Cargo or pip do.
func (p *Provider) FindPackageCache(projectRoot string) (string, bool) {
	dir := filepath.Join(projectRoot, "node_modules")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// DiscoverPackages lists node_modules' top-level entries, expanding one
// level into scoped packages (@scope/name).
func (p *Provider) DiscoverPackages(projectRoot string) []string {
	cache, ok := p.FindPackageCache(projectRoot)
	if !ok {
		return nil
	}
	entries, err := os.ReadDir(cache)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "@") {
			scoped, err := os.ReadDir(filepath.Join(cache, e.Name()))
			if err != nil {
				continue
			}
			for _, s := range scoped {
				out = append(out, e.Name()+"/"+s.Name())
			}
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out
}
