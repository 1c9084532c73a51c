// Package golang implements the Language Support Layer contract for Go,
// grounded on tree-sitter-go's grammar.
package golang

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	golang_sitter "github.com/smacker/go-tree-sitter/golang"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// Provider implements lang.Provider for Go.
type Provider struct{}

func init() {
	lang.Default.MustRegister(&Provider{}, "go")
}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string         { return "go" }
func (p *Provider) Extensions() []string { return []string{".go"} }
func (p *Provider) GrammarName() string  { return "go" }
func (p *Provider) Grammar() *sitter.Language {
	return golang_sitter.GetLanguage()
}

// Go has no lexical container that holds methods (struct bodies hold only
// fields); type_declaration is classified as a type, not a container.
func (p *Provider) ContainerKinds() []string { return nil }
func (p *Provider) FunctionKinds() []string {
	return []string{"function_declaration", "method_declaration"}
}
func (p *Provider) TypeKinds() []string   { return []string{"type_declaration"} }
func (p *Provider) ImportKinds() []string { return []string{"import_declaration"} }

func (p *Provider) ComplexityNodes() []string {
	return []string{
		"if_statement", "for_statement", "expression_switch_statement",
		"type_switch_statement", "communication_clause", "expression_case",
		"default_case", "type_case", "binary_expression",
	}
}

func (p *Provider) NestingNodes() []string {
	return []string{
		"if_statement", "for_statement", "expression_switch_statement",
		"type_switch_statement", "select_statement", "func_literal",
	}
}

func (p *Provider) ScopeCreatingKinds() []string {
	return []string{"for_statement", "func_literal", "block"}
}

func (p *Provider) ControlFlowKinds() []string {
	return []string{"if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement"}
}

func (p *Provider) PublicSymbolKinds() []string {
	return []string{"function_declaration", "method_declaration", "type_declaration", "const_declaration", "var_declaration"}
}

func (p *Provider) VisibilityMechanism() model.VisibilityMechanism {
	return model.MechanismNamingConvention
}

func (p *Provider) NodeName(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "function_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(source[n.StartByte():n.EndByte()]), true
		}
	case "method_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(source[n.StartByte():n.EndByte()]), true
		}
	case "type_declaration":
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			if c := node.Child(i); c != nil && c.Type() == "type_spec" {
				if n := c.ChildByFieldName("name"); n != nil {
					return string(source[n.StartByte():n.EndByte()]), true
				}
			}
		}
	}
	return "", false
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

func (p *Provider) IsPublic(node *sitter.Node, source []byte) bool {
	name, ok := p.NodeName(node, source)
	if !ok {
		return false
	}
	return isExported(name)
}

func (p *Provider) GetVisibility(node *sitter.Node, source []byte) model.Visibility {
	if p.IsPublic(node, source) {
		return model.VisibilityPublic
	}
	return model.VisibilityInternal
}

func (p *Provider) receiverTypeName(node *sitter.Node, source []byte) (string, bool) {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return "", false
	}
	count := int(recv.ChildCount())
	for i := 0; i < count; i++ {
		c := recv.Child(i)
		if c == nil || c.Type() != "parameter_declaration" {
			continue
		}
		t := c.ChildByFieldName("type")
		if t == nil {
			continue
		}
		switch t.Type() {
		case "pointer_type":
			if inner := t.Child(int(t.ChildCount()) - 1); inner != nil {
				return string(source[inner.StartByte():inner.EndByte()]), true
			}
		default:
			return string(source[t.StartByte():t.EndByte()]), true
		}
	}
	return "", false
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
	result := ""
	if rn := node.ChildByFieldName("result"); rn != nil {
		result = " " + string(source[rn.StartByte():rn.EndByte()])
	}

	kind := model.KindFunction
	receiver := ""
	signature := "func " + name + params + result

	if node.Type() == "method_declaration" {
		kind = model.KindMethod
		if recvNode := node.ChildByFieldName("receiver"); recvNode != nil {
			recvText := string(source[recvNode.StartByte():recvNode.EndByte()])
			signature = "func " + recvText + " " + name + params + result
		}
		if rt, ok := p.receiverTypeName(node, source); ok {
			receiver = rt
		}
	}

	sym := &model.Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  strings.TrimRight(signature, " "),
		Docstring:  p.ExtractDocstring(node, source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Visibility: p.GetVisibility(node, source),
		Parent:     receiver,
	}
	return sym, true
}

func (p *Provider) ExtractContainer(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	return nil, false
}

func (p *Provider) ExtractType(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	kind := model.KindType
	var typeSpec *sitter.Node
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if c := node.Child(i); c != nil && c.Type() == "type_spec" {
			typeSpec = c
			break
		}
	}
	signature := "type " + name
	if typeSpec != nil {
		if tn := typeSpec.ChildByFieldName("type"); tn != nil {
			switch tn.Type() {
			case "struct_type":
				kind = model.KindStruct
			case "interface_type":
				kind = model.KindInterface
			}
			text := string(source[tn.StartByte():tn.EndByte()])
			if nl := strings.IndexByte(text, '\n'); nl >= 0 {
				text = text[:nl]
			}
			signature = "type " + name + " " + text
		}
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

func (p *Provider) ContainerBody(node *sitter.Node) *sitter.Node { return nil }

func (p *Provider) ImplementerName(node *sitter.Node, source []byte) (string, bool) {
	return "", false
}

// ExtractDocstring collects the run of adjacent line comments immediately
// preceding the node, Go's idiom for doc comments.
func (p *Provider) ExtractDocstring(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	var idx = -1
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if parent.Child(i) == node {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}

	var lines []string
	prevRow := int(node.StartPoint().Row)
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if sib == nil || sib.Type() != "comment" {
			break
		}
		if prevRow-int(sib.EndPoint().Row) > 1 {
			break
		}
		prevRow = int(sib.StartPoint().Row)
		text := strings.TrimPrefix(string(source[sib.StartByte():sib.EndByte()]), "//")
		lines = append([]string{strings.TrimSpace(text)}, lines...)
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

func (p *Provider) ExtractImports(node *sitter.Node, source []byte) []model.Import {
	line := int(node.StartPoint().Row) + 1
	var imports []model.Import

	var collectSpec func(spec *sitter.Node)
	collectSpec = func(spec *sitter.Node) {
		if spec.Type() != "import_spec" {
			return
		}
		pathNode := spec.ChildByFieldName("path")
		if pathNode == nil {
			return
		}
		path := strings.Trim(string(source[pathNode.StartByte():pathNode.EndByte()]), `"`)
		alias := ""
		if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
			alias = string(source[nameNode.StartByte():nameNode.EndByte()])
		}
		imports = append(imports, model.Import{Module: path, Alias: alias, IsWildcard: alias == "_" || alias == ".", Line: line})
	}

	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "import_spec":
			collectSpec(c)
		case "import_spec_list":
			n := int(c.ChildCount())
			for j := 0; j < n; j++ {
				if s := c.Child(j); s != nil {
					collectSpec(s)
				}
			}
		}
	}
	return imports
}

func (p *Provider) ExtractExports(node *sitter.Node, source []byte) []model.Export {
	name, ok := p.NodeName(node, source)
	if !ok || !isExported(name) {
		return nil
	}
	kind := model.KindFunction
	switch node.Type() {
	case "method_declaration":
		kind = model.KindMethod
	case "type_declaration":
		kind = model.KindType
	case "const_declaration":
		kind = model.KindConstant
	case "var_declaration":
		kind = model.KindVariable
	}
	return []model.Export{{Name: name, Kind: kind, Line: int(node.StartPoint().Row) + 1}}
}

func (p *Provider) IsTestSymbol(sym *model.Symbol) bool {
	return strings.HasPrefix(sym.Name, "Test") || strings.HasPrefix(sym.Name, "Benchmark") || strings.HasPrefix(sym.Name, "Example")
}

func (p *Provider) FilePathToModuleName(path string) string {
	return strings.TrimSuffix(path, ".go")
}

func (p *Provider) IsStdlibImport(module string) bool {
	return !strings.Contains(module, ".")
}

// ModuleNameToPaths inverts FilePathToModuleName: the only candidate is
// module with ".go" appended.
func (p *Provider) ModuleNameToPaths(module string) []string {
	return []string{module + ".go"}
}

// ResolveLocalImport treats importPath as module-root relative, since Go
// import paths inside a module are the module path plus the package's
// directory — currentFile isn't consulted (Go has no "./"-relative
// imports).
func (p *Provider) ResolveLocalImport(importPath, currentFile, projectRoot string) (string, bool) {
	dir := filepath.Join(projectRoot, importPath)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// ResolveExternalImport checks projectRoot/vendor first (the only
// in-tree external package location Go has), falling back to nothing:
// the module cache lives outside the project under GOPATH and isn't
// resolved here.
func (p *Provider) ResolveExternalImport(importName, projectRoot string) (string, bool) {
	dir := filepath.Join(projectRoot, "vendor", importName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// FindPackageCache returns GOPATH/pkg/mod, the Go module cache, falling
// back to $HOME/go/pkg/mod when GOPATH is unset.
func (p *Provider) FindPackageCache(projectRoot string) (string, bool) {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		gopath = filepath.Join(home, "go")
	}
	cache := filepath.Join(gopath, "pkg", "mod")
	if info, err := os.Stat(cache); err == nil && info.IsDir() {
		return cache, true
	}
	return "", false
}

// DiscoverPackages parses vendor/modules.txt's "# module version" header
// lines, when present; Go has no other in-tree package manifest to read.
func (p *Provider) DiscoverPackages(projectRoot string) []string {
	data, err := os.ReadFile(filepath.Join(projectRoot, "vendor", "modules.txt"))
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, "# "); ok && rest != "" {
			out = append(out, strings.TrimSpace(rest))
		}
	}
	return out
}
