// Package rust implements the Language Support Layer contract for Rust,
// grounded on tree-sitter-rust's grammar. Rust associates methods with
// their type through separate impl blocks rather than lexical nesting;
// ImplementerName is where that association happens (see lang.ExtractSymbols).
package rust

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	rust_sitter "github.com/smacker/go-tree-sitter/rust"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// Provider implements lang.Provider for Rust.
type Provider struct{}

func init() {
	lang.Default.MustRegister(&Provider{})
}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string         { return "rust" }
func (p *Provider) Extensions() []string { return []string{".rs"} }
func (p *Provider) GrammarName() string  { return "rust" }
func (p *Provider) Grammar() *sitter.Language {
	return rust_sitter.GetLanguage()
}

func (p *Provider) ContainerKinds() []string {
	return []string{"impl_item", "trait_item", "mod_item"}
}
func (p *Provider) FunctionKinds() []string { return []string{"function_item"} }
func (p *Provider) TypeKinds() []string {
	return []string{"struct_item", "enum_item", "trait_item"}
}
func (p *Provider) ImportKinds() []string { return []string{"use_declaration"} }

func (p *Provider) ComplexityNodes() []string {
	return []string{
		"if_expression", "if_let_expression", "while_expression",
		"while_let_expression", "loop_expression", "for_expression",
		"match_arm", "binary_expression", "try_expression",
	}
}

func (p *Provider) NestingNodes() []string {
	return []string{
		"if_expression", "while_expression", "loop_expression",
		"for_expression", "match_expression", "function_item",
		"impl_item", "closure_expression",
	}
}

func (p *Provider) ScopeCreatingKinds() []string {
	return []string{"for_expression", "closure_expression", "block"}
}

func (p *Provider) ControlFlowKinds() []string {
	return []string{"if_expression", "if_let_expression", "match_expression", "while_expression", "loop_expression", "for_expression"}
}

func (p *Provider) PublicSymbolKinds() []string {
	return []string{"function_item", "struct_item", "enum_item", "trait_item", "const_item", "static_item"}
}

func (p *Provider) VisibilityMechanism() model.VisibilityMechanism {
	return model.MechanismAccessModifier
}

func (p *Provider) NodeName(node *sitter.Node, source []byte) (string, bool) {
	if node.Type() == "impl_item" {
		if t := node.ChildByFieldName("type"); t != nil {
			return string(source[t.StartByte():t.EndByte()]), true
		}
		return "", false
	}
	if n := node.ChildByFieldName("name"); n != nil {
		return string(source[n.StartByte():n.EndByte()]), true
	}
	return "", false
}

func hasPubModifier(node *sitter.Node) bool {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if c := node.Child(i); c != nil && c.Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func (p *Provider) IsPublic(node *sitter.Node, source []byte) bool {
	return hasPubModifier(node)
}

func (p *Provider) GetVisibility(node *sitter.Node, source []byte) model.Visibility {
	if hasPubModifier(node) {
		return model.VisibilityPublic
	}
	return model.VisibilityPrivate
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return strings.TrimSpace(text)
}

func (p *Provider) ExtractFunction(node *sitter.Node, source []byte, inContainer bool) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	prefix := ""
	if hasPubModifier(node) {
		prefix = "pub "
	}
	params := "()"
	if pn := node.ChildByFieldName("parameters"); pn != nil {
		params = string(source[pn.StartByte():pn.EndByte()])
	}
	ret := ""
	if rn := node.ChildByFieldName("return_type"); rn != nil {
		ret = " -> " + string(source[rn.StartByte():rn.EndByte()])
	}

	signature := prefix + "fn " + name + params + ret
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
	switch node.Type() {
	case "trait_item":
		return p.ExtractType(node, source)
	case "mod_item":
		name, ok := p.NodeName(node, source)
		if !ok {
			return nil, false
		}
		prefix := ""
		if hasPubModifier(node) {
			prefix = "pub "
		}
		return &model.Symbol{
			Name:       name,
			Kind:       model.KindModule,
			Signature:  prefix + "mod " + name,
			Docstring:  p.ExtractDocstring(node, source),
			StartLine:  int(node.StartPoint().Row) + 1,
			EndLine:    int(node.EndPoint().Row) + 1,
			Visibility: p.GetVisibility(node, source),
		}, true
	}
	return nil, false
}

func (p *Provider) ExtractType(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	kind := model.KindStruct
	keyword := "struct"
	switch node.Type() {
	case "enum_item":
		kind = model.KindEnum
		keyword = "enum"
	case "trait_item":
		kind = model.KindTrait
		keyword = "trait"
	}

	prefix := ""
	if hasPubModifier(node) {
		prefix = "pub "
	}

	signature := prefix + keyword + " " + name
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		signature += string(source[tp.StartByte():tp.EndByte()])
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

// ImplementerName reports the Self type name for inherent and trait impl
// blocks, so ExtractSymbols can merge the impl's methods onto the
// matching struct/enum instead of emitting the impl block itself.
func (p *Provider) ImplementerName(node *sitter.Node, source []byte) (string, bool) {
	if node.Type() != "impl_item" {
		return "", false
	}
	t := node.ChildByFieldName("type")
	if t == nil {
		return "", false
	}
	return string(source[t.StartByte():t.EndByte()]), true
}

// ExtractDocstring collects adjacent `///` or `//!` line-comment runs
// immediately preceding the node.
func (p *Provider) ExtractDocstring(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	idx := -1
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
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if sib == nil || sib.Type() != "line_comment" {
			break
		}
		text := string(source[sib.StartByte():sib.EndByte()])
		if !strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "//!") {
			break
		}
		text = strings.TrimPrefix(strings.TrimPrefix(text, "///"), "//!")
		lines = append([]string{strings.TrimSpace(text)}, lines...)
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

func (p *Provider) ExtractImports(node *sitter.Node, source []byte) []model.Import {
	line := int(node.StartPoint().Row) + 1
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}
	text := string(source[arg.StartByte():arg.EndByte()])
	module := firstLine(text)
	isWildcard := strings.HasSuffix(strings.TrimSpace(text), "*")
	return []model.Import{{Module: module, IsWildcard: isWildcard, Line: line}}
}

func (p *Provider) ExtractExports(node *sitter.Node, source []byte) []model.Export {
	if !hasPubModifier(node) {
		return nil
	}
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil
	}
	kind := model.KindFunction
	switch node.Type() {
	case "struct_item":
		kind = model.KindStruct
	case "enum_item":
		kind = model.KindEnum
	case "trait_item":
		kind = model.KindTrait
	case "const_item", "static_item":
		kind = model.KindConstant
	}
	return []model.Export{{Name: name, Kind: kind, Line: int(node.StartPoint().Row) + 1}}
}

func (p *Provider) IsTestSymbol(sym *model.Symbol) bool {
	return strings.HasPrefix(sym.Name, "test_")
}

func (p *Provider) FilePathToModuleName(path string) string {
	trimmed := strings.TrimSuffix(path, ".rs")
	trimmed = strings.TrimSuffix(trimmed, "/mod")
	return strings.ReplaceAll(trimmed, "/", "::")
}

func (p *Provider) IsStdlibImport(module string) bool {
	return strings.HasPrefix(module, "std::") || strings.HasPrefix(module, "core::") || strings.HasPrefix(module, "alloc::")
}

// ModuleNameToPaths converts a "::"-separated path to the two shapes a
// Rust module can take on disk: a plain file, or a directory's mod.rs.
func (p *Provider) ModuleNameToPaths(module string) []string {
	rel := strings.ReplaceAll(module, "::", "/")
	return []string{rel + ".rs", filepath.Join(rel, "mod.rs")}
}

// ResolveLocalImport resolves importPath against projectRoot/src, where
// Cargo's default module tree root lives; currentFile isn't consulted
// since Rust "use" paths are crate-root relative, not file relative.
func (p *Provider) ResolveLocalImport(importPath, currentFile, projectRoot string) (string, bool) {
	for _, candidate := range p.ModuleNameToPaths(importPath) {
		full := filepath.Join(projectRoot, "src", candidate)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, true
		}
	}
	return "", false
}

// ResolveExternalImport looks for importName under projectRoot/vendor,
// where "cargo vendor" places crates; the registry cache is not
// consulted.
func (p *Provider) ResolveExternalImport(importName, projectRoot string) (string, bool) {
	dir := filepath.Join(projectRoot, "vendor", importName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// FindPackageCache returns the first entry under CARGO_HOME/registry/src
// (the per-registry source directory), with CARGO_HOME falling back to
// $HOME/.cargo.
func (p *Provider) FindPackageCache(projectRoot string) (string, bool) {
	cargoHome := os.Getenv("CARGO_HOME")
	if cargoHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		cargoHome = filepath.Join(home, ".cargo")
	}
	matches, err := filepath.Glob(filepath.Join(cargoHome, "registry", "src", "*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// DiscoverPackages scans Cargo.lock for "name = \"...\"" lines inside
// [[package]] tables; a hand-rolled scan rather than a TOML parse since
// only the name field is needed and Cargo.lock's shape is stable.
func (p *Provider) DiscoverPackages(projectRoot string) []string {
	data, err := os.ReadFile(filepath.Join(projectRoot, "Cargo.lock"))
	if err != nil {
		return nil
	}
	var out []string
	inPackage := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "[[package]]":
			inPackage = true
		case strings.HasPrefix(line, "["):
			inPackage = false
		case inPackage && strings.HasPrefix(line, "name = "):
			out = append(out, strings.Trim(strings.TrimPrefix(line, "name = "), `"`))
			inPackage = false
		}
	}
	return out
}
