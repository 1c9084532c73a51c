// Package python implements the Language Support Layer contract for
// Python, grounded on tree-sitter-python's grammar.
package python

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	python_sitter "github.com/smacker/go-tree-sitter/python"

	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
)

// Provider implements lang.Provider for Python.
type Provider struct{}

func init() {
	lang.Default.MustRegister(&Provider{}, "py3")
}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string          { return "python" }
func (p *Provider) Extensions() []string  { return []string{".py", ".pyi"} }
func (p *Provider) GrammarName() string   { return "python" }
func (p *Provider) Grammar() *sitter.Language {
	return python_sitter.GetLanguage()
}

func (p *Provider) ContainerKinds() []string { return []string{"class_definition"} }
func (p *Provider) FunctionKinds() []string {
	return []string{"function_definition", "async_function_definition"}
}
func (p *Provider) TypeKinds() []string { return []string{"class_definition"} }
func (p *Provider) ImportKinds() []string {
	return []string{"import_statement", "import_from_statement"}
}

func (p *Provider) ComplexityNodes() []string {
	return []string{
		"if_statement", "elif_clause", "for_statement", "while_statement",
		"try_statement", "except_clause", "with_statement", "assert_statement",
		"match_statement", "case_clause", "and", "or", "boolean_operator",
		"conditional_expression", "if_clause",
		"list_comprehension", "dictionary_comprehension", "set_comprehension",
		"generator_expression",
	}
}

func (p *Provider) NestingNodes() []string {
	return []string{
		"if_statement", "for_statement", "while_statement", "try_statement",
		"with_statement", "match_statement", "function_definition",
		"async_function_definition", "class_definition",
	}
}

func (p *Provider) ScopeCreatingKinds() []string {
	return []string{
		"for_statement", "with_statement", "list_comprehension",
		"set_comprehension", "dictionary_comprehension", "generator_expression",
		"lambda",
	}
}

func (p *Provider) ControlFlowKinds() []string {
	return []string{"if_statement", "elif_clause", "else_clause", "for_statement", "while_statement", "try_statement", "except_clause", "match_statement", "case_clause"}
}

func (p *Provider) PublicSymbolKinds() []string {
	return []string{"function_definition", "async_function_definition", "class_definition"}
}

func (p *Provider) VisibilityMechanism() model.VisibilityMechanism {
	return model.MechanismNamingConvention
}

func (p *Provider) NodeName(node *sitter.Node, source []byte) (string, bool) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return "", false
	}
	return string(source[name.StartByte():name.EndByte()]), true
}

func (p *Provider) IsPublic(node *sitter.Node, source []byte) bool {
	name, ok := p.NodeName(node, source)
	if !ok {
		return true
	}
	return !strings.HasPrefix(name, "_") || strings.HasPrefix(name, "__")
}

// GetVisibility implements the dunder/mangled/protected/public rule: dunder
// methods (__x__) are Public, name-mangled (__x) are Private, single
// leading underscore (_x) is Protected, else Public.
func (p *Provider) GetVisibility(node *sitter.Node, source []byte) model.Visibility {
	name, ok := p.NodeName(node, source)
	if !ok {
		return model.VisibilityPublic
	}
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return model.VisibilityPublic
	case strings.HasPrefix(name, "__"):
		return model.VisibilityPrivate
	case strings.HasPrefix(name, "_"):
		return model.VisibilityProtected
	default:
		return model.VisibilityPublic
	}
}

func (p *Provider) ExtractFunction(node *sitter.Node, source []byte, inContainer bool) (*model.Symbol, bool) {
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	isAsync := node.Type() == "async_function_definition"
	prefix := "def"
	if isAsync {
		prefix = "async def"
	}

	params := "()"
	if pn := node.ChildByFieldName("parameters"); pn != nil {
		params = string(source[pn.StartByte():pn.EndByte()])
	}

	returnType := ""
	if rn := node.ChildByFieldName("return_type"); rn != nil {
		returnType = " -> " + string(source[rn.StartByte():rn.EndByte()])
	}

	signature := prefix + " " + name + params + returnType
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
	name, ok := p.NodeName(node, source)
	if !ok {
		return nil, false
	}

	bases := ""
	if sc := node.ChildByFieldName("superclasses"); sc != nil {
		bases = string(source[sc.StartByte():sc.EndByte()])
	}

	signature := "class " + name
	if bases != "" {
		signature += bases
	}

	return &model.Symbol{
		Name:       name,
		Kind:       model.KindClass,
		Signature:  signature,
		Docstring:  p.ExtractDocstring(node, source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Visibility: p.GetVisibility(node, source),
	}, true
}

func (p *Provider) ExtractType(node *sitter.Node, source []byte) (*model.Symbol, bool) {
	return p.ExtractContainer(node, source)
}

func (p *Provider) ContainerBody(node *sitter.Node) *sitter.Node {
	return node.ChildByFieldName("body")
}

func (p *Provider) ImplementerName(node *sitter.Node, source []byte) (string, bool) {
	return "", false
}

// ExtractDocstring handles both the classic grammar (expression_statement >
// string) and the newer one (string directly, with a string_content
// child), falling back to trimming quote characters from the raw text.
func (p *Provider) ExtractDocstring(node *sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first == nil {
		return ""
	}

	var stringNode *sitter.Node
	switch first.Type() {
	case "string":
		stringNode = first
	case "expression_statement":
		if first.ChildCount() > 0 && first.Child(0).Type() == "string" {
			stringNode = first.Child(0)
		}
	}
	if stringNode == nil {
		return ""
	}

	count := int(stringNode.ChildCount())
	for i := 0; i < count; i++ {
		child := stringNode.Child(i)
		if child != nil && child.Type() == "string_content" {
			doc := strings.TrimSpace(string(source[child.StartByte():child.EndByte()]))
			if doc != "" {
				return doc
			}
		}
	}

	text := string(source[stringNode.StartByte():stringNode.EndByte()])
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		text = strings.TrimPrefix(text, q)
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		text = strings.TrimSuffix(text, q)
	}
	return strings.TrimSpace(text)
}

func (p *Provider) ExtractImports(node *sitter.Node, source []byte) []model.Import {
	line := int(node.StartPoint().Row) + 1

	switch node.Type() {
	case "import_statement":
		var imports []model.Import
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "dotted_name":
				imports = append(imports, model.Import{
					Module: string(source[child.StartByte():child.EndByte()]),
					Line:   line,
				})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				imp := model.Import{
					Module: string(source[nameNode.StartByte():nameNode.EndByte()]),
					Line:   line,
				}
				if aliasNode != nil {
					imp.Alias = string(source[aliasNode.StartByte():aliasNode.EndByte()])
				}
				imports = append(imports, imp)
			}
		}
		return imports

	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		module := ""
		var moduleEnd uint32
		if moduleNode != nil {
			module = string(source[moduleNode.StartByte():moduleNode.EndByte()])
			moduleEnd = moduleNode.EndByte()
		}

		text := string(source[node.StartByte():node.EndByte()])
		isRelative := strings.HasPrefix(text, "from .")

		var names []string
		isWildcard := false
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "dotted_name", "identifier":
				if child.StartByte() > moduleEnd {
					names = append(names, string(source[child.StartByte():child.EndByte()]))
				}
			case "aliased_import":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					names = append(names, string(source[nameNode.StartByte():nameNode.EndByte()]))
				}
			case "wildcard_import":
				isWildcard = true
			}
		}

		return []model.Import{{
			Module:     module,
			Names:      names,
			IsWildcard: isWildcard,
			IsRelative: isRelative,
			Line:       line,
		}}
	}
	return nil
}

func (p *Provider) ExtractExports(node *sitter.Node, source []byte) []model.Export {
	line := int(node.StartPoint().Row) + 1
	switch node.Type() {
	case "function_definition", "async_function_definition":
		if name, ok := p.NodeName(node, source); ok && !strings.HasPrefix(name, "_") {
			return []model.Export{{Name: name, Kind: model.KindFunction, Line: line}}
		}
	case "class_definition":
		if name, ok := p.NodeName(node, source); ok && !strings.HasPrefix(name, "_") {
			return []model.Export{{Name: name, Kind: model.KindClass, Line: line}}
		}
	}
	return nil
}

func (p *Provider) IsTestSymbol(sym *model.Symbol) bool {
	return strings.HasPrefix(sym.Name, "test_") || strings.HasPrefix(sym.Name, "Test")
}

func (p *Provider) FilePathToModuleName(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, ".py"), ".pyi")
	return strings.ReplaceAll(trimmed, "/", ".")
}

var stdlibModules = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "typing": true,
	"collections": true, "itertools": true, "functools": true, "pathlib": true,
	"abc": true, "io": true, "math": true, "datetime": true, "logging": true,
	"subprocess": true, "threading": true, "asyncio": true, "unittest": true,
}

func (p *Provider) IsStdlibImport(module string) bool {
	root := module
	if i := strings.IndexByte(module, '.'); i >= 0 {
		root = module[:i]
	}
	return stdlibModules[root]
}

// ModuleNameToPaths returns both shapes a dotted module can take on
// disk: a plain module file, or a package directory's __init__.py.
func (p *Provider) ModuleNameToPaths(module string) []string {
	rel := strings.ReplaceAll(module, ".", "/")
	return []string{rel + ".py", filepath.Join(rel, "__init__.py")}
}

// ResolveLocalImport tries each ModuleNameToPaths candidate relative to
// projectRoot; currentFile isn't consulted since this only handles
// absolute (non-relative) imports.
func (p *Provider) ResolveLocalImport(importPath, currentFile, projectRoot string) (string, bool) {
	for _, candidate := range p.ModuleNameToPaths(importPath) {
		full := filepath.Join(projectRoot, candidate)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, true
		}
	}
	return "", false
}

// ResolveExternalImport looks for importName as a top-level package
// inside the project's virtualenv site-packages, when one is found by
// FindPackageCache.
func (p *Provider) ResolveExternalImport(importName, projectRoot string) (string, bool) {
	cache, ok := p.FindPackageCache(projectRoot)
	if !ok {
		return "", false
	}
	dir := filepath.Join(cache, importName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// FindPackageCache globs for a venv's site-packages directory under
// projectRoot (.venv or venv, any python3.* version directory).
func (p *Provider) FindPackageCache(projectRoot string) (string, bool) {
	for _, venvDir := range []string{".venv", "venv"} {
		matches, err := filepath.Glob(filepath.Join(projectRoot, venvDir, "lib", "python3.*", "site-packages"))
		if err == nil && len(matches) > 0 {
			return matches[0], true
		}
	}
	return "", false
}

// DiscoverPackages lists the top-level entries of the project's
// site-packages directory, when one is found.
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
		if strings.HasSuffix(e.Name(), ".dist-info") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		out = append(out, e.Name())
	}
	return out
}
