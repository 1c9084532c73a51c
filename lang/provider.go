// Package lang defines the Language Support Layer contract: a uniform
// interface over per-language CST grammars, and the process-wide registry
// that language plug-ins self-register into.
package lang

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rhizome-lab/moss/model"
)

// Provider is the contract every language plug-in implements. Methods that
// feed external collaborators only (package/import mapping) are listed
// last; the core never calls them except through import-resolution
// queries, and a plug-in may implement them as explicit no-ops when the
// language has no package system worth modeling.
type Provider interface {
	// Identity
	Name() string
	Extensions() []string
	GrammarName() string
	Grammar() *sitter.Language

	// Node classification
	ContainerKinds() []string
	FunctionKinds() []string
	TypeKinds() []string
	ImportKinds() []string
	ComplexityNodes() []string
	NestingNodes() []string
	ScopeCreatingKinds() []string
	ControlFlowKinds() []string
	PublicSymbolKinds() []string

	// Visibility model
	VisibilityMechanism() model.VisibilityMechanism
	IsPublic(node *sitter.Node, source []byte) bool
	GetVisibility(node *sitter.Node, source []byte) model.Visibility

	// Extraction — each returns (nil, false) if node is not the expected shape.
	ExtractFunction(node *sitter.Node, source []byte, inContainer bool) (*model.Symbol, bool)
	ExtractContainer(node *sitter.Node, source []byte) (*model.Symbol, bool)
	ExtractType(node *sitter.Node, source []byte) (*model.Symbol, bool)
	ExtractDocstring(node *sitter.Node, source []byte) string
	ExtractImports(node *sitter.Node, source []byte) []model.Import
	ExtractExports(node *sitter.Node, source []byte) []model.Export
	NodeName(node *sitter.Node, source []byte) (string, bool)

	// ContainerBody returns the node whose children are the container's
	// member declarations (e.g. a class_body, or for Rust's impl blocks,
	// the declaration_list).
	ContainerBody(node *sitter.Node) *sitter.Node

	// ImplementerName returns the type name an impl-style container
	// attaches its methods to, when the container is not itself named
	// after a type declaration (Rust "impl Foo { ... }"). Returns ("",
	// false) for languages where containers are always directly named.
	ImplementerName(node *sitter.Node, source []byte) (string, bool)

	// Test-symbol predicate
	IsTestSymbol(sym *model.Symbol) bool

	// Package/import mapping — external-collaborator feed, explicit no-ops
	// are permitted.
	FilePathToModuleName(path string) string
	IsStdlibImport(module string) bool

	// ModuleNameToPaths returns the candidate file paths (relative to a
	// source root) a module/import name could resolve to, most likely
	// first.
	ModuleNameToPaths(module string) []string

	// ResolveLocalImport maps an import string written in currentFile to a
	// path inside projectRoot, returning ("", false) if it doesn't resolve
	// to anything on disk.
	ResolveLocalImport(importPath, currentFile, projectRoot string) (string, bool)

	// ResolveExternalImport maps an import name to its location in the
	// language's package cache/vendor directory under projectRoot,
	// returning ("", false) when it can't be found or the language has no
	// such mechanism.
	ResolveExternalImport(importName, projectRoot string) (string, bool)

	// FindPackageCache returns the language's external-package cache
	// directory for projectRoot (e.g. vendor/, node_modules/, a
	// venv's site-packages), or ("", false) if none is found.
	FindPackageCache(projectRoot string) (string, bool)

	// DiscoverPackages lists the external packages available to
	// projectRoot, as language-specific identifiers (name, or
	// name@version); nil when the language has nothing to discover.
	DiscoverPackages(projectRoot string) []string
}
