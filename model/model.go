// Package model holds the data types shared across the language support
// layer, the symbol index, and the path resolver / query engine.
package model

// Kind is the stable wire representation of a symbol's category.
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindStruct   Kind = "struct"
	KindEnum     Kind = "enum"
	KindTrait    Kind = "trait"
	KindInterface Kind = "interface"
	KindModule   Kind = "module"
	KindType     Kind = "type"
	KindConstant Kind = "constant"
	KindVariable Kind = "variable"
	KindHeading  Kind = "heading"
)

// Visibility is the stable wire representation of a symbol's access level.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
)

// VisibilityMechanism names how a language plug-in decides visibility.
type VisibilityMechanism string

const (
	MechanismExplicitExport    VisibilityMechanism = "explicit_export"
	MechanismAccessModifier    VisibilityMechanism = "access_modifier"
	MechanismNamingConvention  VisibilityMechanism = "naming_convention"
	MechanismHeaderBased       VisibilityMechanism = "header_based"
	MechanismAllPublic         VisibilityMechanism = "all_public"
	MechanismNotApplicable     VisibilityMechanism = "not_applicable"
)

// Symbol is a definition extracted from source by a language plug-in.
type Symbol struct {
	Name       string
	Kind       Kind
	Signature  string
	Docstring  string
	StartLine  int
	EndLine    int
	Visibility Visibility
	Children   []*Symbol
	Parent     string
}

// Import is a module reference extracted from a source file.
type Import struct {
	Module     string
	Names      []string
	Alias      string
	IsWildcard bool
	IsRelative bool
	Line       int
}

// Export names a symbol a language deems externally visible.
type Export struct {
	Name string
	Kind Kind
	Line int
}

// IndexedFile is one row of the SCI's files table.
type IndexedFile struct {
	Path  string
	IsDir bool
	Mtime int64
}

// SymbolRow is one row of the SCI's symbols table.
type SymbolRow struct {
	File      string
	Name      string
	KindStr   string
	StartLine int
	EndLine   int
	Parent    string // empty means NULL
}

// CallEdge is one row of the SCI's calls table.
type CallEdge struct {
	CallerFile   string
	CallerSymbol string
	CalleeName   string
	Line         int
}

// UnifiedTarget is the resolver's output: a file, optionally with a symbol
// path inside it, a raw line/line-range, or a directory.
type UnifiedTarget struct {
	FilePath    string
	SymbolPath  []string
	IsDirectory bool
	LineStart   int // 0 when not a line/range target
	LineEnd     int // equal to LineStart for a single-line target
}

// ViewNode is one node of a skeleton tree.
type ViewNode struct {
	Name       string
	Kind       string // "file" or a Kind string
	Path       string
	Signature  string
	Docstring  string
	StartLine  int
	EndLine    int
	Grammar    string
	Visibility Visibility
	Children   []*ViewNode
}

// TraceEntry is one step of a value-provenance trace.
type TraceEntry struct {
	Variable      string
	Line          int
	Source        string
	FlowsFrom     []string
	IsTerminal    bool
	Calls         []CallRef
	BranchContext string
}

// CallRef names a call found inside a traced expression, resolved against
// symbols defined in the same file when possible.
type CallRef struct {
	Name      string
	Signature string
	StartLine int
	Resolved  bool
}

// SymbolLocation is the whole declaration range of a symbol: from the first
// character of its leading attributes/docstring block to the last character
// of its body.
type SymbolLocation struct {
	StartByte int
	EndByte   int
	StartLine int
	EndLine   int
}

// BodyLocation is the inside of a container, excluding its delimiters.
type BodyLocation struct {
	StartByte int
	EndByte   int
	StartLine int
	EndLine   int
}
