package ast

// Decl is a top-level (or namespace-member) declaration. Declaration
// Lowering (§4.2) switches on the concrete type.
type Decl interface{ declNode() }

type GlobalDecl struct {
	Name        string
	Const       bool
	Declared    bool // `declare` — imported
	Exported    bool
	Type        *Type // nil if to be inferred
	Initializer Expr  // nil if declared/imported
}

type EnumValueDecl struct {
	Name  string
	Value Expr // nil if implicit
}

type EnumDecl struct {
	Name     string
	Exported bool
	Values   []EnumValueDecl
}

type ParamDecl struct {
	Name    string
	Type    *Type
	Default Expr // nil if required
}

type FunctionDecl struct {
	Name           string
	Exported       bool
	Declared       bool // no body; emitted as an import
	Builtin        bool
	TypeParameters []string
	Params         []ParamDecl
	ThisType       *Type // non-nil for methods
	Return         *Type
	Body           []Stmt // nil if Declared
}

type FieldDecl struct {
	Name        string
	Type        *Type
	Initializer Expr
	Readonly    bool
}

type ClassDecl struct {
	Name           string
	Exported       bool
	TypeParameters []string
	BaseName       string
	Fields         []FieldDecl
	Methods        []FunctionDecl
	Constructor    *FunctionDecl // nil if implicit/absent
	Properties     []PropertyDecl
}

type PropertyDecl struct {
	Name   string
	Type   *Type
	Getter *FunctionDecl
	Setter *FunctionDecl // nil if read-only
}

type NamespaceDecl struct {
	Name     string
	Exported bool
	Members  []Decl
}

type ImportDecl struct {
	FromPath string
	Names    []string // empty = side-effect-only import
}

type ExportDecl struct {
	FromPath string   // "" unless this is a re-export
	Names    []string // local names being exported (or re-exported)
}

func (*GlobalDecl) declNode()    {}
func (*EnumDecl) declNode()      {}
func (*FunctionDecl) declNode()  {}
func (*ClassDecl) declNode()     {}
func (*NamespaceDecl) declNode() {}
func (*ImportDecl) declNode()    {}
func (*ExportDecl) declNode()    {}

// TopLevelStmt wraps a non-declaration statement that appears at the top
// level of a source, destined for the synthetic start function (§4.1).
type TopLevelStmt struct {
	Stmt Stmt
}

func (*TopLevelStmt) declNode() {}
