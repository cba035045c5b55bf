package ast

// Flags track compilation state mutated by the core on elements shared with
// the Program oracle (§3 invariant 1: COMPILED is set exactly once).
type Flags uint32

const (
	FlagCompiled Flags = 1 << iota
	FlagInlined
	FlagImported
	FlagImportedDeclared // imported via a `declare` statement, as opposed to a re-export
	FlagExported
	FlagConstant
	FlagReadonly
	FlagBuiltin
	FlagTop // declared at top level of a source, eligible for re-export
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// ElementKind tags the variant held by an Element.
type ElementKind uint8

const (
	KindGlobal ElementKind = iota
	KindLocalElem
	KindField
	KindProperty
	KindEnum
	KindEnumValue
	KindFunctionPrototype
	KindFunctionInstance
	KindFunctionTarget
	KindClassPrototype
	KindClassInstance
	KindNamespace
)

// Element is any named, resolved symbol the Program oracle can hand back
// from a resolve* call. Dispatch is by Kind() rather than by interface
// method set, per DESIGN.md's polymorphism-over-elements note: a tagged
// variant keeps cyclic references (class <-> method <-> signature) acyclic
// because every concrete variant is a plain struct, never a virtual method
// table.
type Element interface {
	Kind() ElementKind
	Name() string
	GetFlags() Flags
	SetFlags(Flags)
}

// ConstValue holds a folded scalar: either an integer (sign-extended into
// Int64) or a float, tagged by IsFloat.
type ConstValue struct {
	IsFloat bool
	Int64   int64
	Float64 float64
}

// Variable is the "variable-like" projection shared by Global, Local, Field
// and EnumValue: a static type plus an optional folded constant. Expression
// lowering consults this instead of switching on the concrete kind whenever
// it only needs type + maybe-constant (§4.5 identifier lowering).
type Variable interface {
	Element
	VarType() *Type
	Constant() (ConstValue, bool)
}

// Global is a module-level (or namespaced) variable.
type Global struct {
	InternalName string
	Type         *Type
	Flags        Flags
	FoldedValue  ConstValue // valid iff Flags.Has(FlagInlined)
}

func (g *Global) Kind() ElementKind      { return KindGlobal }
func (g *Global) Name() string           { return g.InternalName }
func (g *Global) GetFlags() Flags        { return g.Flags }
func (g *Global) SetFlags(f Flags)       { g.Flags |= f }
func (g *Global) VarType() *Type         { return g.Type }
func (g *Global) Constant() (ConstValue, bool) {
	return g.FoldedValue, g.Flags.Has(FlagInlined)
}

// Local is a function-scoped slot. Index is -1 for a virtual (const-folded,
// slot-less) local — see statements.go variable-declaration lowering.
type Local struct {
	InternalName string
	Index        int
	Type         *Type
	Flags        Flags
	FoldedValue  ConstValue
}

func (l *Local) Kind() ElementKind { return KindLocalElem }
func (l *Local) Name() string      { return l.InternalName }
func (l *Local) GetFlags() Flags   { return l.Flags }
func (l *Local) SetFlags(f Flags)  { l.Flags |= f }
func (l *Local) VarType() *Type    { return l.Type }
func (l *Local) Constant() (ConstValue, bool) {
	return l.FoldedValue, l.Index < 0
}
func (l *Local) IsVirtual() bool { return l.Index < 0 }

// Field is an instance field of a class, stored at a byte Offset within the
// instance layout.
type Field struct {
	InternalName string
	Type         *Type
	Offset       int
	Flags        Flags
	Initializer  Expr // nil if the field has no inline initializer
}

func (f *Field) Kind() ElementKind { return KindField }
func (f *Field) Name() string      { return f.InternalName }
func (f *Field) GetFlags() Flags   { return f.Flags }
func (f *Field) SetFlags(fl Flags) { f.Flags |= fl }
func (f *Field) VarType() *Type    { return f.Type }
func (f *Field) Constant() (ConstValue, bool) {
	return ConstValue{}, false
}

// Property is an instance accessor backed by getter/setter functions.
type Property struct {
	InternalName string
	Type         *Type
	Getter       *FunctionInstance
	Setter       *FunctionInstance // nil if read-only
	Flags        Flags
}

func (p *Property) Kind() ElementKind { return KindProperty }
func (p *Property) Name() string      { return p.InternalName }
func (p *Property) GetFlags() Flags   { return p.Flags }
func (p *Property) SetFlags(f Flags)  { p.Flags |= f }

// Enum is a namespace of EnumValue members, each an i32 constant (or
// runtime-initialized i32 global, §4.2).
type Enum struct {
	InternalName string
	Values       []*EnumValue
	Flags        Flags
}

func (e *Enum) Kind() ElementKind { return KindEnum }
func (e *Enum) Name() string      { return e.InternalName }
func (e *Enum) GetFlags() Flags   { return e.Flags }
func (e *Enum) SetFlags(f Flags)  { e.Flags |= f }

// EnumValue is one member of an Enum.
type EnumValue struct {
	InternalName string
	Owner        *Enum
	Expr         Expr // nil if implicit (previous + 1, or 0)
	Flags        Flags
	FoldedValue  ConstValue
}

func (v *EnumValue) Kind() ElementKind { return KindEnumValue }
func (v *EnumValue) Name() string      { return v.InternalName }
func (v *EnumValue) GetFlags() Flags   { return v.Flags }
func (v *EnumValue) SetFlags(f Flags)  { v.Flags |= f }
func (v *EnumValue) VarType() *Type    { return I32 }
func (v *EnumValue) Constant() (ConstValue, bool) {
	return v.FoldedValue, v.Flags.Has(FlagInlined)
}

// FunctionPrototype is an unresolved (possibly generic) function declaration.
type FunctionPrototype struct {
	InternalName   string
	TypeParameters []string
	Body           []Stmt
	DeclaredSig    *Signature // with unresolved type-parameter placeholders
	Flags          Flags
	Instances      map[string]*FunctionInstance // keyed by resolved type-argument signature
}

func (p *FunctionPrototype) Kind() ElementKind { return KindFunctionPrototype }
func (p *FunctionPrototype) Name() string      { return p.InternalName }
func (p *FunctionPrototype) GetFlags() Flags   { return p.Flags }
func (p *FunctionPrototype) SetFlags(f Flags)  { p.Flags |= f }

// FunctionInstance is a concrete (possibly instantiated-from-generic)
// function, the unit the lowering engine compiles exactly once (§3
// invariant 1).
type FunctionInstance struct {
	InternalName string
	Prototype    *FunctionPrototype
	Sig          *Signature
	Body         []Stmt
	Flags        Flags
	TableIndex   int // -1 until its address is taken (§4.6, §4.3)
	Owner        *ClassPrototypeInstance
}

func (f *FunctionInstance) Kind() ElementKind { return KindFunctionInstance }
func (f *FunctionInstance) Name() string      { return f.InternalName }
func (f *FunctionInstance) GetFlags() Flags   { return f.Flags }
func (f *FunctionInstance) SetFlags(fl Flags) { f.Flags |= fl }

// FunctionTarget is a reference-typed element (a Local/Global/Field whose
// static type carries a function Signature) used as an indirect-call
// callee.
type FunctionTarget struct {
	InternalName string
	Underlying   Variable
	Sig          *Signature
}

func (t *FunctionTarget) Kind() ElementKind { return KindFunctionTarget }
func (t *FunctionTarget) Name() string      { return t.InternalName }
func (t *FunctionTarget) GetFlags() Flags   { return t.Underlying.GetFlags() }
func (t *FunctionTarget) SetFlags(f Flags)  { t.Underlying.SetFlags(f) }

// ClassPrototype is an unresolved (possibly generic) class declaration.
type ClassPrototype struct {
	InternalName   string
	TypeParameters []string
	BaseName       string
	Fields         []*Field
	Methods        map[string]*FunctionPrototype
	Constructor    *FunctionPrototype
	Flags          Flags
	Instances      map[string]*ClassPrototypeInstance
}

func (c *ClassPrototype) Kind() ElementKind { return KindClassPrototype }
func (c *ClassPrototype) Name() string      { return c.InternalName }
func (c *ClassPrototype) GetFlags() Flags   { return c.Flags }
func (c *ClassPrototype) SetFlags(f Flags)  { c.Flags |= f }

// ClassPrototypeInstance is a concrete (possibly instantiated) class,
// materialized as a type placeholder (§4.2); its existing method and
// constructor instances are lowered when its declaration is lowered, and
// any other instance when a call first reaches it.
type ClassPrototypeInstance struct {
	InternalName string
	Prototype    *ClassPrototype
	Base         *ClassPrototypeInstance
	Fields       []*Field
	InstanceSize int
	Flags        Flags
}

func (c *ClassPrototypeInstance) Kind() ElementKind { return KindClassInstance }
func (c *ClassPrototypeInstance) Name() string      { return c.InternalName }
func (c *ClassPrototypeInstance) GetFlags() Flags   { return c.Flags }
func (c *ClassPrototypeInstance) SetFlags(f Flags)  { c.Flags |= f }

// Namespace groups declarations under a dotted prefix; it carries no
// runtime representation of its own (§4.2).
type Namespace struct {
	InternalName string
	Members      map[string]Element
	Flags        Flags
}

func (n *Namespace) Kind() ElementKind { return KindNamespace }
func (n *Namespace) Name() string      { return n.InternalName }
func (n *Namespace) GetFlags() Flags   { return n.Flags }
func (n *Namespace) SetFlags(f Flags)  { n.Flags |= f }
