package ast

// Program is the external oracle (§1, §6): a fully parsed and
// semantically-resolved program model providing symbol tables, type
// resolution, member resolution, generic instantiation and
// operator-overload bookkeeping. The lowering engine only ever reads from
// it and flips compilation-state Flags on the Elements it hands back; it
// never mutates symbol tables itself.
type Program interface {
	// Elements is the full table of internal-name -> Element known to the
	// program, across all sources.
	Elements() map[string]Element

	// Exports is the internal-export-name -> Element table for a given
	// normalized source path (only meaningful for top-level exports).
	Exports(sourcePath string) map[string]Element

	// Sources returns every translation unit, in a stable order.
	Sources() []*Source

	// ResolveType resolves a type annotation, optionally substituting
	// contextual type arguments for an enclosing generic declaration.
	// Returns ok=false and reports a diagnostic through the sink on
	// failure; it never panics on a semantic error.
	ResolveType(node TypeNode, contextualArgs []*Type) (typ *Type, ok bool)

	// ResolveExpression resolves a general expression (identifier,
	// property access, element access, or call target) to an Element and,
	// when the expression is a member access, the target sub-expression
	// and whether that target is an instance (vs. a static/class
	// reference).
	ResolveExpression(expr Expr, currentFunction *FunctionInstance) (ResolvedExpr, bool)

	// ResolveIdentifier resolves a bare identifier in the context of the
	// current function and (if inside an enum initializer) the current
	// enum, honoring lexical scoping rules the oracle owns.
	ResolveIdentifier(expr *IdentifierExpr, currentFunction *FunctionInstance, currentEnum *Enum) (ResolvedExpr, bool)

	// ResolvePropertyAccess and ResolveElementAccess follow the same
	// result shape as ResolveExpression but are split out because member
	// resolution and indexed-operator resolution have distinct failure
	// modes (missing member vs. missing `[]`/`[]=` operator overload).
	ResolvePropertyAccess(expr *PropertyAccessExpr, currentFunction *FunctionInstance) (ResolvedExpr, bool)
	ResolveElementAccess(expr *ElementAccessExpr, currentFunction *FunctionInstance, forAssignment bool) (ResolvedExpr, bool)

	// ResolvePrototype instantiates a generic FunctionPrototype or
	// ClassPrototype with concrete type arguments, caching and returning
	// the same instance for repeated calls with an equal argument list
	// (mirrors `prototype.resolveUsingTypeArguments` in §6).
	ResolvePrototype(proto Element, typeArgs []*Type, reportRange Range) (instance Element, ok bool)

	// Diagnostics returns the sink the oracle itself reports resolution
	// errors to; the lowering engine shares this sink for its own
	// diagnostics (§7).
	Diagnostics() DiagnosticSink
}

// TypeNode is an unresolved (surface-syntax) type annotation; its concrete
// shape belongs to the parser, which is out of scope. The core never
// constructs one, only passes through whatever Program attaches to a
// GlobalDecl/ParamDecl/FieldDecl's Type fields that are still unresolved.
type TypeNode interface{ typeNode() }

// ResolvedExpr is the result of resolving a member/identifier/call target.
type ResolvedExpr struct {
	Elem             Element
	Target           Expr // the base expression of a property/element access, if any
	TargetType       *Type
	IsInstanceTarget bool
}

// Severity classifies a Diagnostic (§7).
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Diagnostic is one reported finding.
type Diagnostic struct {
	Severity Severity
	Message  string
	Where    Range
}

// DiagnosticSink is the external collaborator errors/warnings/info are
// reported through (§1, §7). The core never aborts a compile on a semantic
// diagnostic; it keeps going and leaves a trap/placeholder at the site.
type DiagnosticSink interface {
	Report(Diagnostic)
}
