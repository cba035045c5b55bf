package ast

// Signature describes the callable shape of a function or method: its
// parameter types (not including an implicit `this`), an optional receiver
// type, the return type, how many leading parameters are required (the rest
// carry defaults), and whether a rest parameter is present (rest parameters
// are refused by the lowering engine — see calls.go).
type Signature struct {
	Parameters        []*Type
	ParameterNames    []string
	ParameterDefaults []Expr // nil entry for a required parameter; index-aligned with Parameters
	ThisType          *Type // nil if the signature has no receiver
	Return            *Type
	RequiredParameters int
	HasRest           bool
}

// Arity is the number of operands a direct call site must ultimately supply,
// including a receiver slot when ThisType is non-nil.
func (s *Signature) Arity() int {
	n := len(s.Parameters)
	if s.ThisType != nil {
		n++
	}
	return n
}

// OptionalCount is how many trailing parameters carry a default initializer.
func (s *Signature) OptionalCount() int {
	return len(s.Parameters) - s.RequiredParameters
}

// Equal reports whether two signatures describe an identical callable shape,
// used to validate indirect call sites against the table-index's declared
// type (§4.6).
func (s *Signature) Equal(other *Signature) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if len(s.Parameters) != len(other.Parameters) {
		return false
	}
	for i, p := range s.Parameters {
		if p.Kind != other.Parameters[i].Kind {
			return false
		}
	}
	if (s.ThisType == nil) != (other.ThisType == nil) {
		return false
	}
	if s.ThisType != nil && s.ThisType.Kind != other.ThisType.Kind {
		return false
	}
	return s.Return.Kind == other.Return.Kind
}
