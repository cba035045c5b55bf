package ir

// precomputeFold implements the backend's "precompute" pass referenced
// throughout §4.8: it evaluates a straight-line, side-effect-free
// instruction sequence down to a single literal constant where possible.
// This is deliberately conservative — it only folds a body built from
// const pushes and the binary and conversion opcodes foldBinary and
// foldConvert handle, with no control flow, calls, loads or stores, since
// those always have an observable effect or an unknown result. Comparisons,
// unary ops and any other opcode are not folded either. A body it cannot
// reduce is returned unchanged.
func precomputeFold(body []Instruction) []Instruction {
	vals, ok := evalConstStack(body)
	if !ok || len(vals) != 1 {
		return body
	}
	return []Instruction{vals[0]}
}

type constVal struct {
	kind NativeKind
	i32  int32
	i64  int64
	f32  float32
	f64  float64
}

func (v constVal) toInstr() Instruction {
	switch v.kind {
	case NativeI32:
		return I32Const{Value: v.i32}
	case NativeI64:
		return I64Const{Value: v.i64}
	case NativeF32:
		return F32Const{Value: v.f32}
	default:
		return F64Const{Value: v.f64}
	}
}

func constValOf(instr Instruction) (constVal, bool) {
	switch v := instr.(type) {
	case I32Const:
		return constVal{kind: NativeI32, i32: v.Value}, true
	case I64Const:
		return constVal{kind: NativeI64, i64: v.Value}, true
	case F32Const:
		return constVal{kind: NativeF32, f32: v.Value}, true
	case F64Const:
		return constVal{kind: NativeF64, f64: v.Value}, true
	}
	return constVal{}, false
}

// evalConstStack interprets a flat, side-effect-free instruction list as a
// stack machine. It bails (ok=false) the moment it meets an instruction it
// does not fold: control flow, memory, calls, locals/globals, comparisons,
// unary ops, and binary or conversion opcodes outside foldBinary/foldConvert.
func evalConstStack(body []Instruction) ([]Instruction, bool) {
	var stack []constVal
	for _, instr := range body {
		if c, ok := constValOf(instr); ok {
			stack = append(stack, c)
			continue
		}
		switch v := instr.(type) {
		case Binary:
			if len(stack) < 2 {
				return nil, false
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			r, ok := foldBinary(v.Op_, a, b)
			if !ok {
				return nil, false
			}
			stack = append(stack, r)
		case Convert:
			if len(stack) < 1 {
				return nil, false
			}
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			r, ok := foldConvert(v, a)
			if !ok {
				return nil, false
			}
			stack = append(stack, r)
		default:
			// anything else (calls, loads, locals, control flow) is not
			// provably pure/constant; give up on folding this body.
			return nil, false
		}
	}
	out := make([]Instruction, len(stack))
	for i, v := range stack {
		out[i] = v.toInstr()
	}
	return out, true
}

func foldBinary(op Opcode, a, b constVal) (constVal, bool) {
	switch op {
	case OpI32Add:
		return constVal{kind: NativeI32, i32: a.i32 + b.i32}, true
	case OpI32Sub:
		return constVal{kind: NativeI32, i32: a.i32 - b.i32}, true
	case OpI32Mul:
		return constVal{kind: NativeI32, i32: a.i32 * b.i32}, true
	case OpI32And:
		return constVal{kind: NativeI32, i32: a.i32 & b.i32}, true
	case OpI32Or:
		return constVal{kind: NativeI32, i32: a.i32 | b.i32}, true
	case OpI32Xor:
		return constVal{kind: NativeI32, i32: a.i32 ^ b.i32}, true
	case OpI32Shl:
		return constVal{kind: NativeI32, i32: a.i32 << (uint32(b.i32) & 31)}, true
	case OpI32ShrS:
		return constVal{kind: NativeI32, i32: a.i32 >> (uint32(b.i32) & 31)}, true
	case OpI32ShrU:
		return constVal{kind: NativeI32, i32: int32(uint32(a.i32) >> (uint32(b.i32) & 31))}, true
	case OpI64Add:
		return constVal{kind: NativeI64, i64: a.i64 + b.i64}, true
	case OpI64Sub:
		return constVal{kind: NativeI64, i64: a.i64 - b.i64}, true
	case OpI64Mul:
		return constVal{kind: NativeI64, i64: a.i64 * b.i64}, true
	case OpF32Add:
		return constVal{kind: NativeF32, f32: a.f32 + b.f32}, true
	case OpF64Add:
		return constVal{kind: NativeF64, f64: a.f64 + b.f64}, true
	case OpF32Mul:
		return constVal{kind: NativeF32, f32: a.f32 * b.f32}, true
	case OpF64Mul:
		return constVal{kind: NativeF64, f64: a.f64 * b.f64}, true
	}
	return constVal{}, false
}

func foldConvert(c Convert, a constVal) (constVal, bool) {
	switch c.Op_ {
	case OpI32WrapI64:
		return constVal{kind: NativeI32, i32: int32(a.i64)}, true
	case OpI64ExtendI32S:
		return constVal{kind: NativeI64, i64: int64(a.i32)}, true
	case OpI64ExtendI32U:
		return constVal{kind: NativeI64, i64: int64(uint32(a.i32))}, true
	case OpF64PromoteF32:
		return constVal{kind: NativeF64, f64: float64(a.f32)}, true
	case OpF32DemoteF64:
		return constVal{kind: NativeF32, f32: float32(a.f64)}, true
	}
	return constVal{}, false
}

// --- Constant introspection (§6 "constant introspection") ---
//
// Named after binaryen's ExpressionId-style accessors, which is the API
// AssemblyScript itself binds against; the Precompute Bridge uses these to
// read back a folded body's single resulting instruction.

// GetType returns the native type of a constant instruction.
func GetType(instr Instruction) (NativeKind, bool) {
	c, ok := constValOf(instr)
	return c.kind, ok
}

// IsConst reports whether instr is one of I32Const/I64Const/F32Const/F64Const.
func IsConst(instr Instruction) bool {
	_, ok := constValOf(instr)
	return ok
}

func GetI32Value(instr Instruction) (int32, bool) {
	if v, ok := instr.(I32Const); ok {
		return v.Value, true
	}
	return 0, false
}

func GetI64Value(instr Instruction) (int64, bool) {
	if v, ok := instr.(I64Const); ok {
		return v.Value, true
	}
	return 0, false
}

// GetI64Low/GetI64High split a 64-bit constant into two 32-bit halves, for
// hosts (and the JS-hosted reference compiler this spec is modeled on) that
// cannot represent a 64-bit integer natively.
func GetI64Low(v int64) int32  { return int32(v) }
func GetI64High(v int64) int32 { return int32(v >> 32) }

func GetF32Value(instr Instruction) (float32, bool) {
	if v, ok := instr.(F32Const); ok {
		return v.Value, true
	}
	return 0, false
}

func GetF64Value(instr Instruction) (float64, bool) {
	if v, ok := instr.(F64Const); ok {
		return v.Value, true
	}
	return 0, false
}
