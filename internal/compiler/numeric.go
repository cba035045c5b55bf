package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// nativeType projects a semantic Type onto the IR's WebAssembly value-type
// lattice, honoring the compilation target for isize/usize (§4.4).
func (c *Compiler) nativeType(t *ast.Type) ir.NativeKind {
	return t.Native(c.target)
}

// wrapSmall emits the mask/shift sequence that normalizes an i32-projected
// small-integer result after arithmetic that may have left high bits dirty
// (§4.4 "Small-integer wrap"): i8/i16 by shift-left-then-arithmetic-shift-
// right, u8/u16 by a bitmask, bool by masking to 0x1. wrap instructs
// whether the caller actually wants the normalization performed now or
// will have it performed by the eventual consumer (the "wrap" flag
// threaded through expression lowering, §4.4).
func (c *Compiler) wrapSmall(t *ast.Type, wrap bool, instrs []ir.Instruction) []ir.Instruction {
	if !wrap || !t.IsSmall() {
		return instrs
	}
	switch t.Kind {
	case ast.KindI8:
		instrs = append(instrs, ir.I32Const{Value: 24})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32Shl))
		instrs = append(instrs, ir.I32Const{Value: 24})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32ShrS))
	case ast.KindI16:
		instrs = append(instrs, ir.I32Const{Value: 16})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32Shl))
		instrs = append(instrs, ir.I32Const{Value: 16})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32ShrS))
	case ast.KindU8:
		instrs = append(instrs, ir.I32Const{Value: 0xff})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32And))
	case ast.KindU16:
		instrs = append(instrs, ir.I32Const{Value: 0xffff})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32And))
	case ast.KindBool:
		instrs = append(instrs, ir.I32Const{Value: 0x1})
		instrs = append(instrs, c.b.CreateBinary(ir.OpI32And))
	}
	return instrs
}

// truthy appends the sequence that reduces a value of type t to an i32
// boolean ready for `if`/`br_if`/`&&`/`||` (§4.4, §4.5): non-zero test for
// integers, `!= 0.0` for floats. t must already be the operand's static
// type (no conversion is performed here).
func (c *Compiler) truthy(t *ast.Type, instrs []ir.Instruction) []ir.Instruction {
	switch t.Native(c.target) {
	case ir.NativeI32:
		instrs = append(instrs, c.b.CreateUnary(ir.OpI32Eqz))
		instrs = append(instrs, c.b.CreateUnary(ir.OpI32Eqz))
	case ir.NativeI64:
		instrs = append(instrs, c.b.CreateUnary(ir.OpI64Eqz))
		instrs = append(instrs, c.b.CreateUnary(ir.OpI32Eqz))
	case ir.NativeF32:
		instrs = append(instrs, ir.F32Const{Value: 0})
		instrs = append(instrs, c.b.CreateCompare(ir.OpF32Ne))
	case ir.NativeF64:
		instrs = append(instrs, ir.F64Const{Value: 0})
		instrs = append(instrs, c.b.CreateCompare(ir.OpF64Ne))
	}
	return instrs
}

// commonType unifies two static types for a binary operator (§4.4 "Binary
// arithmetic", reused by switch's per-case equality, §4.3): the wider of
// two numeric kinds in the same family (int/int or float/float), or float
// if one side is float and the other integer. ok is false if no common
// type exists (mismatched class types, or a reference/value mix), in which
// case the caller reports "operator cannot be applied".
func commonType(a, b *ast.Type) (*ast.Type, bool) {
	if a.Kind == b.Kind {
		return a, true
	}
	if a.Kind == ast.KindClass || b.Kind == ast.KindClass || a.Kind == ast.KindVoid || b.Kind == ast.KindVoid {
		return nil, false
	}
	if a.IsFloat() || b.IsFloat() {
		if a.Kind == ast.KindF64 || b.Kind == ast.KindF64 {
			return ast.F64, true
		}
		if a.IsFloat() && b.IsFloat() {
			return ast.F32, true
		}
		// one float, one integer: promote to the float's width.
		if a.IsFloat() {
			return a, true
		}
		return b, true
	}
	// both integer: widen to the higher-ranked kind (integerRank); at equal
	// rank the left operand's kind wins, whatever the right's signedness.
	wa, wb := integerRank(a), integerRank(b)
	if wa >= wb {
		return a, true
	}
	return b, true
}

func integerRank(t *ast.Type) int {
	switch t.Kind {
	case ast.KindBool:
		return 0
	case ast.KindI8, ast.KindU8:
		return 1
	case ast.KindI16, ast.KindU16:
		return 2
	case ast.KindI32, ast.KindU32:
		return 3
	case ast.KindIsize, ast.KindUsize:
		return 4
	case ast.KindI64, ast.KindU64:
		return 5
	}
	return 0
}

// convert inserts the instruction sequence that converts a value already on
// the stack from src to dst, per the conversion matrix in §4.4. wrap
// controls whether a resulting small integer is normalized immediately
// (see wrapSmall). void as src is an internal error (callers never convert
// a void expression); void as dst materializes as a drop.
func (c *Compiler) convert(src, dst *ast.Type, wrap bool, instrs []ir.Instruction) []ir.Instruction {
	if src.Kind == ast.KindVoid {
		panicInternal("convert", "cannot convert from void")
	}
	if dst.Kind == ast.KindVoid {
		return append(instrs, c.b.CreateDrop())
	}
	sn, dn := src.Native(c.target), dst.Native(c.target)

	switch {
	case sn == dn && src.IsFloat() == dst.IsFloat():
		// same native representation; still need a small wrap if the
		// static target type is narrower (e.g. i32 -> u8).
		return c.wrapSmall(dst, wrap, instrs)

	case src.IsFloat() && dst.IsFloat():
		if sn == ir.NativeF32 && dn == ir.NativeF64 {
			return append(instrs, c.b.CreateConvert(ir.OpF64PromoteF32, false))
		}
		return append(instrs, c.b.CreateConvert(ir.OpF32DemoteF64, false))

	case src.IsFloat() && dst.IsInteger():
		instrs = append(instrs, c.b.CreateConvert(truncOpcode(sn, dn, dst.IsSigned()), dst.IsSigned()))
		return c.wrapSmall(dst, wrap, instrs)

	case src.IsInteger() && dst.IsFloat():
		return append(instrs, c.b.CreateConvert(convertOpcode(sn, dn, src.IsSigned()), src.IsSigned()))

	case src.IsInteger() && dst.IsInteger():
		srcLong := src.IsLong(c.target)
		dstLong := dst.IsLong(c.target)
		switch {
		case srcLong && !dstLong:
			instrs = append(instrs, c.b.CreateConvert(ir.OpI32WrapI64, false))
			return c.wrapSmall(dst, wrap, instrs)
		case !srcLong && dstLong:
			op := ir.OpI64ExtendI32U
			if src.IsSigned() {
				op = ir.OpI64ExtendI32S
			}
			return append(instrs, c.b.CreateConvert(op, src.IsSigned()))
		default:
			return c.wrapSmall(dst, wrap, instrs)
		}
	}
	panicInternal("convert", "unreachable conversion from %v to %v", src, dst)
	return instrs
}

func truncOpcode(src, dst ir.NativeKind, signed bool) ir.Opcode {
	if dst == ir.NativeI64 {
		if src == ir.NativeF32 {
			if signed {
				return ir.OpI64TruncF32S
			}
			return ir.OpI64TruncF32U
		}
		if signed {
			return ir.OpI64TruncF64S
		}
		return ir.OpI64TruncF64U
	}
	if src == ir.NativeF32 {
		if signed {
			return ir.OpI32TruncF32S
		}
		return ir.OpI32TruncF32U
	}
	if signed {
		return ir.OpI32TruncF64S
	}
	return ir.OpI32TruncF64U
}

func convertOpcode(src, dst ir.NativeKind, signed bool) ir.Opcode {
	i64 := src == ir.NativeI64
	if dst == ir.NativeF32 {
		if i64 {
			if signed {
				return ir.OpF32ConvertI64S
			}
			return ir.OpF32ConvertI64U
		}
		if signed {
			return ir.OpF32ConvertI32S
		}
		return ir.OpF32ConvertI32U
	}
	if i64 {
		if signed {
			return ir.OpF64ConvertI64S
		}
		return ir.OpF64ConvertI64U
	}
	if signed {
		return ir.OpF64ConvertI32S
	}
	return ir.OpF64ConvertI32U
}

// implicitConvert performs an implicit conversion (used at assignment,
// argument, and return sites) and reports the assignability diagnostic of
// §4.4 without suppressing the emitted conversion — analysis continues
// either way.
func (c *Compiler) implicitConvert(src, dst *ast.Type, wrap bool, where ast.Range, instrs []ir.Instruction) []ir.Instruction {
	if !ast.Assignable(src, dst) {
		c.reportf(where, ast.SeverityError, "type %v is not assignable to type %v", src, dst)
	}
	return c.convert(src, dst, wrap, instrs)
}
