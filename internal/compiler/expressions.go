package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// lowerExpr lowers one expression (§4.4, §4.5) and returns its instruction
// sequence along with its static type. wrap asks for small-integer results
// to be normalized immediately rather than left to the eventual consumer
// (§4.4 "wrap"); most call sites pass true except when the result is known
// to be immediately consumed by something that doesn't care about the dirty
// high bits (e.g. the discriminant of a truthiness test).
func (c *Compiler) lowerExpr(expr ast.Expr, wrap bool) ([]ir.Instruction, *ast.Type) {
	switch e := expr.(type) {
	case *ast.IntegerLiteralExpr:
		return c.lowerIntegerLiteral(e)
	case *ast.FloatLiteralExpr:
		return []ir.Instruction{c.b.CreateF64(e.Value)}, ast.F64
	case *ast.StringLiteralExpr:
		return c.lowerStringLiteral(e)
	case *ast.TrueExpr:
		return []ir.Instruction{c.b.CreateI32(1)}, ast.Bool
	case *ast.FalseExpr:
		return []ir.Instruction{c.b.CreateI32(0)}, ast.Bool
	case *ast.NullExpr:
		return []ir.Instruction{c.b.CreateI32(0)}, &ast.Type{Kind: ast.KindClass}
	case *ast.IdentifierExpr:
		return c.lowerIdentifier(e)
	case *ast.ThisExpr:
		return c.lowerThis(e)
	case *ast.SuperExpr:
		panicInternal("lowerExpr", "bare `super` is only valid as a constructor call target")
	case *ast.PropertyAccessExpr:
		return c.lowerPropertyAccess(e)
	case *ast.ElementAccessExpr:
		return c.lowerElementAccess(e)
	case *ast.CallExpr:
		return c.lowerCall(e)
	case *ast.NewExpr:
		return c.lowerNew(e)
	case *ast.UnaryExpr:
		return c.lowerUnary(e, wrap)
	case *ast.BinaryExpr:
		return c.lowerBinary(e, wrap)
	case *ast.TernaryExpr:
		return c.lowerTernary(e, wrap)
	case *ast.AssignmentExpr:
		return c.lowerAssignment(e, wrap)
	case *ast.ArrayLiteralExpr:
		panicInternal("lowerExpr", "array literals require a backing collection class, not implemented in the core lowering engine")
	}
	panicInternal("lowerExpr", "unhandled expression %T", expr)
	return nil, ast.Void
}

func (c *Compiler) lowerIntegerLiteral(e *ast.IntegerLiteralExpr) ([]ir.Instruction, *ast.Type) {
	v := int64(e.Value)
	if e.Negative {
		v = -v
	}
	if v >= -(1<<31) && v < (1<<31) {
		return []ir.Instruction{c.b.CreateI32(int32(v))}, ast.I32
	}
	return []ir.Instruction{c.b.CreateI64(v)}, ast.I64
}

// lowerStringLiteral interns the literal into static memory (§4.8) and
// pushes its byte offset as a `usize` pointer: an i32 constant on wasm32,
// an i64 constant on wasm64. The data it points at (a u32 code-unit
// length prefix followed by UTF-16LE code units, §4.5 scenario 5) has the
// same layout on either target.
func (c *Compiler) lowerStringLiteral(e *ast.StringLiteralExpr) ([]ir.Instruction, *ast.Type) {
	off := c.mem.internString(e.Value)
	if c.target.PointerBits == 64 {
		return []ir.Instruction{c.b.CreateI64(int64(off))}, ast.Usize
	}
	return []ir.Instruction{c.b.CreateI32(int32(off))}, ast.Usize
}

// lowerIdentifier resolves a bare name (§4.5 "Identifier lowering"): a
// lexically-scoped local (real or virtual/const-folded) takes priority over
// the Program oracle's module-level resolution, matching ordinary lexical
// shadowing.
func (c *Compiler) lowerIdentifier(e *ast.IdentifierExpr) ([]ir.Instruction, *ast.Type) {
	if local, ok := c.flow.LookupLocal(e.Name); ok {
		return c.readVariable(local, e.Range())
	}

	resolved, ok := c.program.ResolveIdentifier(e, c.curFnInst, c.curEnum)
	if !ok {
		return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
	}
	return c.readElement(resolved.Elem, e.Range())
}

func (c *Compiler) lowerThis(e *ast.ThisExpr) ([]ir.Instruction, *ast.Type) {
	if c.curFnInst == nil || c.curFnInst.Sig.ThisType == nil {
		panicInternal("lowerThis", "`this` referenced outside of a method")
	}
	return []ir.Instruction{c.b.GetLocal(0)}, c.curFnInst.Sig.ThisType
}

// readVariable reads a Variable-shaped element: a real local materializes a
// local.get, a virtual (const-folded) local or global pushes its folded
// constant directly, per §4.5.
func (c *Compiler) readVariable(v ast.Variable, where ast.Range) ([]ir.Instruction, *ast.Type) {
	if cv, ok := v.Constant(); ok {
		return c.pushConst(cv, v.VarType()), v.VarType()
	}
	switch e := v.(type) {
	case *ast.Local:
		return []ir.Instruction{c.b.GetLocal(uint32(e.Index))}, e.Type
	case *ast.Global:
		idx, ok := c.globalIdx(e.InternalName)
		if !ok {
			panicInternal("readVariable", "global %s referenced before being lowered", e.InternalName)
		}
		return []ir.Instruction{c.b.GetGlobal(idx)}, e.Type
	case *ast.EnumValue:
		idx, ok := c.globalIdx(e.InternalName)
		if !ok {
			panicInternal("readVariable", "enum value %s referenced before being lowered", e.InternalName)
		}
		return []ir.Instruction{c.b.GetGlobal(idx)}, ast.I32
	}
	panicInternal("readVariable", "unsupported variable kind %T", v)
	return nil, ast.Void
}

// readElement reads any resolved Element, including the non-Variable kinds
// a bare identifier or property access may resolve to (a function
// reference taken as a value, for instance, §4.6).
func (c *Compiler) readElement(elem ast.Element, where ast.Range) ([]ir.Instruction, *ast.Type) {
	switch e := elem.(type) {
	case *ast.Local, *ast.Global, *ast.EnumValue:
		return c.readVariable(elem.(ast.Variable), where)
	case *ast.FunctionInstance:
		c.compileFunction(e)
		fnIdx, _ := c.b.FunctionIndex(e.InternalName)
		tableIdx := c.table.elementOf(fnIdx)
		e.TableIndex = int(tableIdx)
		return []ir.Instruction{c.b.CreateI32(int32(tableIdx))}, &ast.Type{Kind: ast.KindFunction, Sig: e.Sig}
	case *ast.FunctionTarget:
		return c.readVariable(e.Underlying, where)
	}
	panicInternal("readElement", "cannot read element %T as a value", elem)
	return nil, ast.Void
}

func (c *Compiler) pushConst(cv ast.ConstValue, t *ast.Type) []ir.Instruction {
	switch t.Native(c.target) {
	case ir.NativeI64:
		return []ir.Instruction{c.b.CreateI64(cv.Int64)}
	case ir.NativeF32:
		return []ir.Instruction{c.b.CreateF32(float32(cv.Float64))}
	case ir.NativeF64:
		return []ir.Instruction{c.b.CreateF64(cv.Float64)}
	default:
		return []ir.Instruction{c.b.CreateI32(int32(cv.Int64))}
	}
}

// globalIndex resolves a Global element's already-assigned wasm index by
// its mangled name. Lowering order guarantees every referenced global was
// declared before first use under tree-shaking's reachable-closure walk;
// NoTreeShaking instead lowers every declaration regardless of reference
// order, which is why globals that are forward-referenced still resolve —
// the Driver eagerly lowers every GlobalDecl in pass order before any
// function body that could reference it gets compiled lazily through calls.
func (c *Compiler) globalIndex(g *ast.Global) (uint32, bool) {
	return c.globalIdx(g.InternalName)
}

func (c *Compiler) globalIdx(name string) (uint32, bool) {
	mod := c.b.Module()
	var importGlobals uint32
	for _, imp := range mod.Imports {
		if imp.Kind == ir.ImportGlobal {
			if imp.Name == name {
				return importGlobals, true
			}
			importGlobals++
		}
	}
	for i, g := range mod.Globals {
		if g.Name == name {
			return importGlobals + uint32(i), true
		}
	}
	return 0, false
}

// lowerPropertyAccess lowers `target.member` (§4.5): either a field load
// (through the class instance pointer plus the field's byte Offset) or a
// property-accessor call (getter invocation).
func (c *Compiler) lowerPropertyAccess(e *ast.PropertyAccessExpr) ([]ir.Instruction, *ast.Type) {
	resolved, ok := c.program.ResolvePropertyAccess(e, c.curFnInst)
	if !ok {
		return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
	}
	switch m := resolved.Elem.(type) {
	case *ast.Field:
		targetInstrs, _ := c.lowerExpr(resolved.Target, true)
		loadOp := loadOpcode(m.Type, c.target)
		out := append(targetInstrs, c.b.CreateLoad(loadOp, int32(m.Offset), alignOf(m.Type)))
		return out, m.Type
	case *ast.Property:
		if m.Getter == nil {
			panicInternal("lowerPropertyAccess", "property %s has no getter", m.InternalName)
		}
		targetInstrs, _ := c.lowerExpr(resolved.Target, true)
		return c.emitDirectCall(m.Getter, targetInstrs, nil, e.Range())
	}
	panicInternal("lowerPropertyAccess", "unsupported member kind %T", resolved.Elem)
	return nil, ast.Void
}

// lowerElementAccess lowers `target[index]` (§4.5) through the resolved
// `[]` operator overload — indexed access always desugars to a method call
// in this language (there is no raw array type in the core model), per
// §1's "class-based" framing.
func (c *Compiler) lowerElementAccess(e *ast.ElementAccessExpr) ([]ir.Instruction, *ast.Type) {
	resolved, ok := c.program.ResolveElementAccess(e, c.curFnInst, false)
	if !ok {
		return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
	}
	fn, ok := resolved.Elem.(*ast.FunctionInstance)
	if !ok {
		panicInternal("lowerElementAccess", "indexed access did not resolve to an operator method")
	}
	targetInstrs, _ := c.lowerExpr(resolved.Target, true)
	idxInstrs, idxType := c.lowerExpr(e.Index, true)
	idxInstrs = c.implicitConvert(idxType, fn.Sig.Parameters[0], true, e.Index.Range(), idxInstrs)
	return c.emitDirectCall(fn, targetInstrs, idxInstrs, e.Range())
}

func loadOpcode(t *ast.Type, target *ast.Target) ir.Opcode {
	switch t.Kind {
	case ast.KindI8:
		return ir.OpI32Load8S
	case ast.KindU8, ast.KindBool:
		return ir.OpI32Load8U
	case ast.KindI16:
		return ir.OpI32Load16S
	case ast.KindU16:
		return ir.OpI32Load16U
	}
	switch t.Native(target) {
	case ir.NativeI64:
		return ir.OpI64Load
	case ir.NativeF32:
		return ir.OpF32Load
	case ir.NativeF64:
		return ir.OpF64Load
	default:
		return ir.OpI32Load
	}
}

func storeOpcode(t *ast.Type, target *ast.Target) ir.Opcode {
	switch t.Kind {
	case ast.KindI8, ast.KindU8, ast.KindBool:
		return ir.OpI32Store8
	case ast.KindI16, ast.KindU16:
		return ir.OpI32Store16
	}
	switch t.Native(target) {
	case ir.NativeI64:
		return ir.OpI64Store
	case ir.NativeF32:
		return ir.OpF32Store
	case ir.NativeF64:
		return ir.OpF64Store
	default:
		return ir.OpI32Store
	}
}

func alignOf(t *ast.Type) uint32 {
	switch t.SizeBits() {
	case 8:
		return 0
	case 16:
		return 1
	case 32:
		return 2
	case 64:
		return 3
	default:
		return 2
	}
}

// lowerUnary lowers a unary operator (§4.4, §4.5). Increment/decrement
// desugar to a read-modify-write against whatever the operand resolves to
// (local/global/field), producing either the pre- or post- value as the
// expression's result.
func (c *Compiler) lowerUnary(e *ast.UnaryExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	switch e.Op {
	case ast.UnaryNeg:
		operand, t := c.lowerExpr(e.Operand, true)
		out := append([]ir.Instruction{c.zeroConst(t)}, operand...)
		out = append(out, c.binaryOp(t, ast.BinSub))
		return c.wrapSmall(t, wrap, out), t
	case ast.UnaryNot:
		operand, t := c.lowerExpr(e.Operand, false)
		return c.truthyNegate(c.truthy(t, operand)), ast.Bool
	case ast.UnaryBitNot:
		operand, t := c.lowerExpr(e.Operand, true)
		out := append(operand, c.allOnesConst(t))
		out = append(out, c.binaryOp(t, ast.BinXor))
		return c.wrapSmall(t, wrap, out), t
	case ast.UnaryPreInc, ast.UnaryPreDec, ast.UnaryPostInc, ast.UnaryPostDec:
		return c.lowerIncDec(e, wrap)
	}
	panicInternal("lowerUnary", "unhandled unary operator")
	return nil, ast.Void
}

func (c *Compiler) allOnesConst(t *ast.Type) ir.Instruction {
	if t.IsLong(c.target) {
		return c.b.CreateI64(-1)
	}
	return c.b.CreateI32(-1)
}

// lowerIncDec lowers `++`/`--` against a local, global or field target
// (§4.5, §4.7): the read-modify-write sequence clones the target's address
// computation (if any, per §4.4 "the left operand must be read twice") so
// a single evaluation of an element-access target doesn't double its side
// effects.
func (c *Compiler) lowerIncDec(e *ast.UnaryExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	delta := int64(1)
	if e.Op == ast.UnaryPreDec || e.Op == ast.UnaryPostDec {
		delta = -1
	}
	post := e.Op == ast.UnaryPostInc || e.Op == ast.UnaryPostDec

	read, t := c.lowerExpr(e.Operand, true)
	var deltaInstr ir.Instruction
	if t.Native(c.target) == ir.NativeI64 {
		deltaInstr = c.b.CreateI64(delta)
	} else if t.IsFloat() {
		if t.Native(c.target) == ir.NativeF32 {
			deltaInstr = c.b.CreateF32(float32(delta))
		} else {
			deltaInstr = c.b.CreateF64(float64(delta))
		}
	} else {
		deltaInstr = c.b.CreateI32(int32(delta))
	}
	newVal := append(append([]ir.Instruction{}, read...), deltaInstr, c.binaryOp(t, ast.BinAdd))
	newVal = c.wrapSmall(t, true, newVal)

	write, resultType := c.lowerAssignTarget(e.Operand, newVal, t, !post)
	_ = resultType
	if post {
		// value needed is the OLD value: save it in a temp local, run the
		// non-teeing write (which leaves the stack balanced), then push
		// the saved value back.
		tmp := c.getTempLocal(t.Native(c.target))
		out := append([]ir.Instruction{}, read...)
		out = append(out, c.b.SetLocal(tmp))
		out = append(out, write...)
		out = append(out, c.b.GetLocal(tmp))
		c.freeTempLocal(t.Native(c.target), tmp)
		return out, t
	}
	return write, t
}

// compareOp returns the Compare instruction for op over values of type t,
// used both by binary-expression lowering and switch dispatch.
func (c *Compiler) compareOp(t *ast.Type, op ast.BinaryOp) ir.Instruction {
	n := t.Native(c.target)
	signed := t.IsSigned()
	switch n {
	case ir.NativeI64:
		return c.b.CreateCompare(i64CompareOpcode(op, signed))
	case ir.NativeF32:
		return c.b.CreateCompare(floatCompareOpcode(op, false))
	case ir.NativeF64:
		return c.b.CreateCompare(floatCompareOpcode(op, true))
	default:
		return c.b.CreateCompare(i32CompareOpcode(op, signed))
	}
}

func i32CompareOpcode(op ast.BinaryOp, signed bool) ir.Opcode {
	switch op {
	case ast.BinLt:
		if signed {
			return ir.OpI32LtS
		}
		return ir.OpI32LtU
	case ast.BinLe:
		if signed {
			return ir.OpI32LeS
		}
		return ir.OpI32LeU
	case ast.BinGt:
		if signed {
			return ir.OpI32GtS
		}
		return ir.OpI32GtU
	case ast.BinGe:
		if signed {
			return ir.OpI32GeS
		}
		return ir.OpI32GeU
	case ast.BinEq:
		return ir.OpI32Eq
	case ast.BinNe:
		return ir.OpI32Ne
	}
	panicInternal("i32CompareOpcode", "not a comparison operator")
	return ir.OpI32Eq
}

func i64CompareOpcode(op ast.BinaryOp, signed bool) ir.Opcode {
	switch op {
	case ast.BinLt:
		if signed {
			return ir.OpI64LtS
		}
		return ir.OpI64LtU
	case ast.BinLe:
		if signed {
			return ir.OpI64LeS
		}
		return ir.OpI64LeU
	case ast.BinGt:
		if signed {
			return ir.OpI64GtS
		}
		return ir.OpI64GtU
	case ast.BinGe:
		if signed {
			return ir.OpI64GeS
		}
		return ir.OpI64GeU
	case ast.BinEq:
		return ir.OpI64Eq
	case ast.BinNe:
		return ir.OpI64Ne
	}
	panicInternal("i64CompareOpcode", "not a comparison operator")
	return ir.OpI64Eq
}

func floatCompareOpcode(op ast.BinaryOp, is64 bool) ir.Opcode {
	switch {
	case op == ast.BinLt && is64:
		return ir.OpF64Lt
	case op == ast.BinLt:
		return ir.OpF32Lt
	case op == ast.BinLe && is64:
		return ir.OpF64Le
	case op == ast.BinLe:
		return ir.OpF32Le
	case op == ast.BinGt && is64:
		return ir.OpF64Gt
	case op == ast.BinGt:
		return ir.OpF32Gt
	case op == ast.BinGe && is64:
		return ir.OpF64Ge
	case op == ast.BinGe:
		return ir.OpF32Ge
	case op == ast.BinEq && is64:
		return ir.OpF64Eq
	case op == ast.BinEq:
		return ir.OpF32Eq
	case op == ast.BinNe && is64:
		return ir.OpF64Ne
	default:
		return ir.OpF32Ne
	}
}

// binaryOp returns the arithmetic/bitwise Binary instruction for op over
// values of type t.
func (c *Compiler) binaryOp(t *ast.Type, op ast.BinaryOp) ir.Instruction {
	n := t.Native(c.target)
	signed := t.IsSigned()
	return c.b.CreateBinary(binaryOpcode(n, op, signed))
}

func binaryOpcode(n ir.NativeKind, op ast.BinaryOp, signed bool) ir.Opcode {
	switch n {
	case ir.NativeI64:
		switch op {
		case ast.BinAdd:
			return ir.OpI64Add
		case ast.BinSub:
			return ir.OpI64Sub
		case ast.BinMul:
			return ir.OpI64Mul
		case ast.BinDiv:
			if signed {
				return ir.OpI64DivS
			}
			return ir.OpI64DivU
		case ast.BinMod:
			if signed {
				return ir.OpI64RemS
			}
			return ir.OpI64RemU
		case ast.BinAnd:
			return ir.OpI64And
		case ast.BinOr:
			return ir.OpI64Or
		case ast.BinXor:
			return ir.OpI64Xor
		case ast.BinShl:
			return ir.OpI64Shl
		case ast.BinShr:
			return ir.OpI64ShrS
		case ast.BinShrU:
			return ir.OpI64ShrU
		}
	case ir.NativeF32:
		switch op {
		case ast.BinAdd:
			return ir.OpF32Add
		case ast.BinSub:
			return ir.OpF32Sub
		case ast.BinMul:
			return ir.OpF32Mul
		case ast.BinDiv:
			return ir.OpF32Div
		}
	case ir.NativeF64:
		switch op {
		case ast.BinAdd:
			return ir.OpF64Add
		case ast.BinSub:
			return ir.OpF64Sub
		case ast.BinMul:
			return ir.OpF64Mul
		case ast.BinDiv:
			return ir.OpF64Div
		}
	default:
		switch op {
		case ast.BinAdd:
			return ir.OpI32Add
		case ast.BinSub:
			return ir.OpI32Sub
		case ast.BinMul:
			return ir.OpI32Mul
		case ast.BinDiv:
			if signed {
				return ir.OpI32DivS
			}
			return ir.OpI32DivU
		case ast.BinMod:
			if signed {
				return ir.OpI32RemS
			}
			return ir.OpI32RemU
		case ast.BinAnd:
			return ir.OpI32And
		case ast.BinOr:
			return ir.OpI32Or
		case ast.BinXor:
			return ir.OpI32Xor
		case ast.BinShl:
			return ir.OpI32Shl
		case ast.BinShr:
			return ir.OpI32ShrS
		case ast.BinShrU:
			return ir.OpI32ShrU
		}
	}
	panicInternal("binaryOpcode", "unhandled binary operator for native type")
	return ir.OpI32Add
}

func isCompareOp(op ast.BinaryOp) bool {
	switch op {
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe, ast.BinEq, ast.BinNe:
		return true
	}
	return false
}

// lowerBinary lowers a binary operator (§4.4 "Binary arithmetic", §4.5):
// `&&`/`||` short-circuit via an `if`; everything else unifies both
// operands to a common type (§4.4) before emitting the operator.
func (c *Compiler) lowerBinary(e *ast.BinaryExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	if e.Op == ast.BinLogicalAnd || e.Op == ast.BinLogicalOr {
		return c.lowerLogical(e, wrap)
	}

	left, leftType := c.lowerExpr(e.Left, true)
	right, rightType := c.lowerExpr(e.Right, true)
	common, ok := commonType(leftType, rightType)
	if !ok {
		c.reportf(e.Range(), ast.SeverityError, "operator cannot be applied to types %v and %v", leftType, rightType)
		common = leftType
	}
	left = c.convert(leftType, common, true, left)
	right = c.convert(rightType, common, true, right)

	out := append(left, right...)
	if isCompareOp(e.Op) {
		out = append(out, c.compareOp(common, e.Op))
		return out, ast.Bool
	}
	out = append(out, c.binaryOp(common, e.Op))
	return c.wrapSmall(common, wrap, out), common
}

// lowerLogical lowers `&&`/`||` as an `if` so the right operand is only
// evaluated when it can affect the result (§4.5 short-circuit evaluation).
// Unlike a C-style boolean operator, `&&`/`||` here are value-preserving
// (§4.4): `left && right` yields right when left is truthy, otherwise the
// original left value unconverted in meaning but widened to the arms'
// common static type; `left || right` is the mirror image. The left
// operand is evaluated exactly once — its value is teed into a temp local
// so the truthiness test and the possible "missing arm" read of it don't
// duplicate any side effect it may have.
func (c *Compiler) lowerLogical(e *ast.BinaryExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	leftInstrs, leftType := c.lowerExpr(e.Left, true)
	rightInstrs, rightType := c.lowerExpr(e.Right, true)
	common, ok := commonType(leftType, rightType)
	if !ok {
		c.reportf(e.Range(), ast.SeverityError, "operator cannot be applied to types %v and %v", leftType, rightType)
		common = leftType
	}
	leftInstrs = c.convert(leftType, common, true, leftInstrs)
	rightInstrs = c.convert(rightType, common, true, rightInstrs)

	native := common.Native(c.target)
	tmp := c.getTempLocal(native)
	cond := append(append([]ir.Instruction{}, leftInstrs...), c.b.TeeLocal(tmp))
	cond = c.truthy(common, cond)

	leftValue := []ir.Instruction{c.b.GetLocal(tmp)}
	thenArm, elseArm := leftValue, rightInstrs
	if e.Op == ast.BinLogicalAnd {
		thenArm, elseArm = rightInstrs, leftValue
	}
	out := append(cond, c.b.CreateIf(&native, thenArm, elseArm))
	c.freeTempLocal(native, tmp)
	return c.wrapSmall(common, wrap, out), common
}

// lowerTernary lowers `cond ? then : else` (§4.5): both arms are unified to
// a common type exactly like a binary operator's operands.
func (c *Compiler) lowerTernary(e *ast.TernaryExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	cond, condType := c.lowerExpr(e.Condition, false)
	cond = c.truthy(condType, cond)

	thenInstrs, thenType := c.lowerExpr(e.Then, true)
	elseInstrs, elseType := c.lowerExpr(e.Else, true)
	common, ok := commonType(thenType, elseType)
	if !ok {
		c.reportf(e.Range(), ast.SeverityError, "ternary arms have incompatible types %v and %v", thenType, elseType)
		common = thenType
	}
	thenInstrs = c.convert(thenType, common, true, thenInstrs)
	elseInstrs = c.convert(elseType, common, true, elseInstrs)

	native := common.Native(c.target)
	out := append(cond, c.b.CreateIf(&native, thenInstrs, elseInstrs))
	return c.wrapSmall(common, wrap, out), common
}
