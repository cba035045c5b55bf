package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// lowerAssignment lowers `target = value` and the compound forms (§4.7
// Assignment Lowering): a compound assignment first reads the target,
// combines it with the right-hand side using the matching binary operator,
// then writes the result back — the target's address/index computation (if
// any) is only evaluated once, via lowerAssignTarget's own read-then-write
// sequencing, never twice.
func (c *Compiler) lowerAssignment(e *ast.AssignmentExpr, wrap bool) ([]ir.Instruction, *ast.Type) {
	if e.Op == ast.AssignPlain {
		valInstrs, valType := c.lowerExpr(e.Value, true)
		targetType := c.staticTypeOf(e.Target)
		valInstrs = c.implicitConvert(valType, targetType, true, e.Value.Range(), valInstrs)
		out, resultType := c.lowerAssignTarget(e.Target, valInstrs, targetType, true)
		return c.wrapSmall(resultType, wrap, out), resultType
	}

	// Compound assignment: read the current value, combine, write back.
	curInstrs, curType := c.lowerExpr(e.Target, true)
	rhsInstrs, rhsType := c.lowerExpr(e.Value, true)
	common, ok := commonType(curType, rhsType)
	if !ok {
		c.reportf(e.Range(), ast.SeverityError, "operator cannot be applied to types %v and %v", curType, rhsType)
		common = curType
	}
	left := c.convert(curType, common, true, append([]ir.Instruction{}, curInstrs...))
	right := c.convert(rhsType, common, true, rhsInstrs)
	combined := append(left, right...)
	combined = append(combined, c.binaryOp(common, compoundBinOp(e.Op)))
	combined = c.wrapSmall(common, true, combined)
	combined = c.convert(common, curType, true, combined)

	out, resultType := c.lowerAssignTarget(e.Target, combined, curType, true)
	return c.wrapSmall(resultType, wrap, out), resultType
}

func compoundBinOp(op ast.AssignOp) ast.BinaryOp {
	switch op {
	case ast.AssignAdd:
		return ast.BinAdd
	case ast.AssignSub:
		return ast.BinSub
	case ast.AssignMul:
		return ast.BinMul
	case ast.AssignDiv:
		return ast.BinDiv
	case ast.AssignMod:
		return ast.BinMod
	case ast.AssignShl:
		return ast.BinShl
	case ast.AssignShr:
		return ast.BinShr
	case ast.AssignShrU:
		return ast.BinShrU
	case ast.AssignAnd:
		return ast.BinAnd
	case ast.AssignOr:
		return ast.BinOr
	case ast.AssignXor:
		return ast.BinXor
	}
	panicInternal("compoundBinOp", "unhandled compound assignment operator")
	return ast.BinAdd
}

// staticTypeOf resolves an expression's static type without emitting any
// instructions, for contexts that need the target's declared type before
// the value to assign has been converted (§4.7).
func (c *Compiler) staticTypeOf(expr ast.Expr) *ast.Type {
	switch e := expr.(type) {
	case *ast.IdentifierExpr:
		if local, ok := c.flow.LookupLocal(e.Name); ok {
			return local.Type
		}
		if resolved, ok := c.program.ResolveIdentifier(e, c.curFnInst, c.curEnum); ok {
			if v, ok := resolved.Elem.(ast.Variable); ok {
				return v.VarType()
			}
		}
	case *ast.PropertyAccessExpr:
		if resolved, ok := c.program.ResolvePropertyAccess(e, c.curFnInst); ok {
			if v, ok := resolved.Elem.(ast.Variable); ok {
				return v.VarType()
			}
		}
	case *ast.ElementAccessExpr:
		if resolved, ok := c.program.ResolveElementAccess(e, c.curFnInst, true); ok {
			if fn, ok := resolved.Elem.(*ast.FunctionInstance); ok && len(fn.Sig.Parameters) == 2 {
				return fn.Sig.Parameters[1]
			}
		}
	}
	_, t := c.lowerExpr(expr, true)
	return t
}

// lowerAssignTarget writes valueInstrs (already converted to valueType) into
// target, returning the instruction sequence and the written type. When
// tee is true the sequence leaves the written value on the stack (the
// result of the assignment expression itself, or the pre-increment value);
// when false it leaves the stack balanced, for contexts (a bare
// ExpressionStmt, or lowerIncDec's post-form) that discard the result.
func (c *Compiler) lowerAssignTarget(target ast.Expr, valueInstrs []ir.Instruction, valueType *ast.Type, tee bool) ([]ir.Instruction, *ast.Type) {
	switch t := target.(type) {
	case *ast.IdentifierExpr:
		return c.lowerAssignIdentifier(t, valueInstrs, valueType, tee)
	case *ast.PropertyAccessExpr:
		return c.lowerAssignProperty(t, valueInstrs, valueType, tee)
	case *ast.ElementAccessExpr:
		return c.lowerAssignElement(t, valueInstrs, valueType, tee)
	}
	panicInternal("lowerAssignTarget", "unsupported assignment target %T", target)
	return nil, ast.Void
}

func (c *Compiler) lowerAssignIdentifier(t *ast.IdentifierExpr, valueInstrs []ir.Instruction, valueType *ast.Type, tee bool) ([]ir.Instruction, *ast.Type) {
	if local, ok := c.flow.LookupLocal(t.Name); ok {
		if local.IsVirtual() {
			c.reportf(t.Range(), ast.SeverityError, "cannot assign to constant %q", t.Name)
			return append(valueInstrs, c.b.CreateDrop()), local.Type
		}
		out := append([]ir.Instruction{}, valueInstrs...)
		if tee {
			out = append(out, c.b.TeeLocal(uint32(local.Index)))
		} else {
			out = append(out, c.b.SetLocal(uint32(local.Index)))
		}
		return out, local.Type
	}

	resolved, ok := c.program.ResolveIdentifier(t, c.curFnInst, c.curEnum)
	if !ok {
		return append(valueInstrs, c.b.CreateDrop()), valueType
	}
	g, ok := resolved.Elem.(*ast.Global)
	if !ok {
		c.reportf(t.Range(), ast.SeverityError, "%q is not assignable", t.Name)
		return append(valueInstrs, c.b.CreateDrop()), valueType
	}
	idx, ok := c.globalIndex(g)
	if !ok {
		panicInternal("lowerAssignIdentifier", "global %s referenced before being lowered", g.InternalName)
	}
	if !tee {
		return append(valueInstrs, c.b.SetGlobal(idx)), g.Type
	}
	native := g.Type.Native(c.target)
	tmp := c.getTempLocal(native)
	out := append([]ir.Instruction{}, valueInstrs...)
	out = append(out, c.b.SetLocal(tmp))
	out = append(out, c.b.GetLocal(tmp))
	out = append(out, c.b.SetGlobal(idx))
	out = append(out, c.b.GetLocal(tmp))
	c.freeTempLocal(native, tmp)
	return out, g.Type
}

func (c *Compiler) lowerAssignProperty(t *ast.PropertyAccessExpr, valueInstrs []ir.Instruction, valueType *ast.Type, tee bool) ([]ir.Instruction, *ast.Type) {
	resolved, ok := c.program.ResolvePropertyAccess(t, c.curFnInst)
	if !ok {
		return append(valueInstrs, c.b.CreateDrop()), valueType
	}
	switch m := resolved.Elem.(type) {
	case *ast.Field:
		addr, _ := c.lowerExpr(resolved.Target, true)
		storeOp := storeOpcode(m.Type, c.target)
		if !tee {
			out := append(addr, valueInstrs...)
			out = append(out, c.b.CreateStore(storeOp, int32(m.Offset), alignOf(m.Type)))
			return out, m.Type
		}
		native := m.Type.Native(c.target)
		tmp := c.getTempLocal(native)
		out := append([]ir.Instruction{}, valueInstrs...)
		out = append(out, c.b.SetLocal(tmp))
		out = append(out, addr...)
		out = append(out, c.b.GetLocal(tmp))
		out = append(out, c.b.CreateStore(storeOp, int32(m.Offset), alignOf(m.Type)))
		out = append(out, c.b.GetLocal(tmp))
		c.freeTempLocal(native, tmp)
		return out, m.Type
	case *ast.Property:
		if m.Setter == nil {
			panicInternal("lowerAssignProperty", "property %s has no setter", m.InternalName)
		}
		target, _ := c.lowerExpr(resolved.Target, true)
		if !tee {
			out, _ := c.emitDirectCall(m.Setter, target, valueInstrs, t.Range())
			return out, m.Type
		}
		native := m.Type.Native(c.target)
		tmp := c.getTempLocal(native)
		out := append([]ir.Instruction{}, valueInstrs...)
		out = append(out, c.b.SetLocal(tmp))
		call, _ := c.emitDirectCall(m.Setter, target, []ir.Instruction{c.b.GetLocal(tmp)}, t.Range())
		out = append(out, call...)
		out = append(out, c.b.GetLocal(tmp))
		c.freeTempLocal(native, tmp)
		return out, m.Type
	}
	panicInternal("lowerAssignProperty", "unsupported member kind %T", resolved.Elem)
	return nil, ast.Void
}

func (c *Compiler) lowerAssignElement(t *ast.ElementAccessExpr, valueInstrs []ir.Instruction, valueType *ast.Type, tee bool) ([]ir.Instruction, *ast.Type) {
	resolved, ok := c.program.ResolveElementAccess(t, c.curFnInst, true)
	if !ok {
		return append(valueInstrs, c.b.CreateDrop()), valueType
	}
	fn, ok := resolved.Elem.(*ast.FunctionInstance)
	if !ok || len(fn.Sig.Parameters) != 2 {
		panicInternal("lowerAssignElement", "indexed assignment did not resolve to a `[]=` operator method")
	}
	target, _ := c.lowerExpr(resolved.Target, true)
	idxInstrs, idxType := c.lowerExpr(t.Index, true)
	idxInstrs = c.implicitConvert(idxType, fn.Sig.Parameters[0], true, t.Index.Range(), idxInstrs)
	elemType := fn.Sig.Parameters[1]

	if !tee {
		args := append(idxInstrs, valueInstrs...)
		out, _ := c.emitDirectCall(fn, target, args, t.Range())
		return out, elemType
	}
	native := elemType.Native(c.target)
	tmp := c.getTempLocal(native)
	out := append([]ir.Instruction{}, valueInstrs...)
	out = append(out, c.b.SetLocal(tmp))
	args := append(idxInstrs, c.b.GetLocal(tmp))
	call, _ := c.emitDirectCall(fn, target, args, t.Range())
	out = append(out, call...)
	out = append(out, c.b.GetLocal(tmp))
	c.freeTempLocal(native, tmp)
	return out, elemType
}
