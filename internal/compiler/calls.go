package compiler

import (
	"fmt"

	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// lowerCall lowers a call expression (§4.5, §4.6): the callee resolves
// through the Program oracle to either a concrete function (direct call,
// possibly a method with an implicit `this`), a still-generic prototype
// (instantiated on the spot with the call's type arguments), or a
// reference-typed value (indirect call through the function table).
func (c *Compiler) lowerCall(e *ast.CallExpr) ([]ir.Instruction, *ast.Type) {
	resolved, ok := c.program.ResolveExpression(e.Callee, c.curFnInst)
	if !ok {
		return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
	}

	switch elem := resolved.Elem.(type) {
	case *ast.FunctionInstance:
		return c.lowerDirectCallSite(elem, resolved, e)
	case *ast.FunctionPrototype:
		inst, ok := c.program.ResolvePrototype(elem, e.TypeArguments, e.Range())
		if !ok {
			return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
		}
		fi, ok := inst.(*ast.FunctionInstance)
		if !ok {
			panicInternal("lowerCall", "ResolvePrototype returned a non-function instance for a function prototype")
		}
		return c.lowerDirectCallSite(fi, resolved, e)
	case *ast.FunctionTarget:
		return c.lowerIndirectCall(elem, resolved, e)
	}
	panicInternal("lowerCall", "callee resolved to a non-callable element %T", resolved.Elem)
	return nil, ast.Void
}

// lowerDirectCallSite builds the `this` (if any) and argument operand
// sequence for a direct call, reaching for a trampoline when fewer
// arguments are supplied than the signature declares (§4.6).
func (c *Compiler) lowerDirectCallSite(fn *ast.FunctionInstance, resolved ast.ResolvedExpr, e *ast.CallExpr) ([]ir.Instruction, *ast.Type) {
	var thisInstrs []ir.Instruction
	if fn.Sig.ThisType != nil {
		if resolved.Target == nil {
			panicInternal("lowerDirectCallSite", "method call missing a receiver target")
		}
		thisInstrs, _ = c.lowerExpr(resolved.Target, true)
	}

	args, err := c.lowerArguments(fn.Sig, e.Arguments, e.Range())
	if err != nil {
		c.reportf(e.Range(), ast.SeverityError, "%s", err)
		return append(append(thisInstrs, args...), c.b.CreateUnreachable()), fn.Sig.Return
	}

	if len(e.Arguments) < fn.Sig.OptionalCount()+fn.Sig.RequiredParameters {
		target := c.trampolineFor(fn)
		out := append(thisInstrs, args...)
		for i := len(e.Arguments); i < len(fn.Sig.Parameters); i++ {
			// A placeholder for every unsupplied optional parameter: its
			// value is ignored by the trampoline unless count says
			// otherwise, but the fixed-arity call site must still supply
			// one operand per declared parameter (§4.6 scenario 4).
			out = append(out, c.zeroConst(fn.Sig.Parameters[i]))
		}
		supplied := len(e.Arguments) - fn.Sig.RequiredParameters
		if supplied < 0 {
			supplied = 0
		}
		out = append(out, c.b.CreateI32(int32(supplied)))
		out = append(out, c.b.CreateCall(target))
		return out, fn.Sig.Return
	}

	out, t := c.emitDirectCall(fn, thisInstrs, args, e.Range())
	return out, t
}

// emitDirectCall compiles fn (idempotent) and emits a plain `call` to it,
// with thisInstrs and argInstrs already laid out in calling-convention
// order (receiver first, §4.2).
func (c *Compiler) emitDirectCall(fn *ast.FunctionInstance, thisInstrs, argInstrs []ir.Instruction, where ast.Range) ([]ir.Instruction, *ast.Type) {
	c.compileFunction(fn)
	idx, ok := c.b.FunctionIndex(fn.InternalName)
	if !ok {
		panicInternal("emitDirectCall", "function %s has no index after compilation", fn.InternalName)
	}
	out := append(append([]ir.Instruction{}, thisInstrs...), argInstrs...)
	out = append(out, c.b.CreateCall(idx))
	return out, fn.Sig.Return
}

// lowerArguments lowers every supplied call argument in order, converting
// each to its parameter's declared type (§4.4 implicit conversion at
// argument-passing sites). Rest parameters and over-supplied arguments are
// rejected; under-supplied arguments are the trampoline's responsibility,
// not an error here.
func (c *Compiler) lowerArguments(sig *ast.Signature, args []ast.Expr, where ast.Range) ([]ir.Instruction, error) {
	if sig.HasRest {
		panicInternal("lowerArguments", "rest parameters are not supported")
	}
	if len(args) > len(sig.Parameters) {
		return nil, fmt.Errorf("too many arguments: expected at most %d, got %d", len(sig.Parameters), len(args))
	}
	var out []ir.Instruction
	for i, a := range args {
		instrs, t := c.lowerExpr(a, true)
		out = c.implicitConvert(t, sig.Parameters[i], true, a.Range(), append(out, instrs...))
	}
	return out, nil
}

// trampolineFor returns the function-index of fn's single optional-argument
// trampoline (§4.6, §8 property 3): its WebAssembly signature is fn's own
// (receiver, if any, plus every parameter) with one trailing i32 appended —
// how many of the trailing optional parameters the call site actually
// supplied. A call site short on optional arguments still passes a
// placeholder operand for each missing one (see lowerDirectCallSite)
// followed by that count; the trampoline picks, per optional parameter,
// between the placeholder and the parameter's own default initializer
// before forwarding to fn with every parameter resolved. One trampoline
// serves every under-supplied call site for fn, named "<original>|trampoline".
func (c *Compiler) trampolineFor(fn *ast.FunctionInstance) uint32 {
	if idx, ok := c.trampolines[fn.InternalName]; ok {
		return idx
	}
	c.compileFunction(fn)
	targetIdx, ok := c.b.FunctionIndex(fn.InternalName)
	if !ok {
		panicInternal("trampolineFor", "function %s has no index after compilation", fn.InternalName)
	}

	trampSig := &ast.Signature{
		Parameters:         append(append([]*ast.Type{}, fn.Sig.Parameters...), ast.I32),
		ParameterNames:     append(append([]string{}, fn.Sig.ParameterNames...), "~optionalCount"),
		ThisType:           fn.Sig.ThisType,
		Return:             fn.Sig.Return,
		RequiredParameters: len(fn.Sig.Parameters) + 1,
	}
	name := fn.InternalName + "|trampoline"
	trampFn := &ir.Function{Name: name, TypeIndex: c.b.AddFunctionType(c.functionType(trampSig))}

	prevFn, prevFlow, prevReturn, prevInst := c.curFn, c.flow, c.curFnReturn, c.curFnInst
	c.curFn = trampFn
	c.curFnReturn = fn.Sig.Return
	c.curFnInst = fn
	c.flow = newFlow()
	c.flow.Push("", "")

	var localIdx uint32
	if fn.Sig.ThisType != nil {
		idx := c.genLocal(fn.Sig.ThisType.Native(c.target))
		c.flow.DeclareLocal("this", &ast.Local{InternalName: "this", Index: int(idx), Type: fn.Sig.ThisType})
		localIdx = idx + 1
	}
	paramLocal := make([]uint32, len(fn.Sig.Parameters))
	for i, p := range fn.Sig.Parameters {
		idx := c.genLocal(p.Native(c.target))
		paramLocal[i] = idx
		c.flow.DeclareLocal(fn.Sig.ParameterNames[i], &ast.Local{InternalName: fn.Sig.ParameterNames[i], Index: int(idx), Type: p})
		localIdx = idx + 1
	}
	countLocal := c.genLocal(ir.NativeI32)
	_ = localIdx

	var call []ir.Instruction
	if fn.Sig.ThisType != nil {
		call = append(call, c.b.GetLocal(0))
	}
	required := fn.Sig.RequiredParameters
	for i := range fn.Sig.Parameters {
		if i < required {
			call = append(call, c.b.GetLocal(paramLocal[i]))
			continue
		}
		j := int32(i - required)
		cond := []ir.Instruction{c.b.GetLocal(countLocal), c.b.CreateI32(j), c.b.CreateCompare(ir.OpI32GtS)}
		then := []ir.Instruction{c.b.GetLocal(paramLocal[i])}
		els := c.defaultValueFor(fn, i)
		native := fn.Sig.Parameters[i].Native(c.target)
		call = append(call, cond...)
		call = append(call, c.b.CreateIf(&native, then, els))
	}
	call = append(call, c.b.CreateCall(targetIdx))
	trampFn.Body = call

	c.flow.Pop()
	c.flow = prevFlow
	c.curFn = prevFn
	c.curFnReturn = prevReturn
	c.curFnInst = prevInst

	idx := c.b.AddFunction(trampFn)
	c.trampolines[fn.InternalName] = idx
	return idx
}

// defaultValueFor lowers the default initializer of fn's i-th parameter
// (§4.6): the expression is carried on the Signature itself
// (ParameterDefaults, index-aligned with Parameters) rather than re-derived
// from surface AST, so it lowers through the same c.lowerExpr path as any
// other expression, in the trampoline's own flow/locals scope (a default may
// reference an earlier, already-resolved parameter). A parameter with no
// default recorded falls back to its zero value.
func (c *Compiler) defaultValueFor(fn *ast.FunctionInstance, i int) []ir.Instruction {
	def := paramDefault(fn.Sig, i)
	if def == nil {
		def = paramDefault(protoSig(fn), i)
	}
	if def == nil {
		return []ir.Instruction{c.zeroConst(fn.Sig.Parameters[i])}
	}
	instrs, t := c.lowerExpr(def, true)
	return c.implicitConvert(t, fn.Sig.Parameters[i], true, def.Range(), instrs)
}

func paramDefault(sig *ast.Signature, i int) ast.Expr {
	if sig == nil || i >= len(sig.ParameterDefaults) {
		return nil
	}
	return sig.ParameterDefaults[i]
}

func protoSig(fn *ast.FunctionInstance) *ast.Signature {
	if fn.Prototype == nil {
		return nil
	}
	return fn.Prototype.DeclaredSig
}

// lowerIndirectCall lowers a call through a function-typed value (§4.6): the
// callee's table index is pushed, its signature is checked against the call
// site's argument count/types, and a call_indirect is emitted.
func (c *Compiler) lowerIndirectCall(target *ast.FunctionTarget, resolved ast.ResolvedExpr, e *ast.CallExpr) ([]ir.Instruction, *ast.Type) {
	tableIdxInstrs, _ := c.readVariable(target.Underlying, e.Range())

	if len(e.Arguments) != target.Sig.Arity()-boolToInt(target.Sig.ThisType != nil) {
		c.reportf(e.Range(), ast.SeverityError, "indirect call argument count mismatch: expected %d, got %d", len(target.Sig.Parameters), len(e.Arguments))
	}

	var thisInstrs []ir.Instruction
	if target.Sig.ThisType != nil && resolved.Target != nil {
		thisInstrs, _ = c.lowerExpr(resolved.Target, true)
	}
	args, err := c.lowerArguments(target.Sig, e.Arguments, e.Range())
	if err != nil {
		c.reportf(e.Range(), ast.SeverityError, "%s", err)
	}

	typeIdx := c.b.AddFunctionType(c.functionType(target.Sig))
	out := append(append([]ir.Instruction{}, thisInstrs...), args...)
	out = append(out, tableIdxInstrs...)
	out = append(out, c.b.CreateCallIndirect(typeIdx))
	return out, target.Sig.Return
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// lowerNew lowers `new Class(...)` (§4.5, §4.2 Classes): allocates the
// instance (via the allocator builtin named by Options.AllocateImpl, a
// collaborator this core only ever calls by name, never implements) and
// invokes the resolved constructor with the fresh pointer as `this`.
func (c *Compiler) lowerNew(e *ast.NewExpr) ([]ir.Instruction, *ast.Type) {
	elem, ok := c.program.Elements()[e.ClassName]
	if !ok {
		return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
	}
	var cls *ast.ClassPrototypeInstance
	switch ce := elem.(type) {
	case *ast.ClassPrototypeInstance:
		cls = ce
	case *ast.ClassPrototype:
		inst, ok := c.program.ResolvePrototype(ce, e.TypeArguments, e.Range())
		if !ok {
			return []ir.Instruction{c.b.CreateUnreachable()}, ast.Void
		}
		cls, ok = inst.(*ast.ClassPrototypeInstance)
		if !ok {
			panicInternal("lowerNew", "ResolvePrototype returned a non-class instance for a class prototype")
		}
	default:
		panicInternal("lowerNew", "`new` target %s did not resolve to a class", e.ClassName)
	}

	allocIdx, ok := c.b.FunctionIndex(c.options.AllocateImpl)
	if !ok {
		panicInternal("lowerNew", "allocator builtin %q was never imported", c.options.AllocateImpl)
	}
	sizeInstr := c.b.CreateI32(int32(cls.InstanceSize))
	allocCall := []ir.Instruction{sizeInstr, c.b.CreateCall(allocIdx)}

	classType := &ast.Type{Kind: ast.KindClass, Class: cls}
	if cls.Prototype == nil || cls.Prototype.Constructor == nil {
		return allocCall, classType
	}
	ctorInst, ok := c.program.ResolvePrototype(cls.Prototype.Constructor, e.TypeArguments, e.Range())
	if !ok {
		return allocCall, classType
	}
	ctor, ok := ctorInst.(*ast.FunctionInstance)
	if !ok {
		panicInternal("lowerNew", "class constructor prototype resolved to a non-function instance")
	}

	native := ir.NativeI32
	tmp := c.getTempLocal(native)
	out := append(allocCall, c.b.SetLocal(tmp), c.b.GetLocal(tmp))

	args, err := c.lowerArguments(ctor.Sig, e.Arguments, e.Range())
	if err != nil {
		c.reportf(e.Range(), ast.SeverityError, "%s", err)
	}
	call, _ := c.emitDirectCall(ctor, nil, append([]ir.Instruction{}, args...), e.Range())
	out = append(out, call...)
	if ctor.Sig.Return.Kind != ast.KindVoid {
		out = append(out, c.b.CreateDrop()) // the `this` pointer in tmp, not the constructor's result, is the expression's value
	}
	out = append(out, c.b.GetLocal(tmp))
	c.freeTempLocal(native, tmp)
	return out, classType
}
