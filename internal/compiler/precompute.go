package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// foldConstExpr is the Precompute Bridge (§4.8): it wraps an already-lowered
// instruction sequence as a synthetic niladic function, hands the whole
// builder to the backend's "precompute" pass, and reads the result back
// through the constant-introspection API. The synthetic function is always
// removed afterward, win or lose, so it never leaks into the final module.
func (c *Compiler) foldConstExpr(t *ast.Type, instrs []ir.Instruction) (ast.ConstValue, bool) {
	native := t.Native(c.target)
	name := uniqueName("~precompute")
	typ := c.b.AddFunctionType(ir.FunctionType{Results: []ir.NativeKind{native}})
	c.b.AddFunction(&ir.Function{Name: name, TypeIndex: typ, Body: append([]ir.Instruction{}, instrs...)})
	defer c.b.RemoveFunction(name)

	if err := c.b.RunPasses("precompute"); err != nil {
		return ast.ConstValue{}, false
	}

	fnIdx, ok := c.b.FunctionIndex(name)
	if !ok {
		return ast.ConstValue{}, false
	}
	mod := c.b.Module()
	importCount := len(mod.Imports) // defined-function slice is offset by imports
	definedIdx := int(fnIdx) - importCountOf(mod)
	_ = importCount
	if definedIdx < 0 || definedIdx >= len(mod.Functions) {
		return ast.ConstValue{}, false
	}
	body := mod.Functions[definedIdx].Body
	if len(body) != 1 || !ir.IsConst(body[0]) {
		return ast.ConstValue{}, false
	}

	switch native {
	case ir.NativeI32:
		v, _ := ir.GetI32Value(body[0])
		return ast.ConstValue{Int64: int64(v)}, true
	case ir.NativeI64:
		v, _ := ir.GetI64Value(body[0])
		return ast.ConstValue{Int64: v}, true
	case ir.NativeF32:
		v, _ := ir.GetF32Value(body[0])
		return ast.ConstValue{IsFloat: true, Float64: float64(v)}, true
	default:
		v, _ := ir.GetF64Value(body[0])
		return ast.ConstValue{IsFloat: true, Float64: v}, true
	}
}

func importCountOf(mod *ir.Module) int {
	var n int
	for _, imp := range mod.Imports {
		if imp.Kind == ir.ImportFunction {
			n++
		}
	}
	return n
}
