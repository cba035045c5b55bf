package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// functionType projects a Signature onto the IR's FunctionType, prepending
// the receiver (if any) as the first parameter — methods have no special
// calling convention beyond `this` being parameter zero (§4.2, §4.6).
func (c *Compiler) functionType(sig *ast.Signature) ir.FunctionType {
	var params []ir.NativeKind
	if sig.ThisType != nil {
		params = append(params, sig.ThisType.Native(c.target))
	}
	for _, p := range sig.Parameters {
		params = append(params, p.Native(c.target))
	}
	var results []ir.NativeKind
	if sig.Return.Kind != ast.KindVoid {
		results = append(results, sig.Return.Native(c.target))
	}
	return ir.FunctionType{Params: params, Results: results}
}

func (c *Compiler) declareFunctionImport(d *ast.FunctionDecl) {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return
	}
	fi, ok := elem.(*ast.FunctionInstance)
	if !ok {
		return
	}
	if fi.GetFlags().Has(ast.FlagCompiled) {
		return
	}
	typ := c.functionType(fi.Sig)
	c.b.AddFunctionImport("env", fi.InternalName, typ)
	fi.SetFlags(ast.FlagCompiled | ast.FlagImported | ast.FlagImportedDeclared)
}

func (c *Compiler) declareGlobalImport(d *ast.GlobalDecl) {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return
	}
	g, ok := elem.(*ast.Global)
	if !ok {
		return
	}
	if g.GetFlags().Has(ast.FlagCompiled) {
		return
	}
	idx := c.b.AddGlobalImport("env", g.InternalName, g.Type.Native(c.target), !g.Flags.Has(ast.FlagConstant))
	_ = idx
	g.SetFlags(ast.FlagCompiled | ast.FlagImported | ast.FlagImportedDeclared)
}

// lowerDecl lowers one top-level declaration, per §4.2. It returns the
// instructions to append to the synthetic start function, which is only
// non-empty for a bare top-level statement or a global whose initializer
// could not be folded to a constant.
func (c *Compiler) lowerDecl(decl ast.Decl) []ir.Instruction {
	switch d := decl.(type) {
	case *ast.GlobalDecl:
		return c.lowerGlobal(d)
	case *ast.EnumDecl:
		return c.lowerEnum(d)
	case *ast.FunctionDecl:
		c.lowerFunctionDecl(d)
		return nil
	case *ast.ClassDecl:
		c.lowerClassDecl(d)
		return nil
	case *ast.NamespaceDecl:
		var start []ir.Instruction
		for _, m := range d.Members {
			start = append(start, c.lowerDecl(m)...)
		}
		return start
	case *ast.ImportDecl, *ast.ExportDecl:
		// Re-exports and plain imports carry no runtime representation of
		// their own; the elements they name are compiled where their own
		// declarations are lowered, or wherever they are first referenced.
		return nil
	case *ast.TopLevelStmt:
		return c.lowerStmt(d.Stmt)
	}
	panicInternal("lowerDecl", "unhandled declaration %T", decl)
	return nil
}

// lowerGlobal lowers one `GlobalDecl` (§4.2 "Globals"): declared/imported
// globals were already handled by declareGlobalImport during pass 1. A
// `const` global whose initializer folds to a literal becomes an inlined
// compile-time constant (FlagInlined) with no WebAssembly global at all,
// mirroring how enum values fold (§4.8 precompute bridge). Anything else
// becomes a WebAssembly global, initialized either by a constant init
// expression (immutable for a `const`, mutable otherwise) or, if the
// initializer isn't a single constant, by a runtime assignment appended to
// the start function (always mutable, so the start function can set it).
func (c *Compiler) lowerGlobal(d *ast.GlobalDecl) []ir.Instruction {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return nil
	}
	g, ok := elem.(*ast.Global)
	if !ok || g.GetFlags().Has(ast.FlagCompiled) {
		return nil
	}

	if d.Initializer == nil {
		idx := c.b.AddGlobal(&ir.Global{
			Name:    g.InternalName,
			Type:    g.Type.Native(c.target),
			Mutable: true,
			Init:    []ir.Instruction{c.zeroConst(g.Type)},
		})
		c.exportGlobalIfNeeded(d, g, idx)
		g.SetFlags(ast.FlagCompiled)
		return nil
	}

	initInstrs, initType := c.lowerExpr(d.Initializer, true)
	initInstrs = c.implicitConvert(initType, g.Type, true, d.Initializer.Range(), initInstrs)

	if folded, ok := c.foldConstExpr(g.Type, initInstrs); ok && d.Const {
		g.FoldedValue = folded
		g.SetFlags(ast.FlagCompiled | ast.FlagInlined | ast.FlagConstant)
		return nil
	}

	mutable := !d.Const
	var start []ir.Instruction
	var idx uint32
	if constInit, ok := asConstInit(initInstrs); ok {
		idx = c.b.AddGlobal(&ir.Global{Name: g.InternalName, Type: g.Type.Native(c.target), Mutable: mutable, Init: constInit})
	} else {
		idx = c.b.AddGlobal(&ir.Global{Name: g.InternalName, Type: g.Type.Native(c.target), Mutable: true, Init: []ir.Instruction{c.zeroConst(g.Type)}})
		start = append(start, initInstrs...)
		start = append(start, c.b.SetGlobal(idx))
	}
	c.exportGlobalIfNeeded(d, g, idx)
	g.SetFlags(ast.FlagCompiled)
	return start
}

func (c *Compiler) exportGlobalIfNeeded(d *ast.GlobalDecl, g *ast.Global, idx uint32) {
	if d.Exported {
		c.b.AddGlobalExport(g.InternalName, idx)
		g.SetFlags(ast.FlagExported)
	}
}

// asConstInit reports whether instrs is a single constant instruction,
// which is all WebAssembly permits as a global's init expression.
func asConstInit(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	if len(instrs) != 1 {
		return nil, false
	}
	if ir.IsConst(instrs[0]) {
		return instrs, true
	}
	return nil, false
}

func (c *Compiler) zeroConst(t *ast.Type) ir.Instruction {
	switch t.Native(c.target) {
	case ir.NativeI64:
		return c.b.CreateI64(0)
	case ir.NativeF32:
		return c.b.CreateF32(0)
	case ir.NativeF64:
		return c.b.CreateF64(0)
	default:
		return c.b.CreateI32(0)
	}
}

// lowerEnum lowers an EnumDecl (§4.2 "Enums"): each value folds to an i32
// constant when every prior sibling also folded (the default, implicit
// `previous + 1` numbering, starting at 0); a value whose expression does
// not fold becomes a runtime-initialized mutable global, and so does every
// implicit value after it until an explicit value folds again (each such
// global is initialized to the previous value's global plus one), matching
// how the source language's own enum numbering falls back.
func (c *Compiler) lowerEnum(d *ast.EnumDecl) []ir.Instruction {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return nil
	}
	en, ok := elem.(*ast.Enum)
	if !ok || en.GetFlags().Has(ast.FlagCompiled) {
		return nil
	}

	prevEnum := c.curEnum
	c.curEnum = en
	defer func() { c.curEnum = prevEnum }()

	var start []ir.Instruction
	prevFolded := true // an implicit first value folds to 0
	prevValue := int64(-1)
	var prevIdx uint32
	for _, v := range en.Values {
		if v.Expr == nil {
			if prevFolded {
				v.FoldedValue = ast.ConstValue{Int64: prevValue + 1}
				v.SetFlags(ast.FlagInlined | ast.FlagCompiled)
				prevValue = v.FoldedValue.Int64
				continue
			}
		} else if instrs, typ := c.lowerExpr(v.Expr, true); typ.Kind != ast.KindVoid {
			if folded, ok := c.foldConstExpr(ast.I32, instrs); ok {
				v.FoldedValue = folded
				v.SetFlags(ast.FlagInlined | ast.FlagCompiled)
				prevFolded = true
				prevValue = folded.Int64
				continue
			}
		}
		// Not foldable: emit a real mutable global, initialized at start.
		prevFolded = false
		idx := c.b.AddGlobal(&ir.Global{Name: v.InternalName, Type: ir.NativeI32, Mutable: true, Init: []ir.Instruction{c.b.CreateI32(0)}})
		var initInstrs []ir.Instruction
		if v.Expr != nil {
			instrs, typ := c.lowerExpr(v.Expr, true)
			initInstrs = c.implicitConvert(typ, ast.I32, true, v.Expr.Range(), instrs)
		} else {
			initInstrs = append(initInstrs, c.b.GetGlobal(prevIdx), c.b.CreateI32(1), c.b.CreateBinary(ir.OpI32Add))
		}
		start = append(start, initInstrs...)
		start = append(start, c.b.SetGlobal(idx))
		v.SetFlags(ast.FlagCompiled)
		prevIdx = idx
	}
	en.SetFlags(ast.FlagCompiled)
	return start
}

// lowerFunctionDecl lowers a top-level (non-method) function (§4.2). Its
// FunctionInstance element is looked up by internal name — generic
// functions are lowered per-instantiation by calls.go the first time a
// concrete call site resolves them, so a still-generic prototype with no
// instances yet produces nothing here.
func (c *Compiler) lowerFunctionDecl(d *ast.FunctionDecl) {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return
	}
	switch e := elem.(type) {
	case *ast.FunctionInstance:
		c.compileFunction(e)
	case *ast.FunctionPrototype:
		for _, inst := range e.Instances {
			c.compileFunction(inst)
		}
	}
}

// compileFunction lowers one concrete FunctionInstance's body exactly once
// (§3 invariant 1: FlagCompiled guards re-entry, including the case where
// the function is first reached indirectly through calls.go while its own
// top-level declaration hasn't been walked yet).
func (c *Compiler) compileFunction(fi *ast.FunctionInstance) {
	if fi.GetFlags().Has(ast.FlagCompiled) || c.compiling[fi.InternalName] {
		return
	}
	c.compiling[fi.InternalName] = true
	defer delete(c.compiling, fi.InternalName)

	typ := c.functionType(fi.Sig)
	fn := &ir.Function{Name: fi.InternalName, TypeIndex: c.b.AddFunctionType(typ)}

	prevFn, prevFlow, prevReturn, prevInst := c.curFn, c.flow, c.curFnReturn, c.curFnInst
	c.curFn = fn
	c.curFnReturn = fi.Sig.Return
	c.curFnInst = fi
	c.flow = newFlow()
	c.flow.Push("", "")

	if fi.Sig.ThisType != nil {
		c.genLocal(fi.Sig.ThisType.Native(c.target))
	}
	for i, p := range fi.Sig.Parameters {
		idx := c.genLocal(p.Native(c.target))
		c.flow.DeclareLocal(fi.Sig.ParameterNames[i], &ast.Local{InternalName: fi.Sig.ParameterNames[i], Index: int(idx), Type: p})
	}

	body := c.lowerStmts(fi.Body)
	if !c.flow.HasFlag(FlagReturns) && fi.Sig.Return.Kind != ast.KindVoid {
		// Every control path must return a value of the declared return
		// type (§4.2); no Stmt carries a source Range in this model, so the
		// diagnostic names the function instead of pointing at a span. The
		// trap still guards the fallthrough path at runtime.
		c.reportf(ast.Range{}, ast.SeverityError, "function %q does not return a value on all control paths", fi.InternalName)
		body = append(body, c.b.CreateUnreachable())
	}
	c.flow.Pop()
	fn.Body = body

	c.flow = prevFlow
	c.curFn = prevFn
	c.curFnReturn = prevReturn
	c.curFnInst = prevInst

	idx := c.b.AddFunction(fn)
	if fi.Prototype != nil && fi.Prototype.GetFlags().Has(ast.FlagExported) || fi.GetFlags().Has(ast.FlagExported) {
		c.b.AddFunctionExport(fi.InternalName, idx)
	}
	fi.TableIndex = -1
	fi.SetFlags(ast.FlagCompiled)
}

// lowerClassDecl lowers a class (§4.2 "Classes"): its instance layout was
// already computed by the Program oracle (Fields carry an Offset, §3
// invariant — class layout is a resolver concern, not the lowering
// engine's); the core compiles every constructor and method instance the
// oracle has already created, here and eagerly, as a normal function keyed
// by its mangled internal name so overriding methods in a subclass don't
// collide. An instance created later is compiled when a call reaches it.
func (c *Compiler) lowerClassDecl(d *ast.ClassDecl) {
	elem, ok := c.program.Elements()[d.Name]
	if !ok {
		return
	}
	cls, ok := elem.(*ast.ClassPrototypeInstance)
	if !ok {
		return
	}
	if cls.Prototype == nil {
		return
	}
	if ctorProto := cls.Prototype.Constructor; ctorProto != nil {
		for _, inst := range ctorProto.Instances {
			c.compileFunction(inst)
		}
	}
	for _, methodProto := range cls.Prototype.Methods {
		for _, inst := range methodProto.Instances {
			c.compileFunction(inst)
		}
	}
}
