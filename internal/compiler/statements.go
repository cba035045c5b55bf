package compiler

import (
	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
)

// lowerStmts lowers a statement list sharing the current (innermost) Flow
// scope — callers that need a fresh scope (a block body, an if-arm, a loop
// body) push one first.
func (c *Compiler) lowerStmts(stmts []ast.Stmt) []ir.Instruction {
	var out []ir.Instruction
	for _, s := range stmts {
		out = append(out, c.lowerStmt(s)...)
	}
	return out
}

// lowerStmt lowers one statement (§4.3). It propagates control-state flags
// onto the current Flow scope as a side effect, per the per-statement rules
// named in §4.3.
func (c *Compiler) lowerStmt(stmt ast.Stmt) []ir.Instruction {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return c.lowerBlock(s)
	case *ast.IfStmt:
		return c.lowerIf(s)
	case *ast.WhileStmt:
		return c.lowerWhile(s)
	case *ast.DoStmt:
		return c.lowerDo(s)
	case *ast.ForStmt:
		return c.lowerFor(s)
	case *ast.SwitchStmt:
		return c.lowerSwitch(s)
	case *ast.ReturnStmt:
		return c.lowerReturn(s)
	case *ast.ThrowStmt:
		return c.lowerThrow(s)
	case *ast.BreakStmt:
		return c.lowerBreak(s)
	case *ast.ContinueStmt:
		return c.lowerContinue(s)
	case *ast.VariableStmt:
		return c.lowerVariableStmt(s)
	case *ast.ExpressionStmt:
		instrs, typ := c.lowerExpr(s.Value, false)
		if typ.Kind != ast.KindVoid {
			instrs = append(instrs, c.b.CreateDrop())
		}
		return instrs
	}
	panicInternal("lowerStmt", "unhandled statement %T", stmt)
	return nil
}

func (c *Compiler) lowerBlock(s *ast.BlockStmt) []ir.Instruction {
	c.flow.Push("", "")
	body := c.lowerStmts(s.Stmts)
	flags := c.flow.Pop()
	c.flow.MergeChild(flags)
	return []ir.Instruction{c.b.CreateBlock(nil, body)}
}

// lowerIf lowers an if/else (§4.3): RETURNS propagates to the parent only
// when both arms are present and both return; POSSIBLY_BREAKS/CONTINUES/
// THROWS propagate from either arm unconditionally (an arm may or may not
// run).
func (c *Compiler) lowerIf(s *ast.IfStmt) []ir.Instruction {
	cond, condType := c.lowerExpr(s.Condition, false)
	cond = c.truthy(condType, cond)

	c.flow.Push("", "")
	then := c.lowerStmt(s.Then)
	thenFlags := c.flow.Pop()

	var els []ir.Instruction
	var elseFlags Flag
	hasElse := s.Else != nil
	if hasElse {
		c.flow.Push("", "")
		els = c.lowerStmt(s.Else)
		elseFlags = c.flow.Pop()
	}

	c.flow.MergeChild((thenFlags | elseFlags) &^ FlagReturns)
	if hasElse && thenFlags&FlagReturns != 0 && elseFlags&FlagReturns != 0 {
		c.flow.SetFlag(FlagReturns)
	}

	return append(cond, c.b.CreateIf(nil, then, els))
}

// lowerWhile lowers a pre-test loop (§4.3). RETURNS never propagates (the
// condition may be false on entry, so the body might not run even once) —
// the same rule `for` applies when it has a condition: only `do` and a
// condition-less `for` are guaranteed to execute their body.
func (c *Compiler) lowerWhile(s *ast.WhileStmt) []ir.Instruction {
	ctx := c.flow.NextLabelContext()
	breakLbl, continueLbl := breakLabelName(ctx), continueLabelName(ctx)

	cond, condType := c.lowerExpr(s.Condition, false)
	cond = c.truthy(condType, cond)

	c.flow.Push(breakLbl, continueLbl)
	body := c.lowerStmt(s.Body)
	bodyFlags := c.flow.Pop()
	c.flow.MergeChild(bodyFlags &^ (FlagReturns | FlagPossiblyBreaks | FlagPossiblyContinues))

	// while (cond) body  =>
	// block $break
	//   loop $continue
	//     br_if $break (i32.eqz cond)
	//     body
	//     br $continue
	//   end
	// end
	notCond := c.truthyNegate(cond)
	inner := append([]ir.Instruction{}, notCond...)
	inner = append(inner, c.b.CreateBreak(1, true)) // br_if out to $break
	inner = append(inner, body...)
	inner = append(inner, c.b.CreateBreak(0, false)) // br $continue
	loop := c.b.CreateLoop(nil, inner)
	return []ir.Instruction{c.b.CreateBlock(nil, []ir.Instruction{loop})}
}

// lowerDo lowers a post-test loop (§4.3): the body always runs at least
// once, so a `do` body's RETURNS does propagate, since there is no way to
// skip it.
func (c *Compiler) lowerDo(s *ast.DoStmt) []ir.Instruction {
	ctx := c.flow.NextLabelContext()
	breakLbl, continueLbl := breakLabelName(ctx), continueLabelName(ctx)

	// push a frame to carry the new labels, then fold its flags, RETURNS
	// included, straight back into the enclosing frame. Locals declared in
	// the body belong to the pushed frame and end with it.
	c.flow.Push(breakLbl, continueLbl)
	body := c.lowerStmt(s.Body)
	bodyFlags := c.flow.Pop()
	c.flow.MergeChild(bodyFlags &^ (FlagPossiblyBreaks | FlagPossiblyContinues))
	if bodyFlags&FlagReturns != 0 {
		c.flow.SetFlag(FlagReturns)
	}

	cond, condType := c.lowerExpr(s.Condition, false)
	cond = c.truthy(condType, cond)

	inner := append([]ir.Instruction{}, body...)
	inner = append(inner, cond...)
	inner = append(inner, c.b.CreateBreak(0, true)) // br_if $continue
	loop := c.b.CreateLoop(nil, inner)
	return []ir.Instruction{c.b.CreateBlock(nil, []ir.Instruction{loop})}
}

// lowerFor lowers a C-style for loop (§4.3): with a real condition, RETURNS
// never propagates (the condition may be false on entry, so the body might
// never run), but an omitted condition makes the loop always-true, so the
// body is guaranteed to run at least once and RETURNS does propagate.
func (c *Compiler) lowerFor(s *ast.ForStmt) []ir.Instruction {
	c.flow.Push("", "") // scope for the init declarator, if any
	var out []ir.Instruction
	if s.Init != nil {
		out = append(out, c.lowerStmt(s.Init)...)
	}

	ctx := c.flow.NextLabelContext()
	breakLbl, continueLbl := breakLabelName(ctx), continueLabelName(ctx)

	var condInstrs []ir.Instruction
	if s.Condition != nil {
		ci, ct := c.lowerExpr(s.Condition, false)
		condInstrs = c.truthyNegate(c.truthy(ct, ci))
	}

	c.flow.Push(breakLbl, continueLbl)
	body := c.lowerStmt(s.Body)
	bodyFlags := c.flow.Pop()
	if s.Condition == nil {
		c.flow.MergeChild(bodyFlags &^ (FlagPossiblyBreaks | FlagPossiblyContinues))
	} else {
		c.flow.MergeChild(bodyFlags &^ (FlagReturns | FlagPossiblyBreaks | FlagPossiblyContinues))
	}

	var update []ir.Instruction
	if s.Update != nil {
		ui, ut := c.lowerExpr(s.Update, false)
		update = ui
		if ut.Kind != ast.KindVoid {
			update = append(update, c.b.CreateDrop())
		}
	}

	inner := append([]ir.Instruction{}, condInstrs...)
	if len(condInstrs) > 0 {
		inner = append(inner, c.b.CreateBreak(1, true))
	}
	inner = append(inner, body...)
	inner = append(inner, update...)
	inner = append(inner, c.b.CreateBreak(0, false))
	loop := c.b.CreateLoop(nil, inner)
	out = append(out, c.b.CreateBlock(nil, []ir.Instruction{loop}))

	initFlags := c.flow.Pop()
	c.flow.MergeChild(initFlags &^ FlagReturns)
	return out
}

// lowerSwitch lowers a switch statement (§4.3) to a sequential
// compare-and-br_if dispatch (lowerSwitchDispatch; no br_table is emitted),
// falling through between cases exactly as the source
// language specifies (each case's body shares one block per case, nested
// so a `break` exits the outermost and falling off the end of a case
// continues into the next one's block).
func (c *Compiler) lowerSwitch(s *ast.SwitchStmt) []ir.Instruction {
	disc, discType := c.lowerExpr(s.Discriminant, true)
	ctx := c.flow.NextLabelContext()
	breakLbl := breakLabelName(ctx)

	c.flow.Push(breakLbl, "")

	defaultIdx := -1
	targets := make([]uint32, 0, len(s.Cases))
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIdx = i
		}
	}

	// Build nested blocks innermost-first: case N's body is the innermost,
	// wrapped by case N-1's block, and so on, so falling through a case
	// continues executing the next case's block from the top. Every case
	// shares this one frame, so caseReturns/caseBreaks record what each
	// case itself contributed by diffing the frame's flags before and
	// after lowering it (§4.3 fallthrough RETURNS propagation below).
	caseReturns := make([]bool, len(s.Cases))
	caseBreaks := make([]bool, len(s.Cases))
	var body []ir.Instruction
	for i := len(s.Cases) - 1; i >= 0; i-- {
		before := c.flow.Flags()
		caseBody := c.lowerStmts(s.Cases[i].Body)
		added := c.flow.Flags() &^ before
		caseReturns[i] = added&FlagReturns != 0
		caseBreaks[i] = added&FlagPossiblyBreaks != 0
		wrapped := append(caseBody, body...)
		body = []ir.Instruction{c.b.CreateBlock(nil, wrapped)}
	}

	// The dispatch block: the discriminant is compared against each case
	// test in source order, with a br_if per case (case tests may be
	// arbitrary expressions, not just integer literals, so every switch
	// uses this sequential comparison).
	dispatch := c.lowerSwitchDispatch(s, disc, discType, defaultIdx, len(s.Cases))
	out := append(dispatch, body...)

	flags := c.flow.Pop()

	// RETURNS propagates only when a default exists (every discriminant
	// value lands in some case) and, entered at any case, the fallthrough
	// chain always reaches a case that returns without an intervening
	// break (§4.3 "if a default exists and every case body either falls
	// through or returns").
	propagatesReturns := defaultIdx != -1
	tailReturns := false
	for i := len(s.Cases) - 1; i >= 0; i-- {
		var reaches bool
		switch {
		case caseReturns[i]:
			reaches = true
		case caseBreaks[i]:
			reaches = false
		default:
			reaches = tailReturns
		}
		if !reaches {
			propagatesReturns = false
		}
		tailReturns = reaches
	}

	c.flow.MergeChild(flags &^ (FlagPossiblyBreaks | FlagReturns))
	if propagatesReturns {
		c.flow.SetFlag(FlagReturns)
	}
	_ = targets

	return []ir.Instruction{c.b.CreateBlock(nil, out)}
}

// lowerSwitchDispatch emits the sequential-compare form of switch dispatch:
// for each case (in source order) compare the discriminant, held in a temp
// local, against the case's test expression and br_if into that case's
// depth; fall through to the default (or past every case) otherwise.
func (c *Compiler) lowerSwitchDispatch(s *ast.SwitchStmt, disc []ir.Instruction, discType *ast.Type, defaultIdx, caseCount int) []ir.Instruction {
	native := discType.Native(c.target)
	tmp := c.getTempLocal(native)
	defer c.freeTempLocal(native, tmp)

	out := append([]ir.Instruction{}, disc...)
	out = append(out, c.b.SetLocal(tmp))

	depthOf := func(i int) uint32 {
		// case i's block sits i+1 levels inside the dispatch block (each
		// case wraps the next), plus this dispatch block itself.
		return uint32(caseCount - i)
	}

	for i, cs := range s.Cases {
		if cs.Test == nil {
			continue
		}
		testInstrs, testType := c.lowerExpr(*cs.Test, true)
		common, ok := commonType(discType, testType)
		if !ok {
			common = discType
		}
		out = append(out, c.b.GetLocal(tmp))
		out = c.convert(discType, common, true, out)
		out = append(out, c.convert(testType, common, true, testInstrs)...)
		out = append(out, c.compareOp(common, ast.BinEq))
		out = append(out, c.b.CreateBreak(depthOf(i), true))
	}
	if defaultIdx >= 0 {
		out = append(out, c.b.CreateBreak(depthOf(defaultIdx), false))
	}
	return out
}

func (c *Compiler) truthyNegate(cond []ir.Instruction) []ir.Instruction {
	return append(cond, c.b.CreateUnary(ir.OpI32Eqz))
}

// lowerReturn lowers a return statement (§4.3): RETURNS is set
// unconditionally in the current scope.
func (c *Compiler) lowerReturn(s *ast.ReturnStmt) []ir.Instruction {
	c.flow.SetFlag(FlagReturns)
	var out []ir.Instruction
	if s.Value != nil {
		valInstrs, valType := c.lowerExpr(s.Value, true)
		out = append(out, valInstrs...)
		out = c.implicitConvert(valType, c.curFnReturn, true, s.Value.Range(), out)
	}
	return append(out, c.b.CreateReturn())
}

// lowerThrow lowers a throw statement (§4.3): RETURNS is set unconditionally
// since control never falls through past a throw, same as return. The
// runtime throw mechanism (trap vs. unwind) is a builtin-bridge concern out
// of this module's scope; the core only ever needs to know that control
// does not continue.
func (c *Compiler) lowerThrow(s *ast.ThrowStmt) []ir.Instruction {
	c.flow.SetFlag(FlagReturns | FlagPossiblyThrows)
	valInstrs, valType := c.lowerExpr(s.Value, false)
	out := append(valInstrs, c.b.CreateDrop())
	_ = valType
	return append(out, c.b.CreateUnreachable())
}

func (c *Compiler) lowerBreak(s *ast.BreakStmt) []ir.Instruction {
	if s.Label != "" {
		panicInternal("lowerBreak", "labeled break is not supported")
	}
	lbl, ok := c.flow.NearestBreak()
	if !ok {
		panicInternal("lowerBreak", "break outside of a loop or switch")
	}
	c.flow.SetFlag(FlagPossiblyBreaks)
	return []ir.Instruction{c.b.CreateBreak(c.depthToLabel(lbl), false)}
}

func (c *Compiler) lowerContinue(s *ast.ContinueStmt) []ir.Instruction {
	if s.Label != "" {
		panicInternal("lowerContinue", "labeled continue is not supported")
	}
	lbl, ok := c.flow.NearestContinue()
	if !ok {
		panicInternal("lowerContinue", "continue outside of a loop")
	}
	c.flow.SetFlag(FlagPossiblyContinues)
	return []ir.Instruction{c.b.CreateBreak(c.depthToLabel(lbl), false)}
}

// depthToLabel resolves a named break/continue label to a relative branch
// depth. Since this IR's Block/Loop instructions don't carry source-level
// label names (only structural nesting), the label is tracked purely to
// decide WHICH depth to target: break always branches out of its loop's
// enclosing block (depth 1 from the loop), continue always branches to the
// top of the loop itself (depth 0). The label string is only needed to
// confirm that a break/continue syntactically nested inside another
// construct (e.g. a switch inside a loop) targets the right one, which
// NearestBreak/NearestContinue already resolved by scope; so this helper
// recovers depth 0 vs 1 from the label's "break|"/"continue|" prefix.
func (c *Compiler) depthToLabel(lbl string) uint32 {
	if len(lbl) >= 6 && lbl[:6] == "break|" {
		return 1
	}
	return 0
}

// lowerVariableStmt lowers a local `let`/`const` declaration list (§4.3,
// §4.7 "variable declaration"). A `const` declarator whose initializer
// folds becomes a virtual (slot-less) local — DeclareLocal records it with
// Index -1 and Constant() returns the folded value; every later read
// substitutes the constant directly instead of emitting a local.get.
func (c *Compiler) lowerVariableStmt(s *ast.VariableStmt) []ir.Instruction {
	var out []ir.Instruction
	for _, decl := range s.Declarators {
		typ := decl.Type
		var initInstrs []ir.Instruction
		if decl.Initializer != nil {
			ii, it := c.lowerExpr(decl.Initializer, true)
			if typ == nil {
				typ = it
			}
			initInstrs = c.implicitConvert(it, typ, true, decl.Initializer.Range(), ii)
		} else if typ == nil {
			typ = ast.I32
		}

		if s.Const && decl.Initializer != nil {
			if folded, ok := c.foldConstExpr(typ, initInstrs); ok {
				local := &ast.Local{InternalName: decl.Name, Index: -1, Type: typ, FoldedValue: folded}
				if err := c.flow.DeclareLocal(decl.Name, local); err != nil {
					c.reportf(decl.Initializer.Range(), ast.SeverityError, "%s", err)
				}
				continue
			}
		}

		idx := c.genLocal(typ.Native(c.target))
		local := &ast.Local{InternalName: decl.Name, Index: int(idx), Type: typ}
		if err := c.flow.DeclareLocal(decl.Name, local); err != nil {
			rng := ast.Range{}
			if decl.Initializer != nil {
				rng = decl.Initializer.Range()
			}
			c.reportf(rng, ast.SeverityError, "%s", err)
		}
		if decl.Initializer != nil {
			out = append(out, initInstrs...)
			out = append(out, c.b.SetLocal(idx))
		}
	}
	return out
}
