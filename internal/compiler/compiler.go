package compiler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/ir"
	"github.com/ascwasm/ascc/logging"
)

// Compiler is the Driver (§4.1): it owns the one Builder a compile produces,
// walks every reachable source's declarations, and coordinates the Memory
// Layout, Function Table, Flow Analyzer and Numeric Bridge collaborators
// that the rest of this package implements.
type Compiler struct {
	program ast.Program
	options *Options
	sink    ast.DiagnosticSink
	logger  logging.Logger

	target *ast.Target
	b      *ir.Builder
	mem    *memoryLayout
	table  *functionTable

	flow *Flow // current function's control-state; nil between functions

	compiling   map[string]bool // internal name -> in progress, breaks reference cycles
	tempPool    map[ir.NativeKind][]uint32
	curFn       *ir.Function
	curFnReturn *ast.Type
	curFnInst   *ast.FunctionInstance
	curEnum     *ast.Enum

	trampolines map[string]uint32 // fn.InternalName -> its single trampoline's function index
}

// New constructs a Compiler over a resolved Program, ready for Compile.
func New(program ast.Program, options *Options) *Compiler {
	if options == nil {
		options = DefaultOptions()
	}
	sink := program.Diagnostics()
	return &Compiler{
		program:   program,
		options:   options,
		sink:      sink,
		logger:    logging.NewNoOpLogger(),
		target:    &ast.Target{PointerBits: options.pointerBits()},
		b:         ir.NewBuilder(),
		mem:       newMemoryLayout(uint32(options.MemoryBase)),
		table:     newFunctionTable(),
		compiling:   map[string]bool{},
		tempPool:    map[ir.NativeKind][]uint32{},
		trampolines: map[string]uint32{},
	}
}

// WithLogger overrides the no-op default, matching the teacher's own
// `With*` builder-method convention for optional collaborators.
func (c *Compiler) WithLogger(logger logging.Logger) *Compiler {
	c.logger = logger
	return c
}

func (c *Compiler) reportf(where ast.Range, sev ast.Severity, format string, args ...any) {
	c.sink.Report(ast.Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Where: where})
}

// Compile runs the Driver over every source the Program exposes and returns
// the finished Module (§4.1, §5). A module is always returned, even when
// diagnostics were reported; ok is false when the sink is a *LogSink that
// holds at least one SeverityError diagnostic, and true otherwise (any
// other sink always yields true), mirroring how a caller decides whether
// to still emit the .wasm.
func (c *Compiler) Compile() (mod *ir.Module, ok bool) {
	sources := c.program.Sources()

	if c.options.NoMemory {
		// nothing: leave Memory nil.
	} else if c.options.ImportMemory {
		c.b.AddMemoryImport("env", "memory", 1, 0)
	}

	// Pass 1: declare every `declare`d (imported) function/global first, so
	// the combined WebAssembly index space matches what AddFunction expects
	// (imports must precede definitions).
	for _, src := range sources {
		for _, decl := range src.Statements {
			c.declareImports(decl)
		}
	}

	// Pass 2: lower bodies. Under tree-shaking (the default) every
	// declaration of an entry source is lowered, exported or not, and other
	// sources are skipped, so their functions are compiled only when a
	// reference reaches them; NoTreeShaking lowers every declaration in
	// every source.
	var start []ir.Instruction
	for _, src := range sources {
		if !c.options.NoTreeShaking && !src.IsEntry {
			continue
		}
		for _, decl := range src.Statements {
			start = append(start, c.lowerDecl(decl)...)
		}
	}

	if len(c.table.indices()) > 0 {
		c.b.SetFunctionTable(c.table.indices())
	}

	heapBase := c.mem.flush(c.b, uint32(c.target.PointerBits/8))
	if !c.options.NoMemory && !c.options.ImportMemory {
		pages := c.mem.pages()
		if pages == 0 {
			pages = 1
		}
		c.b.SetMemory(pages, 0)
	}
	if !c.options.NoMemory {
		heapGlobal := c.b.AddGlobal(&ir.Global{
			Name:    "heap_base",
			Type:    c.pointerNative(),
			Mutable: false,
			Init:    []ir.Instruction{c.heapBaseConst(heapBase)},
		})
		c.b.AddGlobalExport("heap_base", heapGlobal)
	}
	if !c.options.NoMemory && !c.options.ImportMemory {
		c.b.AddMemoryExport("memory")
	}

	if len(start) > 0 {
		startFn := &ir.Function{
			Name:      "~start",
			TypeIndex: c.b.AddFunctionType(ir.FunctionType{}),
			Body:      start,
		}
		idx := c.b.AddFunction(startFn)
		c.b.SetStart(idx)
	}

	return c.b.Module(), !c.sinkHasErrors()
}

func (c *Compiler) sinkHasErrors() bool {
	if ls, ok := c.sink.(*LogSink); ok {
		return ls.HasErrors()
	}
	return false
}

func (c *Compiler) pointerNative() ir.NativeKind {
	if c.target.PointerBits == 64 {
		return ir.NativeI64
	}
	return ir.NativeI32
}

func (c *Compiler) heapBaseConst(v uint32) ir.Instruction {
	if c.target.PointerBits == 64 {
		return c.b.CreateI64(int64(v))
	}
	return c.b.CreateI32(int32(v))
}

// declareImports walks one declaration looking for `declare`d functions and
// globals, installing them as WebAssembly imports ahead of pass 2.
func (c *Compiler) declareImports(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FunctionDecl:
		if d.Declared {
			c.declareFunctionImport(d)
		}
	case *ast.GlobalDecl:
		if d.Declared {
			c.declareGlobalImport(d)
		}
	case *ast.NamespaceDecl:
		for _, m := range d.Members {
			c.declareImports(m)
		}
	}
}

// genLocal allocates the next local slot in the function currently being
// lowered, growing curFn.Locals (coalescing into the previous LocalDecl run
// when the native type matches, matching WebAssembly's run-length local
// encoding).
func (c *Compiler) genLocal(t ir.NativeKind) uint32 {
	idx := c.localCount()
	if n := len(c.curFn.Locals); n > 0 && c.curFn.Locals[n-1].Type == t {
		c.curFn.Locals[n-1].Count++
	} else {
		c.curFn.Locals = append(c.curFn.Locals, ir.LocalDecl{Count: 1, Type: t})
	}
	return idx
}

func (c *Compiler) localCount() uint32 {
	var n uint32
	for _, l := range c.curFn.Locals {
		n += l.Count
	}
	return n
}

// getTempLocal borrows a scratch local of native type t for the duration of
// lowering one expression (e.g. to hold the old value of a postfix `++`,
// or the `this` pointer across a constructor call). freeTempLocal returns it to the pool
// once the caller is done; the pool is keyed by native type since a local's
// wasm type, not its static source type, determines interchangeability.
func (c *Compiler) getTempLocal(t ir.NativeKind) uint32 {
	if pool := c.tempPool[t]; len(pool) > 0 {
		idx := pool[len(pool)-1]
		c.tempPool[t] = pool[:len(pool)-1]
		return idx
	}
	return c.genLocal(t)
}

func (c *Compiler) freeTempLocal(t ir.NativeKind, idx uint32) {
	c.tempPool[t] = append(c.tempPool[t], idx)
}

// uniqueName synthesizes a collision-free internal name for generated
// artifacts (the Precompute Bridge's wrapper functions, §4.8) by
// suffixing with a random UUID rather than a counter, so repeated compiles
// of the same sources never collide with a prior run's leftover names.
func uniqueName(prefix string) string {
	return prefix + "~" + uuid.NewString()
}
