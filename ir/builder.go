package ir

import "fmt"

// Builder assembles a Module incrementally. It is the concrete realization
// of the "IR builder contract" external collaborator named in §6: the
// lowering engine builds the module only through Builder methods and never
// writes Module fields directly (it reads them, through Module, for index
// lookups), so that a real WebAssembly encoder/optimizer could sit behind
// the same method set.
type Builder struct {
	module    *Module
	typeIndex map[string]uint32 // dedup key -> index, so repeated signatures share one entry
	funcIndex map[string]uint32
}

// NewBuilder returns an empty Builder ready to accumulate a Module.
func NewBuilder() *Builder {
	return &Builder{
		module: &Module{
			FunctionNames: map[string]uint32{},
		},
		typeIndex: map[string]uint32{},
		funcIndex: map[string]uint32{},
	}
}

// Module returns the Module under construction. Callers must not mutate it;
// it is exposed for the encoder stage and for pretty-printing/tests only.
func (b *Builder) Module() *Module { return b.module }

func typeKey(t FunctionType) string {
	return fmt.Sprintf("%v->%v", t.Params, t.Results)
}

// AddFunctionType interns a function signature, returning its index in the
// type section. Equal signatures (by value-type lists) share one index.
func (b *Builder) AddFunctionType(t FunctionType) uint32 {
	key := typeKey(t)
	if idx, ok := b.typeIndex[key]; ok {
		return idx
	}
	idx := uint32(len(b.module.Types))
	b.module.Types = append(b.module.Types, t)
	b.typeIndex[key] = idx
	return idx
}

// AddFunction appends a fully-lowered function body and returns its
// function-index (counting imported functions first, matching WebAssembly's
// single function-index space).
func (b *Builder) AddFunction(fn *Function) uint32 {
	b.module.Functions = append(b.module.Functions, fn)
	idx := b.functionImportCount() + uint32(len(b.module.Functions)) - 1
	b.module.FunctionNames[fn.Name] = idx
	b.funcIndex[fn.Name] = idx
	return idx
}

// RemoveFunction deletes a previously added function by name — used by the
// Precompute Bridge to discard the synthetic function it wraps an
// expression in once the constant (if any) has been extracted (§4.8).
func (b *Builder) RemoveFunction(name string) {
	idx, ok := b.funcIndex[name]
	if !ok {
		return
	}
	definedIdx := int(idx) - int(b.functionImportCount())
	if definedIdx < 0 || definedIdx >= len(b.module.Functions) {
		return
	}
	b.module.Functions = append(b.module.Functions[:definedIdx], b.module.Functions[definedIdx+1:]...)
	delete(b.funcIndex, name)
	delete(b.module.FunctionNames, name)
}

// FunctionIndex looks up a previously added/imported function by name.
func (b *Builder) FunctionIndex(name string) (uint32, bool) {
	idx, ok := b.funcIndex[name]
	return idx, ok
}

func (b *Builder) functionImportCount() uint32 {
	var n uint32
	for _, imp := range b.module.Imports {
		if imp.Kind == ImportFunction {
			n++
		}
	}
	return n
}

// AddGlobal appends a defined global and returns its global-index (counting
// imported globals first).
func (b *Builder) AddGlobal(g *Global) uint32 {
	b.module.Globals = append(b.module.Globals, g)
	return b.globalImportCount() + uint32(len(b.module.Globals)) - 1
}

func (b *Builder) globalImportCount() uint32 {
	var n uint32
	for _, imp := range b.module.Imports {
		if imp.Kind == ImportGlobal {
			n++
		}
	}
	return n
}

// AddFunctionImport declares an imported function and returns its
// function-index. Imports must be added before any AddFunction call to keep
// WebAssembly's combined index space consistent; the Driver honors this by
// lowering all `declare`d functions before any function with a body.
func (b *Builder) AddFunctionImport(module, name string, sig FunctionType) uint32 {
	typeIdx := b.AddFunctionType(sig)
	b.module.Imports = append(b.module.Imports, Import{Module: module, Name: name, Kind: ImportFunction, TypeIndex: typeIdx})
	idx := b.functionImportCount() - 1
	b.funcIndex[name] = idx
	b.module.FunctionNames[name] = idx
	return idx
}

// AddGlobalImport declares an imported global and returns its global-index.
func (b *Builder) AddGlobalImport(module, name string, t NativeKind, mutable bool) uint32 {
	b.module.Imports = append(b.module.Imports, Import{Module: module, Name: name, Kind: ImportGlobal, GlobalType: t, GlobalMut: mutable})
	return b.globalImportCount() - 1
}

// AddMemoryImport declares the module's memory as imported rather than
// defined (§6 `importMemory`).
func (b *Builder) AddMemoryImport(module, name string, minPages, maxPages uint32) {
	b.module.Imports = append(b.module.Imports, Import{Module: module, Name: name, Kind: ImportMemory})
	b.module.Memory = &Memory{MinPages: minPages, MaxPages: maxPages, Imported: true}
}

// SetMemory defines the module's own linear memory (mutually exclusive with
// AddMemoryImport; the Driver honors §6 `noMemory` by calling neither).
func (b *Builder) SetMemory(minPages, maxPages uint32) {
	b.module.Memory = &Memory{MinPages: minPages, MaxPages: maxPages}
}

// AddFunctionExport / AddGlobalExport expose a function or global under the
// given export name (§6 "exported module surface").
func (b *Builder) AddFunctionExport(name string, index uint32) {
	b.module.Exports = append(b.module.Exports, Export{Name: name, Kind: ExportFunction, Index: index})
}

func (b *Builder) AddGlobalExport(name string, index uint32) {
	b.module.Exports = append(b.module.Exports, Export{Name: name, Kind: ExportGlobalKind, Index: index})
}

func (b *Builder) AddMemoryExport(name string) {
	b.module.Exports = append(b.module.Exports, Export{Name: name, Kind: ExportMemoryKind, Index: 0})
}

// AddDataSegment appends a static data segment (§4.8 Memory Layout).
func (b *Builder) AddDataSegment(offset int32, data []byte) {
	b.module.Data = append(b.module.Data, &DataSegment{Offset: offset, Init: data})
}

// SetFunctionTable installs the function table (§4.3); it replaces any
// previously set table (only the Function Table component ever calls this,
// once, after planning completes).
func (b *Builder) SetFunctionTable(indices []uint32) {
	b.module.Table = &Table{FunctionIndices: indices}
}

// SetStart designates fnIndex as the module's start function (§4.1: only
// called when the synthetic start function's body is non-empty).
func (b *Builder) SetStart(fnIndex uint32) {
	idx := fnIndex
	b.module.Start = &idx
}

// --- Structured control-flow constructors ---
//
// These return an Instruction value; callers append it to the instruction
// list they are building, same as constructing an instruction.I32Add{}
// literal in the teacher's wasm compiler — the "Create*" naming mirrors the
// binaryen-style IR builder API this module's CLI surface is modeled on.

func (b *Builder) CreateBlock(resultType *NativeKind, body []Instruction) Instruction {
	return Block{BlockType: resultType, Instrs: body}
}

func (b *Builder) CreateLoop(resultType *NativeKind, body []Instruction) Instruction {
	return Loop{BlockType: resultType, Instrs: body}
}

func (b *Builder) CreateIf(resultType *NativeKind, then, els []Instruction) Instruction {
	return If{BlockType: resultType, Then: then, Else: els}
}

func (b *Builder) CreateBreak(depth uint32, conditional bool) Instruction {
	if conditional {
		return BrIf{Index: depth}
	}
	return Br{Index: depth}
}

// CreateSwitch lowers to a br_table; targets[i] is the jump depth for
// discriminant value i, defaultTarget the fallback.
func (b *Builder) CreateSwitch(targets []uint32, defaultTarget uint32) Instruction {
	return BrTable{Targets: targets, Default: defaultTarget}
}

func (b *Builder) CreateBinary(op Opcode) Instruction   { return Binary{Op_: op} }
func (b *Builder) CreateUnary(op Opcode) Instruction    { return Unary{Op_: op} }
func (b *Builder) CreateCompare(op Opcode) Instruction  { return Compare{Op_: op} }
func (b *Builder) CreateConvert(op Opcode, signed bool) Instruction {
	return Convert{Op_: op, Signed: signed}
}

func (b *Builder) CreateLoad(op Opcode, offset int32, align uint32) Instruction {
	return Load{Op_: op, MemArg: MemArg{Offset: offset, Align: align}}
}

func (b *Builder) CreateStore(op Opcode, offset int32, align uint32) Instruction {
	return Store{Op_: op, MemArg: MemArg{Offset: offset, Align: align}}
}

func (b *Builder) CreateCall(fnIndex uint32) Instruction { return Call{Index: fnIndex} }

func (b *Builder) CreateCallIndirect(typeIndex uint32) Instruction {
	return CallIndirect{TypeIndex: typeIndex}
}

func (b *Builder) SetLocal(index uint32) Instruction  { return LocalSet{Index: index} }
func (b *Builder) TeeLocal(index uint32) Instruction  { return LocalTee{Index: index} }
func (b *Builder) GetLocal(index uint32) Instruction  { return LocalGet{Index: index} }
func (b *Builder) SetGlobal(index uint32) Instruction { return GlobalSet{Index: index} }
func (b *Builder) GetGlobal(index uint32) Instruction { return GlobalGet{Index: index} }

func (b *Builder) CreateI32(v int32) Instruction  { return I32Const{Value: v} }
func (b *Builder) CreateI64(v int64) Instruction  { return I64Const{Value: v} }
func (b *Builder) CreateF32(v float32) Instruction { return F32Const{Value: v} }
func (b *Builder) CreateF64(v float64) Instruction { return F64Const{Value: v} }
func (b *Builder) CreateUnreachable() Instruction  { return Unreachable{} }
func (b *Builder) CreateNop() Instruction          { return NopInstr{} }
func (b *Builder) CreateDrop() Instruction         { return Drop{} }
func (b *Builder) CreateReturn() Instruction       { return Return{} }

// CloneExpression deep-copies an instruction sequence so it may be emitted
// at two call sites without the two copies aliasing (§4.4 "the left operand
// must be read twice: if safely cloneable, clone").
func (b *Builder) CloneExpression(expr []Instruction) []Instruction {
	out := make([]Instruction, len(expr))
	for i, instr := range expr {
		switch v := instr.(type) {
		case Block:
			out[i] = Block{BlockType: v.BlockType, Instrs: b.CloneExpression(v.Instrs)}
		case Loop:
			out[i] = Loop{BlockType: v.BlockType, Instrs: b.CloneExpression(v.Instrs)}
		case If:
			out[i] = If{BlockType: v.BlockType, Then: b.CloneExpression(v.Then), Else: b.CloneExpression(v.Else)}
		default:
			out[i] = instr
		}
	}
	return out
}

// RunPasses runs a named backend optimization pass over every function
// currently in the builder. Only "precompute" is implemented (the constant
// folder the Precompute Bridge depends on, §4.8); other names are accepted
// as no-ops so callers may request a pass pipeline without the core needing
// to know which passes a real backend additionally supports.
func (b *Builder) RunPasses(names ...string) error {
	for _, name := range names {
		if name == "precompute" {
			for _, fn := range b.module.Functions {
				fn.Body = precomputeFold(fn.Body)
			}
		}
	}
	return nil
}
