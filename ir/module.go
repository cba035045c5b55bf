package ir

import "github.com/ascwasm/ascc/ast"

// NativeKind is the WebAssembly value type of a parameter, result, local or
// global. It is the same type as ast.NativeKind, so a source type's Native
// projection can be handed to the IR unchanged.
type NativeKind = ast.NativeKind

const (
	NativeI32 = ast.NativeI32
	NativeI64 = ast.NativeI64
	NativeF32 = ast.NativeF32
	NativeF64 = ast.NativeF64
)

// FunctionType is a WebAssembly function signature in the module's type
// section. Function and import/indirect-call sites reference one by index.
type FunctionType struct {
	Params  []NativeKind
	Results []NativeKind
}

func (t FunctionType) Equal(o FunctionType) bool {
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// LocalDecl groups one or more contiguous locals of the same native type,
// as WebAssembly's binary local-declaration encoding requires.
type LocalDecl struct {
	Count uint32
	Type  NativeKind
}

// Function is a defined (non-imported) function body.
type Function struct {
	Name      string
	TypeIndex uint32
	Locals    []LocalDecl
	Body      []Instruction
}

// Global is a module-level global variable with a constant initializer
// expression (WebAssembly requires globals to be const-initialized).
type Global struct {
	Name    string
	Type    NativeKind
	Mutable bool
	Init    []Instruction
}

// ImportKind tags which section an Import belongs to.
type ImportKind uint8

const (
	ImportFunction ImportKind = iota
	ImportGlobal
	ImportMemory
)

type Import struct {
	Module, Name string
	Kind         ImportKind
	TypeIndex    uint32     // valid for ImportFunction
	GlobalType   NativeKind // valid for ImportGlobal
	GlobalMut    bool
}

// ExportKind tags which section an Export points into.
type ExportKind uint8

const (
	ExportFunction ExportKind = iota
	ExportGlobalKind
	ExportMemoryKind
)

type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// DataSegment is a static data initializer, placed at a constant Offset in
// linear memory (§4.8 Memory Layout).
type DataSegment struct {
	Offset int32
	Init   []byte
}

// Memory describes the module's linear memory (either defined or
// imported — see §6 `noMemory`/`importMemory`).
type Memory struct {
	MinPages uint32
	MaxPages uint32 // 0 means unbounded
	Imported bool
}

// Table is the function table used for indirect calls (§4.3 Function
// Table): a dense, append-only, zero-indexed vector of function indices.
type Table struct {
	FunctionIndices []uint32
}

// Module is the complete IR handed to a WebAssembly encoder/optimizer — the
// concrete realization of the "IR builder contract" in §6. It is the core
// lowering engine's sole externally visible artifact (§5): one Module value
// per compile.
type Module struct {
	Types     []FunctionType
	Imports   []Import
	Functions []*Function
	Globals   []*Global
	Exports   []Export
	Memory    *Memory
	Data      []*DataSegment
	Table     *Table
	Start     *uint32 // function index of the start function, if any

	// FunctionNames maps an emitted function's internal name to its
	// combined import+defined function index, mirroring how the teacher's
	// module.Names.Functions table supports post-hoc lookups (e.g. for the
	// function table and trampoline wiring).
	FunctionNames map[string]uint32
}
