package compiler

// functionTable is the Function Table component (§4.3, §4.6): an
// append-only vector of defined function-indices, used for every indirect
// call through a function-typed value (trampolines call their inner
// function directly, not through the table). Index 0 is reserved so that a null
// function reference traps instead of silently calling element 0 of a real
// function (mirrors the Memory Layout component's reserved null slot).
type functionTable struct {
	entries []uint32       // wasm function-index per table slot
	indexOf map[uint32]int // function-index -> table slot, for reuse
}

func newFunctionTable() *functionTable {
	return &functionTable{indexOf: map[uint32]int{}}
}

// elementOf returns the table index for fnIndex, appending a new entry the
// first time a given function is referenced indirectly so repeat references
// (e.g. a function passed as a callback from two call sites) share one slot.
func (t *functionTable) elementOf(fnIndex uint32) uint32 {
	if len(t.entries) == 0 {
		t.entries = append(t.entries, 0) // reserved null slot
	}
	if slot, ok := t.indexOf[fnIndex]; ok {
		return uint32(slot)
	}
	slot := len(t.entries)
	t.entries = append(t.entries, fnIndex)
	t.indexOf[fnIndex] = slot
	return uint32(slot)
}

// indices returns the finished table contents for Builder.SetFunctionTable.
// Empty (no function was ever referenced indirectly) reports no table at
// all, so the Driver can skip emitting a table section.
func (t *functionTable) indices() []uint32 {
	return t.entries
}
