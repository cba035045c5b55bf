package compiler

import (
	"unicode/utf16"

	"github.com/cespare/xxhash/v2"

	"github.com/ascwasm/ascc/ir"
)

const wasmPageSize = 65536

// memoryLayout is the Memory Layout component (§4.8): a monotonic static
// allocator handing out byte offsets for globals' backing storage, class
// instance layouts precomputed elsewhere, and interned string literals.
// Offset 0 is never handed out — it is reserved so that a null reference
// reads as an unambiguous 0 pointer (§3 invariant 8).
type memoryLayout struct {
	base     uint32
	next     uint32
	strings  map[uint64]uint32 // xxhash(string bytes) -> offset, for interning
	segments []*ir.DataSegment
}

func newMemoryLayout(base uint32) *memoryLayout {
	if base == 0 {
		base = 8 // leave the reserved null slot plus one aligned word.
	}
	return &memoryLayout{base: base, next: base, strings: map[uint64]uint32{}}
}

// allocate reserves size bytes aligned to align (a power of two) and
// returns the start offset.
func (m *memoryLayout) allocate(size, align uint32) uint32 {
	if align == 0 {
		align = 1
	}
	if rem := m.next % align; rem != 0 {
		m.next += align - rem
	}
	off := m.next
	m.next += size
	return off
}

// internString interns s by value: repeated literals with equal content
// share one data segment and offset (§4.8 "string interning"). Strings in
// this language are UTF-16, matching AssemblyScript's string
// representation: the layout is a u32 code-unit length prefix followed by
// the string's UTF-16LE code units (§4.5 scenario 5: "hello" is
// 4 + 2*5 = 14 bytes).
func (m *memoryLayout) internString(s string) uint32 {
	h := xxhash.Sum64String(s)
	if off, ok := m.strings[h]; ok {
		return off
	}
	units := utf16.Encode([]rune(s))
	data := make([]byte, 4+2*len(units))
	putU32(data, 0, uint32(len(units)))
	for i, u := range units {
		at := 4 + 2*i
		data[at] = byte(u)
		data[at+1] = byte(u >> 8)
	}
	off := m.allocate(uint32(len(data)), 4)
	m.segments = append(m.segments, &ir.DataSegment{Offset: int32(off), Init: data})
	m.strings[h] = off
	return off
}

// allocateStatic reserves room for a defined global's backing slot (globals
// that are themselves reference-typed live at a fixed memory address rather
// than in a WebAssembly global when they are mutable class-typed statics
// needing address-of semantics; scalar globals use a real wasm global
// instead and never call this).
func (m *memoryLayout) allocateStatic(size, align uint32, init []byte) uint32 {
	off := m.allocate(size, align)
	if init != nil {
		m.segments = append(m.segments, &ir.DataSegment{Offset: int32(off), Init: init})
	}
	return off
}

func putU32(b []byte, at int, v uint32) {
	b[at] = byte(v)
	b[at+1] = byte(v >> 8)
	b[at+2] = byte(v >> 16)
	b[at+3] = byte(v >> 24)
}

// alignHeapBase rounds the allocation cursor up to pointerBytes (4 or 8):
// §3 invariant 3 / §4.8 require HEAP_BASE itself to be pointer-aligned, not
// just each individual allocation, since the allocator a host pairs with
// this module hands out pointer-aligned blocks starting there.
func (m *memoryLayout) alignHeapBase(pointerBytes uint32) {
	m.allocate(0, pointerBytes)
}

// heapBase is the first byte past every static allocation made so far; it is
// exported as the `heap_base` immutable global a paired allocator/GC reads
// to know where dynamic memory may begin (§4.8).
func (m *memoryLayout) heapBase() uint32 {
	return m.next
}

// pages returns the minimum page count needed to back every static
// allocation made so far, rounding up to the WebAssembly page granularity.
func (m *memoryLayout) pages() uint32 {
	if m.next == 0 {
		return 0
	}
	return (m.next + wasmPageSize - 1) / wasmPageSize
}

// flush installs every accumulated data segment into the builder and returns
// the heap_base value for the caller to emit as a global, after aligning the
// cursor to pointerBytes (§3 invariant 3). Called once by the Driver after
// every declaration has been lowered (§4.1), since string interning happens
// throughout expression lowering.
func (m *memoryLayout) flush(b *ir.Builder, pointerBytes uint32) uint32 {
	m.alignHeapBase(pointerBytes)
	for _, seg := range m.segments {
		b.AddDataSegment(seg.Offset, seg.Init)
	}
	return m.heapBase()
}
