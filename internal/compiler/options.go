package compiler

// Options is the Options record named in spec §6 "CLI surface and
// environment": the driver's tunable behavior, bound to real flags by the
// cmd package rather than parsed here.
type Options struct {
	// Target selects the pointer/memory model: 32 (default) or 64.
	Target int

	// NoTreeShaking lowers every declaration of every source rather than
	// only the entry sources' declarations and what they reference (§4.1).
	NoTreeShaking bool

	// NoAssert names the option that replaces assertion builtin calls with
	// no-ops. No lowering in this package reads it; builtin calls are not
	// lowered specially here.
	NoAssert bool

	// NoMemory skips setting up a default memory section.
	NoMemory bool

	// ImportMemory imports memory from env.memory instead of defining it.
	ImportMemory bool

	// MemoryBase is the start offset for static memory. Zero means "use
	// the default past the reserved null slot" (§3 invariant 8).
	MemoryBase int

	// AllocateImpl names the allocator builtin `new` lowering (§4.5) calls
	// into. FreeImpl names the matching free builtin; no lowering in this
	// package calls it.
	AllocateImpl string
	FreeImpl     string

	// SourceMap names the source-map option. No lowering in this package
	// reads it, and emitted instructions carry no source Range.
	SourceMap bool
}

// DefaultOptions returns the Options a bare `compile` invocation uses, per
// the defaults table in spec §6.
func DefaultOptions() *Options {
	return &Options{
		Target:       32,
		AllocateImpl: "allocate_memory",
		FreeImpl:     "free_memory",
	}
}

func (o *Options) pointerBits() int {
	if o.Target == 64 {
		return 64
	}
	return 32
}
