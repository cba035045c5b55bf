package ir

import (
	"fmt"
	"io"
)

// Pretty writes a human-readable summary of m to w, in the same
// section-by-section shape as the teacher's module.Pretty.
func Pretty(w io.Writer, m *Module) {
	fmt.Fprintln(w, "types:")
	for i, t := range m.Types {
		fmt.Fprintf(w, "  - [%d] %v -> %v\n", i, t.Params, t.Results)
	}
	fmt.Fprintln(w, "imports:")
	for _, imp := range m.Imports {
		fmt.Fprintf(w, "  - %s.%s\n", imp.Module, imp.Name)
	}
	fmt.Fprintln(w, "functions:")
	for _, fn := range m.Functions {
		fmt.Fprintf(w, "  - %s (%d instrs)\n", fn.Name, len(fn.Body))
	}
	fmt.Fprintln(w, "globals:")
	for _, g := range m.Globals {
		fmt.Fprintf(w, "  - %s: %v mutable=%v\n", g.Name, g.Type, g.Mutable)
	}
	fmt.Fprintln(w, "exports:")
	for _, e := range m.Exports {
		fmt.Fprintf(w, "  - %s -> %d\n", e.Name, e.Index)
	}
	fmt.Fprintln(w, "data:")
	for _, seg := range m.Data {
		fmt.Fprintf(w, "  - offset=%d len=%d\n", seg.Offset, len(seg.Init))
	}
	if m.Table != nil {
		fmt.Fprintf(w, "table: %d entries\n", len(m.Table.FunctionIndices))
	}
	if m.Start != nil {
		fmt.Fprintf(w, "start: %d\n", *m.Start)
	}
}
