package ir

// Visitor is called for every instruction encountered by Walk, including
// those nested inside Block/Loop/If bodies.
type Visitor func(Instruction) error

// Walk invokes vis for every instruction in body, recursing into nested
// Block/Loop/If instruction lists. It stops and returns the first error vis
// produces.
func Walk(vis Visitor, body []Instruction) error {
	for _, instr := range body {
		if err := vis(instr); err != nil {
			return err
		}
		switch v := instr.(type) {
		case Block:
			if err := Walk(vis, v.Instrs); err != nil {
				return err
			}
		case Loop:
			if err := Walk(vis, v.Instrs); err != nil {
				return err
			}
		case If:
			if err := Walk(vis, v.Then); err != nil {
				return err
			}
			if err := Walk(vis, v.Else); err != nil {
				return err
			}
		}
	}
	return nil
}

// CountInstructions returns the total number of instructions in body,
// including nested ones (unlike len(body), which counts only the top level
// and is what the pretty printer reports).
func CountInstructions(body []Instruction) int {
	n := 0
	_ = Walk(func(Instruction) error { n++; return nil }, body)
	return n
}
