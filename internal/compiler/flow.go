package compiler

import (
	"fmt"

	"github.com/ascwasm/ascc/ast"
)

// Flag is one bit of per-scope control-state the Flow Analyzer tracks
// (§4.3).
type Flag uint8

const (
	FlagReturns Flag = 1 << iota
	FlagPossiblyBreaks
	FlagPossiblyContinues
	FlagPossiblyThrows
)

// flowFrame is one lexical construct's control-state record: a block, an
// if-arm, a loop body, or a switch-case body (§4.3). A `do` body gets its
// own frame too, for its labels, but its flags (RETURNS included) are
// folded back into the enclosing frame since it always executes at least
// once.
type flowFrame struct {
	flags         Flag
	breakLabel    string // "" if this frame is not a break/continue target
	continueLabel string
	locals        map[string]*localBinding
}

// localBinding is what a scope remembers about a declared name: either a
// real stack slot (*ast.Local with Index >= 0) or a virtual, slot-less
// const binding carrying only a folded value (§4.3 "virtual local").
type localBinding struct {
	local *ast.Local
}

// Flow is the per-function control-state stack (§4.3). A fresh Flow is
// pushed by Declaration Lowering at the start of every function body
// (§4.2) and finalized when the body is fully lowered.
type Flow struct {
	frames     []*flowFrame
	labelSeq   int // per-function monotonically increasing context counter
}

func newFlow() *Flow {
	return &Flow{}
}

// Push opens a new scope. breakLabel/continueLabel are "" unless this frame
// is a loop or switch body that break/continue may target.
func (f *Flow) Push(breakLabel, continueLabel string) {
	f.frames = append(f.frames, &flowFrame{
		breakLabel:    breakLabel,
		continueLabel: continueLabel,
		locals:        map[string]*localBinding{},
	})
}

// Pop closes the innermost scope and returns its final flags, so the caller
// can propagate RETURNS to the parent per the per-statement rules in §4.3.
func (f *Flow) Pop() Flag {
	n := len(f.frames)
	fr := f.frames[n-1]
	f.frames = f.frames[:n-1]
	return fr.flags
}

func (f *Flow) current() *flowFrame {
	return f.frames[len(f.frames)-1]
}

func (f *Flow) SetFlag(flag Flag)         { f.current().flags |= flag }
func (f *Flow) HasFlag(flag Flag) bool    { return f.current().flags&flag != 0 }
func (f *Flow) MergeChild(child Flag)     { f.current().flags |= child }

// Flags returns the innermost frame's full flag set, letting a caller diff
// two snapshots to see what a nested lowering pass contributed (§4.3
// switch-case fallthrough analysis, which needs each case's own
// contribution even though every case shares one frame).
func (f *Flow) Flags() Flag { return f.current().flags }

// NextLabelContext returns the next context number for a loop/switch about
// to be planned, used to build "break|<ctx>", "continue|<ctx>" and
// "case<i>|<ctx>" label names (§4.3).
func (f *Flow) NextLabelContext() int {
	f.labelSeq++
	return f.labelSeq
}

func breakLabelName(ctx int) string    { return fmt.Sprintf("break|%d", ctx) }
func continueLabelName(ctx int) string { return fmt.Sprintf("continue|%d", ctx) }
func caseLabelName(i, ctx int) string  { return fmt.Sprintf("case%d|%d", i, ctx) }

// NearestBreak / NearestContinue walk outward from the innermost frame for
// the first non-empty label, implementing "the nearest enclosing
// break/continue label" (§4.3). Labeled break/continue are rejected by the
// caller before this is consulted (§4.3, §1 Non-goals).
func (f *Flow) NearestBreak() (string, bool) {
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].breakLabel != "" {
			return f.frames[i].breakLabel, true
		}
	}
	return "", false
}

func (f *Flow) NearestContinue() (string, bool) {
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].continueLabel != "" {
			return f.frames[i].continueLabel, true
		}
	}
	return "", false
}

// DeclareLocal registers name in the innermost scope. Duplicate names
// within the same scope are rejected (§4.3 "Duplicate scoped names are
// rejected"); shadowing an outer scope's name is fine and is exactly how
// nested blocks are meant to work.
func (f *Flow) DeclareLocal(name string, local *ast.Local) error {
	fr := f.current()
	if _, exists := fr.locals[name]; exists {
		return fmt.Errorf("duplicate declaration of %q in this scope", name)
	}
	fr.locals[name] = &localBinding{local: local}
	return nil
}

// LookupLocal walks scopes from innermost to outermost, implementing
// lexical shadowing.
func (f *Flow) LookupLocal(name string) (*ast.Local, bool) {
	for i := len(f.frames) - 1; i >= 0; i-- {
		if b, ok := f.frames[i].locals[name]; ok {
			return b.local, true
		}
	}
	return nil, false
}
