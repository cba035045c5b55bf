// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/internal/compiler"
	"github.com/ascwasm/ascc/ir"
	"github.com/ascwasm/ascc/logging"
	"github.com/ascwasm/ascc/util"
)

// LoadProgram resolves a --program document into the ast.Program oracle the
// core consumes. Parsing and semantic resolution are an external oracle
// (spec §6 "out of scope for the core"): this module never ships a parser
// or type checker of its own, so a host wiring a real frontend in front of
// this CLI replaces this variable with its own loader before RootCommand
// executes. Left unset, `compile` reports a clear error rather than
// crashing on a nil dereference deep inside the driver.
var LoadProgram func(path string) (ast.Program, error)

type compileParams struct {
	target        *util.EnumFlag
	noTreeShaking bool
	noAssert      bool
	noMemory      bool
	importMemory  bool
	memoryBase    int
	allocateImpl  string
	freeImpl      string
	sourceMap     bool
	output        string
	verbose       bool
	program       string
}

func newCompileParams() compileParams {
	defaults := compiler.DefaultOptions()
	return compileParams{
		target:       newTargetFlag(),
		allocateImpl: defaults.AllocateImpl,
		freeImpl:     defaults.FreeImpl,
	}
}

func (p compileParams) options() *compiler.Options {
	target := 32
	if p.target.String() == targetWasm64 {
		target = 64
	}
	return &compiler.Options{
		Target:        target,
		NoTreeShaking: p.noTreeShaking,
		NoAssert:      p.noAssert,
		NoMemory:      p.noMemory,
		ImportMemory:  p.importMemory,
		MemoryBase:    p.memoryBase,
		AllocateImpl:  p.allocateImpl,
		FreeImpl:      p.freeImpl,
		SourceMap:     p.sourceMap,
	}
}

func init() {
	params := newCompileParams()

	compileCommand := &cobra.Command{
		Use:   "compile",
		Short: "Lower a resolved program to a WebAssembly module",
		Long: `Lower a resolved program to a WebAssembly module.

The 'compile' command runs the core lowering engine over a program already
parsed and type-checked by an external frontend (see --program) and writes
a textual rendering of the resulting WebAssembly module to --output, or to
stdout if --output is omitted.

	$ ascc compile --program resolved.json --target wasm64 -o out.wasm.txt
`,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if params.program == "" {
				return fmt.Errorf("--program is required")
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			if err := doCompile(params); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}

	addProgramFlag(compileCommand.Flags(), &params.program)
	addTargetFlag(compileCommand.Flags(), params.target)
	addNoTreeShakingFlag(compileCommand.Flags(), &params.noTreeShaking)
	addNoAssertFlag(compileCommand.Flags(), &params.noAssert)
	addNoMemoryFlag(compileCommand.Flags(), &params.noMemory)
	addImportMemoryFlag(compileCommand.Flags(), &params.importMemory)
	addMemoryBaseFlag(compileCommand.Flags(), &params.memoryBase)
	addAllocateImplFlag(compileCommand.Flags(), &params.allocateImpl, params.allocateImpl)
	addFreeImplFlag(compileCommand.Flags(), &params.freeImpl, params.freeImpl)
	addSourceMapFlag(compileCommand.Flags(), &params.sourceMap)
	addOutputFlag(compileCommand.Flags(), &params.output)
	addVerboseFlag(compileCommand.Flags(), &params.verbose)

	RootCommand.AddCommand(compileCommand)
}

func doCompile(params compileParams) (err error) {
	defer recoverInternalError(&err)

	if LoadProgram == nil {
		return fmt.Errorf("no frontend registered: the core lowering engine consumes an already-resolved ast.Program, which this CLI does not parse or type-check itself; wire cmd.LoadProgram before calling RootCommand.Execute")
	}
	program, err := LoadProgram(params.program)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	logger := logging.New()
	if params.verbose {
		logger.SetLevel(logging.Debug)
	} else {
		logger.SetLevel(logging.Warn)
	}

	c := compiler.New(program, params.options()).WithLogger(logger)
	mod, ok := c.Compile()

	out := os.Stdout
	if params.output != "" {
		f, ferr := os.Create(params.output)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		out = f
	}
	ir.Pretty(out, mod)

	if !ok {
		return fmt.Errorf("compilation reported errors")
	}
	return nil
}
