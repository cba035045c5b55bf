// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/pflag"

	"github.com/ascwasm/ascc/util"
)

const (
	targetWasm32 = "wasm32"
	targetWasm64 = "wasm64"
)

func newTargetFlag() *util.EnumFlag {
	return util.NewEnumFlag(targetWasm32, []string{targetWasm32, targetWasm64})
}

func addTargetFlag(fs *pflag.FlagSet, target *util.EnumFlag) {
	fs.VarP(target, "target", "t", "set the pointer/memory model to compile for")
}

func addNoTreeShakingFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVar(v, "no-tree-shaking", false, "compile every declaration of every source rather than only the entry sources' declarations and what they reference")
}

func addNoAssertFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVar(v, "no-assert", false, "replace assertion builtin calls with no-ops")
}

func addNoMemoryFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVar(v, "no-memory", false, "do not set up a default memory section")
}

func addImportMemoryFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVar(v, "import-memory", false, "import memory from env.memory instead of defining it")
}

func addMemoryBaseFlag(fs *pflag.FlagSet, v *int) {
	fs.IntVar(v, "memory-base", 0, "start offset for static memory (0 means use the default past the reserved null slot)")
}

func addAllocateImplFlag(fs *pflag.FlagSet, v *string, value string) {
	fs.StringVar(v, "allocate-impl", value, "name of the allocator builtin `new` calls into")
}

func addFreeImplFlag(fs *pflag.FlagSet, v *string, value string) {
	fs.StringVar(v, "free-impl", value, "name of the free builtin used for class-instance disposal")
}

func addSourceMapFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVar(v, "source-map", false, "record a source Range per emitted expression for a source map")
}

func addOutputFlag(fs *pflag.FlagSet, v *string) {
	fs.StringVarP(v, "output", "o", "", "set the output file path (defaults to stdout)")
}

func addVerboseFlag(fs *pflag.FlagSet, v *bool) {
	fs.BoolVarP(v, "verbose", "v", false, "set the log level to debug")
}

func addProgramFlag(fs *pflag.FlagSet, v *string) {
	fs.StringVar(v, "program", "", "path to a resolved-program JSON document produced by an external frontend")
}
