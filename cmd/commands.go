// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCommand is the base CLI command every subcommand attaches to.
var RootCommand = &cobra.Command{
	Use:   "ascc",
	Short: "ascc compiles a class-based, generic source language to WebAssembly",
	Long:  "ascc lowers a TypeScript-like, class-based, generic source language directly to a WebAssembly module.",
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCommand.PersistentFlags().StringVarP(&cfgFile, "config-file", "c", "", "set path of configuration file")
}

// initConfig layers an optional config file and ASCC_-prefixed environment
// variables underneath whatever flags a subcommand's invocation actually
// set, so `ascc compile --target wasm64` always wins over a config file's
// `target: wasm32`, which in turn wins over the flag's own zero-value
// default.
func initConfig() {
	v := viper.New()
	v.SetEnvPrefix("ascc")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "error: failed to read config file:", err)
			os.Exit(1)
		}
	}

	for _, c := range RootCommand.Commands() {
		bindViper(v, c.Flags())
	}
}

func bindViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
	})
}
