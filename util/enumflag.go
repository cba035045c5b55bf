// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"strings"
)

// EnumFlag implements the pflag.Value interface to provide enumerated command
// line parameter values.
type EnumFlag struct {
	value string
	vs    []string
}

// NewEnumFlag returns a new EnumFlag that has a defaultValue and vs enumerated
// values.
func NewEnumFlag(defaultValue string, vs []string) *EnumFlag {
	return &EnumFlag{value: defaultValue, vs: vs}
}

func (f *EnumFlag) String() string {
	return f.value
}

func (f *EnumFlag) Set(s string) error {
	for _, v := range f.vs {
		if v == s {
			f.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid value: %q (want one of %v)", s, f.vs)
}

func (f *EnumFlag) Type() string {
	return fmt.Sprintf("<%s>", strings.Join(f.vs, ","))
}
