// +build tools

// Copyright 2019 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// package tools imports development tooling under the
// `tools` build tag; neither tool is listed in this
// module's go.mod, and there is no vendor directory.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "golang.org/x/tools/cmd/goimports"
)
