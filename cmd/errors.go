// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/ascwasm/ascc/internal/compiler"
)

// recoverInternalError converts a panicking *compiler.InternalError — the
// only kind of panic the core ever raises, on an invariant violation rather
// than a semantic error (§7) — into a plain error, so the CLI boundary can
// turn it into a process exit code instead of letting it crash the process
// with a stack trace. Any other panic is re-raised: only an InternalError is
// an expected, documented failure mode at this boundary.
func recoverInternalError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*compiler.InternalError); ok {
		*err = fmt.Errorf("%w", ie)
		return
	}
	panic(r)
}
