// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package failure

import "runtime"

//go:noinline
func newTraced() error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(1, pcs)
	return &tracedErr{pcs: pcs[:n]}
}
