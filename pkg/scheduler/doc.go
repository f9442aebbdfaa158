// SPDX-License-Identifier: BSD-3-Clause

// Package scheduler provides a shared, cancellable scheduled executor used
// by the heater-control FSM engine and the controllers that sit on top of
// it. It offers one-shot and fixed-rate delivery backed by a small pool of
// worker goroutines so that no caller ever runs a scheduled callback on a
// timer's own goroutine.
package scheduler
