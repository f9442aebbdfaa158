// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import "errors"

var (
	// ErrInvalidConfig indicates that the scheduler configuration is invalid.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
	// ErrSchedulerClosed indicates an operation was attempted on a closed scheduler.
	ErrSchedulerClosed = errors.New("scheduler is closed")
	// ErrNilCallback indicates a nil callback was provided to a schedule call.
	ErrNilCallback = errors.New("callback cannot be nil")
)
