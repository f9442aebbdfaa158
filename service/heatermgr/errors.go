// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import "errors"

var (
	// ErrInvalidConfig indicates a heatermgr configuration record failed
	// range or ordering validation.
	ErrInvalidConfig = errors.New("invalid heatermgr configuration")
	// ErrNotRunning indicates an operation was attempted on a supervisor
	// or controller that has not been started.
	ErrNotRunning = errors.New("heatermgr component not running")
)
