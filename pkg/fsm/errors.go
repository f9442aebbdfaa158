// SPDX-License-Identifier: BSD-3-Clause

package fsm

import "errors"

var (
	// ErrInvalidConfig indicates that the machine configuration is invalid.
	ErrInvalidConfig = errors.New("invalid state machine configuration")
	// ErrUnreachableState indicates a configured state has no incoming transition
	// and is not the initial state.
	ErrUnreachableState = errors.New("unreachable state")
	// ErrDuplicateTransition indicates two transitions share the same from-state
	// and event.
	ErrDuplicateTransition = errors.New("duplicate transition")
	// ErrMachineNotStarted indicates Fire or ScheduleEvent was called before Start.
	ErrMachineNotStarted = errors.New("state machine not started")
	// ErrMachineAlreadyStarted indicates Start was called more than once.
	ErrMachineAlreadyStarted = errors.New("state machine already started")
	// ErrNoScheduler indicates ScheduleEvent was called on a machine configured
	// without a scheduler.
	ErrNoScheduler = errors.New("state machine has no scheduler configured")
	// ErrTransitionFailed indicates the underlying transition engine rejected a
	// transition that the configuration believed was valid.
	ErrTransitionFailed = errors.New("state transition failed")
)
