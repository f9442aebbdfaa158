// SPDX-License-Identifier: BSD-3-Clause

// Package fsm provides a generic finite-state-machine engine parameterized
// by a state enumeration S and an event enumeration E. It wraps
// github.com/qmuntal/stateless, keeping states and events as their native
// Go types instead of stringifying them, and adds scheduled events bound to
// a state's lifetime: an event submitted while a state is current is
// cancelled automatically the moment the machine leaves that state.
//
// # Basic usage
//
//	cfg := fsm.NewConfig[state, event](
//		fsm.WithName[state, event]("heater"),
//		fsm.WithInitialState[state, event](stateOff),
//		fsm.WithState[state, event](fsm.StateDef[state]{
//			Name: stateOff,
//			OnEntry: func(ctx context.Context) error { return nil },
//		}),
//		fsm.WithTransition(fsm.TransitionDef[state, event]{
//			From:  stateOff,
//			To:    stateConfirmOn,
//			Event: evLowBatteryTemp,
//		}),
//	)
//
//	m, err := fsm.New(cfg)
//	if err != nil { ... }
//	if err := m.Start(ctx); err != nil { ... }
//	if err := m.Fire(ctx, evLowBatteryTemp); err != nil { ... }
package fsm
