// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shedsolar/heatercontrol/pkg/fsm"
	"github.com/shedsolar/heatercontrol/pkg/hap"
	"github.com/shedsolar/heatercontrol/pkg/scheduler"
)

// NoTemps is the degenerate controller variant used when neither the
// battery nor the heater-output sensor is usable (§4.6). It runs a fully
// open-loop duty cycle: heat for a fixed on_seconds, then wait a computed
// off_seconds (Newton's-law cooling time back down to low) before allowing
// another cycle. Because on_seconds and off_seconds together span several
// of the FSM's own internal states, the two timers are submitted directly
// to the shared scheduler rather than through Machine.ScheduleEvent, so
// they are not cancelled by the ON_SENSED/OFF_SENSED micro-transitions
// that happen inside the cycle; Reset cancels them explicitly instead.
type NoTemps struct {
	name string
	svc  *Services
	cfg  *NoTempsConfig

	machine *fsm.Machine[State, Event]

	mu      sync.Mutex
	lastCtx *ControllerContext
	pending []*scheduler.Handle
}

// NewNoTemps builds the NoTemps controller.
func NewNoTemps(svc *Services, cfg *NoTempsConfig) (*NoTemps, error) {
	nt := &NoTemps{name: "no_temps", svc: svc, cfg: cfg}

	opts := []fsm.Option[State, Event]{
		fsm.WithName[State, Event](nt.name),
		fsm.WithInitialState[State, Event](StateOff),
		fsm.WithScheduler[State, Event](svc.Scheduler),

		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOff,
			OnEntry: func(ctx context.Context) error {
				nt.svc.post(hap.HeaterOff, nt.name)
				return nt.ctx().HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROn,
			OnEntry: func(ctx context.Context) error {
				nt.svc.post(hap.HeaterOn, nt.name)
				if err := nt.ctx().HeaterOn(); err != nil {
					return err
				}
				if _, err := nt.machine.ScheduleEvent(ctx, EventOnSensed, 100*time.Millisecond); err != nil {
					return err
				}
				return nt.scheduleOpenLoop(nt.ctx())
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOn,
			OnExit: func(ctx context.Context) error {
				return nt.ctx().HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROff,
			OnEntry: func(ctx context.Context) error {
				_, err := nt.machine.ScheduleEvent(ctx, EventOffSensed, 100*time.Millisecond)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{Name: StateWaitForTrigger}),

		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOff, To: StateConfirmSSROn, Event: EventLowTrigger,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmSSROn, To: StateOn, Event: EventOnSensed,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOn, To: StateConfirmSSROff, Event: EventTurnOff,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmSSROff, To: StateWaitForTrigger, Event: EventOffSensed,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateWaitForTrigger, To: StateOff, Event: EventTrigger,
		}),
	}

	for _, s := range []State{StateConfirmSSROn, StateOn, StateConfirmSSROff, StateWaitForTrigger} {
		opts = append(opts, fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: s, To: StateOff, Event: EventReset,
		}))
	}

	machine, err := fsm.New[State, Event](fsm.NewConfig[State, Event](opts...))
	if err != nil {
		return nil, err
	}
	nt.machine = machine
	return nt, nil
}

// scheduleOpenLoop submits the TURN_OFF and TRIGGER timers computed from
// the current tick's outside-of-box reading (§4.6). cc.High and cc.Low
// come from the supervisor's light-mode window.
func (nt *NoTemps) scheduleOpenLoop(cc *ControllerContext) error {
	out, ok := outsideReading(cc)
	if !ok {
		// Caller (tick) already refuses to fire EventLowTrigger without an
		// outside reading, so this should be unreachable in practice; stay
		// safe anyway.
		return nil
	}

	onSeconds := (cc.High - cc.Low) / nt.cfg.DegreesPerSecond * nt.cfg.SafetyTweak
	offSeconds := newtonCoolingSeconds(cc.Low, cc.High, out, nt.cfg.K)

	onHandle, err := nt.svc.Scheduler.ScheduleOnce(secondsToDuration(onSeconds), func(fireCtx context.Context) {
		_ = nt.machine.Fire(fireCtx, EventTurnOff)
	})
	if err != nil {
		return err
	}
	triggerHandle, err := nt.svc.Scheduler.ScheduleOnce(secondsToDuration(onSeconds+offSeconds), func(fireCtx context.Context) {
		_ = nt.machine.Fire(fireCtx, EventTrigger)
	})
	if err != nil {
		onHandle.Cancel()
		return err
	}

	nt.mu.Lock()
	nt.pending = append(nt.pending, onHandle, triggerHandle)
	nt.mu.Unlock()
	return nil
}

func (nt *NoTemps) cancelPending() {
	nt.mu.Lock()
	pending := nt.pending
	nt.pending = nil
	nt.mu.Unlock()
	for _, h := range pending {
		h.Cancel()
	}
}

// newtonCoolingSeconds solves T(t) = T_inf + (T0 - T_inf)*exp(-k*t) for t,
// given T0 = high, T(t) = low, T_inf = out (§4.6).
func newtonCoolingSeconds(low, high, out, k float64) float64 {
	return (1.0 / k) * math.Log((high-out)/(low-out))
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		s = 0
	}
	return time.Duration(s * float64(time.Second))
}

// outsideReading prefers ambient, falling back to the weather-station
// outside reading (§4.5's preference order applies here too).
func outsideReading(cc *ControllerContext) (float64, bool) {
	if cc.Ambient.Available {
		return cc.Ambient.Value, true
	}
	if cc.Outside.Available {
		return cc.Outside.Value, true
	}
	return 0, false
}

func (nt *NoTemps) ctx() *ControllerContext {
	nt.mu.Lock()
	defer nt.mu.Unlock()
	return nt.lastCtx
}

func (nt *NoTemps) Start(ctx context.Context) error { return nt.machine.Start(ctx) }
func (nt *NoTemps) State() State                    { return nt.machine.CurrentState() }

func (nt *NoTemps) Reset(ctx context.Context) error {
	nt.cancelPending()
	err := nt.machine.Fire(ctx, EventReset)
	nt.mu.Lock()
	nt.lastCtx = nil
	nt.mu.Unlock()
	return err
}

// Tick implements the safety gate (§4.6, I5): with neither ambient nor
// outside temperature available, the heater is forced off and
// NO_TEMPERATURE_OUTSIDE_THE_BOX is posted every tick; the FSM never
// advances.
func (nt *NoTemps) Tick(ctx context.Context, cc *ControllerContext) error {
	nt.mu.Lock()
	nt.lastCtx = cc
	nt.mu.Unlock()

	out, ok := outsideReading(cc)
	if !ok {
		nt.svc.post(hap.NoTemperatureOutsideTheBox, nt.name)
		return cc.HeaterOff()
	}

	if nt.State() == StateOff && out < cc.Low {
		return nt.machine.Fire(ctx, EventLowTrigger)
	}
	return nil
}
