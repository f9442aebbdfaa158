// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"sync"
	"time"

	"github.com/shedsolar/heatercontrol/pkg/fsm"
	"github.com/shedsolar/heatercontrol/pkg/hap"
)

// HeaterOnly is the controller variant used when the heater-output
// thermocouple is available but the battery sensor is not (§4.5). The
// low-temperature trigger is approximated from the heater thermocouple
// while the heater is off (a stand-in for shed interior temperature, noted
// as a safety-motivated approximation in DESIGN.md), and ON is held open
// for a computed duration rather than until a battery-high reading.
type HeaterOnly struct {
	name string
	svc  *Services
	cfg  *HeaterOnlyConfig

	machine *fsm.Machine[State, Event]

	mu           sync.Mutex
	startTemp    float64
	retryCount   int
	senseLatched bool
	onAt         time.Time
	lastCtx      *ControllerContext
}

// NewHeaterOnly builds the HeaterOnly controller.
func NewHeaterOnly(svc *Services, cfg *HeaterOnlyConfig) (*HeaterOnly, error) {
	h := &HeaterOnly{name: "heater_only", svc: svc, cfg: cfg}

	opts := []fsm.Option[State, Event]{
		fsm.WithName[State, Event](h.name),
		fsm.WithInitialState[State, Event](StateOff),
		fsm.WithScheduler[State, Event](svc.Scheduler),

		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOff,
			OnEntry: func(ctx context.Context) error {
				h.svc.post(hap.HeaterOff, h.name)
				return h.ctx().HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROn,
			OnEntry: func(ctx context.Context) error {
				h.setOnAt(time.Now())
				h.svc.post(hap.HeaterOn, h.name)
				if err := h.ctx().HeaterOn(); err != nil {
					return err
				}
				_, err := h.machine.ScheduleEvent(ctx, EventOnSensed, 100*time.Millisecond)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmHeaterOn,
			OnEntry: func(ctx context.Context) error {
				cc := h.ctx()
				if cc.Heater.Available {
					h.setStartTemp(cc.Heater.Value)
				}
				_, err := h.machine.ScheduleEvent(ctx, EventNoTempRise, h.cfg.Cycle.ConfirmOnTimeout)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOn,
			OnEntry: func(ctx context.Context) error {
				h.svc.post(hap.HeaterWorking, h.name)
				h.svc.post(hap.SSRWorking, h.name)
				if h.senseRelayLatched() {
					h.svc.post(hap.SenseRelayWorking, h.name)
				} else {
					h.svc.post(hap.PossibleSenseRelayFailure, h.name)
				}

				cc := h.ctx()
				outside, haveOutside := cc.Ambient, cc.Ambient.Available
				if !haveOutside {
					outside, haveOutside = cc.Outside, cc.Outside.Available
				}
				var tOut float64
				if haveOutside {
					tOut = outside.Value
				} else {
					tOut = h.getStartTemp()
					h.svc.post(hap.NoTemperatureOutsideTheBox, h.name)
				}

				delta := cc.High - tOut
				elapsed := time.Since(h.getOnAt())
				delayMs := delta/h.cfg.DegreesPerSecond*1000 - float64(elapsed.Milliseconds())
				if delayMs < 0 {
					delayMs = 0
				}
				_, err := h.machine.ScheduleEvent(ctx, EventHeated, time.Duration(delayMs)*time.Millisecond)
				return err
			},
			OnExit: func(ctx context.Context) error {
				cc := h.ctx()
				if cc.Heater.Available {
					h.setStartTemp(cc.Heater.Value)
				}
				return cc.HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROff,
			OnEntry: func(ctx context.Context) error {
				_, err := h.machine.ScheduleEvent(ctx, EventOffSensed, 100*time.Millisecond)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmHeaterOff,
			OnEntry: func(ctx context.Context) error {
				_, err := h.machine.ScheduleEvent(ctx, EventNoTempDrop, h.cfg.Cycle.ConfirmOffTimeout)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateCooling,
			OnEntry: func(ctx context.Context) error {
				_, err := h.machine.ScheduleEvent(ctx, EventCooled, h.cfg.Cycle.CoolingTime)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateHeaterCooling,
			OnEntry: func(ctx context.Context) error {
				if err := h.ctx().HeaterOff(); err != nil {
					return err
				}
				tries := h.incrementRetryCount()
				h.svc.post(hap.HeaterNoStart, h.name)
				if tries >= 5 {
					if h.senseRelayLatched() {
						h.svc.post(hap.PossibleHeaterFailure, h.name)
					} else {
						h.svc.post(hap.PossibleSSRFailure, h.name)
					}
				}
				_, err := h.machine.ScheduleEvent(ctx, EventCooled, h.cfg.Cycle.InitialCooldown*time.Duration(tries))
				return err
			},
		}),

		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOff, To: StateConfirmSSROn, Event: EventLowTrigger,
			Action: func(ctx context.Context, from, to State) error {
				h.setRetryCount(0)
				return nil
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmSSROn, To: StateConfirmHeaterOn, Event: EventOnSensed,
			Action: func(ctx context.Context, from, to State) error {
				on, err := h.ctx().IsSSROutputSensed()
				h.setSenseRelayLatched(on)
				return err
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOn, To: StateOn, Event: EventHeaterTempRise,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOn, To: StateHeaterCooling, Event: EventNoTempRise,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateHeaterCooling, To: StateConfirmSSROn, Event: EventCooled,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOn, To: StateConfirmSSROff, Event: EventHeated,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOn, To: StateConfirmSSROff, Event: EventHiHeaterTemp,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmSSROff, To: StateConfirmHeaterOff, Event: EventOffSensed,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOff, To: StateCooling, Event: EventHeaterTempDrop,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOff, To: StateCooling, Event: EventNoTempDrop,
			Action: func(ctx context.Context, from, to State) error {
				if h.senseRelayLatched() {
					h.svc.post(hap.PossibleSSRFailure, h.name)
				} else {
					h.svc.post(hap.SSRWorking, h.name)
				}
				return nil
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateCooling, To: StateOff, Event: EventCooled,
		}),
	}

	for _, s := range []State{
		StateConfirmSSROn, StateConfirmHeaterOn, StateOn,
		StateConfirmSSROff, StateConfirmHeaterOff, StateCooling, StateHeaterCooling,
	} {
		opts = append(opts, fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: s, To: StateOff, Event: EventReset,
		}))
	}

	machine, err := fsm.New[State, Event](fsm.NewConfig[State, Event](opts...))
	if err != nil {
		return nil, err
	}
	h.machine = machine
	return h, nil
}

func (h *HeaterOnly) ctx() *ControllerContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastCtx
}

func (h *HeaterOnly) setStartTemp(v float64) {
	h.mu.Lock()
	h.startTemp = v
	h.mu.Unlock()
}

func (h *HeaterOnly) getStartTemp() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startTemp
}

func (h *HeaterOnly) setOnAt(t time.Time) {
	h.mu.Lock()
	h.onAt = t
	h.mu.Unlock()
}

func (h *HeaterOnly) getOnAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onAt
}

func (h *HeaterOnly) setRetryCount(v int) {
	h.mu.Lock()
	h.retryCount = v
	h.mu.Unlock()
}

func (h *HeaterOnly) incrementRetryCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retryCount+1 < 5 {
		h.retryCount++
	} else {
		h.retryCount = 5
	}
	return h.retryCount
}

func (h *HeaterOnly) setSenseRelayLatched(v bool) {
	h.mu.Lock()
	h.senseLatched = v
	h.mu.Unlock()
}

func (h *HeaterOnly) senseRelayLatched() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.senseLatched
}

func (h *HeaterOnly) Start(ctx context.Context) error { return h.machine.Start(ctx) }
func (h *HeaterOnly) State() State                    { return h.machine.CurrentState() }

func (h *HeaterOnly) Reset(ctx context.Context) error {
	err := h.machine.Fire(ctx, EventReset)
	h.mu.Lock()
	h.lastCtx = nil
	h.mu.Unlock()
	return err
}

func (h *HeaterOnly) Tick(ctx context.Context, cc *ControllerContext) error {
	h.mu.Lock()
	h.lastCtx = cc
	h.mu.Unlock()

	switch h.State() {
	case StateOff:
		// The heater thermocouple, read while the heater is off,
		// approximates shed interior temperature (§4.5).
		if cc.Heater.Available && cc.Heater.Value < cc.Low {
			return h.machine.Fire(ctx, EventLowTrigger)
		}
	case StateConfirmHeaterOn:
		if cc.Heater.Available && cc.Heater.Value > h.getStartTemp()+h.cfg.Cycle.ConfirmOnDelta {
			return h.machine.Fire(ctx, EventHeaterTempRise)
		}
	case StateOn:
		if cc.Heater.Available && cc.Heater.Value > h.cfg.Cycle.HeaterTempLimit {
			return h.machine.Fire(ctx, EventHiHeaterTemp)
		}
	case StateConfirmHeaterOff:
		if cc.Heater.Available && cc.Heater.Value < h.getStartTemp()+h.cfg.Cycle.ConfirmOffDelta {
			return h.machine.Fire(ctx, EventHeaterTempDrop)
		}
	}
	return nil
}
