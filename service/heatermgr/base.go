// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"sync"
	"time"

	"github.com/shedsolar/heatercontrol/pkg/fsm"
	"github.com/shedsolar/heatercontrol/pkg/hap"
)

// cycleDeps supplies the one thing that actually differs between Normal
// and BatteryOnly: which sensor backs the confirm-on/confirm-off delta
// check, and whether there's a second, independent over-temperature guard
// on top of the battery-high check (Normal has one via heater_temp_limit;
// BatteryOnly doesn't, because the sensor that would back it is the one
// that's missing).
type cycleDeps struct {
	confirmTemp func(cc *ControllerContext) (float64, bool)
	heaterGuard func(cc *ControllerContext) bool
}

// cycleController implements the OFF -> CONFIRM_SSR_ON -> CONFIRM_HEATER_ON
// -> ON -> CONFIRM_SSR_OFF -> CONFIRM_HEATER_OFF -> COOLING -> OFF cycle
// shared by Normal (§4.3) and BatteryOnly (§4.4), including the
// HEATER_COOLING retry branch. It is not used directly; normal.go and
// batteryonly.go each wrap one in a small variant-specific type.
type cycleController struct {
	name string
	svc  *Services
	cfg  *CycleConfig
	deps cycleDeps

	machine *fsm.Machine[State, Event]

	mu           sync.Mutex
	startTemp    float64
	retryCount   int
	senseLatched bool
	lastCtx      *ControllerContext
}

func newCycleController(name string, svc *Services, cfg *CycleConfig, deps cycleDeps) (*cycleController, error) {
	c := &cycleController{name: name, svc: svc, cfg: cfg, deps: deps}

	opts := []fsm.Option[State, Event]{
		fsm.WithName[State, Event](name),
		fsm.WithInitialState[State, Event](StateOff),
		fsm.WithScheduler[State, Event](svc.Scheduler),

		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOff,
			OnEntry: func(ctx context.Context) error {
				c.svc.post(hap.HeaterOff, name)
				return c.ctx().HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROn,
			OnEntry: func(ctx context.Context) error {
				c.svc.post(hap.HeaterOn, name)
				if err := c.ctx().HeaterOn(); err != nil {
					return err
				}
				_, err := c.machine.ScheduleEvent(ctx, EventOnSensed, 100*time.Millisecond)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmHeaterOn,
			OnEntry: func(ctx context.Context) error {
				if temp, ok := c.deps.confirmTemp(c.ctx()); ok {
					c.setStartTemp(temp)
				}
				_, err := c.machine.ScheduleEvent(ctx, EventNoTempRise, c.cfg.ConfirmOnTimeout)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateOn,
			OnExit: func(ctx context.Context) error {
				cc := c.ctx()
				if temp, ok := c.deps.confirmTemp(cc); ok {
					c.setStartTemp(temp)
				}
				return cc.HeaterOff()
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmSSROff,
			OnEntry: func(ctx context.Context) error {
				_, err := c.machine.ScheduleEvent(ctx, EventOffSensed, 100*time.Millisecond)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateConfirmHeaterOff,
			OnEntry: func(ctx context.Context) error {
				_, err := c.machine.ScheduleEvent(ctx, EventNoTempDrop, c.cfg.ConfirmOffTimeout)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateCooling,
			OnEntry: func(ctx context.Context) error {
				_, err := c.machine.ScheduleEvent(ctx, EventCooled, c.cfg.CoolingTime)
				return err
			},
		}),
		fsm.WithState[State, Event](fsm.StateDef[State]{
			Name: StateHeaterCooling,
			OnEntry: func(ctx context.Context) error {
				if err := c.ctx().HeaterOff(); err != nil {
					return err
				}
				tries := c.incrementRetryCount()
				c.svc.post(hap.HeaterNoStart, name)
				if tries >= 5 {
					if c.senseRelayLatched() {
						c.svc.post(hap.PossibleHeaterFailure, name)
					} else {
						c.svc.post(hap.PossibleSSRFailure, name)
					}
				}
				_, err := c.machine.ScheduleEvent(ctx, EventCooled, c.cfg.InitialCooldown*time.Duration(tries))
				return err
			},
		}),

		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOff, To: StateConfirmSSROn, Event: EventLoBatteryTemp,
			Action: func(ctx context.Context, from, to State) error {
				c.setRetryCount(0)
				return nil
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmSSROn, To: StateConfirmHeaterOn, Event: EventOnSensed,
			Action: func(ctx context.Context, from, to State) error {
				on, err := c.ctx().IsSSROutputSensed()
				c.setSenseRelayLatched(on)
				return err
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOn, To: StateOn, Event: EventHeaterTempRise,
			Action: func(ctx context.Context, from, to State) error {
				c.svc.post(hap.HeaterWorking, name)
				c.svc.post(hap.SSRWorking, name)
				if c.senseRelayLatched() {
					c.svc.post(hap.SenseRelayWorking, name)
				} else {
					c.svc.post(hap.PossibleSenseRelayFailure, name)
				}
				return nil
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateConfirmHeaterOn, To: StateHeaterCooling, Event: EventNoTempRise,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateHeaterCooling, To: StateConfirmSSROn, Event: EventCooled,
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOn, To: StateConfirmSSROff, Event: EventHiBatteryTemp,
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
				if c.senseRelayLatched() {
					c.svc.post(hap.PossibleSSRFailure, name)
				} else {
					c.svc.post(hap.SSRWorking, name)
				}
				return nil
			},
		}),
		fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateCooling, To: StateOff, Event: EventCooled,
		}),
	}

	if deps.heaterGuard != nil {
		opts = append(opts, fsm.WithTransition[State, Event](fsm.TransitionDef[State, Event]{
			From: StateOn, To: StateConfirmSSROff, Event: EventHiHeaterTemp,
		}))
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
	c.machine = machine
	return c, nil
}

func (c *cycleController) ctx() *ControllerContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCtx
}

func (c *cycleController) setStartTemp(v float64) {
	c.mu.Lock()
	c.startTemp = v
	c.mu.Unlock()
}

func (c *cycleController) getStartTemp() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startTemp
}

func (c *cycleController) setRetryCount(v int) {
	c.mu.Lock()
	c.retryCount = v
	c.mu.Unlock()
}

// incrementRetryCount bumps the retry counter and returns its new value,
// capped at 5 (min(5, tries+1); see the Open Question decision in
// DESIGN.md).
func (c *cycleController) incrementRetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retryCount+1 < 5 {
		c.retryCount++
	} else {
		c.retryCount = 5
	}
	return c.retryCount
}

func (c *cycleController) setSenseRelayLatched(v bool) {
	c.mu.Lock()
	c.senseLatched = v
	c.mu.Unlock()
}

func (c *cycleController) senseRelayLatched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senseLatched
}

// start places the underlying FSM in StateOff.
func (c *cycleController) start(ctx context.Context) error {
	return c.machine.Start(ctx)
}

// state returns the controller's current externally-visible state (I1).
func (c *cycleController) state() State {
	return c.machine.CurrentState()
}

// reset delivers RESET, idempotently returning the controller to OFF (L1).
func (c *cycleController) reset(ctx context.Context) error {
	err := c.machine.Fire(ctx, EventReset)
	c.mu.Lock()
	c.lastCtx = nil
	c.mu.Unlock()
	return err
}

// tick evaluates the current tick's ControllerContext against whichever
// state the FSM is in and fires the matching event, if any. Per §9's
// tie-break note, when OFF and ON conditions could never coexist but the
// low/high/heater checks happen to, they are evaluated in this fixed
// order: low-battery, high-battery, high-heater.
func (c *cycleController) tick(ctx context.Context, cc *ControllerContext) error {
	c.mu.Lock()
	c.lastCtx = cc
	c.mu.Unlock()

	switch c.state() {
	case StateOff:
		if cc.Battery.Available && cc.Battery.Value < cc.Low {
			return c.machine.Fire(ctx, EventLoBatteryTemp)
		}
	case StateConfirmHeaterOn:
		if temp, ok := c.deps.confirmTemp(cc); ok && temp > c.getStartTemp()+c.cfg.ConfirmOnDelta {
			return c.machine.Fire(ctx, EventHeaterTempRise)
		}
	case StateOn:
		if cc.Battery.Available && cc.Battery.Value > cc.High {
			if err := c.machine.Fire(ctx, EventHiBatteryTemp); err != nil {
				return err
			}
		}
		if c.deps.heaterGuard != nil && c.deps.heaterGuard(cc) {
			if err := c.machine.Fire(ctx, EventHiHeaterTemp); err != nil {
				return err
			}
		}
	case StateConfirmHeaterOff:
		if temp, ok := c.deps.confirmTemp(cc); ok && temp < c.getStartTemp()+c.cfg.ConfirmOffDelta {
			return c.machine.Fire(ctx, EventHeaterTempDrop)
		}
	}
	return nil
}
