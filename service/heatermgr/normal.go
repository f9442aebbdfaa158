// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import "context"

// Normal is the controller variant used when both battery and heater
// temperature sensors are available (§4.3). It uses heater temperature to
// confirm the heater actually started or stopped, and guards against
// over-temperature via both the battery-high reading and the heater's own
// thermal limit.
type Normal struct {
	*cycleController
}

// NewNormal builds the Normal controller. The returned FSM starts in
// StateOff; callers must call Start before the first tick.
func NewNormal(svc *Services, cfg *CycleConfig) (*Normal, error) {
	deps := cycleDeps{
		confirmTemp: func(cc *ControllerContext) (float64, bool) {
			if !cc.Heater.Available {
				return 0, false
			}
			return cc.Heater.Value, true
		},
		heaterGuard: func(cc *ControllerContext) bool {
			return cc.Heater.Available && cc.Heater.Value > cfg.HeaterTempLimit
		},
	}
	cc, err := newCycleController("normal", svc, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Normal{cycleController: cc}, nil
}

func (n *Normal) Start(ctx context.Context) error { return n.start(ctx) }
func (n *Normal) State() State                    { return n.state() }
func (n *Normal) Reset(ctx context.Context) error { return n.reset(ctx) }
func (n *Normal) Tick(ctx context.Context, cc *ControllerContext) error {
	return n.tick(ctx, cc)
}
