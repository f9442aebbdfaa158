// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import "context"

// BatteryOnly is the controller variant used when the battery sensor is
// available but the heater-output thermocouple is not (§4.4). It shares
// Normal's state graph and timing logic entirely, sourcing the
// confirm-on/confirm-off delta checks from battery temperature instead of
// heater temperature, and has no independent over-temperature guard since
// the sensor that would back one is the one that's missing.
type BatteryOnly struct {
	*cycleController
}

// NewBatteryOnly builds the BatteryOnly controller.
func NewBatteryOnly(svc *Services, cfg *CycleConfig) (*BatteryOnly, error) {
	deps := cycleDeps{
		confirmTemp: func(cc *ControllerContext) (float64, bool) {
			if !cc.Battery.Available {
				return 0, false
			}
			return cc.Battery.Value, true
		},
	}
	cc, err := newCycleController("battery_only", svc, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &BatteryOnly{cycleController: cc}, nil
}

func (b *BatteryOnly) Start(ctx context.Context) error { return b.start(ctx) }
func (b *BatteryOnly) State() State                    { return b.state() }
func (b *BatteryOnly) Reset(ctx context.Context) error { return b.reset(ctx) }
func (b *BatteryOnly) Tick(ctx context.Context, cc *ControllerContext) error {
	return b.tick(ctx, cc)
}
