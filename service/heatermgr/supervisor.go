// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/shedsolar/heatercontrol/pkg/heaterio"
	"github.com/shedsolar/heatercontrol/pkg/sensor"
)

// Variant identifies which of the four controllers is currently active.
type Variant int

const (
	VariantNone Variant = iota
	VariantNormal
	VariantBatteryOnly
	VariantHeaterOnly
	VariantNoTemps
)

func (v Variant) String() string {
	switch v {
	case VariantNormal:
		return "normal"
	case VariantBatteryOnly:
		return "battery_only"
	case VariantHeaterOnly:
		return "heater_only"
	case VariantNoTemps:
		return "no_temps"
	default:
		return "none"
	}
}

// controller is the common shape all four variants expose (§2, operation
// 2: "tick(ctx) and reset(ctx)").
type controller interface {
	Start(ctx context.Context) error
	State() State
	Reset(ctx context.Context) error
	Tick(ctx context.Context, cc *ControllerContext) error
}

// SensorSource supplies the latest sensor snapshot and light mode, both
// out-of-scope collaborators per §6.
type SensorSource interface {
	Snapshot() sensor.Snapshot
	LightMode() sensor.Info[sensor.LightMode]
}

// HeaterSupervisor runs at a fixed tick rate, selects which controller
// variant is trustworthy given the currently available sensors, and
// drives its tick (§4.2).
type HeaterSupervisor struct {
	cfg     *SupervisorConfig
	svc     *Services
	io      heaterio.IO
	sensors SensorSource

	normal      *Normal
	batteryOnly *BatteryOnly
	heaterOnly  *HeaterOnly
	noTemps     *NoTemps

	mu                sync.Mutex
	active            Variant
	everSeenReading   bool
	consecutivePanics int
}

// NewHeaterSupervisor builds the supervisor and its four controller
// instances. Each controller's own Validate must already have passed;
// NewHeaterSupervisor additionally enforces the cross-cutting invariant
// "heater_temp_limit >= high_bound" (§3) against both configured windows,
// since the active window depends on light mode and isn't known to
// Normal/HeaterOnly's own Validate.
func NewHeaterSupervisor(
	cfg *SupervisorConfig,
	svc *Services,
	io heaterio.IO,
	sensors SensorSource,
	normalCfg *CycleConfig,
	batteryOnlyCfg *CycleConfig,
	heaterOnlyCfg *HeaterOnlyConfig,
	noTempsCfg *NoTempsConfig,
) (*HeaterSupervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxHigh := cfg.ProductionHigh
	if cfg.DormantHigh > maxHigh {
		maxHigh = cfg.DormantHigh
	}
	if normalCfg.HeaterTempLimit < maxHigh {
		return nil, fmt.Errorf("%w: normal heater_temp_limit must be >= the highest configured bound", ErrInvalidConfig)
	}
	if heaterOnlyCfg.Cycle.HeaterTempLimit < maxHigh {
		return nil, fmt.Errorf("%w: heater_only heater_temp_limit must be >= the highest configured bound", ErrInvalidConfig)
	}

	normal, err := NewNormal(svc, normalCfg)
	if err != nil {
		return nil, err
	}
	batteryOnly, err := NewBatteryOnly(svc, batteryOnlyCfg)
	if err != nil {
		return nil, err
	}
	heaterOnly, err := NewHeaterOnly(svc, heaterOnlyCfg)
	if err != nil {
		return nil, err
	}
	noTemps, err := NewNoTemps(svc, noTempsCfg)
	if err != nil {
		return nil, err
	}

	s := &HeaterSupervisor{
		cfg:         cfg,
		svc:         svc,
		io:          io,
		sensors:     sensors,
		normal:      normal,
		batteryOnly: batteryOnly,
		heaterOnly:  heaterOnly,
		noTemps:     noTemps,
		active:      VariantNone,
	}
	return s, nil
}

// Start places all four controllers in their initial OFF state. All four
// exist for the supervisor's whole lifetime (§3, "never destroyed").
func (s *HeaterSupervisor) Start(ctx context.Context) error {
	for _, c := range []controller{s.normal, s.batteryOnly, s.heaterOnly, s.noTemps} {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *HeaterSupervisor) controllerFor(v Variant) controller {
	switch v {
	case VariantNormal:
		return s.normal
	case VariantBatteryOnly:
		return s.batteryOnly
	case VariantHeaterOnly:
		return s.heaterOnly
	case VariantNoTemps:
		return s.noTemps
	default:
		return nil
	}
}

// Active reports which variant is currently delegated to.
func (s *HeaterSupervisor) Active() Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func selectVariant(batteryAvailable, heaterAvailable bool) Variant {
	switch {
	case batteryAvailable && heaterAvailable:
		return VariantNormal
	case batteryAvailable:
		return VariantBatteryOnly
	case heaterAvailable:
		return VariantHeaterOnly
	default:
		return VariantNoTemps
	}
}

// ensureActive performs the hand-off protocol: reset the outgoing
// controller (if any), then swap the active pointer (§4.2 step 4, §5
// "Shared resources").
func (s *HeaterSupervisor) ensureActive(ctx context.Context, target Variant) {
	s.mu.Lock()
	current := s.active
	s.mu.Unlock()
	if current == target {
		return
	}
	if outgoing := s.controllerFor(current); outgoing != nil {
		if err := outgoing.Reset(ctx); err != nil {
			s.svc.logger().Warn("heatermgr: reset of outgoing controller failed",
				"variant", current.String(), "error", err)
		}
	}
	s.mu.Lock()
	s.active = target
	s.mu.Unlock()
}

// Tick runs one supervisor cycle (§4.2). Panics from a controller are
// caught and logged rather than propagated; ten consecutive catches
// escalate to an emergency heater_off (a feature named in spec prose but
// not otherwise given a home — see DESIGN.md).
func (s *HeaterSupervisor) Tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.handlePanic(r)
		}
	}()

	snap := s.sensors.Snapshot()
	light := s.sensors.LightMode()
	lightOn := light != nil && light.Available() && light.Get() == sensor.Light

	batteryAvailable := snap.BatteryAvailable()
	heaterAvailable := snap.HeaterAvailable()

	s.mu.Lock()
	if batteryAvailable || heaterAvailable {
		s.everSeenReading = true
	}
	everSeen := s.everSeenReading
	s.mu.Unlock()

	if !batteryAvailable && !heaterAvailable && !everSeen {
		return nil
	}

	target := selectVariant(batteryAvailable, heaterAvailable)
	s.ensureActive(ctx, target)

	low, high := s.cfg.Window(lightOn)
	cc := NewControllerContext(snap, low, high, s.io)

	active := s.controllerFor(target)
	if active == nil {
		return nil
	}
	if err := active.Tick(ctx, cc); err != nil {
		return err
	}

	s.mu.Lock()
	s.consecutivePanics = 0
	s.mu.Unlock()
	return nil
}

func (s *HeaterSupervisor) handlePanic(recovered any) {
	s.svc.logger().Error("heatermgr: controller panicked, containing", "recovered", recovered)

	s.mu.Lock()
	s.consecutivePanics++
	n := s.consecutivePanics
	s.mu.Unlock()

	if n >= 10 {
		s.svc.logger().Error("heatermgr: emergency shutdown after 10 consecutive controller panics")
		_ = s.io.SetHeater(false)
		_ = s.io.SetLED(false)
	}
}
