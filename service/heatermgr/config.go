// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"fmt"
	"time"
)

// SupervisorConfig configures the HeaterSupervisor (§4.2, §6).
type SupervisorConfig struct {
	TickTime time.Duration

	DormantLow     float64
	DormantHigh    float64
	ProductionLow  float64
	ProductionHigh float64
}

// SupervisorOption configures a SupervisorConfig.
type SupervisorOption interface{ applySupervisor(*SupervisorConfig) }

type supervisorOptionFunc func(*SupervisorConfig)

func (f supervisorOptionFunc) applySupervisor(c *SupervisorConfig) { f(c) }

func WithTickTime(d time.Duration) SupervisorOption {
	return supervisorOptionFunc(func(c *SupervisorConfig) { c.TickTime = d })
}

func WithDormantWindow(low, high float64) SupervisorOption {
	return supervisorOptionFunc(func(c *SupervisorConfig) { c.DormantLow, c.DormantHigh = low, high })
}

func WithProductionWindow(low, high float64) SupervisorOption {
	return supervisorOptionFunc(func(c *SupervisorConfig) { c.ProductionLow, c.ProductionHigh = low, high })
}

// NewSupervisorConfig builds a SupervisorConfig with the default
// temperature windows and applies opts.
func NewSupervisorConfig(opts ...SupervisorOption) *SupervisorConfig {
	c := &SupervisorConfig{
		TickTime:       5 * time.Second,
		DormantLow:     0,
		DormantHigh:    20,
		ProductionLow:  25,
		ProductionHigh: 30,
	}
	for _, opt := range opts {
		opt.applySupervisor(c)
	}
	return c
}

func (c *SupervisorConfig) Validate() error {
	if c.TickTime < 1000*time.Millisecond || c.TickTime > 15000*time.Millisecond {
		return fmt.Errorf("%w: tick_time must be within [1000ms..15000ms], got %s", ErrInvalidConfig, c.TickTime)
	}
	if err := inRange("dormant_low_temp", c.DormantLow, -10, 25); err != nil {
		return err
	}
	if err := inRange("dormant_high_temp", c.DormantHigh, -10, 25); err != nil {
		return err
	}
	if err := inRange("production_low_temp", c.ProductionLow, 0, 40); err != nil {
		return err
	}
	if err := inRange("production_high_temp", c.ProductionHigh, 0, 40); err != nil {
		return err
	}
	if !(c.DormantLow < c.DormantHigh) {
		return fmt.Errorf("%w: dormant_low_temp must be < dormant_high_temp", ErrInvalidConfig)
	}
	if !(c.DormantLow < c.ProductionLow) {
		return fmt.Errorf("%w: dormant_low_temp must be < production_low_temp", ErrInvalidConfig)
	}
	if !(c.ProductionLow < c.ProductionHigh) {
		return fmt.Errorf("%w: production_low_temp must be < production_high_temp", ErrInvalidConfig)
	}
	return nil
}

// Window returns the (low, high) temperature window for the given light
// mode: LIGHT selects the production window, DARK the dormant one (§4.2).
func (c *SupervisorConfig) Window(light bool) (low, high float64) {
	if light {
		return c.ProductionLow, c.ProductionHigh
	}
	return c.DormantLow, c.DormantHigh
}

func inRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be within [%g..%g], got %g", ErrInvalidConfig, name, lo, hi, v)
	}
	return nil
}

// CycleConfig configures the shared OFF..COOLING confirm/on/off cycle used
// by both Normal and BatteryOnly (§4.3, §4.4, §6). HeaterTempLimit is zero
// for BatteryOnly, which has no heater-temperature guard because the
// sensor that would back it is exactly the one that's missing.
type CycleConfig struct {
	ConfirmOnDelta    float64
	ConfirmOffDelta   float64
	ConfirmOnTimeout  time.Duration
	ConfirmOffTimeout time.Duration
	InitialCooldown   time.Duration
	CoolingTime       time.Duration
	HeaterTempLimit   float64
}

type CycleOption interface{ applyCycle(*CycleConfig) }

type cycleOptionFunc func(*CycleConfig)

func (f cycleOptionFunc) applyCycle(c *CycleConfig) { f(c) }

func WithConfirmOnDelta(v float64) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.ConfirmOnDelta = v })
}
func WithConfirmOffDelta(v float64) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.ConfirmOffDelta = v })
}
func WithConfirmOnTimeout(d time.Duration) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.ConfirmOnTimeout = d })
}
func WithConfirmOffTimeout(d time.Duration) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.ConfirmOffTimeout = d })
}
func WithInitialCooldown(d time.Duration) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.InitialCooldown = d })
}
func WithCoolingTime(d time.Duration) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.CoolingTime = d })
}
func WithHeaterTempLimit(v float64) CycleOption {
	return cycleOptionFunc(func(c *CycleConfig) { c.HeaterTempLimit = v })
}

// NewNormalConfig builds the Normal variant's CycleConfig with the
// documented defaults from §4.3.
func NewNormalConfig(opts ...CycleOption) *CycleConfig {
	c := &CycleConfig{
		ConfirmOnDelta:    10,
		ConfirmOffDelta:   -10,
		ConfirmOnTimeout:  30 * time.Second,
		ConfirmOffTimeout: 30 * time.Second,
		InitialCooldown:   60 * time.Second,
		CoolingTime:       180 * time.Second,
		HeaterTempLimit:   50,
	}
	for _, opt := range opts {
		opt.applyCycle(c)
	}
	return c
}

func (c *CycleConfig) validateShared(onDeltaLo, onDeltaHi, offDeltaLo, offDeltaHi float64) error {
	if err := inRange("confirm_on_delta", c.ConfirmOnDelta, onDeltaLo, onDeltaHi); err != nil {
		return err
	}
	if err := inRange("confirm_off_delta", c.ConfirmOffDelta, offDeltaLo, offDeltaHi); err != nil {
		return err
	}
	if c.ConfirmOnTimeout < 10*time.Second || c.ConfirmOnTimeout > 600*time.Second {
		return fmt.Errorf("%w: confirm_on_time_ms must be within [10000..600000]ms", ErrInvalidConfig)
	}
	if c.ConfirmOffTimeout < 10*time.Second || c.ConfirmOffTimeout > 600*time.Second {
		return fmt.Errorf("%w: confirm_off_time_ms must be within [10000..600000]ms", ErrInvalidConfig)
	}
	if c.InitialCooldown < 10*time.Second || c.InitialCooldown > 600*time.Second {
		return fmt.Errorf("%w: initial_cooldown_period_ms must be within [10000..600000]ms", ErrInvalidConfig)
	}
	if c.CoolingTime < 60*time.Second || c.CoolingTime > 600*time.Second {
		return fmt.Errorf("%w: cooling_time_ms must be within [60000..600000]ms", ErrInvalidConfig)
	}
	return nil
}

// Validate checks Normal's range constraints. heater_temp_limit >=
// high_bound needs the supervisor's windows and so is not checked here;
// NewHeaterSupervisor checks it at construction.
func (c *CycleConfig) Validate() error {
	if err := c.validateShared(5, 30, -30, -5); err != nil {
		return err
	}
	if err := inRange("heater_temp_limit", c.HeaterTempLimit, 30, 100); err != nil {
		return err
	}
	return nil
}

// NewBatteryOnlyConfig builds the BatteryOnly variant's CycleConfig.
// HeaterTempLimit is left at zero: BatteryOnly has no heater-temperature
// guard (§4.4).
func NewBatteryOnlyConfig(opts ...CycleOption) *CycleConfig {
	c := &CycleConfig{
		ConfirmOnDelta:    5,
		ConfirmOffDelta:   -5,
		ConfirmOnTimeout:  180 * time.Second,
		ConfirmOffTimeout: 180 * time.Second,
		InitialCooldown:   60 * time.Second,
		CoolingTime:       180 * time.Second,
	}
	for _, opt := range opts {
		opt.applyCycle(c)
	}
	return c
}

// ValidateBatteryOnly checks BatteryOnly's range constraints, which differ
// from Normal's only in the confirm-delta ranges (§4.4) and drop the
// heater_temp_limit check entirely.
func (c *CycleConfig) ValidateBatteryOnly() error {
	return c.validateShared(0.1, 30, -30, -0.1)
}

// HeaterOnlyConfig configures the HeaterOnly variant: Normal's CycleConfig
// plus the mandatory open-loop heating-rate coefficient (§4.5).
type HeaterOnlyConfig struct {
	Cycle            *CycleConfig
	DegreesPerSecond float64
}

type HeaterOnlyOption interface{ applyHeaterOnly(*HeaterOnlyConfig) }

type heaterOnlyOptionFunc func(*HeaterOnlyConfig)

func (f heaterOnlyOptionFunc) applyHeaterOnly(c *HeaterOnlyConfig) { f(c) }

func WithCycleOptions(opts ...CycleOption) HeaterOnlyOption {
	return heaterOnlyOptionFunc(func(c *HeaterOnlyConfig) {
		for _, opt := range opts {
			opt.applyCycle(c.Cycle)
		}
	})
}

func WithDegreesPerSecond(v float64) HeaterOnlyOption {
	return heaterOnlyOptionFunc(func(c *HeaterOnlyConfig) { c.DegreesPerSecond = v })
}

// NewHeaterOnlyConfig builds a HeaterOnlyConfig. degrees_per_second has no
// default (§6, "mandatory") so it starts at zero, which Validate rejects
// unless WithDegreesPerSecond is supplied.
func NewHeaterOnlyConfig(opts ...HeaterOnlyOption) *HeaterOnlyConfig {
	c := &HeaterOnlyConfig{
		Cycle: &CycleConfig{
			ConfirmOnDelta:    10,
			ConfirmOffDelta:   -10,
			ConfirmOnTimeout:  30 * time.Second,
			ConfirmOffTimeout: 30 * time.Second,
			InitialCooldown:   60 * time.Second,
			CoolingTime:       180 * time.Second,
			HeaterTempLimit:   50,
		},
	}
	for _, opt := range opts {
		opt.applyHeaterOnly(c)
	}
	return c
}

func (c *HeaterOnlyConfig) Validate() error {
	if err := c.Cycle.validateShared(5, 30, -30, -5); err != nil {
		return err
	}
	// HeaterOnly's own stated range (§4.5) is narrower than Normal's (§6).
	if err := inRange("heater_temp_limit", c.Cycle.HeaterTempLimit, 30, 60); err != nil {
		return err
	}
	if c.DegreesPerSecond <= 0 || c.DegreesPerSecond > 1 {
		return fmt.Errorf("%w: degrees_per_second must be within (0..1], got %g", ErrInvalidConfig, c.DegreesPerSecond)
	}
	return nil
}

// NoTempsConfig configures the NoTemps variant (§4.6, §6).
type NoTempsConfig struct {
	K                float64
	DegreesPerSecond float64
	SafetyTweak      float64
}

type NoTempsOption interface{ applyNoTemps(*NoTempsConfig) }

type noTempsOptionFunc func(*NoTempsConfig)

func (f noTempsOptionFunc) applyNoTemps(c *NoTempsConfig) { f(c) }

func WithK(v float64) NoTempsOption {
	return noTempsOptionFunc(func(c *NoTempsConfig) { c.K = v })
}
func WithNoTempsDegreesPerSecond(v float64) NoTempsOption {
	return noTempsOptionFunc(func(c *NoTempsConfig) { c.DegreesPerSecond = v })
}
func WithSafetyTweak(v float64) NoTempsOption {
	return noTempsOptionFunc(func(c *NoTempsConfig) { c.SafetyTweak = v })
}

// NewNoTempsConfig builds a NoTempsConfig. K and DegreesPerSecond have no
// sane defaults (they are site-measured thermal constants), so callers
// must supply them; SafetyTweak defaults to 1.1, matching spec's E4
// example.
func NewNoTempsConfig(opts ...NoTempsOption) *NoTempsConfig {
	c := &NoTempsConfig{SafetyTweak: 1.1}
	for _, opt := range opts {
		opt.applyNoTemps(c)
	}
	return c
}

func (c *NoTempsConfig) Validate() error {
	if c.K <= 0 || c.K > 1 {
		return fmt.Errorf("%w: k must be within (0..1], got %g", ErrInvalidConfig, c.K)
	}
	if c.DegreesPerSecond <= 0 || c.DegreesPerSecond >= 1 {
		return fmt.Errorf("%w: degrees_per_second must be within (0..1), got %g", ErrInvalidConfig, c.DegreesPerSecond)
	}
	if c.SafetyTweak < 1 || c.SafetyTweak > 1.25 {
		return fmt.Errorf("%w: safety_tweak must be within [1..1.25], got %g", ErrInvalidConfig, c.SafetyTweak)
	}
	return nil
}
