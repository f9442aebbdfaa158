// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"sync"
	"testing"

	"github.com/shedsolar/heatercontrol/pkg/heaterio"
	"github.com/shedsolar/heatercontrol/pkg/sensor"
)

// fakeSensors is a hand-driven SensorSource stand-in, the same role
// heaterio.Mock plays for the IO collaborator.
type fakeSensors struct {
	mu    sync.Mutex
	snap  sensor.Snapshot
	light sensor.Info[sensor.LightMode]
}

func (f *fakeSensors) set(snap sensor.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func (f *fakeSensors) Snapshot() sensor.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSensors) LightMode() sensor.Info[sensor.LightMode] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.light
}

func newTestSupervisor(t *testing.T) (*HeaterSupervisor, *fakeSensors, *heaterio.Mock) {
	t.Helper()
	svc := newTestServices(t)
	io := heaterio.NewMock()
	fs := &fakeSensors{light: sensor.NewMock(sensor.Dark)}

	normalCfg := NewNormalConfig()
	batteryCfg := NewBatteryOnlyConfig()
	heaterCfg := NewHeaterOnlyConfig(WithDegreesPerSecond(0.05))
	noTempsCfg := NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05))

	s, err := NewHeaterSupervisor(NewSupervisorConfig(), svc, io, fs, normalCfg, batteryCfg, heaterCfg, noTempsCfg)
	if err != nil {
		t.Fatalf("NewHeaterSupervisor: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, fs, io
}

// TestSupervisorSelectVariant exercises §4.2 step 3's four-way table
// directly.
func TestSupervisorSelectVariant(t *testing.T) {
	cases := []struct {
		battery, heater bool
		want            Variant
	}{
		{true, true, VariantNormal},
		{true, false, VariantBatteryOnly},
		{false, true, VariantHeaterOnly},
		{false, false, VariantNoTemps},
	}
	for _, c := range cases {
		if got := selectVariant(c.battery, c.heater); got != c.want {
			t.Errorf("selectVariant(%v, %v) = %v, want %v", c.battery, c.heater, got, c.want)
		}
	}
}

// TestSupervisorStartupGate checks that Tick is a no-op until at least one
// real reading has ever been seen (§4.2 step 1's implied startup gate), and
// that once a reading arrives the gate opens for good even if sensors later
// all go unavailable again.
func TestSupervisorStartupGate(t *testing.T) {
	s, fs, _ := newTestSupervisor(t)
	ctx := context.Background()

	fs.set(sensor.Snapshot{})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.Active(); got != VariantNone {
		t.Fatalf("Active() = %v, want VariantNone before any reading is seen", got)
	}

	fs.set(sensor.Snapshot{BatteryTemp: sensor.NewMock(20.0), HeaterTemp: sensor.NewMock(20.0)})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.Active(); got != VariantNormal {
		t.Fatalf("Active() = %v, want VariantNormal once both sensors report", got)
	}

	fs.set(sensor.Snapshot{})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.Active(); got != VariantNoTemps {
		t.Fatalf("Active() = %v, want VariantNoTemps once the gate is open and sensors vanish", got)
	}
}

// TestSupervisorHandoffResetsOutgoing exercises E3: Normal running, then
// battery-temp disappears, and the supervisor must reset Normal (heater off)
// before handing off to HeaterOnly.
func TestSupervisorHandoffResetsOutgoing(t *testing.T) {
	s, fs, io := newTestSupervisor(t)
	ctx := context.Background()

	// LIGHT selects the production window (25,30), so battery 20 is low.
	fs.light = sensor.NewMock(sensor.Light)
	fs.set(sensor.Snapshot{BatteryTemp: sensor.NewMock(20.0), HeaterTemp: sensor.NewMock(20.0)})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Active() != VariantNormal {
		t.Fatalf("Active() = %v, want VariantNormal", s.Active())
	}
	if on, _ := io.Heater(); !on {
		t.Fatal("heater should be asserted after LO_BATTERY_TEMP in Normal")
	}

	fs.set(sensor.Snapshot{HeaterTemp: sensor.NewMock(20.0)})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Active() != VariantHeaterOnly {
		t.Fatalf("Active() = %v, want VariantHeaterOnly after battery sensor loss", s.Active())
	}
	if s.normal.State() != StateOff {
		t.Fatalf("outgoing Normal controller State() = %v, want StateOff after reset", s.normal.State())
	}
}

// TestSupervisorWindowFollowsLightMode checks that under LIGHT the tick uses
// the production window: battery 20 is above the dormant low (0) but below
// the production low (25), so Normal must start heating (§4.2 step 2).
func TestSupervisorWindowFollowsLightMode(t *testing.T) {
	s, fs, io := newTestSupervisor(t)
	ctx := context.Background()

	fs.light = sensor.NewMock(sensor.Light)
	fs.set(sensor.Snapshot{BatteryTemp: sensor.NewMock(20.0), HeaterTemp: sensor.NewMock(20.0)})
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	low, high := s.cfg.Window(true)
	if low != s.cfg.ProductionLow || high != s.cfg.ProductionHigh {
		t.Fatalf("Window(true) = (%v, %v), want production bounds", low, high)
	}
	if on, _ := io.Heater(); !on {
		t.Fatal("heater should be asserted: battery 20 is below the production low bound under LIGHT")
	}
}
