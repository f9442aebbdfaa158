// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shedsolar/heatercontrol/pkg/hap"
	"github.com/shedsolar/heatercontrol/pkg/heaterio"
	"github.com/shedsolar/heatercontrol/pkg/scheduler"
	"github.com/shedsolar/heatercontrol/pkg/sensor"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	sched, err := scheduler.New(scheduler.NewConfig())
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	sched.Start(context.Background())
	t.Cleanup(sched.Close)
	return &Services{Hap: hap.New(), Scheduler: sched}
}

// TestNewtonCoolingSecondsMatchesE4 checks the cooling-time solver against
// spec's E4 numeric example: k=0.001, [low,high]=[0,5], outside=-10 gives
// off_seconds ~= 405.5s.
func TestNewtonCoolingSecondsMatchesE4(t *testing.T) {
	got := newtonCoolingSeconds(0, 5, -10, 0.001)
	want := 1000 * math.Log(1.5)
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("newtonCoolingSeconds() = %v, want %v", got, want)
	}
	if math.Abs(got-405.5) > 0.5 {
		t.Fatalf("newtonCoolingSeconds() = %v, want ~405.5", got)
	}
}

func TestNoTempsOnSecondsMatchesE4(t *testing.T) {
	cfg := NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05), WithSafetyTweak(1.1))
	onSeconds := (5.0 - 0.0) / cfg.DegreesPerSecond * cfg.SafetyTweak
	if math.Abs(onSeconds-110) > 0.01 {
		t.Fatalf("on_seconds = %v, want 110", onSeconds)
	}
}

func TestNoTempsSafetyGateForcesHeaterOff(t *testing.T) {
	svc := newTestServices(t)
	cfg := NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05))
	nt, err := NewNoTemps(svc, cfg)
	if err != nil {
		t.Fatalf("NewNoTemps: %v", err)
	}
	ctx := context.Background()
	if err := nt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	io := heaterio.NewMock()
	if err := io.SetHeater(true); err != nil {
		t.Fatalf("SetHeater: %v", err)
	}

	snap := sensor.Snapshot{
		AmbientTemp: sensor.NewUnavailableMock[float64](),
		OutsideTemp: sensor.NewUnavailableMock[float64](),
	}
	cc := NewControllerContext(snap, 0, 5, io)

	sub, unsub := svc.Hap.Subscribe()
	defer unsub()

	if err := nt.Tick(ctx, cc); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if on, _ := io.Heater(); on {
		t.Error("heater stayed asserted with no outside reading available")
	}
	if nt.State() != StateOff {
		t.Errorf("State() = %v, want StateOff (FSM must not advance)", nt.State())
	}

	select {
	case h := <-sub:
		if h.Kind != hap.NoTemperatureOutsideTheBox {
			t.Errorf("posted hap = %v, want NoTemperatureOutsideTheBox", h.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a NoTemperatureOutsideTheBox hap")
	}
}

func TestNoTempsEntersConfirmSSROnWhenOutsideBelowLow(t *testing.T) {
	svc := newTestServices(t)
	cfg := NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05), WithSafetyTweak(1.1))
	nt, err := NewNoTemps(svc, cfg)
	if err != nil {
		t.Fatalf("NewNoTemps: %v", err)
	}
	ctx := context.Background()
	if err := nt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	io := heaterio.NewMock()
	snap := sensor.Snapshot{OutsideTemp: sensor.NewMock(-10.0)}
	cc := NewControllerContext(snap, 0, 5, io)

	if err := nt.Tick(ctx, cc); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if nt.State() != StateConfirmSSROn {
		t.Fatalf("State() = %v, want StateConfirmSSROn", nt.State())
	}
	if on, _ := io.Heater(); !on {
		t.Error("heater should be asserted entering CONFIRM_SSR_ON")
	}

	t.Cleanup(func() { _ = nt.Reset(ctx) })
}
