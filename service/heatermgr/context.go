// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"log/slog"

	"github.com/shedsolar/heatercontrol/pkg/hap"
	"github.com/shedsolar/heatercontrol/pkg/heaterio"
	"github.com/shedsolar/heatercontrol/pkg/scheduler"
	"github.com/shedsolar/heatercontrol/pkg/sensor"
)

// Reading is a copied-out snapshot of one optional temperature reading.
// ControllerContext carries Readings rather than sensor.Info handles so
// that no state crosses a tick boundary (§5, "Sensor snapshots are
// values").
type Reading struct {
	Value     float64
	Available bool
}

func readingFrom(info sensor.Info[float64]) Reading {
	if info == nil || !info.Available() {
		return Reading{}
	}
	return Reading{Value: info.Get(), Available: true}
}

// ControllerContext is constructed fresh by the supervisor on every tick
// and passed read-only to the active controller (§3).
type ControllerContext struct {
	Battery Reading
	Heater  Reading
	Ambient Reading
	Outside Reading

	Low  float64
	High float64

	io heaterio.IO
}

// NewControllerContext builds a ControllerContext from a sensor snapshot,
// the temperature window selected for the current light mode, and the
// heater IO the active controller is permitted to drive this tick.
func NewControllerContext(snap sensor.Snapshot, low, high float64, io heaterio.IO) *ControllerContext {
	return &ControllerContext{
		Battery: readingFrom(snap.BatteryTemp),
		Heater:  readingFrom(snap.HeaterTemp),
		Ambient: readingFrom(snap.AmbientTemp),
		Outside: readingFrom(snap.OutsideTemp),
		Low:     low,
		High:    high,
		io:      io,
	}
}

// IsSSROutputSensed probes the independent sense relay.
func (c *ControllerContext) IsSSROutputSensed() (bool, error) {
	return c.io.SenseRelayOn()
}

// HeaterOn asserts the heater SSR and its LED. Idempotent.
func (c *ControllerContext) HeaterOn() error {
	if err := c.io.SetHeater(true); err != nil {
		return err
	}
	return c.io.SetLED(true)
}

// HeaterOff deasserts the heater SSR and its LED. Idempotent.
func (c *ControllerContext) HeaterOff() error {
	if err := c.io.SetHeater(false); err != nil {
		return err
	}
	return c.io.SetLED(false)
}

// Services are the shared collaborators every controller variant needs:
// the hap sink and the scheduler backing their FSM. Passed explicitly at
// construction rather than reached through a global singleton (§9).
type Services struct {
	Hap       *hap.Bus
	Scheduler *scheduler.Scheduler
	Logger    *slog.Logger
}

func (s *Services) post(kind hap.Kind, source string) {
	if s.Hap == nil {
		return
	}
	s.Hap.Post(kind, source)
}

func (s *Services) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
