// SPDX-License-Identifier: BSD-3-Clause

package sensor

import "time"

// Info is an optional, freshness-timestamped reading of type T. Value types
// are not required to be cached: Available, Get, and Timestamp may each
// re-sample the underlying collaborator, so callers should read them once
// per tick and treat the result as a point-in-time snapshot.
type Info[T any] interface {
	// Available reports whether a reading is currently present and trusted
	// by the provider.
	Available() bool
	// Get returns the current reading. Its value is meaningless if
	// Available returns false.
	Get() T
	// Timestamp returns when the current reading was acquired.
	Timestamp() time.Time
}

// LightMode is a derived signal indicating whether solar production is
// currently possible. It determines which temperature window (production
// vs. dormant) is active.
type LightMode int

const (
	// Dark indicates production is not currently possible.
	Dark LightMode = iota
	// Light indicates production is currently possible.
	Light
)

// String returns the light mode's name.
func (m LightMode) String() string {
	switch m {
	case Light:
		return "LIGHT"
	case Dark:
		return "DARK"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a point-in-time copy of every temperature reading the
// supervisor observes. It is a value: once constructed it is never mutated,
// so no shared mutable state crosses a tick boundary.
type Snapshot struct {
	BatteryTemp Info[float64]
	HeaterTemp  Info[float64]
	AmbientTemp Info[float64]
	OutsideTemp Info[float64]
}

// BatteryAvailable reports whether the battery-temperature reading is
// currently trustworthy.
func (s Snapshot) BatteryAvailable() bool {
	return s.BatteryTemp != nil && s.BatteryTemp.Available()
}

// HeaterAvailable reports whether the heater-output-temperature reading is
// currently trustworthy.
func (s Snapshot) HeaterAvailable() bool {
	return s.HeaterTemp != nil && s.HeaterTemp.Available()
}

// AmbientAvailable reports whether the ambient-temperature reading is
// currently trustworthy.
func (s Snapshot) AmbientAvailable() bool {
	return s.AmbientTemp != nil && s.AmbientTemp.Available()
}

// OutsideAvailable reports whether the outside (weather-station)
// temperature reading is currently trustworthy.
func (s Snapshot) OutsideAvailable() bool {
	return s.OutsideTemp != nil && s.OutsideTemp.Available()
}
