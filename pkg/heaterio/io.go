// SPDX-License-Identifier: BSD-3-Clause

package heaterio

// IO is the digital interface a heater controller drives and reads. All
// three lines are active-low: asserting the heater or LED output means
// driving the underlying GPIO line low, and the sense relay reports power
// flowing by pulling its input low.
type IO interface {
	// SetHeater asserts (true) or deasserts (false) the heater SSR output.
	SetHeater(on bool) error
	// Heater reports whether the heater SSR output is currently asserted.
	Heater() (bool, error)
	// SetLED asserts or deasserts the heater-power LED output. Invariant I3
	// requires callers to keep this identical to SetHeater.
	SetLED(on bool) error
	// SenseRelayOn reports whether the independent sense relay currently
	// confirms power is flowing to the heater.
	SenseRelayOn() (bool, error)
	// Close releases the underlying GPIO lines.
	Close() error
}
