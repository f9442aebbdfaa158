// SPDX-License-Identifier: BSD-3-Clause

package heaterio

import "testing"

// The real gpioIO backend needs an actual gpiochip present and so is not
// unit-tested here. Mock stands in for it everywhere else.

func TestMockDefaultsDeasserted(t *testing.T) {
	m := NewMock()

	if on, err := m.Heater(); err != nil || on {
		t.Fatalf("Heater() = %v, %v, want false, nil", on, err)
	}
	if on, err := m.LED(); err != nil || on {
		t.Fatalf("LED() = %v, %v, want false, nil", on, err)
	}
	if on, err := m.SenseRelayOn(); err != nil || on {
		t.Fatalf("SenseRelayOn() = %v, %v, want false, nil", on, err)
	}
}

func TestMockSetHeaterAndLED(t *testing.T) {
	m := NewMock()

	if err := m.SetHeater(true); err != nil {
		t.Fatalf("SetHeater(true): %v", err)
	}
	if on, err := m.Heater(); err != nil || !on {
		t.Fatalf("Heater() = %v, %v, want true, nil", on, err)
	}

	if err := m.SetLED(true); err != nil {
		t.Fatalf("SetLED(true): %v", err)
	}
	if on, err := m.LED(); err != nil || !on {
		t.Fatalf("LED() = %v, %v, want true, nil", on, err)
	}

	if err := m.SetHeater(false); err != nil {
		t.Fatalf("SetHeater(false): %v", err)
	}
	if on, err := m.Heater(); err != nil || on {
		t.Fatalf("Heater() = %v, %v, want false, nil", on, err)
	}
}

func TestMockSenseRelayIndependentOfHeater(t *testing.T) {
	m := NewMock()

	if err := m.SetHeater(true); err != nil {
		t.Fatalf("SetHeater(true): %v", err)
	}
	// Sense relay stays whatever a test drives it to, independent of the
	// heater output, so failure scenarios (stuck relay, no relay feedback)
	// can be exercised.
	if on, err := m.SenseRelayOn(); err != nil || on {
		t.Fatalf("SenseRelayOn() = %v, %v, want false, nil", on, err)
	}

	m.SetSenseRelay(true)
	if on, err := m.SenseRelayOn(); err != nil || !on {
		t.Fatalf("SenseRelayOn() = %v, %v, want true, nil", on, err)
	}
}

func TestMockClosedRejectsOperations(t *testing.T) {
	m := NewMock()
	if err := m.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	if _, err := m.Heater(); err != ErrClosed {
		t.Fatalf("Heater() after close = %v, want ErrClosed", err)
	}
	if err := m.SetHeater(true); err != ErrClosed {
		t.Fatalf("SetHeater() after close = %v, want ErrClosed", err)
	}
	if _, err := m.LED(); err != ErrClosed {
		t.Fatalf("LED() after close = %v, want ErrClosed", err)
	}
	if err := m.SetLED(true); err != ErrClosed {
		t.Fatalf("SetLED() after close = %v, want ErrClosed", err)
	}
	if _, err := m.SenseRelayOn(); err != ErrClosed {
		t.Fatalf("SenseRelayOn() after close = %v, want ErrClosed", err)
	}
}

func TestConfigValidateRejectsEmptyFields(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
	}{
		{"empty chip", NewConfig(WithChip(""))},
		{"empty heater line", NewConfig(WithHeaterLine(""))},
		{"empty led line", NewConfig(WithLEDLine(""))},
		{"empty sense line", NewConfig(WithSenseLine(""))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults: %v", err)
	}
	if cfg.ChipPath != "/dev/gpiochip0" {
		t.Errorf("ChipPath = %q, want /dev/gpiochip0", cfg.ChipPath)
	}
}
