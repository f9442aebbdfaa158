// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"testing"
	"time"
)

func TestSupervisorConfigDefaultsValidate(t *testing.T) {
	cfg := NewSupervisorConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults: %v", err)
	}
	low, high := cfg.Window(true)
	if low != 25 || high != 30 {
		t.Errorf("Window(true) = (%g,%g), want (25,30)", low, high)
	}
	low, high = cfg.Window(false)
	if low != 0 || high != 20 {
		t.Errorf("Window(false) = (%g,%g), want (0,20)", low, high)
	}
}

func TestSupervisorConfigRejectsBadOrdering(t *testing.T) {
	cfg := NewSupervisorConfig(WithDormantWindow(10, 5))
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for dormant_low >= dormant_high")
	}
}

func TestSupervisorConfigRejectsOutOfRangeTick(t *testing.T) {
	cfg := NewSupervisorConfig(WithTickTime(500 * time.Millisecond))
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for tick_time below 1000ms")
	}
}

func TestNormalConfigDefaultsValidate(t *testing.T) {
	cfg := NewNormalConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on Normal defaults: %v", err)
	}
}

func TestBatteryOnlyConfigDefaultsValidate(t *testing.T) {
	cfg := NewBatteryOnlyConfig()
	if err := cfg.ValidateBatteryOnly(); err != nil {
		t.Fatalf("ValidateBatteryOnly() on defaults: %v", err)
	}
}

func TestHeaterOnlyConfigRejectsMissingDegreesPerSecond(t *testing.T) {
	cfg := NewHeaterOnlyConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for zero degrees_per_second")
	}
}

func TestHeaterOnlyConfigAcceptsDegreesPerSecond(t *testing.T) {
	cfg := NewHeaterOnlyConfig(WithDegreesPerSecond(0.05))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(): %v", err)
	}
}

func TestNoTempsConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		cfg     *NoTempsConfig
		wantErr bool
	}{
		{"valid", NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05), WithSafetyTweak(1.1)), false},
		{"k zero", NewNoTempsConfig(WithK(0), WithNoTempsDegreesPerSecond(0.05)), true},
		{"dps at upper bound", NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(1)), true},
		{"safety tweak too low", NewNoTempsConfig(WithK(0.001), WithNoTempsDegreesPerSecond(0.05), WithSafetyTweak(0.9)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
