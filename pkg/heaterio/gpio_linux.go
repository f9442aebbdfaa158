// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package heaterio

import (
	"errors"
	"fmt"
	"path/filepath"
	"syscall"

	"github.com/warthog618/go-gpiocdev"
)

// gpioIO implements IO directly on top of github.com/warthog618/go-gpiocdev.
// All three lines are requested active-low, so SetValue(1) through the
// underlying library asserts the line by driving it low in hardware.
type gpioIO struct {
	heater *gpiocdev.Line
	led    *gpiocdev.Line
	sense  *gpiocdev.Line
}

var _ IO = (*gpioIO)(nil)

// NewGPIO requests the three configured lines and returns an IO backed by
// them. The heater and LED lines are requested as active-low outputs
// starting deasserted; the sense line is requested as an active-low input.
func NewGPIO(cfg *Config) (IO, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	heater, err := requestLine(cfg.ChipPath, cfg.HeaterLine, gpiocdev.AsOutput(0), gpiocdev.AsPushPull)
	if err != nil {
		return nil, fmt.Errorf("requesting heater line %q: %w", cfg.HeaterLine, err)
	}

	led, err := requestLine(cfg.ChipPath, cfg.LEDLine, gpiocdev.AsOutput(0), gpiocdev.AsPushPull)
	if err != nil {
		_ = heater.Close()
		return nil, fmt.Errorf("requesting LED line %q: %w", cfg.LEDLine, err)
	}

	sense, err := requestLine(cfg.ChipPath, cfg.SenseLine, gpiocdev.AsInput)
	if err != nil {
		_ = heater.Close()
		_ = led.Close()
		return nil, fmt.Errorf("requesting sense line %q: %w", cfg.SenseLine, err)
	}

	return &gpioIO{heater: heater, led: led, sense: sense}, nil
}

// requestLine resolves lineName to an offset on chip and requests it
// active-low under a fixed consumer tag, layering whatever direction
// options the caller supplies on top.
func requestLine(chip, lineName string, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	if err := gpiocdev.IsChip(chip); err != nil {
		return nil, mapGpiocdevError(err, fmt.Sprintf("invalid chip path %q", chip))
	}

	foundChip, offset, err := gpiocdev.FindLine(lineName)
	if err != nil {
		return nil, mapGpiocdevError(err, fmt.Sprintf("failed to find line %q", lineName))
	}
	if filepath.Base(foundChip) != filepath.Base(chip) {
		return nil, fmt.Errorf("%w: line %q not found on chip %q", ErrLineNotFound, lineName, chip)
	}

	all := append([]gpiocdev.LineReqOption{gpiocdev.WithConsumer("heatercontrol"), gpiocdev.AsActiveLow}, opts...)
	line, err := gpiocdev.RequestLine(chip, offset, all...)
	if err != nil {
		return nil, mapGpiocdevError(err, fmt.Sprintf("failed to request line %q from chip %q", lineName, chip))
	}
	return line, nil
}

func mapGpiocdevError(err error, details string) error {
	switch {
	case errors.Is(err, syscall.ENOENT):
		return fmt.Errorf("%w: %s", ErrChipNotFound, details)
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, details)
	case errors.Is(err, gpiocdev.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrLineNotFound, details)
	case errors.Is(err, gpiocdev.ErrClosed):
		return fmt.Errorf("%w: %s", ErrClosed, details)
	default:
		return fmt.Errorf("%s: %w", details, err)
	}
}

func (g *gpioIO) SetHeater(on bool) error {
	return g.heater.SetValue(boolToValue(on))
}

func (g *gpioIO) Heater() (bool, error) {
	v, err := g.heater.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (g *gpioIO) SetLED(on bool) error {
	return g.led.SetValue(boolToValue(on))
}

func (g *gpioIO) SenseRelayOn() (bool, error) {
	v, err := g.sense.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (g *gpioIO) Close() error {
	var firstErr error
	for _, l := range []*gpiocdev.Line{g.heater, g.led, g.sense} {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
