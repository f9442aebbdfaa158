// SPDX-License-Identifier: BSD-3-Clause

package heaterio

import "fmt"

// Config names the three GPIO lines heaterio drives, plus the chip they are
// requested from.
type Config struct {
	ChipPath   string
	HeaterLine string
	LEDLine    string
	SenseLine  string
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithChip sets the GPIO chip device path. Default "/dev/gpiochip0".
func WithChip(path string) Option {
	return optionFunc(func(c *Config) { c.ChipPath = path })
}

// WithHeaterLine names the heater SSR output line.
func WithHeaterLine(name string) Option {
	return optionFunc(func(c *Config) { c.HeaterLine = name })
}

// WithLEDLine names the heater-power LED output line.
func WithLEDLine(name string) Option {
	return optionFunc(func(c *Config) { c.LEDLine = name })
}

// WithSenseLine names the sense-relay input line.
func WithSenseLine(name string) Option {
	return optionFunc(func(c *Config) { c.SenseLine = name })
}

// NewConfig builds a Config with sane defaults and applies opts.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		ChipPath:   "/dev/gpiochip0",
		HeaterLine: "HEATER_SSR",
		LEDLine:    "HEATER_LED",
		SenseLine:  "HEATER_SENSE",
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate checks the configuration for missing fields.
func (c *Config) Validate() error {
	if c.ChipPath == "" {
		return fmt.Errorf("%w: chip path cannot be empty", ErrInvalidConfig)
	}
	if c.HeaterLine == "" {
		return fmt.Errorf("%w: heater line cannot be empty", ErrInvalidConfig)
	}
	if c.LEDLine == "" {
		return fmt.Errorf("%w: LED line cannot be empty", ErrInvalidConfig)
	}
	if c.SenseLine == "" {
		return fmt.Errorf("%w: sense line cannot be empty", ErrInvalidConfig)
	}
	return nil
}
