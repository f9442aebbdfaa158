// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import "fmt"

// Config holds the configuration for a Scheduler.
type Config struct {
	// Workers is the number of worker goroutines draining scheduled work.
	Workers int
	// QueueSize bounds the number of in-flight dispatches awaiting a worker.
	QueueSize int
}

// Option configures a Scheduler.
type Option interface {
	apply(*Config)
}

type workersOption struct {
	n int
}

func (o *workersOption) apply(c *Config) {
	c.Workers = o.n
}

// WithWorkers sets the number of worker goroutines. Default is 4.
func WithWorkers(n int) Option {
	return &workersOption{n: n}
}

type queueSizeOption struct {
	n int
}

func (o *queueSizeOption) apply(c *Config) {
	c.QueueSize = o.n
}

// WithQueueSize sets the bound on queued dispatches. Default is 64.
func WithQueueSize(n int) Option {
	return &queueSizeOption{n: n}
}

// NewConfig builds a Config with sane defaults and applies the given options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Workers:   4,
		QueueSize: 64,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate checks the configuration for range violations.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be >= 1, got %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}
