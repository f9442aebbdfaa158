// SPDX-License-Identifier: BSD-3-Clause

package sensor

import (
	"sync"
	"time"
)

// Mock is a settable Info[T] implementation for tests: a hand-driven
// stand-in for a sensor collaborator this module does not implement.
type Mock[T any] struct {
	mu        sync.Mutex
	available bool
	value     T
	timestamp time.Time
}

// NewMock creates a Mock with the given initial value, marked available with
// the current time as its timestamp.
func NewMock[T any](value T) *Mock[T] {
	return &Mock[T]{
		available: true,
		value:     value,
		timestamp: time.Now(),
	}
}

// NewUnavailableMock creates a Mock with no reading present.
func NewUnavailableMock[T any]() *Mock[T] {
	return &Mock[T]{available: false}
}

// Set updates the mock's value, timestamp (to now), and marks it available.
func (m *Mock[T]) Set(value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.timestamp = time.Now()
	m.available = true
}

// SetUnavailable marks the mock as having no trustworthy reading.
func (m *Mock[T]) SetUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = false
}

// Available implements Info[T].
func (m *Mock[T]) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Get implements Info[T].
func (m *Mock[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Timestamp implements Info[T].
func (m *Mock[T]) Timestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timestamp
}
