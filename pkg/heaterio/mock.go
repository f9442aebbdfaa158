// SPDX-License-Identifier: BSD-3-Clause

package heaterio

import "sync"

// Mock is an in-memory IO implementation for tests and non-Linux
// development.
type Mock struct {
	mu     sync.Mutex
	heater bool
	led    bool
	sense  bool
	closed bool
}

// NewMock creates a Mock with every line deasserted.
func NewMock() *Mock {
	return &Mock{}
}

var _ IO = (*Mock)(nil)

func (m *Mock) SetHeater(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.heater = on
	return nil
}

func (m *Mock) Heater() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	return m.heater, nil
}

func (m *Mock) SetLED(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.led = on
	return nil
}

func (m *Mock) LED() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	return m.led, nil
}

// SetSenseRelay lets a test drive the sense-relay input independently of
// the heater output, to exercise cross-check failure scenarios.
func (m *Mock) SetSenseRelay(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sense = on
}

func (m *Mock) SenseRelayOn() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	return m.sense, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
