// SPDX-License-Identifier: BSD-3-Clause

// Package heatermgr drives the electric heater that keeps a bank of
// solar-storage batteries within a safe temperature envelope. It selects,
// at each tick, one of four finite-state-machine controllers depending on
// which temperature sensors are currently trustworthy, drives the heater
// SSR and LED outputs, and emits diagnostic haps describing suspected
// hardware faults.
package heatermgr
