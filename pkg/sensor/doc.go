// SPDX-License-Identifier: BSD-3-Clause

// Package sensor declares the read-only collaborator interfaces the heater
// controllers observe: optional, freshness-timestamped readings and the
// discrete light-mode signal. Sensor acquisition, filtering, and hardware
// drivers are explicitly out of scope for this module; this package only
// defines the contracts and ships simple static/mock implementations for
// tests.
package sensor
