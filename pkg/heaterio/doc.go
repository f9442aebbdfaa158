// SPDX-License-Identifier: BSD-3-Clause

// Package heaterio drives the heater controller's three GPIO lines: the
// heater SSR output, the heater-power LED output, and the sense-relay
// input. All three are active-low, matching the original wiring polarity.
// The Linux implementation requests lines directly against
// github.com/warthog618/go-gpiocdev; a build-tag-free Mock implements the
// same interface for tests and non-Linux development.
package heaterio
