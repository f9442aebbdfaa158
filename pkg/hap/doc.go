// SPDX-License-Identifier: BSD-3-Clause

// Package hap implements the process-wide diagnostic event bus ("hap", from
// "happening") that heater controllers use to report fault hypotheses,
// retries, and critical conditions. It is a plain in-process multi-producer,
// multi-subscriber channel bus, deliberately not built on any message broker:
// the subsystem this package supports treats messaging infrastructure as an
// out-of-scope external collaborator.
package hap
