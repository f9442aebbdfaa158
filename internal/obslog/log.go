// SPDX-License-Identifier: BSD-3-Clause

// Package obslog constructs the structured logger for heatercontrol's
// services. Nothing in this module imports it; services fall back to
// slog.Default when given no logger.
package obslog

import (
	"log/slog"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// NewDefaultLogger creates a structured logger with zerolog console output
// and timestamps, at debug level. Use this to construct the logger passed
// into every service at startup.
func NewDefaultLogger() *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()

	return slog.New(slogmulti.Fanout(
		slogzerolog.Option{Level: slog.LevelDebug, Logger: &zeroLogger}.NewZerologHandler(),
	))
}
