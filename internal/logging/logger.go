// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config mirrors config.LoggingConfig. Output defaults to os.Stderr.
type Config struct {
	Level  string
	Format string
	Caller bool
	Output io.Writer
}

// DefaultConfig is info level JSON on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before main calls Init
func init() {
	Init(DefaultConfig())
}

// Init reconfigures the global logger. Every line carries a UTC RFC3339 time.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}

	mu.Lock()
	log = ctx.Logger()
	mu.Unlock()
}

// parseLevel accepts zerolog's level names plus "warning". Anything else,
// including "", is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With starts a child logger context.
func With() zerolog.Context {
	return Logger().With()
}

// Info starts an info level event.
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warn level event.
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal starts a fatal event; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}
