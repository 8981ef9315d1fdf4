// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured logger shared by the preflight stages.
package logging

import (
	"io"
	"strings"

	"github.com/phuslu/log"
)

// New returns a console logger writing to w at the given level
// (debug, info, warn or error). Unknown levels fall back to info.
func New(level string, w io.Writer) *log.Logger {
	return &log.Logger{
		Level: ParseLevel(level),
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    false,
			EndWithMessage: true,
		},
	}
}

// Discard returns a logger that drops every entry. Tests and library
// callers without a logger use it.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// ParseLevel maps a level name to a log.Level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
