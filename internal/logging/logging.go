// Package logging builds the charmbracelet/log logger shared by the CLI, TUI and engine.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const prefix = "checklist"

// New returns a logger writing to w. Unknown level/format names fall back to info/text.
func New(w io.Writer, level, format string) *log.Logger {
	formatter := ParseFormatter(format)
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       formatter,
		ReportTimestamp: formatter != log.TextFormatter,
		Prefix:          prefix,
	})
}

// Discard is the logger used when a caller does not supply one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
