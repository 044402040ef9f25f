// Package monitoring provides the diagnostics sink and conversion metrics
// shared by the converter and the CLI.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level is the severity of a diagnostic message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelFatal
)

// String returns the tag printed in front of each message.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostics is a leveled sink that routes every message through Logf.
// Fatal messages are reported only; deciding what a fatal condition means
// is left to the caller. The zero value is ready to use.
type Diagnostics struct {
	// Prefix is prepended to each message, e.g. a run ID.
	Prefix string
}

// Infof logs at info level.
func (d Diagnostics) Infof(format string, v ...interface{}) { d.logf(LevelInfo, format, v...) }

// Warnf logs at warning level.
func (d Diagnostics) Warnf(format string, v ...interface{}) { d.logf(LevelWarn, format, v...) }

// Fatalf logs at fatal level. It does not exit.
func (d Diagnostics) Fatalf(format string, v ...interface{}) { d.logf(LevelFatal, format, v...) }

func (d Diagnostics) logf(l Level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if d.Prefix != "" {
		Logf("[%s] %s %s", l, d.Prefix, msg)
		return
	}
	Logf("[%s] %s", l, msg)
}
