// Package logging builds the diagnostic logger. User-facing messages are
// printed with color; this logger carries the details.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New returns a console logger writing to w. Verbosity 0 logs warnings and
// errors only, 1 adds informational entries and 2 or more adds debug entries.
func New(verbosity int, w io.Writer) *log.Logger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = log.IsTerminal(f.Fd())
	}
	return &log.Logger{
		Level: levelFor(verbosity),
		Writer: &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: color,
		},
	}
}

// Discard returns a logger that drops every entry
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: log.IOWriter{Writer: io.Discard},
	}
}

func levelFor(verbosity int) log.Level {
	switch {
	case verbosity <= 0:
		return log.WarnLevel
	case verbosity == 1:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}
