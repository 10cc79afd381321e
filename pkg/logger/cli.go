package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewCLI creates the colorized logger used by terminal commands. Unlike
// the zap service logger it writes to stderr so command output stays
// pipeable.
func NewCLI(debug bool) *log.Logger {
	return NewCLIWithWriter(os.Stderr, debug)
}

// NewCLIWithWriter is NewCLI with an explicit writer, for tests.
func NewCLIWithWriter(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})
}
