// Package logger provides leveled logging for the docqa CLI.
// Warnings and errors are always printed. Debug and info messages are
// printed only when verbose mode is enabled via the --verbose flag, to
// help users follow the ingestion and question-answering pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = newLogger(os.Stderr, false)
)

// writeMu serialises writes from loggers that share an output.
var writeMu sync.Mutex

type lockedWriter struct {
	w io.Writer
}

func (lw lockedWriter) Write(p []byte) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	return lw.w.Write(p)
}

func newLogger(w io.Writer, v bool) *log.Logger {
	// Terminals keep their colour detection; other writers are serialised.
	if _, ok := w.(*os.File); !ok {
		w = lockedWriter{w: w}
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Prefix:          "docqa",
	})
	if v {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = newLogger(output, v)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w, verbose)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(lockedWriter{w: output}, "\n=== %s ===\n", name)
	}
}
