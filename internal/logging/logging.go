// Package logging configures the process-wide structured logger. Commands
// log progress here instead of printing to stderr directly, so verbosity
// is controlled in one place.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance. It writes to stderr and stays at
// warn level until Init raises it.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Level:           log.WarnLevel,
})

// Init sets the log level from the verbosity flag.
func Init(verbose bool) {
	if verbose {
		Logger.SetLevel(log.DebugLevel)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// WithPrefix returns a logger with a prefix
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
