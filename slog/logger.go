// Package slog holds the welcomebot logging interface and its default implementation
// backed by a standard library logger
package slog

import (
	"fmt"
	"io"
	"log"
)

// SLogger is the welcomebot internal logging interface
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

type sLogger struct {
	logger *log.Logger
	debug  bool
}

// New creates a new logger provided with a standard logger and a debug flag
func New(l *log.Logger, debug bool) (sl SLogger) {
	return &sLogger{logger: l, debug: debug}
}

// NewDefault creates a logger writing to w with the standard welcomebot prefix and flags
func NewDefault(w io.Writer, prefix string, debug bool) (sl SLogger) {
	return New(log.New(w, prefix, log.Lshortfile|log.LstdFlags), debug)
}

// Debugf logs a debug line after checking if the configuration is in debug mode
func (sl *sLogger) Debugf(format string, v ...interface{}) {
	if sl.debug {
		sl.logger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Printf logs a line by delegating the call to Output
func (sl *sLogger) Printf(format string, v ...interface{}) {
	sl.logger.Output(2, fmt.Sprintf(format, v...))
}

// Discard returns a logger that drops everything
func Discard() (sl SLogger) {
	return New(log.New(io.Discard, "", 0), false)
}
