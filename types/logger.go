package types

import (
	"bytes"
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the engine and the environments,
// so the logrus instance can be swapped in tests
type Logger interface {
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Error(...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	WithField(string, interface{}) *log.Entry
	SetLevel(level log.Level)
	GetLevel() log.Level
	SetOutput(writer io.Writer)
	SetFormatter(formatter log.Formatter)
}

func NewLogger() Logger {
	return log.New()
}

// NewNullLogger returns a logger that discards everything
func NewNullLogger() Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewBufferLogger returns a logger writing into b, used mainly for testing
func NewBufferLogger(b *bytes.Buffer) Logger {
	logger := log.New()
	logger.SetOutput(b)
	logger.SetLevel(log.DebugLevel)
	return logger
}

func IsDebugLevel(l Logger) bool {
	return l.GetLevel() >= log.DebugLevel
}
