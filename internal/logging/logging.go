package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger from a level name and a format ("json" or "text").
// An unknown level falls back to info and is reported once.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.SetLevel(logLevel)
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, logLevel.String())
		return logger
	}
	logger.SetLevel(logLevel)
	return logger
}

// Component returns an entry tagged with the component field.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Discard returns a logger that writes nothing, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
