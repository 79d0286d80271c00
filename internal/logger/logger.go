// Package logger holds the process-wide logrus logger. Packages log through
// component entries so every line carries its origin.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(formatter(os.Getenv("LOG_FORMAT")))
	l.SetLevel(logrus.InfoLevel)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if lvl, err := logrus.ParseLevel(strings.ToLower(raw)); err == nil {
			l.SetLevel(lvl)
		}
	}
	return l
}

// WithComponent returns an entry tagged with component, e.g. "querycache".
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// SetLevel parses level and applies it to the shared logger.
// An unparsable level leaves the logger at info and returns the parse error.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		Logger.SetLevel(logrus.InfoLevel)
		return err
	}
	Logger.SetLevel(parsed)
	return nil
}

// SetFormat switches between "json" and the default text output.
func SetFormat(format string) {
	Logger.SetFormatter(formatter(format))
}

func formatter(format string) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}
