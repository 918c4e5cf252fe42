// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init sets level and format. Empty arguments fall back to LOG_LEVEL and
// LOG_FORMAT, then to "info" and "text". Logs go to stderr so command output
// on stdout stays clean.
func Init(level, format string) *logrus.Logger {
	return InitWithOutput(level, format, os.Stderr)
}

func InitWithOutput(level, format string, out io.Writer) *logrus.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	Log.SetOutput(out)
	return Log
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
