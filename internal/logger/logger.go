// README: Application logger built on logrus; level and format come from config.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus so callers depend on one place for log construction.
type Logger struct {
	*logrus.Logger
}

// New builds a logger from the configured level and format. Unknown levels
// fall back to info.
func New(level, format string) *Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Logger: log}
}
