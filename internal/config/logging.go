package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger applies level and format to the standard logrus logger.
// An unknown level falls back to info.
func ConfigureLogger(c LogConfig) {
	logrus.SetOutput(os.Stdout)

	if c.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		logrus.WithField("level", c.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
