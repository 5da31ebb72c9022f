// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/config"
)

// New returns a logger writing to w (stderr when nil) at the configured
// level and format.
func New(c config.Log, w io.Writer) (*logrus.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(w)

	lvl := c.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(strings.ToLower(lvl))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, err, "log level")
	}
	log.SetLevel(level)

	switch c.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, apperr.Config("invalid log format %q (use text or json)", c.Format)
	}
	return log, nil
}

// Discard returns a logger that drops everything; used when output must stay clean.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
