// Package logging wraps logrus with the field set every subsystem of
// this engine logs against.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing to stderr at the given level
// name, falling back to Info on an unrecognised level.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: false}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// WithTime returns an entry carrying the simulation-time field every
// dispatch/collision/downlink log line includes.
func WithTime(l *logrus.Logger, t fmt.Stringer) *logrus.Entry {
	return l.WithField("t", t.String())
}
