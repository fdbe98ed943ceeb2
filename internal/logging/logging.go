// Package logging wires up the process logger: a logrus.Logger writing
// through a replaceablewriter.Writer so the output destination can be
// swapped at runtime (cmd/statsite calls Reopen on SIGHUP), the same
// rotation idiom carbon-relay-ng ships.
package logging

import (
	"io"
	"os"

	"github.com/Songmu/replaceablewriter"
	"github.com/sirupsen/logrus"
)

// Logger bundles the logrus.Logger with the writer swap point.
type Logger struct {
	*logrus.Logger
	out *replaceablewriter.Writer
}

// New builds a logger writing to out (os.Stdout if nil) at the given level
// ("debug", "info", "warn", "error"; invalid values fall back to "info").
func New(level string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	rw := replaceablewriter.New(out)

	l := logrus.New()
	l.SetOutput(rw)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Logger: l, out: rw}
}

// Reopen swaps the underlying writer, e.g. after log rotation moved the
// previous file out from under an open descriptor.
func (l *Logger) Reopen(w io.Writer) {
	l.out.Replace(w)
}
