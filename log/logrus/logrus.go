// Package logrus adapts a logrus entry to querycache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/querycache"
)

var _ querycache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New wraps e. A nil entry logs through logrus' standard logger.
func New(e *logrus.Entry) Logger {
	if e == nil {
		e = logrus.NewEntry(logrus.StandardLogger())
	}
	return Logger{E: e}
}

func (l Logger) Debug(msg string, f querycache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f querycache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f querycache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f querycache.Fields) { l.with(f).Error(msg) }

// with moves an "err" field to logrus' error key so hooks and formatters
// treat it as the entry's error.
func (l Logger) with(f querycache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			lf[logrus.ErrorKey] = err
			continue
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
