// Package logging adapts logrus to the runtime.Logger interface so code
// outside the Nakama host logs the same way code inside it does.
package logging

import (
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	entry *logrus.Entry
}

var _ runtime.Logger = (*logrusLogger)(nil)

// New returns a logger writing to out at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(out io.Writer, level string, json bool) runtime.Logger {
	base := logrus.New()
	base.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
	if json {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &logrusLogger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything.
func Discard() runtime.Logger {
	return New(io.Discard, "error", false)
}

func (l *logrusLogger) Debug(format string, v ...interface{}) { l.entry.Debugf(format, v...) }
func (l *logrusLogger) Info(format string, v ...interface{})  { l.entry.Infof(format, v...) }
func (l *logrusLogger) Warn(format string, v ...interface{})  { l.entry.Warnf(format, v...) }
func (l *logrusLogger) Error(format string, v ...interface{}) { l.entry.Errorf(format, v...) }

func (l *logrusLogger) WithField(key string, v interface{}) runtime.Logger {
	return &logrusLogger{entry: l.entry.WithField(key, v)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(l.entry.Data))
	for k, v := range l.entry.Data {
		out[k] = v
	}
	return out
}
