// Package obslog adapts logrus, the teacher's concrete logging backend, to
// the go-logr/logr interface that every engine driver and plugin callback
// accepts. Drivers never import logrus directly; they take a logr.Logger and
// derive named, leveled sub-loggers the way operator-lifecycle-manager's
// controllers do.
package obslog

import (
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
)

// New returns a logr.Logger backed by base, named root. Verbosity levels map
// onto logrus levels: V(0) -> Info, V(1) -> Debug, V(2)+ -> Trace.
func New(base *logrus.Logger, root string) logr.Logger {
	return logr.New(&sink{base: base}).WithName(root)
}

type sink struct {
	base   *logrus.Logger
	names  []string
	values []interface{}
}

var _ logr.LogSink = (*sink)(nil)

func (s *sink) Init(logr.RuntimeInfo) {}

func (s *sink) Enabled(level int) bool {
	return s.base.IsLevelEnabled(levelFor(level))
}

func (s *sink) Info(level int, msg string, kv ...interface{}) {
	s.WithValues(kv...).(*sink).entry().Log(levelFor(level), msg)
}

func (s *sink) Error(err error, msg string, kv ...interface{}) {
	s.WithValues(kv...).(*sink).entry().WithError(err).Error(msg)
}

func (s *sink) WithValues(kv ...interface{}) logr.LogSink {
	next := &sink{base: s.base, names: s.names, values: append(append([]interface{}{}, s.values...), kv...)}
	return next
}

func (s *sink) WithName(name string) logr.LogSink {
	next := &sink{base: s.base, names: append(append([]string{}, s.names...), name), values: s.values}
	return next
}

func (s *sink) entry() *logrus.Entry {
	e := logrus.NewEntry(s.base)
	if len(s.names) > 0 {
		component := s.names[0]
		for _, n := range s.names[1:] {
			component += "." + n
		}
		e = e.WithField("component", component)
	}
	fields := logrus.Fields{}
	for i := 0; i+1 < len(s.values); i += 2 {
		key, ok := s.values[i].(string)
		if !ok {
			continue
		}
		fields[key] = s.values[i+1]
	}
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	return e
}

func levelFor(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.InfoLevel
	case v == 1:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
