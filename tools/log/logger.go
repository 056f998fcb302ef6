// Package log is a thin facade over logrus shared by the runner, the feed, the storage
// layer and the CLI. Callers never import logrus directly, the whole process shares
// one logger configuration.
//
// The indicator package does not log: it is a pure transform and reports problems
// only through its returned errors. The runner decides whether an invalid bar is
// logged and skipped or aborts the run.
//
// Levels, from the most to the least verbose:
//
//	DebugLevel  ignored CSV columns
//	InfoLevel   loaded feeds, computed and exported records
//	WarnLevel   skipped bars, progress bar failures
//	ErrorLevel  failures reported before exiting
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Level values re-exported so callers can set the level without importing logrus.
var (
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	ErrorLevel = logrus.ErrorLevel
)

// Formatter and field types re-exported for SetFormatter and WithFields.
type (
	TextFormatter = logrus.TextFormatter
	JSONFormatter = logrus.JSONFormatter
	Level         = logrus.Level
	Fields        = logrus.Fields
)

// ParseLevel converts a level name such as "info" or "debug".
func ParseLevel(level string) (Level, error) {
	return logrus.ParseLevel(level)
}

// CheckErr logs err at level when it is not nil.
func CheckErr(level Level, err error) {
	if err != nil {
		Log(level, err)
	}
}

// Log writes messages at level. Levels other than info, warn and error are written
// at debug, panic and fatal included.
func Log(level Level, messages ...interface{}) {
	switch level {
	case logrus.InfoLevel:
		logrus.Info(messages...)
	case logrus.WarnLevel:
		logrus.Warn(messages...)
	case logrus.ErrorLevel:
		logrus.Error(messages...)
	default:
		logrus.Debug(messages...)
	}
}

// SetFormatter replaces the output format of the process wide logger, eg. the text
// formatter with full timestamps set by the root package or a JSON formatter.
func SetFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}

func SetLevel(level Level) {
	logrus.SetLevel(level)
}

// SetOutput redirects every log line, tests use it to capture the output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// WithField returns an entry carrying key, eg. the symbol being processed.
func WithField(key string, value interface{}) *logrus.Entry {
	return logrus.WithField(key, value)
}

func WithFields(fields Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

func Info(messages ...interface{}) {
	logrus.Info(messages...)
}

func Infof(format string, messages ...interface{}) {
	logrus.Infof(format, messages...)
}

func Warn(messages ...interface{}) {
	logrus.Warn(messages...)
}

func Warnf(format string, messages ...interface{}) {
	logrus.Warnf(format, messages...)
}

func Error(messages ...interface{}) {
	logrus.Error(messages...)
}

func Errorf(format string, messages ...interface{}) {
	logrus.Errorf(format, messages...)
}

// Fatal logs messages and exits the process with status 1.
func Fatal(messages ...interface{}) {
	logrus.Fatal(messages...)
}

func Debugf(format string, messages ...interface{}) {
	logrus.Debugf(format, messages...)
}
