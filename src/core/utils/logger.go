package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"curlwise-server-go/src/configs"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger with a fixed set of fields. Copies made by
// WithTag and WithField share the underlying logger and output.
type Logger struct {
	base    *logrus.Logger
	fields  logrus.Fields
	logFile *os.File
}

// NewLogger builds the process logger from the log section of the config.
// Output goes to stdout unless log_file is set, in which case it is appended
// to log_dir/log_file.
func NewLogger(config *configs.Config) (*Logger, error) {
	var (
		out  io.Writer = os.Stdout
		file *os.File
	)

	if config.Log.LogFile != "" {
		if config.Log.LogDir != "" {
			if err := os.MkdirAll(config.Log.LogDir, 0755); err != nil {
				return nil, fmt.Errorf("creating log dir: %w", err)
			}
		}

		logPath := filepath.Join(config.Log.LogDir, config.Log.LogFile)
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		file = f
	}

	logger, err := NewLoggerWithOutput(out, config.Log.LogLevel, config.Log.LogFormat)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, err
	}
	logger.logFile = file
	return logger, nil
}

// NewLoggerWithOutput creates a logger writing to w. level is one of debug,
// info, warn or error; format is text or json.
func NewLoggerWithOutput(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	default:
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	return &Logger{base: base, fields: logrus.Fields{}}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

// WithTag returns a logger that marks every entry with tag.
func (l *Logger) WithTag(tag string) *Logger {
	return l.WithField("tag", tag)
}

// WithField returns a logger that adds key=value to every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	return &Logger{base: l.base, fields: fields, logFile: l.logFile}
}

// IsDebug reports whether debug entries are written.
func (l *Logger) IsDebug() bool {
	return l.base.IsLevelEnabled(logrus.DebugLevel)
}

// log merges the optional fields into the entry. A map is flattened into
// individual fields, an error is stored under "error".
func (l *Logger) log(level logrus.Level, msg string, fields ...interface{}) {
	if !l.base.IsLevelEnabled(level) {
		return
	}

	entry := logrus.NewEntry(l.base).WithFields(l.fields)
	for i, f := range fields {
		switch v := f.(type) {
		case map[string]interface{}:
			entry = entry.WithFields(logrus.Fields(v))
		case logrus.Fields:
			entry = entry.WithFields(v)
		case error:
			entry = entry.WithError(v)
		case nil:
		default:
			entry = entry.WithField(fmt.Sprintf("arg%d", i), v)
		}
	}
	entry.Log(level, msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.log(logrus.DebugLevel, msg, fields...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.log(logrus.InfoLevel, msg, fields...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.log(logrus.WarnLevel, msg, fields...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.log(logrus.ErrorLevel, msg, fields...)
}
