// Package logger provides structured logging and run metrics for the draw pipeline.
//
// Loggers are values passed to the components that need them; there is no
// package-level default. Output is JSON (or logfmt-style text) produced by
// logrus, written to any io.Writer and optionally mirrored to a rotating file.
//
// Example usage:
//
//	log.Info("Fetched draw", logger.Fields{
//	    "region": "MN",
//	    "date":   "2024-03-15",
//	})
//
//	log.Error("Persist failed", logger.Fields{"region": "MB"}, err)
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel accepts level names case-insensitively ("warning" is accepted for WARN).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return "", fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	entry *logrus.Entry
}

// New creates a JSON logger with the specified minimum level and output.
// Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(level.logrus())
	base.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(LevelError, io.Discard)
}

// Options configures Open.
type Options struct {
	Level      Level
	Format     string // "json" or "text"
	Output     io.Writer
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
}

// Open builds a logger from options. The returned closer releases the log file, if any.
func Open(opts Options) (*Logger, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(out, file)
		closer = file
	}

	l := New(opts.Level, out)
	switch strings.ToLower(opts.Format) {
	case "", "json":
	case "text":
		l.entry.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("invalid log format %q (want json or text)", opts.Format)
	}
	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(message)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(message)
}

// Warn logs a warning message with optional structured fields.
// Warnings mark per-date problems that do not stop a batch.
func (l *Logger) Warn(message string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(message)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	e := l.entry.WithFields(logrus.Fields(fields))
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}
