package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// LogLevel represents the logging level
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// String returns the tag written in front of every line of that level.
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "[DEBUG]"
	case INFO:
		return "[INFO] "
	case WARNING:
		return "[WARN] "
	case ERROR:
		return "[ERROR]"
	default:
		return "[?]    "
	}
}

// LoggerInterface defines the interface for logging methods
type LoggerInterface interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
	Sync() error
	ChangeLogLevel(level LogLevel)
}

// Logger writes leveled lines to stdout and to an hourly rotated file.
type Logger struct {
	logger     *log.Logger
	fileWriter io.Writer
	level      *atomic.Int32
	prefix     string
}

var _ LoggerInterface = (*Logger)(nil)

// NewLogger creates a new logger instance with file output and rotation
func NewLogger(logFile string, maxSize, maxBackups, maxAge int, compress bool, level LogLevel) (*Logger, error) {
	fileWriter, err := newHourlyWriter(logFile, maxSize, maxBackups, maxAge, compress)
	if err != nil {
		return nil, err
	}
	return newLogger(io.MultiWriter(fileWriter, os.Stdout), fileWriter, level), nil
}

// NewWriterLogger logs to w only. Used by tools and tests that capture output.
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return newLogger(w, nil, level)
}

func newLogger(out io.Writer, fileWriter io.Writer, level LogLevel) *Logger {
	lv := &atomic.Int32{}
	lv.Store(int32(level))
	return &Logger{
		logger:     log.New(out, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile),
		fileWriter: fileWriter,
		level:      lv,
	}
}

// WithPrefix returns a logger sharing the same output and level that tags
// every line with "[prefix]".
func (l *Logger) WithPrefix(prefix string) *Logger {
	cp := *l
	cp.prefix = "[" + prefix + "] "
	return &cp
}

func (l *Logger) output(level LogLevel, format string, v ...interface{}) {
	if LogLevel(l.level.Load()) > level {
		return
	}
	_ = l.logger.Output(3, level.String()+" "+l.prefix+fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.output(DEBUG, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.output(INFO, format, v...) }

// Warning logs a warning message
func (l *Logger) Warning(format string, v ...interface{}) { l.output(WARNING, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.output(ERROR, format, v...) }

// Fatal logs an error message and exits
func (l *Logger) Fatal(format string, v ...interface{}) {
	_ = l.logger.Output(2, "[FATAL] "+l.prefix+fmt.Sprintf(format, v...))
	_ = l.Sync()
	os.Exit(1)
}

// Sync rotates the current file so buffered lines land on disk.
func (l *Logger) Sync() error {
	type rotator interface {
		Rotate() error
	}
	if r, ok := l.fileWriter.(rotator); ok {
		return r.Rotate()
	}
	return nil
}

// ChangeLogLevel changes the logging level at runtime
func (l *Logger) ChangeLogLevel(level LogLevel) {
	l.level.Store(int32(level))
}

type nop struct{}

// Nop returns a logger that discards everything.
func Nop() LoggerInterface { return nop{} }

func (nop) Debug(string, ...interface{})   {}
func (nop) Info(string, ...interface{})    {}
func (nop) Warning(string, ...interface{}) {}
func (nop) Error(string, ...interface{})   {}
func (nop) Fatal(string, ...interface{})   {}
func (nop) Sync() error                    { return nil }
func (nop) ChangeLogLevel(LogLevel)        {}
