// Package debug provides logging and timing utilities for the plugin host.
//
// Nothing in this package may be called from the audio thread except
// BlockTimer, which is lock-free and allocation-free.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name from configuration.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "off", "none":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Flags for logger output formatting.
const (
	FlagTime      = 1 << iota // Include timestamp
	FlagShortFile             // Include short file name and line number
	FlagLongFile              // Include full file path and line number
	FlagLevel                 // Include log level
	FlagPrefix                // Include prefix
)

// DefaultFlags are the default formatting flags.
const DefaultFlags = FlagTime | FlagLevel | FlagPrefix

// sink is shared by a logger and every child created with With.
type sink struct {
	mu     sync.Mutex
	output io.Writer
	level  LogLevel
	flags  int
}

// Logger writes leveled messages followed by key=value pairs:
//
//	2026-01-02 15:04:05.000 [INFO] [host] script loaded name=tone.lua params=3
type Logger struct {
	sink   *sink
	prefix string
}

var defaultLogger = New(os.Stderr, "", DefaultFlags)

// New creates a new logger instance.
func New(output io.Writer, prefix string, flags int) *Logger {
	return &Logger{
		sink: &sink{
			output: output,
			level:  LogLevelInfo,
			flags:  flags,
		},
		prefix: prefix,
	}
}

// NewFileLogger creates a logger that appends to a file.
func NewFileLogger(filename, prefix string, flags int) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return New(file, prefix, flags), nil
}

// With returns a logger sharing output and level but with its own prefix.
// Nested prefixes are joined with a dot.
func (l *Logger) With(prefix string) *Logger {
	if l.prefix != "" {
		prefix = l.prefix + "." + prefix
	}
	return &Logger{sink: l.sink, prefix: prefix}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *Logger) log(level LogLevel, msg string, keyvals []interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level || s.level == LogLevelOff {
		return
	}

	var sb strings.Builder

	if s.flags&FlagTime != 0 {
		sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	}
	if s.flags&FlagLevel != 0 {
		sb.WriteString("[" + level.String() + "] ")
	}
	if s.flags&FlagPrefix != 0 && l.prefix != "" {
		sb.WriteString("[" + l.prefix + "] ")
	}
	if s.flags&(FlagShortFile|FlagLongFile) != 0 {
		// Skip log() and Debug/Info/etc
		if _, file, line, ok := runtime.Caller(2); ok {
			if s.flags&FlagShortFile != 0 {
				file = filepath.Base(file)
			}
			fmt.Fprintf(&sb, "%s:%d: ", file, line)
		}
	}

	sb.WriteString(msg)
	for i := 0; i < len(keyvals); i += 2 {
		sb.WriteByte(' ')
		if i+1 < len(keyvals) {
			fmt.Fprintf(&sb, "%v=%v", keyvals[i], formatValue(keyvals[i+1]))
		} else {
			fmt.Fprintf(&sb, "%v=<missing>", keyvals[i])
		}
	}
	sb.WriteByte('\n')

	_, _ = io.WriteString(s.output, sb.String())
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case error:
		return fmt.Sprintf("%q", x.Error())
	case string:
		if strings.ContainsAny(x, " \t\"=") {
			return fmt.Sprintf("%q", x)
		}
		return x
	case float64:
		return fmt.Sprintf("%.6g", x)
	case time.Duration:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(LogLevelDebug, msg, keyvals)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(LogLevelInfo, msg, keyvals)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(LogLevelWarn, msg, keyvals)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(LogLevelError, msg, keyvals)
}

// Default returns the default logger instance.
func Default() *Logger {
	return defaultLogger
}
