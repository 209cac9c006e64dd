package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ANSI color codes for console output
const (
	ColorReset        = "\033[0m"
	ColorGreen        = "\033[32m"
	ColorBrightRed    = "\033[91m"
	ColorBrightYellow = "\033[93m"
	ColorBrightGray   = "\033[90m"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "?????"
}

// Logger writes leveled diagnostics for a named component.
type Logger struct {
	component    string
	out          io.Writer
	minLevel     Level
	colorEnabled bool
	fields       map[string]string
}

// New creates a logger for the named component, writing to stderr.
func New(component string) *Logger {
	return &Logger{
		component:    component,
		out:          os.Stderr,
		minLevel:     LevelInfo,
		colorEnabled: isTerminal(os.Stderr),
	}
}

// NewWithOutput creates a logger writing to the given writer, without color.
// Intended for tests and captured output.
func NewWithOutput(component string, out io.Writer) *Logger {
	return &Logger{component: component, out: out, minLevel: LevelDebug}
}

// SetLevel sets the minimum level that is written out.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// WithField returns a logger that appends key=value to every entry.
func (l *Logger) WithField(key, value string) *Logger {
	fields := make(map[string]string, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{
		component:    l.component,
		out:          l.out,
		minLevel:     l.minLevel,
		colorEnabled: l.colorEnabled,
		fields:       fields,
	}
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal(f *os.File) bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, _ := f.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func (l *Logger) colorForLevel(level Level) string {
	if !l.colorEnabled {
		return ""
	}
	switch level {
	case LevelDebug:
		return ColorBrightGray
	case LevelInfo:
		return ColorGreen
	case LevelWarn:
		return ColorBrightYellow
	case LevelError:
		return ColorBrightRed
	}
	return ColorReset
}

func (l *Logger) log(level Level, message string) {
	if level < l.minLevel {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	color := l.colorForLevel(level)
	reset := ""
	if l.colorEnabled {
		reset = ColorReset
	}
	line := fmt.Sprintf("[%s] [%s] [%s%-5s%s] %s", timestamp, l.component, color, level, reset, message)
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%s", k, l.fields[k])
		}
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, fmt.Sprintf(format, args...)) }
