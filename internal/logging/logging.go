// Package logging provides the structured logger injected into dupfind
// components. There is no package-level default: the engine, stores, and CLI
// all receive a *Logger explicitly.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Level represents the severity of a log message.
type Level string

const (
	// DebugLevel for debug messages
	DebugLevel Level = "debug"
	// InfoLevel for informational messages
	InfoLevel Level = "info"
	// WarnLevel for warning messages
	WarnLevel Level = "warn"
	// ErrorLevel for error messages
	ErrorLevel Level = "error"
)

var levelPriority = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// Format represents the output format for logs.
type Format string

const (
	// JSONFormat outputs one JSON object per line
	JSONFormat Format = "json"
	// HumanFormat outputs human-readable lines
	HumanFormat Format = "human"
)

// Config holds logger configuration.
type Config struct {
	Format Format
	Level  Level
	Output io.Writer // defaults to stderr
}

// Fields carries structured key/value context for a log entry.
type Fields map[string]any

// Logger provides leveled structured logging.
type Logger struct {
	cfg       Config
	out       io.Writer
	component string
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Level == "" {
		cfg.Level = InfoLevel
	}
	return &Logger{cfg: cfg, out: out}
}

// Discard returns a logger that drops everything. Used in tests and as a
// safe default when callers pass nil.
func Discard() *Logger {
	return New(Config{Format: JSONFormat, Level: ErrorLevel, Output: io.Discard})
}

// With returns a child logger tagged with a component name that is attached
// to every entry.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

type entry struct {
	Timestamp string `json:"ts"`
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"msg"`
	Fields    Fields `json:"fields,omitempty"`
}

func (l *Logger) enabled(level Level) bool {
	return levelPriority[level] >= levelPriority[l.cfg.Level]
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if !l.enabled(level) {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Component: l.component,
		Message:   msg,
		Fields:    fields,
	}

	if l.cfg.Format == HumanFormat {
		l.writeHuman(e)
		return
	}
	l.writeJSON(e)
}

func (l *Logger) writeJSON(e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dupfind: failed to marshal log entry: %v\n", err)
		return
	}
	fmt.Fprintln(l.out, string(data))
}

func (l *Logger) writeHuman(e entry) {
	fmt.Fprintf(l.out, "%s [%s]", e.Timestamp, e.Level)
	if e.Component != "" {
		fmt.Fprintf(l.out, " %s:", e.Component)
	}
	fmt.Fprintf(l.out, " %s", e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprint(l.out, " |")
		for _, k := range keys {
			fmt.Fprintf(l.out, " %s=%v", k, e.Fields[k])
		}
	}
	fmt.Fprintln(l.out)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields Fields) { l.log(DebugLevel, msg, fields) }

// Info logs an info message.
func (l *Logger) Info(msg string, fields Fields) { l.log(InfoLevel, msg, fields) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields Fields) { l.log(WarnLevel, msg, fields) }

// Error logs an error message.
func (l *Logger) Error(msg string, fields Fields) { l.log(ErrorLevel, msg, fields) }
