// Package logx provides the logger used across callflow.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging level.
type Level = zerolog.Level

// Levels exposed for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Logger defines the interface for logging.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	SetLevel(level Level)
}

// DefaultLogger writes through a zerolog.Logger.
type DefaultLogger struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewDefaultLogger creates a human-readable logger writing to stderr at info level.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stderr, InfoLevel, true)
}

// NewLogger creates a logger writing to w. When pretty is set the output
// uses zerolog's console format, otherwise one JSON object per line.
func NewLogger(w io.Writer, level Level, pretty bool) *DefaultLogger {
	if w == nil {
		w = os.Stderr
	}
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return &DefaultLogger{
		logger: zerolog.New(out).Level(level).With().Timestamp().Str("component", "callflow").Logger(),
	}
}

// NewZerologLogger adapts an existing zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) *DefaultLogger {
	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	l.get().Debug().Msgf(format, v...)
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	l.get().Info().Msgf(format, v...)
}

func (l *DefaultLogger) Warn(format string, v ...interface{}) {
	l.get().Warn().Msgf(format, v...)
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	l.get().Error().Msgf(format, v...)
}

// SetLevel updates the minimum level written.
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = l.logger.Level(level)
}

// With returns a child logger carrying an extra field.
func (l *DefaultLogger) With(key string, value interface{}) *DefaultLogger {
	return &DefaultLogger{logger: l.get().With().Interface(key, value).Logger()}
}

func (l *DefaultLogger) get() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	logger := l.logger
	return &logger
}

var _ Logger = (*DefaultLogger)(nil)

// ParseLevel parses a level name (case-insensitive). Unknown names yield InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// NilLogger discards everything.
type NilLogger struct{}

// NewNilLogger returns a logger that discards all output.
func NewNilLogger() *NilLogger { return &NilLogger{} }

func (*NilLogger) Debug(string, ...interface{}) {}
func (*NilLogger) Info(string, ...interface{})  {}
func (*NilLogger) Warn(string, ...interface{})  {}
func (*NilLogger) Error(string, ...interface{}) {}
func (*NilLogger) SetLevel(Level)               {}

var _ Logger = (*NilLogger)(nil)

// RecordingLogger keeps formatted entries in memory. Useful in tests that
// assert on logged conditions.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (r *RecordingLogger) record(level, format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, level+": "+fmt.Sprintf(format, v...))
}

func (r *RecordingLogger) Debug(format string, v ...interface{}) { r.record("DEBUG", format, v...) }
func (r *RecordingLogger) Info(format string, v ...interface{})  { r.record("INFO", format, v...) }
func (r *RecordingLogger) Warn(format string, v ...interface{})  { r.record("WARN", format, v...) }
func (r *RecordingLogger) Error(format string, v ...interface{}) { r.record("ERROR", format, v...) }
func (r *RecordingLogger) SetLevel(Level)                        {}

// Entries returns a copy of everything logged so far.
func (r *RecordingLogger) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Contains reports whether any entry contains substr.
func (r *RecordingLogger) Contains(substr string) bool {
	for _, e := range r.Entries() {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

var _ Logger = (*RecordingLogger)(nil)
