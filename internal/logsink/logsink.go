// Package logsink provides the diagnostic loggers used by the run orchestrator.
package logsink

import (
	"io"
	"strings"
	"sync"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/pterm/pterm"
)

// Pterm writes structured diagnostics through a pterm logger.
type Pterm struct {
	logger *pterm.Logger
}

var _ contract.Logger = &Pterm{} // Compile-time check

// NewPterm creates a logger writing to w at the given level. Unknown levels
// fall back to info.
func NewPterm(w io.Writer, level string, format schema.LogFormat) *Pterm {
	logger := pterm.DefaultLogger.
		WithLevel(ParseLevel(level)).
		WithWriter(w).
		WithTime(false)
	if format == schema.JSONLog {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return &Pterm{logger: logger}
}

// ParseLevel maps a log-level name to its pterm level.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}

// Debug implements the Logger interface.
func (p *Pterm) Debug(msg string, kv ...any) { p.logger.Debug(msg, p.logger.Args(kv...)) }

// Info implements the Logger interface.
func (p *Pterm) Info(msg string, kv ...any) { p.logger.Info(msg, p.logger.Args(kv...)) }

// Warn implements the Logger interface.
func (p *Pterm) Warn(msg string, kv ...any) { p.logger.Warn(msg, p.logger.Args(kv...)) }

// Error implements the Logger interface.
func (p *Pterm) Error(msg string, kv ...any) { p.logger.Error(msg, p.logger.Args(kv...)) }

// Entry is one message captured by a Recorder.
type Entry struct {
	Level string
	Msg   string
	KV    []any
}

// Value returns the value logged under key, if any.
func (e Entry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.KV); i += 2 {
		if k, ok := e.KV[i].(string); ok && k == key {
			return e.KV[i+1], true
		}
	}
	return nil, false
}

// Recorder keeps every message in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ contract.Logger = &Recorder{} // Compile-time check

func (r *Recorder) record(level, msg string, kv []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, KV: append([]any(nil), kv...)})
}

// Debug implements the Logger interface.
func (r *Recorder) Debug(msg string, kv ...any) { r.record("debug", msg, kv) }

// Info implements the Logger interface.
func (r *Recorder) Info(msg string, kv ...any) { r.record("info", msg, kv) }

// Warn implements the Logger interface.
func (r *Recorder) Warn(msg string, kv ...any) { r.record("warn", msg, kv) }

// Error implements the Logger interface.
func (r *Recorder) Error(msg string, kv ...any) { r.record("error", msg, kv) }

// Entries returns a copy of the recorded messages in order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Find returns the first entry with the given level and message.
func (r *Recorder) Find(level, msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Level == level && e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether a message was logged at the given level.
func (r *Recorder) Has(level, msg string) bool {
	_, ok := r.Find(level, msg)
	return ok
}

// Levels returns the number of entries per level.
func (r *Recorder) Levels() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.Entries() {
		counts[e.Level]++
	}
	return counts
}
