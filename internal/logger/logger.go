// Package logger defines the structured logging interface used
// throughout the node; concrete backends live in subpackages (see
// logger/zap).
package logger

import "chordring/internal/ring"

// Field is a structured key/value pair attached to a log entry.
type Field struct {
	Key string
	Val any
}

// Logger is the minimal structured-logging interface every component
// in this module depends on instead of a concrete backend.
type Logger interface {
	Named(name string) Logger
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// F builds a Field concisely.
func F(key string, val any) Field { return Field{Key: key, Val: val} }

// FPeer serializes a ring.PeerAddress into a structured field.
func FPeer(key string, p ring.PeerAddress) Field {
	return Field{
		Key: key,
		Val: map[string]any{
			"id":     p.ID.ToHexString(true),
			"handle": p.Handle,
		},
	}
}

// NopLogger is a Logger that discards everything; it backs tests and
// any component constructed without a logger option.
type NopLogger struct{}

func (l *NopLogger) Named(name string) Logger          { return l }
func (l *NopLogger) With(fields ...Field) Logger       { return l }
func (l *NopLogger) Debug(msg string, fields ...Field) {}
func (l *NopLogger) Info(msg string, fields ...Field)  {}
func (l *NopLogger) Warn(msg string, fields ...Field)  {}
func (l *NopLogger) Error(msg string, fields ...Field) {}
