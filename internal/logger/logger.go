package logger

import "github.com/jmp1617/pyrip/internal/domain"

// Field is a single structured key:value log field.
type Field struct {
	Key string
	Val any
}

// Logger is the minimal structured-logging interface required by the
// routing table and the speaker loops.
type Logger interface {
	Named(name string) Logger
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// F is a concise helper to build a Field.
func F(key string, val any) Field { return Field{Key: key, Val: val} }

// FEntry serializes a domain.RouteEntry into a readable structured field.
func FEntry(key string, e domain.RouteEntry) Field {
	return Field{
		Key: key,
		Val: map[string]any{
			"subnet":   e.Subnet,
			"address":  e.Address,
			"next_hop": e.NextHop,
			"cost":     e.Cost,
			"ttl":      e.TTL,
		},
	}
}

// ----------------------------------------------------------------
// NopLogger is a Logger implementation that discards everything.
type NopLogger struct{}

func (l *NopLogger) Named(name string) Logger          { return l }
func (l *NopLogger) With(fields ...Field) Logger       { return l }
func (l *NopLogger) Debug(msg string, fields ...Field) {}
func (l *NopLogger) Info(msg string, fields ...Field)  {}
func (l *NopLogger) Warn(msg string, fields ...Field)  {}
func (l *NopLogger) Error(msg string, fields ...Field) {}
