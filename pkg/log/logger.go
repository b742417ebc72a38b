package log

import "time"

// Logger is the structured logger used across stagehand.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that adds fields to every entry.
	// Children follow the level of their parent.
	With(fields ...Field) Logger
}

// Field is a structured key/value attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Stringer stores value.String(), e.g. a lifecycle stage name.
func Stringer(key string, value interface{ String() string }) Field {
	return Field{Key: key, Value: value.String()}
}

// Err stores err under "error".
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Component names the package or module emitting an entry.
func Component(name string) Field { return Field{Key: "component", Value: name} }
