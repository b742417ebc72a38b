package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Output formats understood by NewZerologAdapterWithOptions.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures a ZerologAdapter.
type Options struct {
	// Level is a zerolog level name ("debug", "info", ...). Empty means info.
	Level string

	// Format is FormatConsole or FormatJSON. Empty means console.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// ZerologAdapter implements Logger using zerolog.
// Its level can be changed at runtime with SetLevel; loggers derived with
// With share the level of the adapter they were derived from.
type ZerologAdapter struct {
	logger zerolog.Logger
	level  *atomic.Int32
}

// NewZerologAdapter creates a new zerolog adapter with console output at info level.
func NewZerologAdapter() *ZerologAdapter {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return NewZerologAdapterWithLogger(zerolog.New(output).With().Timestamp().Logger())
}

// NewZerologAdapterWithOptions builds an adapter from level/format options.
func NewZerologAdapterWithOptions(opts Options) (*ZerologAdapter, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch opts.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	z := NewZerologAdapterWithLogger(zerolog.New(out).With().Timestamp().Logger())
	if err := z.SetLevel(opts.Level); err != nil {
		return nil, err
	}
	return z, nil
}

// NewZerologAdapterWithLogger creates an adapter wrapping an existing zerolog.Logger.
// The adapter starts at the wrapped logger's level, or info if none is set.
func NewZerologAdapterWithLogger(logger zerolog.Logger) *ZerologAdapter {
	z := &ZerologAdapter{logger: logger.Level(zerolog.TraceLevel), level: new(atomic.Int32)}
	lvl := logger.GetLevel()
	if lvl == zerolog.TraceLevel || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	z.level.Store(int32(lvl))
	return z
}

// SetLevel changes the minimum level. Empty means info.
func (z *ZerologAdapter) SetLevel(level string) error {
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	z.level.Store(int32(lvl))
	return nil
}

// Level returns the current minimum level.
func (z *ZerologAdapter) Level() zerolog.Level {
	return zerolog.Level(z.level.Load())
}

// Debug logs a debug-level message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	z.emit(z.event(zerolog.DebugLevel), msg, fields)
}

// Info logs an info-level message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	z.emit(z.event(zerolog.InfoLevel), msg, fields)
}

// Warn logs a warning-level message.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	z.emit(z.event(zerolog.WarnLevel), msg, fields)
}

// Error logs an error-level message.
func (z *ZerologAdapter) Error(msg string, fields ...Field) {
	z.emit(z.event(zerolog.ErrorLevel), msg, fields)
}

// With returns a child adapter whose entries carry fields.
func (z *ZerologAdapter) With(fields ...Field) Logger {
	ctx := z.logger.With()
	for _, f := range fields {
		ctx = addContextField(ctx, f)
	}
	return &ZerologAdapter{logger: ctx.Logger(), level: z.level}
}

// event returns nil when lvl is below the adapter level; zerolog treats a nil
// event as disabled.
func (z *ZerologAdapter) event(lvl zerolog.Level) *zerolog.Event {
	if lvl < z.Level() {
		return nil
	}
	return z.logger.WithLevel(lvl)
}

func (z *ZerologAdapter) emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

// addField adds a Field to a zerolog.Event.
func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}

func addContextField(ctx zerolog.Context, f Field) zerolog.Context {
	switch v := f.Value.(type) {
	case string:
		return ctx.Str(f.Key, v)
	case int:
		return ctx.Int(f.Key, v)
	case bool:
		return ctx.Bool(f.Key, v)
	case time.Duration:
		return ctx.Dur(f.Key, v)
	case error:
		return ctx.AnErr(f.Key, v)
	default:
		return ctx.Interface(f.Key, v)
	}
}

// Logger returns the underlying zerolog.Logger.
func (z *ZerologAdapter) Logger() zerolog.Logger {
	return z.logger
}

var _ Logger = (*ZerologAdapter)(nil)
