package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) zlevel() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// ZeroLogger implementa Logger sobre zerolog. Se pasa por valor internamente
// (zerolog.Logger es inmutable), así que With no comparte estado mutable.
type ZeroLogger struct {
	zl    zerolog.Logger
	level Level
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output opcional; por defecto os.Stdout.
	Output io.Writer
}

func New(opts Options) Logger {
	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}

	if opts.Format != FormatJSON {
		// text: salida legible para dev; json para producción
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(opts.Level.zlevel()).With().Timestamp()
	if app := strings.TrimSpace(opts.App); app != "" {
		ctx = ctx.Str("app", app)
	}

	return &ZeroLogger{zl: ctx.Logger(), level: opts.Level}
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME=pet-records (opcional)
func NewFromEnv() Logger {
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
}

// Nop descarta todo. Útil en tests.
func Nop() Logger {
	return &ZeroLogger{zl: zerolog.Nop(), level: Error}
}

func (l *ZeroLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &ZeroLogger{
		zl:    l.zl.With().Fields(cleanFields(fields)).Logger(),
		level: l.level,
	}
}

func (l *ZeroLogger) Debug(msg string, fields map[string]any) { l.log(zerolog.DebugLevel, msg, fields) }
func (l *ZeroLogger) Info(msg string, fields map[string]any)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l *ZeroLogger) Warn(msg string, fields map[string]any)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l *ZeroLogger) Error(msg string, fields map[string]any) { l.log(zerolog.ErrorLevel, msg, fields) }

// Zerolog expone el logger subyacente (para adaptadores como slog).
func (l *ZeroLogger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *ZeroLogger) log(lvl zerolog.Level, msg string, fields map[string]any) {
	ev := l.zl.WithLevel(lvl)
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(cleanFields(fields))
	}
	ev.Msg(msg)
}

func cleanFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

type ctxKey struct{}

// WithContext guarda un logger en el contexto (lo usa el middleware de request).
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext devuelve el logger del request, o fallback si no hay.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}
