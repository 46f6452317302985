package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// slogHandler permite pasar nuestro logger a librerías que esperan *slog.Logger
// (sutureslog en el supervisor).
type slogHandler struct {
	zl     zerolog.Logger
	attrs  []slog.Attr
	groups []string
}

// Slog adapta un Logger a *slog.Logger. Si no es un ZeroLogger, descarta.
func Slog(l Logger) *slog.Logger {
	zl := zerolog.Nop()
	if z, ok := l.(*ZeroLogger); ok {
		zl = z.Zerolog()
	}
	return slog.New(&slogHandler{zl: zl})
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.zl.GetLevel() <= toZerolog(level)
}

func (h *slogHandler) Handle(_ context.Context, rec slog.Record) error {
	ev := h.zl.WithLevel(toZerolog(rec.Level))
	if ev == nil {
		return nil
	}
	for _, a := range h.attrs {
		ev = addAttr(ev, a, nil)
	}
	rec.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, a, h.groups)
		return true
	})
	ev.Msg(rec.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// los attrs se califican con los grupos vigentes al momento de agregarlos
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, qualify(a, h.groups))
	}
	return &slogHandler{zl: h.zl, attrs: merged, groups: h.groups}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &slogHandler{zl: h.zl, attrs: h.attrs, groups: groups}
}

func addAttr(ev *zerolog.Event, a slog.Attr, groups []string) *zerolog.Event {
	key := qualify(a, groups).Key

	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(key, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(key, a.Value.Int64())
	case slog.KindBool:
		return ev.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		return ev.Dur(key, a.Value.Duration())
	case slog.KindTime:
		return ev.Time(key, a.Value.Time())
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, ga, append(groups, a.Key))
		}
		return ev
	default:
		return ev.Interface(key, a.Value.Any())
	}
}

func qualify(a slog.Attr, groups []string) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a.Key = groups[i] + "." + a.Key
	}
	return a
}

func toZerolog(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
