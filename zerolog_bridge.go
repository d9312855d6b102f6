package ygggo_db

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// zerologHandler bridges slog records to a zerolog.Logger.
// It maps slog levels and forwards attributes as fields.
type zerologHandler struct {
	zl    zerolog.Logger
	group string
	attrs []slog.Attr
}

// NewZerologLogger returns a slog.Logger that writes through zl. Use it with
// SetLogger or LogTracer when the application already logs with zerolog.
func NewZerologLogger(zl zerolog.Logger) *slog.Logger {
	return slog.New(&zerologHandler{zl: zl})
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

func (h *zerologHandler) Enabled(_ context.Context, l slog.Level) bool {
	lvl := zerologLevel(l)
	return lvl >= h.zl.GetLevel() && lvl >= zerolog.GlobalLevel()
}

func (h *zerologHandler) Handle(_ context.Context, r slog.Record) error {
	ev := h.zl.WithLevel(zerologLevel(r.Level))
	if ev == nil {
		return nil
	}
	for _, a := range h.attrs {
		ev = ev.Interface(a.Key, a.Value.Resolve().Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = ev.Interface(h.key(a.Key), a.Value.Resolve().Any())
		return true
	})
	ev.Msg(r.Message)
	return nil
}

func (h *zerologHandler) key(k string) string {
	if h.group == "" { return k }
	return h.group + "." + k
}

// WithAttrs qualifies keys with the group open at the time of the call.
func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &nh
}

func (h *zerologHandler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group == "" {
		nh.group = name
	} else if name != "" {
		nh.group = nh.group + "." + name
	}
	return &nh
}
