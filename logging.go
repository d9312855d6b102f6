package ygggo_db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// SetLogger turns on operational logging of every statement and connect
// attempt. A nil logger turns it off. This is independent of debug traces.
func (a *Accessor) SetLogger(logger *slog.Logger) {
	if a == nil { return }
	a.logger = logger
}

// logQuery logs database query execution with structured fields
func (a *Accessor) logQuery(ctx context.Context, operation, query string, args []any, duration time.Duration, err error) {
	if a == nil || a.logger == nil { return }

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}

	// Only the count: values may carry sensitive data
	if len(args) > 0 {
		attrs = append(attrs, slog.Int("arg_count", len(args)))
	}

	level := slog.LevelInfo
	switch kind, _ := KindOf(err); {
	case err == nil:
		attrs = append(attrs, slog.String("status", "success"))
		if t := a.cfg.SlowQueryThreshold; t > 0 && duration >= t {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow_query", true))
		}
	case kind == KindNoRows:
		attrs = append(attrs, slog.String("status", "empty"))
	default:
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			attrs = append(attrs, slog.Int("error_code", int(mysqlErr.Number)))
		}
	}
	a.logger.LogAttrs(ctx, level, "database query executed", attrs...)
}

// logConnection logs database connection events
func (a *Accessor) logConnection(ctx context.Context, event string, duration time.Duration, err error) {
	if a == nil || a.logger == nil { return }

	attrs := []slog.Attr{
		slog.String("event", event),
		slog.String("driver", a.cfg.driverName()),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}

	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		a.logger.LogAttrs(ctx, slog.LevelError, "database connection event", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "success"))
	a.logger.LogAttrs(ctx, slog.LevelDebug, "database connection event", attrs...)
}
