package ygggo_db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Accessor owns one configured database connection and runs parameterized
// statements on it. Obtain one through GetInstance or Default; the zero value
// is ready for Setup.
//
// An Accessor does no locking around statements. Share it between goroutines
// only with external synchronization.
type Accessor struct {
	cfg          Config
	debug        bool
	connectError string

	db   *sqlx.DB
	conn *sqlx.Conn // the single pinned connection

	tracer Tracer
	logger *slog.Logger

	telemetryEnabled bool
	tracerProvider   trace.TracerProvider

	metricsEnabled bool
	meterProvider  metric.MeterProvider
	metrics        *Metrics
}

// Setup opens the connection described by cfg. It runs once: after a
// successful Setup further calls return ErrAlreadyConfigured until Close.
//
// A failed connect is not fatal. The message is kept in ConnectError, the
// accessor stays unconfigured, a connection trace is emitted when debug is on,
// and a *QueryError of kind KindConnection is returned.
func (a *Accessor) Setup(ctx context.Context, cfg Config) error {
	if a == nil {
		return newQueryError(KindNotConfigured, "setup", "", nil)
	}
	if a.conn != nil {
		return ErrAlreadyConfigured
	}
	if cfg.Debug {
		a.debug = true
	}
	a.cfg = cfg
	if cfg.Telemetry.Enabled {
		a.telemetryEnabled = true
	}
	if cfg.Metrics.Enabled {
		a.EnableMetrics(true)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	db, conn, err := a.connect(ctx, cfg)
	d := time.Since(start)
	a.recordConnect(ctx, d, err)
	a.logConnection(ctx, "setup", d, err)
	if err != nil {
		a.connectError = "Error!: " + err.Error()
		if a.debug {
			a.activeTracer().TraceConnect(ctx, err)
		}
		return newQueryError(KindConnection, "setup", "", err)
	}
	a.db, a.conn = db, conn
	return nil
}

// SetupMap is Setup for the legacy key set read by ConfigFromMap. Unlike
// Config.Debug, an explicit db_debug false turns debug off.
func (a *Accessor) SetupMap(ctx context.Context, m map[string]any) error {
	cfg, err := ConfigFromMap(m)
	if err != nil {
		if a != nil {
			a.connectError = "Error!: " + err.Error()
		}
		return newQueryError(KindConnection, "setup", "", err)
	}
	// A present db_debug key sets debug either way; Setup alone only turns it on.
	if _, ok := m["db_debug"]; ok {
		a.SetDebug(cfg.Debug)
	}
	return a.Setup(ctx, cfg)
}

// connect opens the database and pins its only connection.
func (a *Accessor) connect(ctx context.Context, cfg Config) (*sqlx.DB, *sqlx.Conn, error) {
	dsn, err := dsnFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	driverName := cfg.driverName()

	var sqlDB *sql.DB
	if a.telemetryEnabled {
		sqlDB, err = a.openInstrumented(driverName, dsn)
	} else {
		sqlDB, err = sql.Open(driverName, dsn)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", driverName, err)
	}
	db := sqlx.NewDb(sqlDB, driverName)
	db.SetMaxOpenConns(1)

	var conn *sqlx.Conn
	err = retryWithPolicy(ctx, cfg.ConnectRetry, func() error {
		c, err := db.Connx(ctx)
		if err != nil {
			return err
		}
		if err := c.PingContext(ctx); err != nil {
			_ = c.Close()
			return err
		}
		conn = c
		return nil
	}, isRetryable)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, conn, nil
}

// Close releases the connection. The accessor stays registered and may be
// set up again.
func (a *Accessor) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	err := a.conn.Close()
	if cerr := a.db.Close(); err == nil {
		err = cerr
	}
	a.conn, a.db = nil, nil
	return err
}

// Connected reports whether Setup succeeded and Close has not been called.
func (a *Accessor) Connected() bool { return a != nil && a.conn != nil }

// Config returns the configuration passed to the last Setup.
func (a *Accessor) Config() Config {
	if a == nil { return Config{} }
	return a.cfg
}

// ConnectError returns the message of the last failed Setup. A later
// successful Setup does not clear it.
func (a *Accessor) ConnectError() string {
	if a == nil { return "" }
	return a.connectError
}

// SetDebug turns debug traces on or off.
func (a *Accessor) SetDebug(on bool) {
	if a == nil { return }
	a.debug = on
}

// Debug reports whether debug traces are on.
func (a *Accessor) Debug() bool { return a != nil && a.debug }

// SetTracer replaces the debug trace sink. nil restores the default LogTracer.
func (a *Accessor) SetTracer(t Tracer) {
	if a == nil { return }
	a.tracer = t
}

func (a *Accessor) activeTracer() Tracer {
	if a.tracer != nil {
		return a.tracer
	}
	return LogTracer{Logger: a.logger}
}
