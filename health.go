package ygggo_db

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus is the outcome of HealthCheck.
type HealthStatus struct {
	Healthy      bool           `json:"healthy"`
	LastChecked  time.Time      `json:"last_checked"`
	ResponseTime time.Duration  `json:"response_time"`
	Errors       []HealthError  `json:"errors,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// HealthError represents a failed check
type HealthError struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Recoverable bool      `json:"recoverable"`
}

// HealthCheckConfig configures health check behavior
type HealthCheckConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	TestQuery string        `mapstructure:"test_query"`
}

// DefaultHealthCheckConfig returns default health check configuration
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{
		Timeout:   5 * time.Second,
		TestQuery: "SELECT 1",
	}
}

// HealthCheck pings the pinned connection and runs a test query on it. It
// does not go through the query methods, so no debug trace is emitted.
func (a *Accessor) HealthCheck(ctx context.Context) *HealthStatus {
	return a.HealthCheckWithConfig(ctx, DefaultHealthCheckConfig())
}

// HealthCheckWithConfig is HealthCheck with explicit settings.
func (a *Accessor) HealthCheckWithConfig(ctx context.Context, config HealthCheckConfig) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		LastChecked: start,
		Details:     make(map[string]any),
	}
	fail := func(typ string, err error, recoverable bool) {
		status.Errors = append(status.Errors, HealthError{
			Type:        typ,
			Message:     err.Error(),
			Timestamp:   time.Now(),
			Recoverable: recoverable,
		})
	}

	if !a.Connected() {
		fail("configuration", ErrNotConfigured, false)
		if msg := a.ConnectError(); msg != "" {
			status.Details["connect_error"] = msg
		}
		status.ResponseTime = time.Since(start)
		return status
	}
	status.Details["driver"] = a.cfg.driverName()

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	pingStart := time.Now()
	if err := a.conn.PingContext(ctx); err != nil {
		fail("connectivity", fmt.Errorf("ping failed: %w", err), isRetryable(err))
	}
	status.Details["ping_time"] = time.Since(pingStart).String()

	if config.TestQuery != "" {
		queryStart := time.Now()
		var v any
		if err := a.conn.QueryRowxContext(ctx, config.TestQuery).Scan(&v); err != nil {
			fail("query_execution", fmt.Errorf("test query failed: %w", err), isRetryable(err))
		}
		status.Details["query_time"] = time.Since(queryStart).String()
	}

	status.ResponseTime = time.Since(start)
	status.Healthy = len(status.Errors) == 0
	return status
}
