package ygggo_db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newSQLiteAccessor sets up a fresh accessor on an in-memory SQLite database.
// The single pinned connection keeps the database alive for the test.
func newSQLiteAccessor(t *testing.T, cfg Config) *Accessor {
	t.Helper()
	cfg.Driver = DriverSQLite
	if cfg.Name == "" {
		cfg.Name = ":memory:"
	}
	a := &Accessor{}
	require.NoError(t, a.Setup(context.Background(), cfg))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// newMockAccessor sets up an accessor on a sqlmock connection registered
// under a unique DSN.
func newMockAccessor(t *testing.T) (*Accessor, sqlmock.Sqlmock) {
	t.Helper()
	dsn := "ygggo_db_" + uuid.NewString()
	db, mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := &Accessor{}
	require.NoError(t, a.Setup(context.Background(), Config{Driver: "sqlmock", DSN: dsn}))
	t.Cleanup(func() { _ = a.Close() })
	return a, mock
}

func createNamesTable(t *testing.T, a *Accessor) {
	t.Helper()
	_, err := a.Query(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
}

// recordingTracer collects traces in memory.
type recordingTracer struct {
	queries  []Trace
	connects []error
}

func (r *recordingTracer) TraceQuery(_ context.Context, t Trace)      { r.queries = append(r.queries, t) }
func (r *recordingTracer) TraceConnect(_ context.Context, err error) { r.connects = append(r.connects, err) }
