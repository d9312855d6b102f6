// Package ygggo_db provides a process-wide database accessor for Go.
//
// # Overview
//
// ygggo_db keeps exactly one Accessor per concrete accessor type for the
// lifetime of the process. Each accessor owns one pinned database connection
// and exposes thin pass-through methods for parameterized statements:
//   - Query: execute a statement and return its handle
//   - QuerySelect: fetch every row as a column -> value map
//   - QuerySelectSingle: fetch the first row only
//   - QueryInsert: execute an INSERT and return the last insert id
//   - QueryUpdate: report whether any row was affected
//
// # Quick Start
//
//	import ggd "github.com/yggai/ygggo_db"
//
//	db := ggd.Default()
//	err := db.Setup(ctx, ggd.Config{
//		Host:     "localhost",
//		Name:     "mydb",
//		User:     "user",
//		Password: "password",
//	})
//	if err != nil {
//		log.Println(db.ConnectError())
//	}
//
//	rows, err := db.QuerySelect(ctx, "SELECT * FROM users WHERE id=? ORDER BY id ASC", 1)
//
// Named parameters are bound from a single map or struct argument:
//
//	row, err := db.QuerySelectSingle(ctx, "SELECT name FROM users WHERE id=:id", map[string]any{"id": 1})
//
// # Accessor Types
//
// Separate databases get separate accessor types. Embed Accessor and ask the
// registry for the type:
//
//	type ReportsDB struct{ ggd.Accessor }
//
//	reports := ggd.GetInstance[ReportsDB]()
//
// # Errors
//
// Every query method returns an error instead of a bare false. Use errors.Is
// with ErrNotConfigured, ErrNoRows, ErrNoResultSet and ErrExecution to tell
// the outcomes apart, or wrap the accessor in Compat for boolean results.
//
// # Debug Traces
//
// With Config.Debug set, every query method emits exactly one Trace. The
// default tracer writes a structured slog record; HTMLTracer writes the trace
// as an HTML comment that can be embedded in generated pages.
//
// # Concurrency
//
// An accessor holds a single connection and does no internal locking around
// statements. Callers sharing one accessor between goroutines must
// synchronize access themselves.
package ygggo_db

// Version returns the current library version.
func Version() string { return "v0.0.0-dev" }
