package ygggo_db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

// Row maps column names to values. Text the driver returns as []byte is
// converted to string.
type Row map[string]any

// Statement is the handle returned by Query.
type Statement struct {
	query  string
	result sql.Result
	closed bool
}

// Query returns the SQL text that was executed.
func (s *Statement) Query() string { return s.query }

// RowCount returns the number of rows the statement affected.
func (s *Statement) RowCount() (int64, error) {
	if s.closed { return 0, ErrStatementClosed }
	return s.result.RowsAffected()
}

// LastInsertID returns the id the driver reported for the statement.
func (s *Statement) LastInsertID() (int64, error) {
	if s.closed { return 0, ErrStatementClosed }
	return s.result.LastInsertId()
}

// Close releases the handle. The prepared statement is already closed once
// Query returns, so Close only marks the handle done; it is safe to call twice.
func (s *Statement) Close() error {
	if s == nil { return nil }
	s.closed = true
	return nil
}

// call carries per-invocation state from begin to end.
type call struct {
	op     string
	query  string
	params []any
	start  time.Time
	span   trace.Span
	cancel context.CancelFunc
}

func (a *Accessor) begin(ctx context.Context, op, query string, params []any) (context.Context, *call) {
	c := &call{op: op, query: query, params: params, start: time.Now(), cancel: func() {}}
	if a != nil && a.cfg.Timeout > 0 {
		ctx, c.cancel = context.WithTimeout(ctx, a.cfg.Timeout)
	}
	ctx, c.span = a.startSpan(ctx, op, query)
	return ctx, c
}

// end finishes the span, records metrics and logs, and emits the single
// debug trace for the call.
func (a *Accessor) end(ctx context.Context, c *call, result any, err error) {
	defer c.cancel()
	if a == nil { return }
	d := time.Since(c.start)
	a.finishSpan(c.span, err)
	a.recordQuery(ctx, c.op, d, err)
	a.logQuery(ctx, c.op, c.query, c.params, d, err)
	if a.debug {
		a.activeTracer().TraceQuery(ctx, Trace{
			Op:       c.op,
			Query:    c.query,
			Params:   c.params,
			Result:   result,
			Err:      err,
			Duration: d,
		})
	}
}

// prepare binds params and prepares the statement on the pinned connection.
func (a *Accessor) prepare(ctx context.Context, c *call) (*sqlx.Stmt, []any, error) {
	if a == nil || a.conn == nil {
		return nil, nil, newQueryError(KindNotConfigured, c.op, c.query, nil)
	}
	bound, args, err := bindParams(a.conn, c.query, c.params)
	if err != nil {
		return nil, nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	stmt, err := a.conn.PreparexContext(ctx, bound)
	if err != nil {
		return nil, nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	return stmt, args, nil
}

func (a *Accessor) exec(ctx context.Context, c *call) (sql.Result, error) {
	stmt, args, err := a.prepare(ctx, c)
	if err != nil { return nil, err }
	defer stmt.Close()
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	return res, nil
}

// fetch reads up to limit rows; limit <= 0 reads them all.
func (a *Accessor) fetch(ctx context.Context, c *call, limit int) ([]Row, error) {
	stmt, args, err := a.prepare(ctx, c)
	if err != nil { return nil, err }
	defer stmt.Close()
	rs, err := stmt.QueryxContext(ctx, args...)
	if err != nil {
		return nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	if len(cols) == 0 {
		return nil, newQueryError(KindNoResultSet, c.op, c.query, nil)
	}

	rows := make([]Row, 0)
	for rs.Next() {
		m := make(map[string]any, len(cols))
		if err := rs.MapScan(m); err != nil {
			return nil, newQueryError(KindExecution, c.op, c.query, err)
		}
		rows = append(rows, normalizeRow(m))
		if limit > 0 && len(rows) >= limit { break }
	}
	if err := rs.Err(); err != nil {
		return nil, newQueryError(KindExecution, c.op, c.query, err)
	}
	return rows, nil
}

func normalizeRow(m map[string]any) Row {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
	return Row(m)
}

// Query prepares and executes a statement and returns its handle.
func (a *Accessor) Query(ctx context.Context, query string, params ...any) (*Statement, error) {
	ctx, c := a.begin(ctx, "query", query, params)
	res, err := a.exec(ctx, c)
	if err != nil {
		a.end(ctx, c, nil, err)
		return nil, err
	}
	a.end(ctx, c, nil, nil)
	return &Statement{query: query, result: res}, nil
}

// QuerySelect returns every row in result order. No matching rows yields an
// empty, non-nil slice; a statement without a result set yields ErrNoResultSet.
func (a *Accessor) QuerySelect(ctx context.Context, query string, params ...any) ([]Row, error) {
	ctx, c := a.begin(ctx, "query_select", query, params)
	rows, err := a.fetch(ctx, c, 0)
	if err != nil {
		a.end(ctx, c, nil, err)
		return nil, err
	}
	a.end(ctx, c, rows, nil)
	return rows, nil
}

// QuerySelectSingle returns the first row, or ErrNoRows when there is none.
func (a *Accessor) QuerySelectSingle(ctx context.Context, query string, params ...any) (Row, error) {
	ctx, c := a.begin(ctx, "query_select_single", query, params)
	rows, err := a.fetch(ctx, c, 1)
	if err != nil {
		a.end(ctx, c, nil, err)
		return nil, err
	}
	if len(rows) == 0 {
		err = newQueryError(KindNoRows, c.op, query, nil)
		a.end(ctx, c, noResultTrace, err)
		return nil, err
	}
	a.end(ctx, c, rows[0], nil)
	return rows[0], nil
}

// QueryInsert executes an INSERT and returns the last insert id reported for
// it on the accessor's connection.
func (a *Accessor) QueryInsert(ctx context.Context, query string, params ...any) (int64, error) {
	ctx, c := a.begin(ctx, "query_insert", query, params)
	res, err := a.exec(ctx, c)
	var id int64
	if err == nil {
		if id, err = res.LastInsertId(); err != nil {
			err = newQueryError(KindExecution, c.op, query, err)
		}
	}
	if err != nil {
		a.end(ctx, c, map[string]any{"error": "Insert failed", "message": traceErrorText(err)}, err)
		return 0, err
	}
	a.end(ctx, c, id, nil)
	return id, nil
}

// QueryUpdate reports whether the statement affected at least one row.
// Zero affected rows is (false, nil); a failed statement is (false, err).
func (a *Accessor) QueryUpdate(ctx context.Context, query string, params ...any) (bool, error) {
	ctx, c := a.begin(ctx, "query_update", query, params)
	res, err := a.exec(ctx, c)
	var n int64
	if err == nil {
		if n, err = res.RowsAffected(); err != nil {
			err = newQueryError(KindExecution, c.op, query, err)
		}
	}
	if err != nil {
		a.end(ctx, c, nil, err)
		return false, err
	}
	if n > 0 {
		a.end(ctx, c, map[string]any{"Update successful": "true"}, nil)
		return true, nil
	}
	a.end(ctx, c, map[string]any{"Update successful": "false"}, nil)
	return false, nil
}
