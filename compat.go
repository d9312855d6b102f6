package ygggo_db

import "context"

// Compat collapses every outcome to a boolean, for callers ported from code
// that checked query results against false. Not connected, failed, empty and
// no-result-set all read as !ok.
type Compat struct {
	a *Accessor
}

// NewCompat wraps a.
func NewCompat(a *Accessor) *Compat { return &Compat{a: a} }

func (c *Compat) Query(query string, params ...any) (*Statement, bool) {
	st, err := c.a.Query(context.Background(), query, params...)
	return st, err == nil
}

func (c *Compat) QuerySelect(query string, params ...any) ([]Row, bool) {
	rows, err := c.a.QuerySelect(context.Background(), query, params...)
	return rows, err == nil
}

func (c *Compat) QuerySelectSingle(query string, params ...any) (Row, bool) {
	row, err := c.a.QuerySelectSingle(context.Background(), query, params...)
	return row, err == nil
}

func (c *Compat) QueryInsert(query string, params ...any) (int64, bool) {
	id, err := c.a.QueryInsert(context.Background(), query, params...)
	return id, err == nil
}

func (c *Compat) QueryUpdate(query string, params ...any) bool {
	ok, err := c.a.QueryUpdate(context.Background(), query, params...)
	return ok && err == nil
}
