package ygggo_db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompat_CollapsesToBool(t *testing.T) {
	a := newSQLiteAccessor(t, Config{})
	createNamesTable(t, a)
	c := NewCompat(a)

	id, ok := c.QueryInsert("INSERT INTO t(name) VALUES(?)", "a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	rows, ok := c.QuerySelect("SELECT name FROM t")
	assert.True(t, ok)
	assert.Len(t, rows, 1)

	_, ok = c.QuerySelectSingle("SELECT name FROM t WHERE id=?", 2)
	assert.False(t, ok)

	assert.True(t, c.QueryUpdate("UPDATE t SET name=? WHERE id=?", "b", 1))
	assert.False(t, c.QueryUpdate("UPDATE t SET name=? WHERE id=?", "b", 2))

	_, ok = c.Query("SELECT * FROM missing")
	assert.False(t, ok)
	st, ok := c.Query("DELETE FROM t")
	assert.True(t, ok)
	assert.NotNil(t, st)
}

func TestCompat_NotConfigured(t *testing.T) {
	c := NewCompat(&Accessor{})
	_, ok := c.QuerySelect("SELECT 1")
	assert.False(t, ok)
	assert.False(t, c.QueryUpdate("UPDATE t SET x=1"))
}
