package sqldb

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	db.MustExec(`CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT NOT NULL, dept TEXT NOT NULL)`)
	db.MustExec(`INSERT INTO employees (name, dept) VALUES ('Ada', 'eng'), ('Grace', 'eng'), ('Linus', 'ops')`)

	return db
}

func TestCall_Select(t *testing.T) {
	tl := New(newTestDB(t))

	out, err := tl.Call(context.Background(), "SELECT COUNT(*) AS n FROM employees WHERE dept = 'eng';")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"n":2}]`, out)
}

func TestCall_TopK(t *testing.T) {
	tl := New(newTestDB(t), func(o *Options) { o.TopK = 2 })

	out, err := tl.Call(context.Background(), "SELECT name FROM employees ORDER BY id")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Ada"},{"name":"Grace"}]`, out)
}

func TestCall_ReadOnly(t *testing.T) {
	db := newTestDB(t)

	_, err := New(db).Call(context.Background(), "DELETE FROM employees")
	require.Error(t, err)

	_, err = New(db, func(o *Options) { o.ReadOnly = false }).Call(context.Background(), "DELETE FROM employees WHERE dept = 'ops'")
	require.NoError(t, err)

	out, err := New(db).Call(context.Background(), "SELECT COUNT(*) AS n FROM employees")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"n":2}]`, out)
}

func TestCall_Errors(t *testing.T) {
	tl := New(newTestDB(t))

	_, err := tl.Call(context.Background(), "  ")
	require.Error(t, err)

	_, err = tl.Call(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
}

func TestMetadata(t *testing.T) {
	tl := New(nil, func(o *Options) {
		o.Tables = []string{"employees"}
		o.ReturnDirect = true
	})

	assert.Equal(t, DefaultName, tl.Name())
	assert.Contains(t, tl.Description(), "Available tables: employees.")
	assert.True(t, tl.ReturnDirect())
}
