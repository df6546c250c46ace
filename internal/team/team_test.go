package team

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/object"
	"github.com/funvibe/hog/internal/vm"
)

func openEvents(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(":memory:", 7, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.Exec(ctx, `CREATE TABLE events (event TEXT, distinct_id TEXT, value REAL)`))
	require.NoError(t, db.Exec(ctx, `INSERT INTO events VALUES (?, ?, ?), (?, ?, ?)`,
		"$pageview", "u1", 1.5, "$identify", "u2", nil))
	return db
}

func TestSQLiteQuery(t *testing.T) {
	db := openEvents(t)
	assert.Equal(t, int64(7), db.ID())

	res, err := db.Query(context.Background(),
		"SELECT event, value FROM events WHERE distinct_id = ? ORDER BY event",
		[]object.Object{object.NewString("u1")})
	require.NoError(t, err)
	assert.Equal(t, "{'columns': ['event', 'value'], 'results': [['$pageview', 1.5]]}", res.Inspect())

	res, err = db.Query(context.Background(), "SELECT count(*) AS n, max(value) FROM events WHERE value IS NULL", nil)
	require.NoError(t, err)
	assert.Equal(t, "{'columns': ['n', 'max(value)'], 'results': [[1, null]]}", res.Inspect())
}

func TestSQLiteQueryErrors(t *testing.T) {
	db := openEvents(t)

	_, err := db.Query(context.Background(), "SELECT * FROM missing", nil)
	assert.Error(t, err)

	_, err = db.Query(context.Background(), "SELECT ?", []object.Object{object.NewArray()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter 1: cannot bind a value of type array")
}

func TestRunBuiltin(t *testing.T) {
	db := openEvents(t)
	program := ast.NewProgram(
		ast.Let("r", ast.NewCall("run", ast.Const("SELECT distinct_id FROM events ORDER BY distinct_id"))),
		ast.Return(ast.NewField("r", "results", 2, 1)),
	)
	code, err := vm.Compile(program, nil, nil)
	require.NoError(t, err)

	res, err := vm.Execute(code, vm.Options{Team: db})
	require.NoError(t, err)
	assert.Equal(t, "'u2'", res.Value.Inspect())
}

func TestStatic(t *testing.T) {
	team := Static(3)
	assert.Equal(t, int64(3), team.ID())
	_, err := team.Query(context.Background(), "SELECT 1", nil)
	assert.True(t, errors.Is(err, ErrQueriesDisabled))
}
