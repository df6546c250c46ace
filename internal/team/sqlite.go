package team

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/funvibe/hog/internal/object"
)

// SQLite answers run() queries from a SQLite database. Results have the
// shape {'columns': [...], 'results': [[...], ...]}.
type SQLite struct {
	id  int64
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens dsn for team id. A nil logger discards output.
func OpenSQLite(dsn string, id int64, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening team database %s", dsn)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting busy timeout")
	}
	return &SQLite{id: id, db: db, log: log.With(zap.Int64("team", id))}, nil
}

func (s *SQLite) ID() int64 { return s.id }

// Exec runs a statement that returns no rows, such as schema setup.
func (s *SQLite) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return errors.Wrap(err, "team exec")
}

// Query runs query with args bound to its positional parameters.
func (s *SQLite) Query(ctx context.Context, query string, args []object.Object) (object.Object, error) {
	params := make([]any, len(args))
	for i, a := range args {
		p, err := param(a)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d", i+1)
		}
		params[i] = p
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, errors.Wrap(err, "team query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "reading columns")
	}
	columns := make([]object.Object, len(cols))
	for i, c := range cols {
		columns[i] = object.NewString(c)
	}

	var results []object.Object
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		row := make([]object.Object, len(cols))
		for i, v := range dest {
			row[i] = column(v)
		}
		results = append(results, object.NewArray(row...))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating rows")
	}
	s.log.Debug("query", zap.String("sql", query), zap.Int("rows", len(results)), zap.Duration("took", time.Since(start)))

	res := object.NewDict()
	res.SetString("columns", object.NewArray(columns...))
	res.SetString("results", object.NewArray(results...))
	return res, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func param(o object.Object) (any, error) {
	switch v := o.(type) {
	case *object.Null:
		return nil, nil
	case *object.Boolean:
		return v.Value, nil
	case *object.Integer:
		return v.Value, nil
	case *object.Float:
		return v.Value, nil
	case *object.String:
		return v.Value, nil
	}
	return nil, errors.Errorf("cannot bind a value of type %s", object.TypeName(o))
}

func column(v any) object.Object {
	switch tv := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return object.NewInteger(tv)
	case float64:
		return object.NewFloat(tv)
	case bool:
		return object.NewBool(tv)
	case string:
		return object.NewString(tv)
	case []byte:
		return object.NewString(string(tv))
	case time.Time:
		return object.NewString(tv.UTC().Format(time.RFC3339Nano))
	}
	o, err := object.FromGo(v)
	if err != nil {
		return object.NULL
	}
	return o
}
