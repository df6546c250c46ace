// Package team provides the host contexts behind the run() builtin.
package team

import (
	"context"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/object"
)

// ErrQueriesDisabled is returned by teams without a query engine.
var ErrQueriesDisabled = errors.New("queries are not enabled for this team")

// Static is a team with an id and no query engine.
type Static int64

func (s Static) ID() int64 { return int64(s) }

func (s Static) Query(_ context.Context, query string, _ []object.Object) (object.Object, error) {
	return nil, errors.Wrapf(ErrQueriesDisabled, "team %d, query %q", int64(s), query)
}
