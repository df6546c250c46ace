package stl

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/object"
)

// ErrNoTeam is returned by query builtins when the host supplied no team.
var ErrNoTeam = errors.New("no team context available")

func systemBuiltins() []*Builtin {
	return []*Builtin{
		variadic(config.PrintFuncName, 0, func(env *Env, _ string, args []object.Object) (object.Object, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = object.Print(a)
			}
			if env != nil && env.Stdout != nil {
				if _, err := io.WriteString(env.Stdout, strings.Join(parts, " ")+"\n"); err != nil {
					return nil, errors.Wrap(err, "print")
				}
			}
			return object.NULL, nil
		}),
		fixed(config.IfNullFuncName, 2, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			if object.IsNull(args[0]) {
				return args[1], nil
			}
			return args[0], nil
		}),
		fixed("typeof", 1, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			return object.NewString(object.TypeName(args[0])), nil
		}),
		fixed("generateUUIDv4", 0, func(_ *Env, _ string, _ []object.Object) (object.Object, error) {
			return object.NewString(uuid.NewString()), nil
		}),
		variadic(config.RunFuncName, 1, run),
	}
}

// run hands a query to the host's team context. Extra arguments become
// positional query parameters.
func run(env *Env, name string, args []object.Object) (object.Object, error) {
	query, err := stringArg(name, args, 0)
	if err != nil {
		return nil, err
	}
	if env == nil || env.Team == nil {
		return nil, errors.Wrapf(ErrNoTeam, "function %s", name)
	}
	ctx := env.context()
	var cancel context.CancelFunc
	switch {
	case !env.Deadline.IsZero():
		ctx, cancel = context.WithDeadline(ctx, env.Deadline)
		defer cancel()
	case env.Timeout > 0:
		ctx, cancel = context.WithTimeout(ctx, env.Timeout)
		defer cancel()
	}
	res, err := env.Team.Query(ctx, query, args[1:])
	if err != nil {
		return nil, errors.Wrapf(err, "function %s", name)
	}
	return res, nil
}
