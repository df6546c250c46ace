package stl

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/object"
)

func itoa(n int) string { return strconv.Itoa(n) }

func argError(name string, i int, want string, got object.Object) error {
	return errors.Errorf("function %s: argument %d must be %s, got %s", name, i+1, want, object.TypeName(got))
}

func stringArg(name string, args []object.Object, i int) (string, error) {
	s, ok := args[i].(*object.String)
	if !ok {
		return "", argError(name, i, "a string", args[i])
	}
	return s.Value, nil
}

func optStringArg(name string, args []object.Object, i int, def string) (string, error) {
	if i >= len(args) {
		return def, nil
	}
	return stringArg(name, args, i)
}

func intArg(name string, args []object.Object, i int) (int64, error) {
	switch v := args[i].(type) {
	case *object.Integer:
		return v.Value, nil
	case *object.Float:
		if v.Value == float64(int64(v.Value)) {
			return int64(v.Value), nil
		}
	}
	return 0, argError(name, i, "an integer", args[i])
}

func numberArg(name string, args []object.Object, i int) (float64, error) {
	f, ok := object.AsNumber(args[i])
	if !ok {
		return 0, argError(name, i, "a number", args[i])
	}
	return f, nil
}

// listArg accepts arrays and tuples.
func listArg(name string, args []object.Object, i int) ([]object.Object, error) {
	switch v := args[i].(type) {
	case *object.Array:
		return v.Elements, nil
	case *object.Tuple:
		return v.Elements, nil
	}
	return nil, argError(name, i, "an array", args[i])
}

func cloneList(elems []object.Object, extra int) []object.Object {
	out := make([]object.Object, len(elems), len(elems)+extra)
	copy(out, elems)
	return out
}
