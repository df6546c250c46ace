package stl

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/object"
)

func collectionBuiltins() []*Builtin {
	return []*Builtin{
		fixed(config.LengthFuncName, 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			n, err := length(name, args[0])
			if err != nil {
				return nil, err
			}
			return object.NewInteger(int64(n)), nil
		}),
		fixed("empty", 1, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			return object.NewBool(!object.Truthy(args[0])), nil
		}),
		fixed("notEmpty", 1, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			return object.NewBool(object.Truthy(args[0])), nil
		}),
		fixed(config.KeysFuncName, 1, keys),
		fixed(config.ValuesFuncName, 1, values),
		fixed("has", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			switch args[0].(type) {
			case *object.Array, *object.Tuple, *object.Dict, *object.Null:
			default:
				return nil, argError(name, 0, "an array or an object", args[0])
			}
			ok, err := object.Contains(args[0], args[1])
			if err != nil {
				return nil, errors.Wrapf(err, "function %s", name)
			}
			return object.NewBool(ok), nil
		}),
		fixed("indexOf", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			if object.IsNull(args[0]) {
				return object.NULL, nil
			}
			elems, err := listArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			for i, e := range elems {
				if object.Equal(e, args[1]) {
					return object.NewInteger(int64(i) + 1), nil
				}
			}
			return object.NewInteger(0), nil
		}),
		fixed("arrayPushBack", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			return object.NewArray(append(cloneList(elems, 1), args[1])...), nil
		}),
		fixed("arrayPushFront", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			out := make([]object.Object, 0, len(elems)+1)
			out = append(out, args[1])
			return object.NewArray(append(out, elems...)...), nil
		}),
		fixed("arrayPopBack", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			if len(elems) == 0 {
				return object.NewArray(), nil
			}
			return object.NewArray(cloneList(elems[:len(elems)-1], 0)...), nil
		}),
		fixed("arrayPopFront", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			if len(elems) == 0 {
				return object.NewArray(), nil
			}
			return object.NewArray(cloneList(elems[1:], 0)...), nil
		}),
		fixed("arraySort", 1, sortFunc(false)),
		fixed("arrayReverseSort", 1, sortFunc(true)),
		fixed("arrayReverse", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			return object.NewArray(reversed(elems)...), nil
		}),
		ranged("arrayStringConcat", 1, 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			elems, err := arrayOrEmpty(name, args)
			if err != nil {
				return nil, err
			}
			sep, err := optStringArg(name, args, 1, "")
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = object.Print(e)
			}
			return object.NewString(strings.Join(parts, sep)), nil
		}),
		variadic(config.TupleFuncName, 0, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			return object.NewTuple(cloneList(args, 0)...), nil
		}),
	}
}

func length(name string, o object.Object) (int, error) {
	switch v := o.(type) {
	case *object.Null:
		return 0, nil
	case *object.String:
		return utf8.RuneCountInString(v.Value), nil
	case *object.Array:
		return len(v.Elements), nil
	case *object.Tuple:
		return len(v.Elements), nil
	case *object.Dict:
		return v.Len(), nil
	}
	return 0, argError(name, 0, "a string or a collection", o)
}

// keys returns dictionary keys, or zero-based positions for sequences.
func keys(_ *Env, name string, args []object.Object) (object.Object, error) {
	switch v := args[0].(type) {
	case *object.Null:
		return object.NewArray(), nil
	case *object.Dict:
		return object.NewArray(v.Keys()...), nil
	case *object.Array, *object.Tuple:
		elems, _ := listArg(name, args, 0)
		out := make([]object.Object, len(elems))
		for i := range elems {
			out[i] = object.NewInteger(int64(i))
		}
		return object.NewArray(out...), nil
	}
	return nil, argError(name, 0, "an array or an object", args[0])
}

func values(_ *Env, name string, args []object.Object) (object.Object, error) {
	switch v := args[0].(type) {
	case *object.Null:
		return object.NewArray(), nil
	case *object.Dict:
		return object.NewArray(v.Values()...), nil
	case *object.Array, *object.Tuple:
		elems, _ := listArg(name, args, 0)
		return object.NewArray(cloneList(elems, 0)...), nil
	}
	return nil, argError(name, 0, "an array or an object", args[0])
}

// arrayOrEmpty reads the first argument as a sequence, treating null as empty.
func arrayOrEmpty(name string, args []object.Object) ([]object.Object, error) {
	if object.IsNull(args[0]) {
		return nil, nil
	}
	return listArg(name, args, 0)
}

func sortFunc(descending bool) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		elems, err := arrayOrEmpty(name, args)
		if err != nil {
			return nil, err
		}
		out := cloneList(elems, 0)
		var cmpErr error
		sort.SliceStable(out, func(i, j int) bool {
			c, err := object.Compare(out[i], out[j])
			if err != nil && cmpErr == nil {
				cmpErr = err
			}
			if descending {
				return c > 0
			}
			return c < 0
		})
		if cmpErr != nil {
			return nil, errors.Wrapf(cmpErr, "function %s", name)
		}
		return object.NewArray(out...), nil
	}
}
