package stl

import (
	"math"

	"github.com/funvibe/hog/internal/object"
)

func mathBuiltins() []*Builtin {
	return []*Builtin{
		fixed("round", 1, roundFunc(math.RoundToEven)),
		fixed("floor", 1, roundFunc(math.Floor)),
		fixed("ceil", 1, roundFunc(math.Ceil)),
		fixed("abs", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			switch v := args[0].(type) {
			case *object.Integer:
				if v.Value < 0 {
					return object.NewInteger(-v.Value), nil
				}
				return v, nil
			case *object.Float:
				return object.NewFloat(math.Abs(v.Value)), nil
			}
			return nil, argError(name, 0, "a number", args[0])
		}),
		fixed("min2", 2, pickFunc(func(c int) bool { return c <= 0 })),
		fixed("max2", 2, pickFunc(func(c int) bool { return c >= 0 })),
	}
}

// roundFunc applies fn to floats; integers pass through. Finite results
// become integers.
func roundFunc(fn func(float64) float64) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		switch v := args[0].(type) {
		case *object.Integer:
			return v, nil
		case *object.Float:
			r := fn(v.Value)
			if math.IsNaN(r) || math.IsInf(r, 0) || r > math.MaxInt64 || r < math.MinInt64 {
				return object.NewFloat(r), nil
			}
			return object.NewInteger(int64(r)), nil
		}
		return nil, argError(name, 0, "a number", args[0])
	}
}

func pickFunc(keepFirst func(cmp int) bool) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		a, err := numberArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := numberArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		c := 0
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
		if keepFirst(c) {
			return args[0], nil
		}
		return args[1], nil
	}
}
