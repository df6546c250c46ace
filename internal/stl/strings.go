package stl

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/funvibe/hog/internal/object"
)

func stringBuiltins() []*Builtin {
	return []*Builtin{
		fixed("toString", 1, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			return object.NewString(object.Print(args[0])), nil
		}),
		fixed("toInt", 1, toInt),
		fixed("toFloat", 1, toFloat),
		fixed("toUUID", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			if object.IsNull(args[0]) {
				return object.NULL, nil
			}
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return object.NULL, nil
			}
			return object.NewString(id.String()), nil
		}),
		fixed("lower", 1, caseFunc(cases.Lower)),
		fixed("upper", 1, caseFunc(cases.Upper)),
		fixed("reverse", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			switch v := args[0].(type) {
			case *object.Null:
				return object.NULL, nil
			case *object.String:
				runes := []rune(v.Value)
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				return object.NewString(string(runes)), nil
			case *object.Array:
				return object.NewArray(reversed(v.Elements)...), nil
			}
			return nil, argError(name, 0, "a string or an array", args[0])
		}),
		ranged("trim", 1, 2, trimFunc(strings.Trim)),
		ranged("trimLeft", 1, 2, trimFunc(strings.TrimLeft)),
		ranged("trimRight", 1, 2, trimFunc(strings.TrimRight)),
		variadic("concat", 0, func(_ *Env, _ string, args []object.Object) (object.Object, error) {
			var sb strings.Builder
			for _, a := range args {
				if !object.IsNull(a) {
					sb.WriteString(object.Print(a))
				}
			}
			return object.NewString(sb.String()), nil
		}),
		fixed("match", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			return matchBuiltin(name, args, Match, false, false)
		}),
		fixed("like", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			return matchBuiltin(name, args, Like, false, false)
		}),
		fixed("ilike", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			return matchBuiltin(name, args, Like, true, false)
		}),
		fixed("notLike", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			return matchBuiltin(name, args, Like, false, true)
		}),
		fixed("notILike", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			return matchBuiltin(name, args, Like, true, true)
		}),
		fixed("replaceOne", 3, replaceFunc(1)),
		fixed("replaceAll", 3, replaceFunc(-1)),
		ranged("splitByString", 2, 3, splitByString),
		fixed("position", 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			haystack, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			needle, err := stringArg(name, args, 1)
			if err != nil {
				return nil, err
			}
			idx := strings.Index(haystack, needle)
			if idx < 0 {
				return object.NewInteger(0), nil
			}
			return object.NewInteger(int64(utf8.RuneCountInString(haystack[:idx])) + 1), nil
		}),
	}
}

func toInt(_ *Env, _ string, args []object.Object) (object.Object, error) {
	switch v := args[0].(type) {
	case *object.Integer:
		return v, nil
	case *object.Float:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return object.NULL, nil
		}
		return object.NewInteger(int64(v.Value)), nil
	case *object.Boolean:
		if v.Value {
			return object.NewInteger(1), nil
		}
		return object.NewInteger(0), nil
	case *object.String:
		s := strings.TrimSpace(v.Value)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return object.NewInteger(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return object.NewInteger(int64(f)), nil
		}
	}
	return object.NULL, nil
}

func toFloat(_ *Env, _ string, args []object.Object) (object.Object, error) {
	switch v := args[0].(type) {
	case *object.Integer:
		return object.NewFloat(float64(v.Value)), nil
	case *object.Float:
		return v, nil
	case *object.Boolean:
		if v.Value {
			return object.NewFloat(1), nil
		}
		return object.NewFloat(0), nil
	case *object.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64); err == nil {
			return object.NewFloat(f), nil
		}
	}
	return object.NULL, nil
}

// Casers carry state, so each call builds its own.
func caseFunc(newCaser func(language.Tag, ...cases.Option) cases.Caser) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		if object.IsNull(args[0]) {
			return object.NULL, nil
		}
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return object.NewString(newCaser(language.Und).String(s)), nil
	}
}

func trimFunc(trim func(string, string) string) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		if object.IsNull(args[0]) {
			return object.NULL, nil
		}
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		chars, err := optStringArg(name, args, 1, " ")
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(chars) != 1 {
			return nil, errors.Errorf("function %s: trim character must be a single character", name)
		}
		return object.NewString(trim(s, chars)), nil
	}
}

type matcher func(s, pattern string, caseInsensitive bool) (bool, error)

// matchBuiltin is false whenever an operand is null, negated or not.
func matchBuiltin(name string, args []object.Object, match matcher, ci, negated bool) (object.Object, error) {
	if object.IsNull(args[0]) || object.IsNull(args[1]) {
		return object.FALSE, nil
	}
	s, err := stringArg(name, args, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := stringArg(name, args, 1)
	if err != nil {
		return nil, err
	}
	ok, err := match(s, pattern, ci)
	if err != nil {
		return nil, err
	}
	return object.NewBool(ok != negated), nil
}

func replaceFunc(n int) Function {
	return func(_ *Env, name string, args []object.Object) (object.Object, error) {
		var parts [3]string
		for i := range parts {
			s, err := stringArg(name, args, i)
			if err != nil {
				return nil, err
			}
			parts[i] = s
		}
		return object.NewString(strings.Replace(parts[0], parts[1], parts[2], n)), nil
	}
}

func splitByString(_ *Env, name string, args []object.Object) (object.Object, error) {
	sep, err := stringArg(name, args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringArg(name, args, 1)
	if err != nil {
		return nil, err
	}
	var parts []string
	if len(args) > 2 {
		max, err := intArg(name, args, 2)
		if err != nil {
			return nil, err
		}
		parts = strings.Split(s, sep)
		if max >= 0 && int64(len(parts)) > max {
			parts = parts[:max]
		}
	} else {
		parts = strings.Split(s, sep)
	}
	elems := make([]object.Object, len(parts))
	for i, p := range parts {
		elems[i] = object.NewString(p)
	}
	return object.NewArray(elems...), nil
}

func reversed(elems []object.Object) []object.Object {
	out := make([]object.Object, len(elems))
	for i, e := range elems {
		out[len(elems)-1-i] = e
	}
	return out
}
