package object

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// DeepCopy returns a structurally independent copy of o. Callables are shared.
func DeepCopy(o Object) Object {
	switch v := o.(type) {
	case nil:
		return NULL
	case *Array:
		return &Array{Elements: copyList(v.Elements)}
	case *Tuple:
		return &Tuple{Elements: copyList(v.Elements)}
	case *Dict:
		out := NewDict()
		v.Each(func(k, val Object) bool {
			// keys are scalars and already validated
			_ = out.Set(k, DeepCopy(val))
			return true
		})
		return out
	case *Integer:
		return &Integer{Value: v.Value}
	case *Float:
		return &Float{Value: v.Value}
	case *String:
		return &String{Value: v.Value}
	}
	// null, booleans and callables are immutable
	return o
}

func copyList(elems []Object) []Object {
	out := make([]Object, len(elems))
	for i, e := range elems {
		out[i] = DeepCopy(e)
	}
	return out
}

// FromGo converts a Go value into a Hog object. Go maps are unordered, so
// their keys are sorted to keep the resulting dictionary deterministic.
func FromGo(v any) (Object, error) {
	switch val := v.(type) {
	case nil:
		return NULL, nil
	case Object:
		return val, nil
	case bool:
		return NewBool(val), nil
	case int:
		return NewInteger(int64(val)), nil
	case int8:
		return NewInteger(int64(val)), nil
	case int16:
		return NewInteger(int64(val)), nil
	case int32:
		return NewInteger(int64(val)), nil
	case int64:
		return NewInteger(val), nil
	case uint8:
		return NewInteger(int64(val)), nil
	case uint16:
		return NewInteger(int64(val)), nil
	case uint32:
		return NewInteger(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return NewFloat(float64(val)), nil
		}
		return NewInteger(int64(val)), nil
	case float32:
		return NewFloat(float64(val)), nil
	case float64:
		return NewFloat(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return NewInteger(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val.String())
		}
		return NewFloat(f), nil
	case string:
		return NewString(val), nil
	case []byte:
		return NewString(string(val)), nil
	case []any:
		elems := make([]Object, len(val))
		for i, e := range val {
			o, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			elems[i] = o
		}
		return NewArray(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			o, err := FromGo(val[k])
			if err != nil {
				return nil, err
			}
			d.SetString(k, o)
		}
		return d, nil
	case NativeFunc:
		return &Callable{Name: "native", Arity: -1, Fn: val}, nil
	case func([]Object) (Object, error):
		return &Callable{Name: "native", Arity: -1, Fn: val}, nil
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Object, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]Object, rv.Len())
		for i := range elems {
			o, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = o
		}
		return NewArray(elems...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		d := NewDict()
		for _, k := range keys {
			o, err := FromGo(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			d.SetString(k.String(), o)
		}
		return d, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return NULL, nil
		}
		return FromGo(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("cannot convert Go value of type %s", rv.Type())
}

// ToGo converts a Hog object into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Tuples become slices; non-string dictionary
// keys are rendered with Print.
func ToGo(o Object) any {
	switch v := o.(type) {
	case nil, *Null:
		return nil
	case *Boolean:
		return v.Value
	case *Integer:
		return v.Value
	case *Float:
		return v.Value
	case *String:
		return v.Value
	case *Array:
		return listToGo(v.Elements)
	case *Tuple:
		return listToGo(v.Elements)
	case *Dict:
		out := make(map[string]any, v.Len())
		v.Each(func(k, val Object) bool {
			out[Print(k)] = ToGo(val)
			return true
		})
		return out
	case *Callable:
		return v.Inspect()
	}
	panic(fmt.Sprintf("object: unknown kind %T", o))
}

func listToGo(elems []Object) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = ToGo(e)
	}
	return out
}
