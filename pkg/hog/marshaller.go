package hog

import (
	"fmt"
	"reflect"

	"github.com/funvibe/hog/internal/object"
)

var (
	objectType = reflect.TypeOf((*object.Object)(nil)).Elem()
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// wrapFunc turns a Go function into a native Hog function. Arguments are
// converted to the parameter types; a trailing error result is returned as
// the call's error and several other results become a tuple.
func wrapFunc(name string, fn any) (object.NativeFunc, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("cannot bind %s: %T is not a function", name, fn)
	}
	fnType := rv.Type()
	numIn := fnType.NumIn()
	isVariadic := fnType.IsVariadic()

	return func(args []object.Object) (object.Object, error) {
		// Check arg count
		if isVariadic {
			if len(args) < numIn-1 {
				return nil, fmt.Errorf("expected at least %d arguments, got %d", numIn-1, len(args))
			}
		} else if len(args) != numIn {
			return nil, fmt.Errorf("expected %d arguments, got %d", numIn, len(args))
		}

		goArgs := make([]reflect.Value, len(args))
		for i, arg := range args {
			var target reflect.Type
			if isVariadic && i >= numIn-1 {
				target = fnType.In(numIn - 1).Elem()
			} else {
				target = fnType.In(i)
			}
			val, err := fromObject(arg, target)
			if err != nil {
				return nil, fmt.Errorf("argument %d conversion failed: %w", i+1, err)
			}
			goArgs[i] = val
		}

		results := rv.Call(goArgs)
		if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
			if err, _ := results[n-1].Interface().(error); err != nil {
				return nil, err
			}
			results = results[:n-1]
		}
		switch len(results) {
		case 0:
			return object.NULL, nil
		case 1:
			return object.FromGo(results[0].Interface())
		}
		elems := make([]object.Object, len(results))
		for i, res := range results {
			o, err := object.FromGo(res.Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = o
		}
		return object.NewTuple(elems...), nil
	}, nil
}

// fromObject converts o into a value assignable to target.
func fromObject(o object.Object, target reflect.Type) (reflect.Value, error) {
	if target == objectType {
		return reflect.ValueOf(&o).Elem(), nil
	}
	goVal := object.ToGo(o)
	if goVal == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("null is not a %s", target)
	}
	rv := reflect.ValueOf(goVal)

	switch target.Kind() {
	case reflect.Interface:
		if rv.Type().Implements(target) {
			return rv, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := goVal.(int64); ok {
			return reflect.ValueOf(i).Convert(target), nil
		}
	case reflect.Float32, reflect.Float64:
		switch n := goVal.(type) {
		case int64:
			return reflect.ValueOf(float64(n)).Convert(target), nil
		case float64:
			return reflect.ValueOf(n).Convert(target), nil
		}
	case reflect.String, reflect.Bool:
		if rv.Kind() == target.Kind() {
			return rv.Convert(target), nil
		}
	case reflect.Slice:
		elems, ok := listElements(o)
		if !ok {
			break
		}
		out := reflect.MakeSlice(target, len(elems), len(elems))
		for i, e := range elems {
			v, err := fromObject(e, target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i+1, err)
			}
			out.Index(i).Set(v)
		}
		return out, nil
	case reflect.Map:
		d, ok := o.(*object.Dict)
		if !ok || target.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(target, d.Len())
		var err error
		d.Each(func(k, v object.Object) bool {
			var val reflect.Value
			if val, err = fromObject(v, target.Elem()); err != nil {
				err = fmt.Errorf("key %s: %w", k.Inspect(), err)
				return false
			}
			out.SetMapIndex(reflect.ValueOf(object.Print(k)).Convert(target.Key()), val)
			return true
		})
		if err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", object.TypeName(o), target)
}

func listElements(o object.Object) ([]object.Object, bool) {
	switch v := o.(type) {
	case *object.Array:
		return v.Elements, true
	case *object.Tuple:
		return v.Elements, true
	}
	return nil, false
}
