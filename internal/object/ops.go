package object

import (
	"fmt"
	"strings"
)

// Truthy applies Hog's boolean coercion: null, false, zero, the empty string
// and empty containers are false; everything else is true.
func Truthy(o Object) bool {
	switch v := o.(type) {
	case nil, *Null:
		return false
	case *Boolean:
		return v.Value
	case *Integer:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *Array:
		return len(v.Elements) > 0
	case *Tuple:
		return len(v.Elements) > 0
	case *Dict:
		return v.Len() > 0
	case *Callable:
		return true
	}
	panic(fmt.Sprintf("object: unknown kind %T", o))
}

// AsNumber returns the float value of a numeric object.
func AsNumber(o Object) (float64, bool) {
	switch v := o.(type) {
	case *Integer:
		return float64(v.Value), true
	case *Float:
		return v.Value, true
	}
	return 0, false
}

// Equal performs a deep equality check between two Hog values.
func Equal(a, b Object) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *Integer:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == float64(bv.Value)
		case *Float:
			return av.Value == bv.Value
		}
		return false
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Array:
		bv, ok := b.(*Array)
		return ok && equalList(av.Elements, bv.Elements)
	case *Tuple:
		bv, ok := b.(*Tuple)
		return ok && equalList(av.Elements, bv.Elements)
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Each(func(k, v Object) bool {
			other, found, err := bv.Get(k)
			if err != nil || !found || !Equal(v, other) {
				equal = false
			}
			return equal
		})
		return equal
	case *Callable:
		return a == b
	}
	panic(fmt.Sprintf("object: unknown kind %T", a))
}

func equalList(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Compare orders two numbers or two strings. It returns -1, 0 or 1.
func Compare(a, b Object) (int, error) {
	if af, ok := AsNumber(a); ok {
		bf, ok := AsNumber(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %s with %s", TypeName(a), TypeName(b))
		}
		// Exact integer comparison avoids float rounding on large values.
		if ai, ok := a.(*Integer); ok {
			if bi, ok := b.(*Integer); ok {
				return cmpInt(ai.Value, bi.Value), nil
			}
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	if as, ok := a.(*String); ok {
		bs, ok := b.(*String)
		if !ok {
			return 0, fmt.Errorf("cannot compare %s with %s", TypeName(a), TypeName(b))
		}
		return strings.Compare(as.Value, bs.Value), nil
	}
	return 0, fmt.Errorf("cannot compare %s with %s", TypeName(a), TypeName(b))
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Contains implements the IN operator: element membership for sequences,
// key membership for dictionaries and substring search for strings.
func Contains(container, needle Object) (bool, error) {
	switch c := container.(type) {
	case nil, *Null:
		return false, nil
	case *Array:
		return containsElem(c.Elements, needle), nil
	case *Tuple:
		return containsElem(c.Elements, needle), nil
	case *Dict:
		return c.Has(needle), nil
	case *String:
		s, ok := needle.(*String)
		if !ok {
			return false, nil
		}
		return strings.Contains(c.Value, s.Value), nil
	}
	return false, fmt.Errorf("operator IN is not supported for %s", TypeName(container))
}

func containsElem(elems []Object, needle Object) bool {
	for _, e := range elems {
		if Equal(e, needle) {
			return true
		}
	}
	return false
}
