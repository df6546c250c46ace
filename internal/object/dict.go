package object

import (
	"fmt"
	"math"

	"github.com/elliotchance/orderedmap/v2"
)

// DictKey is the comparable identity of a dictionary key. Integral floats
// collapse onto the equal integer so 1 and 1.0 address the same entry.
type DictKey struct {
	Kind  ObjectType
	Str   string
	Int   int64
	Float float64
}

type dictEntry struct {
	key   Object
	value Object
}

// Dict is a mutable mapping that remembers insertion order.
type Dict struct {
	entries *orderedmap.OrderedMap[DictKey, dictEntry]
}

func NewDict() *Dict {
	return &Dict{entries: orderedmap.NewOrderedMap[DictKey, dictEntry]()}
}

func (d *Dict) Type() ObjectType { return DICT_OBJ }
func (d *Dict) hogObject()       {}

func (d *Dict) Inspect() string {
	if d.Len() == 0 {
		return "{}"
	}
	out := "{"
	first := true
	d.Each(func(k, v Object) bool {
		if !first {
			out += ", "
		}
		first = false
		out += k.Inspect() + ": " + v.Inspect()
		return true
	})
	return out + "}"
}

// KeyOf validates that o may be used as a dictionary key.
func KeyOf(o Object) (DictKey, error) {
	switch v := o.(type) {
	case nil, *Null:
		return DictKey{Kind: NULL_OBJ}, nil
	case *Boolean:
		if v.Value {
			return DictKey{Kind: BOOLEAN_OBJ, Int: 1}, nil
		}
		return DictKey{Kind: BOOLEAN_OBJ}, nil
	case *Integer:
		return DictKey{Kind: INTEGER_OBJ, Int: v.Value}, nil
	case *Float:
		if v.Value == math.Trunc(v.Value) && math.Abs(v.Value) < 1<<63 {
			return DictKey{Kind: INTEGER_OBJ, Int: int64(v.Value)}, nil
		}
		return DictKey{Kind: FLOAT_OBJ, Float: v.Value}, nil
	case *String:
		return DictKey{Kind: STRING_OBJ, Str: v.Value}, nil
	}
	return DictKey{}, fmt.Errorf("unhashable dictionary key of type %s", TypeName(o))
}

func (d *Dict) Len() int {
	return d.entries.Len()
}

// Get returns the value stored under key.
func (d *Dict) Get(key Object) (Object, bool, error) {
	k, err := KeyOf(key)
	if err != nil {
		return nil, false, err
	}
	e, ok := d.entries.Get(k)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

// GetString is a shortcut for string keys.
func (d *Dict) GetString(key string) (Object, bool) {
	e, ok := d.entries.Get(DictKey{Kind: STRING_OBJ, Str: key})
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, keeping the original position of existing keys.
func (d *Dict) Set(key, value Object) error {
	k, err := KeyOf(key)
	if err != nil {
		return err
	}
	if existing, ok := d.entries.Get(k); ok {
		key = existing.key
	}
	d.entries.Set(k, dictEntry{key: key, value: value})
	return nil
}

// SetString is a shortcut for string keys.
func (d *Dict) SetString(key string, value Object) {
	d.entries.Set(DictKey{Kind: STRING_OBJ, Str: key}, dictEntry{key: NewString(key), value: value})
}

// Has reports whether key is present.
func (d *Dict) Has(key Object) bool {
	k, err := KeyOf(key)
	if err != nil {
		return false
	}
	_, ok := d.entries.Get(k)
	return ok
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key Object) bool {
	k, err := KeyOf(key)
	if err != nil {
		return false
	}
	return d.entries.Delete(k)
}

// Each visits entries in insertion order until fn returns false.
func (d *Dict) Each(fn func(key, value Object) bool) {
	for el := d.entries.Front(); el != nil; el = el.Next() {
		if !fn(el.Value.key, el.Value.value) {
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Object {
	keys := make([]Object, 0, d.Len())
	d.Each(func(k, _ Object) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns the values in insertion order.
func (d *Dict) Values() []Object {
	values := make([]Object, 0, d.Len())
	d.Each(func(_, v Object) bool {
		values = append(values, v)
		return true
	})
	return values
}
