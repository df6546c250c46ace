// Package object defines the dynamic values manipulated by Hog programs.
//
// The set of value kinds is closed: every concrete type lives in this package
// and implements the unexported hogObject marker, so handlers can type-switch
// over a known set and treat anything else as a bug.
package object

import "fmt"

type ObjectType string

const (
	NULL_OBJ     ObjectType = "NULL"
	BOOLEAN_OBJ  ObjectType = "BOOLEAN"
	INTEGER_OBJ  ObjectType = "INTEGER"
	FLOAT_OBJ    ObjectType = "FLOAT"
	STRING_OBJ   ObjectType = "STRING"
	ARRAY_OBJ    ObjectType = "ARRAY"
	TUPLE_OBJ    ObjectType = "TUPLE"
	DICT_OBJ     ObjectType = "DICT"
	CALLABLE_OBJ ObjectType = "CALLABLE"
)

// Object is a Hog runtime value.
type Object interface {
	Type() ObjectType
	Inspect() string
	hogObject()
}

// Null is the absent value. Use NULL.
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }
func (n *Null) hogObject()       {}

// Boolean
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }
func (b *Boolean) hogObject()       {}

// Integer
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return fmt.Sprintf("%d", i.Value) }
func (i *Integer) hogObject()       {}

// Float
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return formatFloat(f.Value) }
func (f *Float) hogObject()       {}

// String
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return quote(s.Value) }
func (s *String) hogObject()       {}

// Array is a mutable ordered sequence. Indexing from Hog is 1-based.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string  { return "[" + inspectList(a.Elements) + "]" }
func (a *Array) hogObject()       {}

// Tuple is an immutable ordered sequence.
type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	if len(t.Elements) == 1 {
		return "(" + t.Elements[0].Inspect() + ",)"
	}
	return "(" + inspectList(t.Elements) + ")"
}
func (t *Tuple) hogObject() {}

// NativeFunc is the Go signature of a host-provided callable.
type NativeFunc func(args []Object) (Object, error)

// Callable wraps a host-native function so it can travel as a value.
type Callable struct {
	Name  string
	Arity int // -1 for variadic
	Fn    NativeFunc
}

func (c *Callable) Type() ObjectType { return CALLABLE_OBJ }
func (c *Callable) Inspect() string  { return "fn<" + c.Name + ">" }
func (c *Callable) hogObject()       {}

// Call invokes the callable after checking the argument count.
func (c *Callable) Call(args []Object) (Object, error) {
	if c.Arity >= 0 && len(args) != c.Arity {
		return nil, fmt.Errorf("function %s expects %d arguments, got %d", c.Name, c.Arity, len(args))
	}
	res, err := c.Fn(args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return NULL, nil
	}
	return res, nil
}

// Shared immutable singletons.
var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func NewBool(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

func NewInteger(v int64) *Integer { return &Integer{Value: v} }

func NewFloat(v float64) *Float { return &Float{Value: v} }

func NewString(v string) *String { return &String{Value: v} }

func NewArray(elems ...Object) *Array {
	if elems == nil {
		elems = []Object{}
	}
	return &Array{Elements: elems}
}

func NewTuple(elems ...Object) *Tuple {
	if elems == nil {
		elems = []Object{}
	}
	return &Tuple{Elements: elems}
}

// IsNull reports whether o is the Hog null (or a Go nil).
func IsNull(o Object) bool {
	if o == nil {
		return true
	}
	_, ok := o.(*Null)
	return ok
}

// TypeName returns the name typeof() reports for o.
func TypeName(o Object) string {
	switch o.(type) {
	case nil, *Null:
		return "null"
	case *Boolean:
		return "boolean"
	case *Integer:
		return "integer"
	case *Float:
		return "float"
	case *String:
		return "string"
	case *Array:
		return "array"
	case *Tuple:
		return "tuple"
	case *Dict:
		return "object"
	case *Callable:
		return "function"
	}
	panic(fmt.Sprintf("object: unknown kind %T", o))
}
