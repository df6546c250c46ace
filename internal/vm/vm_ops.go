package vm

import (
	"math"

	"github.com/funvibe/hog/internal/object"
	"github.com/funvibe/hog/internal/stl"
)

// popOperands pops the left operand (pushed last) and then the right one.
func (vm *VM) popOperands() (left, right object.Object, err error) {
	if left, err = vm.pop(); err != nil {
		return nil, nil, err
	}
	if right, err = vm.pop(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// execField resolves a global. Segments are pushed reversed, so the first
// pop is the root name. The resolved value is copied so scripts never alias
// host data.
func (vm *VM) execField() error {
	n, err := vm.nextInt()
	if err != nil {
		return err
	}
	if n < 1 {
		return newError(InvalidBytecode, "Invalid bytecode. FIELD needs at least one segment, got %d", n)
	}
	chain := make([]object.Object, n)
	for i := range chain {
		if chain[i], err = vm.pop(); err != nil {
			return err
		}
	}
	var current object.Object = vm.fields
	for _, seg := range chain {
		if object.IsNull(current) {
			break
		}
		if current, err = lookup(current, seg, false); err != nil {
			return err
		}
	}
	return vm.push(object.DeepCopy(current))
}

// lookup reads key from container. Missing dictionary keys and keys of
// non-containers give null. Sequence indexes are 1-based, negative ones count
// from the end; out-of-range indexes are an error only when strict.
func lookup(container, key object.Object, strict bool) (object.Object, error) {
	switch c := container.(type) {
	case *object.Dict:
		v, ok, err := c.Get(key)
		if err != nil {
			return nil, wrapError(TypeError, err, "Invalid dictionary key")
		}
		if !ok {
			return object.NULL, nil
		}
		return v, nil
	case *object.Array:
		return indexList(c.Elements, key, strict)
	case *object.Tuple:
		return indexList(c.Elements, key, strict)
	case *object.String:
		runes := []rune(c.Value)
		pos, err := position(len(runes), key, strict)
		if err != nil || pos < 0 {
			return object.NULL, err
		}
		return object.NewString(string(runes[pos])), nil
	}
	return object.NULL, nil
}

func indexList(elems []object.Object, key object.Object, strict bool) (object.Object, error) {
	pos, err := position(len(elems), key, strict)
	if err != nil {
		return object.NULL, err
	}
	if pos < 0 {
		if strict {
			return object.NULL, newError(InvalidIndex, "Index %s out of range for a sequence of length %d", key.Inspect(), len(elems))
		}
		return object.NULL, nil
	}
	return elems[pos], nil
}

// position converts a 1-based index into a slice offset, -1 meaning absent.
func position(length int, key object.Object, strict bool) (int, error) {
	idx, ok := key.(*object.Integer)
	if !ok {
		if !strict {
			return -1, nil
		}
		return -1, newError(TypeError, "Index must be an integer, got %s", object.TypeName(key))
	}
	switch n := idx.Value; {
	case n == 0:
		return -1, newError(InvalidIndex, "Index 0 is invalid, indexes start at 1")
	case n > 0 && n <= int64(length):
		return int(n - 1), nil
	case n < 0 && n >= -int64(length):
		return length + int(n), nil
	}
	if strict {
		return -1, newError(InvalidIndex, "Index %d out of range for a sequence of length %d", idx.Value, length)
	}
	return -1, nil
}

func (vm *VM) execGetProperty() error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	container, err := vm.pop()
	if err != nil {
		return err
	}
	v, err := lookup(container, key, true)
	if err != nil {
		return err
	}
	return vm.push(v)
}

func (vm *VM) execSetProperty() error {
	value, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	container, err := vm.pop()
	if err != nil {
		return err
	}
	switch c := container.(type) {
	case *object.Dict:
		if err := c.Set(key, value); err != nil {
			return wrapError(TypeError, err, "Invalid dictionary key")
		}
		return nil
	case *object.Array:
		pos, err := position(len(c.Elements), key, true)
		if err != nil {
			return err
		}
		if pos < 0 || pos >= len(c.Elements) {
			return newError(InvalidIndex, "Index %s out of range for a sequence of length %d", key.Inspect(), len(c.Elements))
		}
		c.Elements[pos] = value
		return nil
	case *object.Tuple:
		return newError(TypeError, "Cannot modify a tuple, tuples are immutable")
	}
	return newError(TypeError, "Cannot set property on %s", object.TypeName(container))
}

func (vm *VM) execDict() error {
	n, err := vm.nextInt()
	if err != nil {
		return err
	}
	items, err := vm.popN(2 * n)
	if err != nil {
		return err
	}
	d := object.NewDict()
	for i := 0; i < len(items); i += 2 {
		if err := d.Set(items[i], items[i+1]); err != nil {
			return wrapError(TypeError, err, "Invalid dictionary key")
		}
	}
	return vm.push(d)
}

// execLogical reduces n operands eagerly. Every operand has already been
// evaluated, so there is no short-circuit.
func (vm *VM) execLogical(op Opcode) error {
	n, err := vm.nextInt()
	if err != nil {
		return err
	}
	values, err := vm.popN(n)
	if err != nil {
		return err
	}
	result := op == OP_AND
	for _, v := range values {
		if object.Truthy(v) != result {
			result = !result
			break
		}
	}
	return vm.push(object.NewBool(result))
}

func (vm *VM) execArithmetic(op Opcode) error {
	left, right, err := vm.popOperands()
	if err != nil {
		return err
	}
	res, err := arithmetic(op, left, right)
	if err != nil {
		return err
	}
	return vm.push(res)
}

func arithmetic(op Opcode, left, right object.Object) (object.Object, error) {
	li, lInt := left.(*object.Integer)
	ri, rInt := right.(*object.Integer)
	if lInt && rInt {
		a, b := li.Value, ri.Value
		switch op {
		case OP_PLUS:
			return object.NewInteger(a + b), nil
		case OP_MINUS:
			return object.NewInteger(a - b), nil
		case OP_MULTIPLY:
			return object.NewInteger(a * b), nil
		case OP_DIVIDE:
			if b == 0 {
				return nil, newError(TypeError, "Division by zero")
			}
			return object.NewFloat(float64(a) / float64(b)), nil
		case OP_MOD:
			if b == 0 {
				return nil, newError(TypeError, "Modulo by zero")
			}
			m := a % b
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return object.NewInteger(m), nil
		}
	}

	a, lOk := object.AsNumber(left)
	b, rOk := object.AsNumber(right)
	if !lOk || !rOk {
		return nil, newError(TypeError, "Unsupported operand types for %s: %s and %s",
			op, object.TypeName(left), object.TypeName(right))
	}
	switch op {
	case OP_PLUS:
		return object.NewFloat(a + b), nil
	case OP_MINUS:
		return object.NewFloat(a - b), nil
	case OP_MULTIPLY:
		return object.NewFloat(a * b), nil
	case OP_DIVIDE:
		if b == 0 {
			return nil, newError(TypeError, "Division by zero")
		}
		return object.NewFloat(a / b), nil
	case OP_MOD:
		if b == 0 {
			return nil, newError(TypeError, "Modulo by zero")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return object.NewFloat(m), nil
	}
	return nil, newError(InvalidBytecode, "Invalid bytecode. %s is not arithmetic", op)
}

func (vm *VM) execComparison(op Opcode) error {
	left, right, err := vm.popOperands()
	if err != nil {
		return err
	}
	switch op {
	case OP_EQ:
		return vm.push(object.NewBool(object.Equal(left, right)))
	case OP_NOT_EQ:
		return vm.push(object.NewBool(!object.Equal(left, right)))
	}
	cmp, err := object.Compare(left, right)
	if err != nil {
		return wrapError(TypeError, err, "Cannot apply %s", op)
	}
	var res bool
	switch op {
	case OP_GT:
		res = cmp > 0
	case OP_GT_EQ:
		res = cmp >= 0
	case OP_LT:
		res = cmp < 0
	case OP_LT_EQ:
		res = cmp <= 0
	}
	return vm.push(object.NewBool(res))
}

// execPattern handles LIKE and regex matching. A null on either side never
// matches, negated operators included.
func (vm *VM) execPattern(op Opcode) error {
	left, right, err := vm.popOperands()
	if err != nil {
		return err
	}
	if object.IsNull(left) || object.IsNull(right) {
		return vm.push(object.FALSE)
	}
	s, sOk := left.(*object.String)
	p, pOk := right.(*object.String)
	if !sOk || !pOk {
		return newError(TypeError, "%s expects strings, got %s and %s",
			op, object.TypeName(left), object.TypeName(right))
	}

	var (
		matched bool
		negate  = op == OP_NOT_LIKE || op == OP_NOT_ILIKE || op == OP_NOT_REGEX || op == OP_NOT_IREGEX
		ci      = op == OP_ILIKE || op == OP_NOT_ILIKE || op == OP_IREGEX || op == OP_NOT_IREGEX
	)
	switch op {
	case OP_LIKE, OP_ILIKE, OP_NOT_LIKE, OP_NOT_ILIKE:
		matched, err = stl.Like(s.Value, p.Value, ci)
	default:
		matched, err = stl.Match(s.Value, p.Value, ci)
	}
	if err != nil {
		return wrapError(TypeError, err, "%s failed", op)
	}
	return vm.push(object.NewBool(matched != negate))
}

func (vm *VM) execMembership(op Opcode) error {
	left, right, err := vm.popOperands()
	if err != nil {
		return err
	}
	found, err := object.Contains(right, left)
	if err != nil {
		return wrapError(TypeError, err, "Cannot apply %s", op)
	}
	return vm.push(object.NewBool(found != (op == OP_NOT_IN)))
}
