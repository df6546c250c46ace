package vm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/funvibe/hog/internal/object"
)

// run is the main dispatch loop.
func (vm *VM) run() (object.Object, error) {
	for vm.ip < len(vm.code) {
		if err := vm.checkTimeout(); err != nil {
			return nil, err
		}
		vm.ops++

		at := vm.ip
		tok := vm.code[vm.ip]
		vm.ip++
		op, ok := asOpcode(tok)
		if !ok || !op.Valid() {
			return nil, newError(InvalidBytecode, "Invalid bytecode. Unknown opcode %v at %d", tok, at)
		}
		if vm.trace {
			vm.log.Debug("exec",
				zap.Int("ip", at),
				zap.Stringer("op", op),
				zap.Int("stack", len(vm.stack)),
				zap.Int("frames", len(vm.frames)),
			)
		}

		done, result, err := vm.step(op)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
	}

	switch n := len(vm.stack); {
	case n > 1:
		return nil, newError(StackSize, "Invalid bytecode. More than one value left on stack")
	case n == 0:
		return nil, newError(StackSize, "Invalid bytecode. No value left on stack")
	}
	result := vm.stack[0]
	vm.stack = vm.stack[:0]
	return result, nil
}

// step executes one instruction. done is set by a top-level RETURN.
func (vm *VM) step(op Opcode) (done bool, result object.Object, err error) {
	switch op {
	case OP_TRUE:
		return false, nil, vm.push(object.TRUE)
	case OP_FALSE:
		return false, nil, vm.push(object.FALSE)
	case OP_NULL:
		return false, nil, vm.push(object.NULL)
	case OP_STRING:
		s, err := vm.nextString()
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.push(object.NewString(s))
	case OP_INTEGER:
		n, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.push(object.NewInteger(int64(n)))
	case OP_FLOAT:
		f, err := vm.nextFloat()
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.push(object.NewFloat(f))

	case OP_POP:
		_, err := vm.pop()
		return false, nil, err

	case OP_FIELD:
		return false, nil, vm.execField()

	case OP_NOT:
		v, err := vm.pop()
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.push(object.NewBool(!object.Truthy(v)))
	case OP_AND, OP_OR:
		return false, nil, vm.execLogical(op)

	case OP_PLUS, OP_MINUS, OP_MULTIPLY, OP_DIVIDE, OP_MOD:
		return false, nil, vm.execArithmetic(op)
	case OP_EQ, OP_NOT_EQ, OP_GT, OP_GT_EQ, OP_LT, OP_LT_EQ:
		return false, nil, vm.execComparison(op)
	case OP_LIKE, OP_ILIKE, OP_NOT_LIKE, OP_NOT_ILIKE,
		OP_REGEX, OP_NOT_REGEX, OP_IREGEX, OP_NOT_IREGEX:
		return false, nil, vm.execPattern(op)
	case OP_IN, OP_NOT_IN:
		return false, nil, vm.execMembership(op)
	case OP_IN_COHORT, OP_NOT_IN_COHORT:
		return false, nil, newError(UnsupportedCall, "Cohort operators are not supported")

	case OP_GET_LOCAL:
		slot, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		idx, err := vm.localIndex(slot)
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.push(vm.stack[idx])
	case OP_SET_LOCAL:
		slot, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		v, err := vm.pop()
		if err != nil {
			return false, nil, err
		}
		idx, err := vm.localIndex(slot)
		if err != nil {
			return false, nil, err
		}
		vm.stack[idx] = v
		return false, nil, nil

	case OP_GET_PROPERTY:
		return false, nil, vm.execGetProperty()
	case OP_SET_PROPERTY:
		return false, nil, vm.execSetProperty()

	case OP_JUMP:
		offset, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		return false, nil, vm.jump(offset)
	case OP_JUMP_IF_FALSE:
		offset, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		cond, err := vm.pop()
		if err != nil {
			return false, nil, err
		}
		if !object.Truthy(cond) {
			return false, nil, vm.jump(offset)
		}
		return false, nil, nil

	case OP_DICT:
		return false, nil, vm.execDict()
	case OP_ARRAY, OP_TUPLE:
		n, err := vm.nextInt()
		if err != nil {
			return false, nil, err
		}
		elems, err := vm.popN(n)
		if err != nil {
			return false, nil, err
		}
		if op == OP_TUPLE {
			return false, nil, vm.push(object.NewTuple(elems...))
		}
		return false, nil, vm.push(object.NewArray(elems...))

	case OP_DECLARE_FN:
		return false, nil, vm.execDeclare()
	case OP_CALL:
		return false, nil, vm.execCall()
	case OP_RETURN:
		return vm.execReturn()
	}
	// Valid() passed, so this is an opcode without a handler.
	panic(fmt.Sprintf("vm: opcode %s is not handled", op))
}

// localIndex maps a frame-relative slot to an absolute stack index.
func (vm *VM) localIndex(slot int) (int, error) {
	idx := vm.base() + slot
	if slot < 0 || idx >= len(vm.stack) {
		return 0, newError(InvalidBytecode, "Invalid bytecode. Local slot %d is out of range", slot)
	}
	return idx, nil
}
