package vm

import (
	"github.com/funvibe/hog/internal/object"
)

// execDeclare registers the function whose body follows and skips over it.
func (vm *VM) execDeclare() error {
	name, err := vm.nextString()
	if err != nil {
		return err
	}
	arity, err := vm.nextInt()
	if err != nil {
		return err
	}
	bodyLen, err := vm.nextInt()
	if err != nil {
		return err
	}
	if prev, ok := vm.declared[name]; ok && prev.ip != vm.ip {
		return newError(InvalidBytecode, "Invalid bytecode. Function `%s` declared twice", name)
	}
	vm.declared[name] = declaredFn{ip: vm.ip, arity: arity}
	return vm.jump(bodyLen)
}

// execCall resolves name against declared functions, then the standard
// library, then host functions.
func (vm *VM) execCall() error {
	name, err := vm.nextString()
	if err != nil {
		return err
	}
	n, err := vm.nextInt()
	if err != nil {
		return err
	}

	if fn, ok := vm.declared[name]; ok {
		if n != fn.arity {
			return newError(TypeError, "Function `%s` expects %d arguments, got %d", name, fn.arity, n)
		}
		if len(vm.frames) >= vm.maxDepth {
			return newError(StackOverflow, "Stack overflow. Call depth exceeds %d", vm.maxDepth)
		}
		if len(vm.stack)-vm.base() < n {
			return newError(StackUnderflow, "Stack underflow")
		}
		// Arguments stay on the stack as the callee's first locals.
		vm.frames = append(vm.frames, CallFrame{
			ReturnIP:  vm.ip,
			StackBase: len(vm.stack) - n,
			ArgCount:  n,
		})
		vm.ip = fn.ip
		return nil
	}

	if b, ok := vm.builtins.Lookup(name); ok {
		args, err := vm.popArgs(n)
		if err != nil {
			return err
		}
		res, err := b.Call(vm.env, args)
		if err != nil {
			return wrapError(BuiltinError, err, "Error in function %s", name)
		}
		return vm.push(res)
	}

	if native, ok := vm.natives[name]; ok && native != nil {
		args, err := vm.popArgs(n)
		if err != nil {
			return err
		}
		res, err := native(args)
		if err != nil {
			return wrapError(HostError, err, "Error in host function %s", name)
		}
		if res == nil {
			res = object.NULL
		}
		return vm.push(res)
	}

	return newError(UnsupportedCall, "Unsupported function call: %s", name)
}

// execReturn leaves the current frame. At the top level it ends the program
// and whatever remains on the stack is reported as locals.
func (vm *VM) execReturn() (bool, object.Object, error) {
	result, err := vm.pop()
	if err != nil {
		return false, nil, err
	}
	if len(vm.frames) == 0 {
		return true, result, nil
	}
	frame := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	clear(vm.stack[frame.StackBase:])
	vm.stack = vm.stack[:frame.StackBase]
	vm.ip = frame.ReturnIP
	return false, nil, vm.push(result)
}
