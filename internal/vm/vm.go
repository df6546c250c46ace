package vm

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/object"
	"github.com/funvibe/hog/internal/stl"
)

// Options configures one execution.
type Options struct {
	// Fields are the globals scripts read through FIELD. Values are
	// converted with object.FromGo; object values are used as is.
	Fields map[string]any
	// Functions are host-native callables, looked up after declared
	// functions and the standard library.
	Functions map[string]object.NativeFunc
	// Team is handed to query builtins such as run().
	Team stl.Team
	// Timeout bounds wall-clock execution. Zero means config.DefaultTimeout.
	Timeout time.Duration
	// MaxCallDepth bounds active function frames. Zero means config.DefaultMaxCallDepth.
	MaxCallDepth int
	// Logger receives per-instruction traces at debug level. Nil disables logging.
	Logger *zap.Logger
	// Stdout additionally receives everything print() writes.
	Stdout io.Writer
	// Context is passed to builtins that block on the host.
	Context context.Context
}

// Result is the outcome of a successful execution.
type Result struct {
	Value    object.Object
	Locals   []object.Object // stack left below the value by a top-level return
	Stdout   string
	Duration time.Duration
	Ops      int
}

// CallFrame represents a single ongoing function call
type CallFrame struct {
	ReturnIP  int // Instruction to resume in the caller
	StackBase int // Where this frame's locals start in the stack
	ArgCount  int
}

type declaredFn struct {
	ip    int
	arity int
}

// VM executes one program. A VM is not reused across executions.
type VM struct {
	code  Bytecode
	ip    int
	stack []object.Object

	frames   []CallFrame
	declared map[string]declaredFn

	fields   *object.Dict
	natives  map[string]object.NativeFunc
	builtins *stl.Registry
	env      *stl.Env

	deadline time.Time
	timeout  time.Duration
	maxDepth int
	ops      int

	log    *zap.Logger
	trace  bool
	stdout strings.Builder
}

// Execute runs a program produced by Compile (or decoded with ParseBytecode).
func Execute(code Bytecode, opts Options) (*Result, error) {
	if !code.HasMarker() {
		return nil, newError(InvalidBytecode, "Invalid bytecode. Must start with %q", config.BytecodeMarker)
	}
	vm, err := newVM(code, opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	vm.deadline = start.Add(vm.timeout)
	vm.env.Deadline = vm.deadline
	value, err := vm.run()
	if err != nil {
		vm.log.Debug("execution failed", zap.Error(err), zap.Int("ip", vm.ip), zap.Int("ops", vm.ops))
		return nil, err
	}
	res := &Result{
		Value:    value,
		Locals:   vm.stack,
		Stdout:   vm.stdout.String(),
		Duration: time.Since(start),
		Ops:      vm.ops,
	}
	vm.log.Debug("execution finished", zap.Duration("duration", res.Duration), zap.Int("ops", res.Ops))
	return res, nil
}

func newVM(code Bytecode, opts Options) (*VM, error) {
	vm := &VM{
		code:     code,
		ip:       1, // past the marker
		declared: make(map[string]declaredFn),
		natives:  opts.Functions,
		builtins: stl.Default(),
		timeout:  opts.Timeout,
		maxDepth: opts.MaxCallDepth,
		log:      opts.Logger,
	}
	if vm.timeout <= 0 {
		vm.timeout = config.DefaultTimeout
	}
	if vm.maxDepth <= 0 {
		vm.maxDepth = config.DefaultMaxCallDepth
	}
	if vm.log == nil {
		vm.log = zap.NewNop()
	}
	vm.trace = vm.log.Core().Enabled(zapcore.DebugLevel)

	fields := object.NewDict()
	for name, v := range opts.Fields {
		o, err := object.FromGo(v)
		if err != nil {
			return nil, wrapError(TypeError, err, "Invalid field %q", name)
		}
		fields.SetString(name, o)
	}
	vm.fields = fields

	var out io.Writer = &vm.stdout
	if opts.Stdout != nil {
		out = io.MultiWriter(&vm.stdout, opts.Stdout)
	}
	vm.env = &stl.Env{Team: opts.Team, Stdout: out, Timeout: vm.timeout, Context: opts.Context}
	return vm, nil
}

func (vm *VM) push(obj object.Object) error {
	if len(vm.stack) >= config.MaxStackSize {
		return newError(StackOverflow, "Stack overflow. Operand stack exceeds %d values", config.MaxStackSize)
	}
	vm.stack = append(vm.stack, obj)
	return nil
}

// base is the first stack slot owned by the current frame.
func (vm *VM) base() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.frames[len(vm.frames)-1].StackBase
}

func (vm *VM) pop() (object.Object, error) {
	if len(vm.stack) <= vm.base() {
		return nil, newError(StackUnderflow, "Stack underflow")
	}
	top := vm.stack[len(vm.stack)-1]
	vm.stack[len(vm.stack)-1] = nil
	vm.stack = vm.stack[:len(vm.stack)-1]
	return top, nil
}

// popN removes the top n values and returns them in push order.
func (vm *VM) popN(n int) ([]object.Object, error) {
	if n < 0 {
		return nil, newError(InvalidBytecode, "Invalid bytecode. Negative operand count %d", n)
	}
	if len(vm.stack)-vm.base() < n {
		return nil, newError(StackUnderflow, "Stack underflow")
	}
	start := len(vm.stack) - n
	out := make([]object.Object, n)
	copy(out, vm.stack[start:])
	clear(vm.stack[start:])
	vm.stack = vm.stack[:start]
	return out, nil
}

// popArgs removes n call arguments. The compiler pushes them last first,
// so popping yields them in declaration order.
func (vm *VM) popArgs(n int) ([]object.Object, error) {
	args, err := vm.popN(n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return args, nil
}

// next reads the token at ip and advances.
func (vm *VM) next() (any, error) {
	if vm.ip >= len(vm.code) {
		return nil, newError(InvalidBytecode, "Invalid bytecode. Unexpected end of program")
	}
	tok := vm.code[vm.ip]
	vm.ip++
	return tok, nil
}

func (vm *VM) nextInt() (int, error) {
	tok, err := vm.next()
	if err != nil {
		return 0, err
	}
	n, ok := asInt(tok)
	if !ok {
		return 0, newError(InvalidBytecode, "Invalid bytecode. Expected an integer operand at %d, got %v", vm.ip-1, tok)
	}
	return int(n), nil
}

func (vm *VM) nextString() (string, error) {
	tok, err := vm.next()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", newError(InvalidBytecode, "Invalid bytecode. Expected a string operand at %d, got %v", vm.ip-1, tok)
	}
	return s, nil
}

func (vm *VM) nextFloat() (float64, error) {
	tok, err := vm.next()
	if err != nil {
		return 0, err
	}
	f, ok := asFloat(tok)
	if !ok {
		return 0, newError(InvalidBytecode, "Invalid bytecode. Expected a float operand at %d, got %v", vm.ip-1, tok)
	}
	return f, nil
}

// jump moves ip by a relative offset measured after the operand.
func (vm *VM) jump(offset int) error {
	target := vm.ip + offset
	if target < 1 || target > len(vm.code) {
		return newError(InvalidBytecode, "Invalid bytecode. Jump to %d is out of range", target)
	}
	vm.ip = target
	return nil
}

func (vm *VM) checkTimeout() error {
	if vm.ops&(config.TimeoutCheckInterval-1) != 0 {
		return nil
	}
	if time.Now().After(vm.deadline) {
		return newError(Timeout, "Execution timed out after %.3f seconds. Performed %d ops.", vm.timeout.Seconds(), vm.ops)
	}
	return nil
}
