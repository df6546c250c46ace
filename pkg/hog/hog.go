// Package hog compiles and runs Hog programs. Programs arrive as the JSON
// syntax tree produced by the query-language parser; they run on the
// bytecode VM or are translated to JavaScript.
package hog

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/backend"
	"github.com/funvibe/hog/internal/cache"
	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/js"
	"github.com/funvibe/hog/internal/metrics"
	"github.com/funvibe/hog/internal/object"
	"github.com/funvibe/hog/internal/pipeline"
	"github.com/funvibe/hog/internal/stl"
	"github.com/funvibe/hog/internal/vm"
)

type (
	// Bytecode is a compiled program.
	Bytecode = vm.Bytecode
	// Error is returned by compilation and execution.
	Error = vm.Error
	// ErrorKind classifies an Error.
	ErrorKind = vm.ErrorKind
	// Team is the host context behind run().
	Team = stl.Team
	// Config is the hog.yaml runtime configuration.
	Config = config.Config
)

// DefaultConfig returns the configuration used when no hog.yaml is given.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads and validates a hog.yaml file.
func LoadConfig(path string) (*Config, error) { return config.LoadConfig(path) }

// ParseConfig parses and validates hog.yaml content.
func ParseConfig(data []byte) (*Config, error) { return config.ParseConfig(data, "<config>") }

const (
	CompileError    = vm.CompileError
	StackUnderflow  = vm.StackUnderflow
	StackSize       = vm.StackSize
	UnsupportedCall = vm.UnsupportedCall
	InvalidIndex    = vm.InvalidIndex
	Timeout         = vm.Timeout
	StackOverflow   = vm.StackOverflow
	TypeError       = vm.TypeError
	InvalidBytecode = vm.InvalidBytecode
	BuiltinError    = vm.BuiltinError
	HostError       = vm.HostError
)

// KindOf returns the kind of err, or zero when err did not come from the
// compiler or the VM.
func KindOf(err error) ErrorKind { return vm.KindOf(err) }

// Result is the outcome of running a program.
type Result struct {
	// Value is the returned value as plain Go data: nil, bool, int64,
	// float64, string, []any or map[string]any.
	Value    any
	Stdout   string
	Duration time.Duration
	Ops      int
}

func newResult(res *vm.Result) *Result {
	return &Result{
		Value:    object.ToGo(res.Value),
		Stdout:   res.Stdout,
		Duration: res.Duration,
		Ops:      res.Ops,
	}
}

// Option configures a VM.
type Option func(*VM) error

func WithTimeout(d time.Duration) Option {
	return func(v *VM) error { v.timeout = d; return nil }
}

func WithMaxCallDepth(n int) Option {
	return func(v *VM) error { v.maxCallDepth = n; return nil }
}

func WithLogger(log *zap.Logger) Option {
	return func(v *VM) error { v.log = log; return nil }
}

// WithStdout copies everything scripts print to w.
func WithStdout(w io.Writer) Option {
	return func(v *VM) error { v.stdout = w; return nil }
}

func WithTeam(team Team) Option {
	return func(v *VM) error { v.team = team; return nil }
}

// WithCache keeps up to size bytes of compiled programs.
func WithCache(size int) Option {
	return func(v *VM) error {
		c, err := cache.New(size, v.log)
		if err != nil {
			return err
		}
		v.cache = c
		return nil
	}
}

// WithMetrics registers execution metrics with reg. Place it after
// WithCache to export the cache counters too.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(v *VM) error {
		v.metrics = metrics.New()
		v.metrics.MustRegister(reg)
		if v.cache != nil {
			v.metrics.WatchCache(reg, v.cache)
		}
		return nil
	}
}

// WithConfig applies the limits and cache size of a hog.yaml file.
func WithConfig(cfg *Config) Option {
	return func(v *VM) error {
		v.timeout = cfg.Timeout
		v.maxCallDepth = cfg.MaxCallDepth
		if cfg.CacheSize > 0 {
			return WithCache(cfg.CacheSize)(v)
		}
		return nil
	}
}

// VM runs programs against a set of globals and bound Go functions. Bind
// and Set are not safe to call concurrently with running programs.
type VM struct {
	fields       map[string]any
	natives      map[string]object.NativeFunc
	team         Team
	timeout      time.Duration
	maxCallDepth int
	stdout       io.Writer
	log          *zap.Logger
	cache        *cache.Cache
	metrics      *metrics.Metrics
}

// New creates a VM. Options apply in order.
func New(opts ...Option) (*VM, error) {
	v := &VM{
		fields:  make(map[string]any),
		natives: make(map[string]object.NativeFunc),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Bind registers a Go function scripts may call by name. It also becomes a
// supported function for compilation.
func (v *VM) Bind(name string, fn any) error {
	native, err := wrapFunc(name, fn)
	if err != nil {
		return err
	}
	v.natives[name] = native
	return nil
}

// Set defines a global scripts read as a field.
func (v *VM) Set(name string, val any) {
	v.fields[name] = val
}

func (v *VM) supported() map[string]bool {
	set := make(map[string]bool, len(v.natives))
	for name := range v.natives {
		set[name] = true
	}
	return set
}

func (v *VM) newContext(ctx context.Context, source []byte) *pipeline.PipelineContext {
	pc := pipeline.NewContext(ctx, source)
	pc.SupportedFunctions = v.supported()
	pc.Exec = vm.Options{
		Fields:       v.fields,
		Functions:    v.natives,
		Team:         v.team,
		Timeout:      v.timeout,
		MaxCallDepth: v.maxCallDepth,
		Stdout:       v.stdout,
	}
	return pc
}

func (v *VM) backend(opts ...backend.VMOption) *backend.VMBackend {
	opts = append(opts, backend.WithLogger(v.log))
	if v.cache != nil {
		opts = append(opts, backend.WithCache(v.cache))
	}
	if v.metrics != nil {
		opts = append(opts, backend.WithMetrics(v.metrics))
	}
	return backend.NewVM(opts...)
}

// Compile compiles a JSON syntax tree to bytecode.
func (v *VM) Compile(astJSON []byte) (Bytecode, error) {
	pc := pipeline.New(
		pipeline.DecodeProcessor{},
		backend.NewExecutionProcessor(v.backend(backend.CompileOnly())),
	).Run(v.newContext(context.Background(), astJSON))
	if err := pc.Err(); err != nil {
		return nil, err
	}
	return pc.Bytecode, nil
}

// Execute runs compiled bytecode.
func (v *VM) Execute(ctx context.Context, code Bytecode) (*Result, error) {
	if code == nil {
		return nil, errors.New("no bytecode to execute")
	}
	pc := v.newContext(ctx, nil)
	pc.Bytecode = code
	pc = pipeline.New(backend.NewExecutionProcessor(v.backend())).Run(pc)
	if err := pc.Err(); err != nil {
		return nil, err
	}
	return newResult(pc.Result), nil
}

// Eval compiles and runs a JSON syntax tree.
func (v *VM) Eval(ctx context.Context, astJSON []byte) (*Result, error) {
	pc := pipeline.New(
		pipeline.DecodeProcessor{},
		backend.NewExecutionProcessor(v.backend()),
	).Run(v.newContext(ctx, astJSON))
	if err := pc.Err(); err != nil {
		return nil, err
	}
	return newResult(pc.Result), nil
}

// ToJS translates a JSON syntax tree to JavaScript. Bound functions are
// left for the JavaScript host to define.
func (v *VM) ToJS(astJSON []byte) (string, error) {
	pc := pipeline.New(
		pipeline.DecodeProcessor{},
		backend.NewExecutionProcessor(backend.NewJS(v.metrics)),
	).Run(v.newContext(context.Background(), astJSON))
	if err := pc.Err(); err != nil {
		return "", err
	}
	return pc.JS, nil
}

// Compile compiles a JSON syntax tree with no host functions.
func Compile(astJSON []byte) (Bytecode, error) {
	v, _ := New()
	return v.Compile(astJSON)
}

// ParseBytecode reads bytecode in its JSON wire form.
func ParseBytecode(data []byte) (Bytecode, error) {
	return vm.ParseBytecode(data)
}

// Execute runs bytecode with the given globals.
func Execute(code Bytecode, fields map[string]any) (*Result, error) {
	v, _ := New()
	for name, val := range fields {
		v.Set(name, val)
	}
	return v.Execute(context.Background(), code)
}

// ToJSProgram translates a JSON Program tree into a self-contained script.
func ToJSProgram(astJSON []byte) (string, error) {
	program, err := ast.DecodeProgram(astJSON)
	if err != nil {
		return "", err
	}
	return js.ToJSProgram(program)
}

// ToJSExpr translates a JSON expression tree. The helpers it calls are not
// included.
func ToJSExpr(astJSON []byte) (string, error) {
	expr, err := ast.DecodeExpression(astJSON)
	if err != nil {
		return "", err
	}
	return js.ToJSExpr(expr)
}

// Disassemble lists bytecode one instruction per line.
func Disassemble(code Bytecode, name string) (string, error) {
	return vm.Disassemble(code, name)
}
