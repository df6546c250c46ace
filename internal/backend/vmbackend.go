package backend

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/funvibe/hog/internal/cache"
	"github.com/funvibe/hog/internal/metrics"
	"github.com/funvibe/hog/internal/pipeline"
	"github.com/funvibe/hog/internal/vm"
)

// VMBackend compiles programs to bytecode and executes them.
type VMBackend struct {
	cache       *cache.Cache
	metrics     *metrics.Metrics
	log         *zap.Logger
	compileOnly bool
}

// VMOption configures a VMBackend.
type VMOption func(*VMBackend)

// WithCache looks compiled programs up by source before compiling.
func WithCache(c *cache.Cache) VMOption { return func(b *VMBackend) { b.cache = c } }

func WithMetrics(m *metrics.Metrics) VMOption { return func(b *VMBackend) { b.metrics = m } }

func WithLogger(log *zap.Logger) VMOption { return func(b *VMBackend) { b.log = log } }

// CompileOnly stops after compilation.
func CompileOnly() VMOption { return func(b *VMBackend) { b.compileOnly = true } }

// NewVM creates a new VM backend
func NewVM(opts ...VMOption) *VMBackend {
	b := &VMBackend{log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run compiles ctx.Node unless ctx already holds bytecode, then executes it.
func (b *VMBackend) Run(ctx *pipeline.PipelineContext) error {
	if ctx.Bytecode == nil {
		code, err := b.compile(ctx)
		if b.metrics != nil {
			b.metrics.ObserveCompilation(b.Name(), err)
		}
		if err != nil {
			return err
		}
		ctx.Bytecode = code
	}
	if b.compileOnly {
		return nil
	}

	opts := ctx.Exec
	if opts.Context == nil {
		opts.Context = ctx.Context
	}
	if opts.Logger == nil {
		opts.Logger = b.log
	}
	start := time.Now()
	res, err := vm.Execute(ctx.Bytecode, opts)
	if b.metrics != nil {
		b.metrics.ObserveExecution(res, time.Since(start), err)
	}
	if err != nil {
		return err
	}
	ctx.Result = res
	return nil
}

func (b *VMBackend) compile(ctx *pipeline.PipelineContext) (vm.Bytecode, error) {
	if ctx.Node == nil {
		return nil, errors.New("no syntax tree to compile")
	}
	compile := func() (vm.Bytecode, error) {
		return vm.Compile(ctx.Node, ctx.SupportedFunctions, ctx.Args)
	}
	// function bodies compile differently, so only whole programs are cached
	if b.cache == nil || len(ctx.Source) == 0 || ctx.Args != nil {
		return compile()
	}
	key := cache.KeyOf(ctx.Source, ctx.SupportedFunctions)
	code, hit, err := b.cache.GetOrCompile(key, compile)
	if err == nil {
		b.log.Debug("compiled", zap.String("file", ctx.FilePath), zap.Bool("cached", hit), zap.Int("tokens", len(code)))
	}
	return code, err
}

func (b *VMBackend) Name() string {
	return "bytecode"
}

// Disassemble renders the bytecode in ctx, compiling first if needed.
func (b *VMBackend) Disassemble(ctx *pipeline.PipelineContext) (string, error) {
	if ctx.Bytecode == nil {
		code, err := b.compile(ctx)
		if err != nil {
			return "", err
		}
		ctx.Bytecode = code
	}
	name := ctx.FilePath
	if name == "" {
		name = "<stdin>"
	}
	return vm.Disassemble(ctx.Bytecode, name)
}
