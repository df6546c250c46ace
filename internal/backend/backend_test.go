package backend

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/internal/cache"
	"github.com/funvibe/hog/internal/metrics"
	"github.com/funvibe/hog/internal/pipeline"
	"github.com/funvibe/hog/internal/vm"
)

const source = `{"node": "Program", "declarations": [
	{"node": "VariableDeclaration", "name": "a", "expr": {"node": "Field", "chain": ["event", "count"]}},
	{"node": "ExprStatement", "expr": {"node": "Call", "name": "print", "args": [{"node": "Field", "chain": ["a"]}]}},
	{"node": "ReturnStatement", "expr": {"node": "ArithmeticOperation", "op": "*", "left": {"node": "Field", "chain": ["a"]}, "right": {"node": "Constant", "value": 2}}}
]}`

func newContext(src string) *pipeline.PipelineContext {
	ctx := pipeline.NewContext(context.Background(), []byte(src))
	ctx.FilePath = "double.json"
	ctx.Exec = vm.Options{Fields: map[string]any{"event": map[string]any{"count": 21}}}
	return ctx
}

func TestVMBackend(t *testing.T) {
	c, err := cache.New(cache.MinSize, nil)
	require.NoError(t, err)
	m := metrics.New()
	b := NewVM(WithCache(c), WithMetrics(m))

	for i := 0; i < 2; i++ {
		ctx := pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(b)).Run(newContext(source))
		require.NoError(t, ctx.Err())
		assert.Equal(t, "42", ctx.Result.Value.Inspect())
		assert.Equal(t, "21\n", ctx.Result.Stdout)
	}
	assert.Equal(t, cache.Stats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestVMBackendErrors(t *testing.T) {
	ctx := newContext(`{"node": "Program", "declarations": [{"node": "ExprStatement", "expr": {"node": "Call", "name": "fetch", "args": []}}]}`)
	ctx = pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(NewVM())).Run(ctx)
	require.Len(t, ctx.Errors, 1)
	assert.True(t, vm.IsKind(ctx.Err(), vm.CompileError))
	assert.Equal(t, "bytecode: Unsupported function call: fetch", ctx.Err().Error())

	ctx = newContext(`["_h", 31, 31]`)
	ctx = pipeline.New(pipeline.BytecodeProcessor{}, NewExecutionProcessor(NewVM())).Run(ctx)
	assert.True(t, vm.IsKind(ctx.Err(), vm.StackSize))
}

func TestCompileOnly(t *testing.T) {
	ctx := pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(NewVM(CompileOnly()))).Run(newContext(source))
	require.NoError(t, ctx.Err())
	assert.Nil(t, ctx.Result)
	assert.True(t, ctx.Bytecode.HasMarker())

	text, err := NewVM().Disassemble(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "== double.json ==\n0000 \"_h\"\n"))
}

func TestJSBackend(t *testing.T) {
	m := metrics.New()
	b := NewJS(m)
	ctx := pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(b)).Run(newContext(source))
	require.NoError(t, ctx.Err())
	assert.Contains(t, ctx.JS, "function print(")
	assert.True(t, strings.HasSuffix(ctx.JS, strings.Join([]string{
		`let a = __getField(__getGlobal("event"), "count");`,
		"print(a);",
		"return (a * 2);",
	}, "\n")))

	ctx = pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(b)).Run(newContext(`{"node": "Constant", "value": "x"}`))
	require.NoError(t, ctx.Err())
	assert.Equal(t, `"x"`, ctx.JS)

	ctx = pipeline.New(pipeline.DecodeProcessor{}, NewExecutionProcessor(b)).Run(
		newContext(`{"node": "CompareOperation", "op": "in cohort", "left": {"node": "Constant", "value": 1}, "right": {"node": "Constant", "value": 2}}`))
	assert.EqualError(t, ctx.Err(), "javascript: Cohort operators are not supported")
}
