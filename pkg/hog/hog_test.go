package hog_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/pkg/hog"
)

func program(stmts ...string) []byte {
	return []byte(`{"node": "Program", "declarations": [` + strings.Join(stmts, ", ") + `]}`)
}

func ret(expr string) string {
	return `{"node": "ReturnStatement", "expr": ` + expr + `}`
}

func call(name string, args ...string) string {
	return `{"node": "Call", "name": "` + name + `", "args": [` + strings.Join(args, ", ") + `]}`
}

func field(chain string) string {
	return `{"node": "Field", "chain": ` + chain + `}`
}

func constant(v string) string {
	return `{"node": "Constant", "value": ` + v + `}`
}

func TestEmbedAPI(t *testing.T) {
	vm, err := hog.New()
	require.NoError(t, err)

	require.NoError(t, vm.Bind("double", func(x int) int { return x * 2 }))
	require.NoError(t, vm.Bind("greet", func(names []string, sep string) string { return strings.Join(names, sep) }))
	vm.Set("person", map[string]any{"name": "Alice", "tags": []any{"a", "b"}})

	res, err := vm.Eval(context.Background(), program(ret(`{"node": "Array", "exprs": [`+
		call("double", constant("21"))+`, `+
		call("greet", field(`["person", "tags"]`), constant(`"+"`))+`, `+
		field(`["person", "name"]`)+`]}`)))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(42), "a+b", "Alice"}, res.Value)
}

func TestBindErrors(t *testing.T) {
	vm, err := hog.New()
	require.NoError(t, err)
	assert.Error(t, vm.Bind("nope", 42))

	require.NoError(t, vm.Bind("fail", func() (int, error) { return 0, fmt.Errorf("host is down") }))
	require.NoError(t, vm.Bind("split", func(s string) (string, string) { return s[:1], s[1:] }))

	_, err = vm.Eval(context.Background(), program(ret(call("fail"))))
	require.Error(t, err)
	assert.Equal(t, hog.HostError, hog.KindOf(err))
	assert.Contains(t, err.Error(), "host is down")

	_, err = vm.Eval(context.Background(), program(ret(call("split", constant("1")))))
	assert.Equal(t, hog.HostError, hog.KindOf(err))

	res, err := vm.Eval(context.Background(), program(ret(call("split", constant(`"ab"`)))))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, res.Value)
}

func TestCompileExecute(t *testing.T) {
	src := program(
		`{"node": "ExprStatement", "expr": `+call("print", field(`["event"]`))+`}`,
		ret(`{"node": "ArithmeticOperation", "op": "+", "left": `+constant("1")+`, "right": `+constant("2.5")+`}`),
	)
	code, err := hog.Compile(src)
	require.NoError(t, err)

	wire, err := code.MarshalJSON()
	require.NoError(t, err)
	parsed, err := hog.ParseBytecode(wire)
	require.NoError(t, err)

	res, err := hog.Execute(parsed, map[string]any{"event": "$pageview"})
	require.NoError(t, err)
	assert.Equal(t, 3.5, res.Value)
	assert.Equal(t, "$pageview\n", res.Stdout)
	assert.Positive(t, res.Ops)

	text, err := hog.Disassemble(parsed, "sum")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "== sum ==\n"))

	_, err = hog.Compile(program(ret(call("fetch"))))
	assert.Equal(t, hog.CompileError, hog.KindOf(err))
}

func TestTimeout(t *testing.T) {
	vm, err := hog.New(hog.WithTimeout(20 * time.Millisecond))
	require.NoError(t, err)
	_, err = vm.Eval(context.Background(), program(
		`{"node": "WhileStatement", "expr": `+constant("true")+`, "body": {"node": "Block", "declarations": []}}`,
	))
	require.Error(t, err)
	assert.Equal(t, hog.Timeout, hog.KindOf(err))
}

func TestWithConfig(t *testing.T) {
	cfg, err := hog.ParseConfig([]byte("timeout: 20ms\nmax_call_depth: 8\n"))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Timeout)

	vm, err := hog.New(hog.WithConfig(cfg))
	require.NoError(t, err)
	_, err = vm.Eval(context.Background(), program(
		`{"node": "WhileStatement", "expr": `+constant("true")+`, "body": {"node": "Block", "declarations": []}}`,
	))
	assert.Equal(t, hog.Timeout, hog.KindOf(err))

	_, err = hog.ParseConfig([]byte("timeout: -1s\n"))
	assert.Error(t, err)
	assert.Equal(t, 1000, hog.DefaultConfig().MaxCallDepth)
}

func TestCacheAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	vm, err := hog.New(hog.WithCache(0), hog.WithMetrics(reg))
	require.NoError(t, err)

	src := program(ret(constant("1")))
	for i := 0; i < 3; i++ {
		res, err := vm.Eval(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Value)
	}
	_, err = vm.ToJS(src)
	require.NoError(t, err)

	expected := `
# HELP hog_cache_hits Cache lookups that found a program
# TYPE hog_cache_hits gauge
hog_cache_hits 2
# HELP hog_compilations_total Programs compiled, by backend and status
# TYPE hog_compilations_total counter
hog_compilations_total{backend="bytecode",status="ok"} 3
hog_compilations_total{backend="javascript",status="ok"} 1
# HELP hog_executions_total VM executions, by status
# TYPE hog_executions_total counter
hog_executions_total{status="ok"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hog_cache_hits", "hog_compilations_total", "hog_executions_total"))
}

func TestToJS(t *testing.T) {
	code, err := hog.ToJSExpr([]byte(`{"node": "And", "exprs": [` + constant("true") + `, ` + constant("false") + `]}`))
	require.NoError(t, err)
	assert.Equal(t, "!!(true && false)", code)

	code, err = hog.ToJSProgram(program(ret(call("length", constant(`"abc"`)))))
	require.NoError(t, err)
	assert.Contains(t, code, "function length(")
	assert.True(t, strings.HasSuffix(code, `return length("abc");`))

	_, err = hog.ToJSProgram([]byte(constant("1")))
	assert.Error(t, err)

	vm, err := hog.New()
	require.NoError(t, err)
	require.NoError(t, vm.Bind("fetch", func(url string) string { return url }))
	code, err = vm.ToJS(program(ret(call("fetch", constant(`"https://example.com"`)))))
	require.NoError(t, err)
	assert.Equal(t, `return fetch("https://example.com");`, code)
}
