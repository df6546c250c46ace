package metrics

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/cache"
	"github.com/funvibe/hog/internal/vm"
)

func TestObserveExecution(t *testing.T) {
	m := New()
	reg := prometheus.NewPedanticRegistry()
	m.MustRegister(reg)

	code, err := vm.Compile(ast.NewProgram(ast.Return(ast.Arith(ast.Add, ast.Const(1), ast.Const(2)))), nil, nil)
	require.NoError(t, err)
	res, err := vm.Execute(code, vm.Options{})
	require.NoError(t, err)
	m.ObserveExecution(res, res.Duration, nil)

	_, err = vm.Execute(vm.Bytecode{"_h", vm.OP_POP}, vm.Options{})
	require.Error(t, err)
	m.ObserveExecution(nil, time.Millisecond, err)
	m.ObserveExecution(nil, time.Millisecond, errors.New("host went away"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("stack_underflow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("error")))
	assert.Equal(t, float64(res.Ops), testutil.ToFloat64(m.ops))
	assert.Equal(t, 3, testutil.CollectAndCount(m.executions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestObserveCompilation(t *testing.T) {
	m := New()
	m.ObserveCompilation("bytecode", nil)
	_, err := vm.Compile(ast.NewProgram(ast.Expr(ast.NewCall("fetch"))), nil, nil)
	m.ObserveCompilation("bytecode", err)
	m.ObserveCompilation("javascript", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.compilations.WithLabelValues("bytecode", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compilations.WithLabelValues("bytecode", "compile_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compilations.WithLabelValues("javascript", "ok")))
}

func TestWatchCache(t *testing.T) {
	c, err := cache.New(cache.MinSize, nil)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	New().WatchCache(reg, c)

	require.NoError(t, c.Put(1, vm.Bytecode{"_h", vm.OP_NULL}))
	c.Get(1)
	c.Get(2)

	n, err := testutil.GatherAndCount(reg, "hog_cache_entries", "hog_cache_hits", "hog_cache_misses")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"hog_cache_entries": 1,
		"hog_cache_hits":    1,
		"hog_cache_misses":  1,
	}, values)
}
