package cache

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/vm"
)

func TestKeyOf(t *testing.T) {
	src := []byte(`{"kind":"Program"}`)
	k := KeyOf(src, map[string]bool{"fetch": true, "capture": true})
	assert.Equal(t, k, KeyOf(src, map[string]bool{"capture": true, "fetch": true}))
	assert.Equal(t, KeyOf(src, nil), KeyOf(src, map[string]bool{"fetch": false}))
	assert.NotEqual(t, k, KeyOf(src, map[string]bool{"fetch": true}))
	assert.NotEqual(t, k, KeyOf([]byte(`{"kind":"Block"}`), map[string]bool{"fetch": true, "capture": true}))
}

func TestRoundTrip(t *testing.T) {
	c, err := New(0, nil)
	require.NoError(t, err)

	code, err := vm.Compile(ast.NewProgram(
		ast.Let("x", ast.Arith(ast.Add, ast.Const(-3), ast.Const(2.0))),
		ast.Return(ast.NewArray(ast.NewField("x"), ast.Const("s"))),
	), nil, nil)
	require.NoError(t, err)

	_, ok := c.Get(1)
	assert.False(t, ok)
	require.NoError(t, c.Put(1, code))

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, code, got)

	res, err := vm.Execute(got, vm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "[-1.0, 's']", res.Value.Inspect())

	stats := c.Stats()
	assert.Equal(t, Stats{Entries: 1, Hits: 1, Misses: 1}, stats)
}

func TestGetOrCompile(t *testing.T) {
	c, err := New(MinSize, nil)
	require.NoError(t, err)

	calls := 0
	compile := func() (vm.Bytecode, error) {
		calls++
		return vm.Compile(ast.NewProgram(ast.Return(ast.Const(1))), nil, nil)
	}
	key := KeyOf([]byte("return 1"), nil)

	_, hit, err := c.GetOrCompile(key, compile)
	require.NoError(t, err)
	assert.False(t, hit)
	code, hit, err := c.GetOrCompile(key, compile)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)
	assert.True(t, code.HasMarker())

	failing := errors.New("boom")
	_, _, err = c.GetOrCompile(KeyOf([]byte("other"), nil), func() (vm.Bytecode, error) { return nil, failing })
	assert.Equal(t, failing, err)

	c.Clear()
	assert.Zero(t, c.Stats().Entries)
}

func TestInvalidEntryDropped(t *testing.T) {
	c, err := New(MinSize, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put(5, vm.Bytecode{"_h", int64(999)}))

	_, ok := c.Get(5)
	assert.False(t, ok)
	assert.Zero(t, c.Stats().Entries)
}
