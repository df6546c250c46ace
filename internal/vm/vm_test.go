package vm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/ast/asttest"
	"github.com/funvibe/hog/internal/object"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func compileAndRun(t *testing.T, node ast.Node, opts Options) *Result {
	t.Helper()
	code, err := Compile(node, nil, nil)
	require.NoError(t, err)
	res, err := Execute(code, opts)
	require.NoError(t, err)
	return res
}

func inspect(t *testing.T, v any) string {
	t.Helper()
	o, err := object.FromGo(v)
	require.NoError(t, err)
	return o.Inspect()
}

func TestFixtures(t *testing.T) {
	for _, c := range asttest.MustLoad() {
		t.Run(c.Name, func(t *testing.T) {
			res := compileAndRun(t, c.Program, Options{Fields: c.Fields})
			assert.Equal(t, inspect(t, c.Want), res.Value.Inspect())
			assert.Equal(t, c.Stdout, res.Stdout)
		})
	}
}

func TestExecuteLetReturn(t *testing.T) {
	code := Bytecode{"_h", OP_INTEGER, int64(2), OP_INTEGER, int64(1), OP_PLUS, OP_GET_LOCAL, int64(0), OP_RETURN, OP_POP}
	res, err := Execute(code, Options{})
	require.NoError(t, err)
	assert.Equal(t, object.NewInteger(3), res.Value)
	// the top-level return leaves a's slot behind
	require.Len(t, res.Locals, 1)
	assert.Equal(t, object.NewInteger(3), res.Locals[0])
	assert.Positive(t, res.Ops)
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		code Bytecode
		kind ErrorKind
		msg  string
	}{
		{"two values left", Bytecode{"_h", OP_TRUE, OP_TRUE}, StackSize,
			"Invalid bytecode. More than one value left on stack"},
		{"no value left", Bytecode{"_h", OP_TRUE, OP_POP}, StackSize,
			"Invalid bytecode. No value left on stack"},
		{"underflow", Bytecode{"_h", OP_POP}, StackUnderflow, "Stack underflow"},
		{"binary underflow", Bytecode{"_h", OP_TRUE, OP_PLUS}, StackUnderflow, "Stack underflow"},
		{"unknown call", Bytecode{"_h", OP_CALL, "notAFunction", int64(0)}, UnsupportedCall,
			"Unsupported function call: notAFunction"},
		{"missing marker", Bytecode{OP_TRUE}, InvalidBytecode,
			`Invalid bytecode. Must start with "_h"`},
		{"unknown opcode", Bytecode{"_h", int64(99)}, InvalidBytecode,
			"Invalid bytecode. Unknown opcode 99 at 1"},
		{"zero index", Bytecode{"_h", OP_INTEGER, int64(1), OP_ARRAY, int64(1), OP_INTEGER, int64(0), OP_GET_PROPERTY},
			InvalidIndex, "Index 0 is invalid, indexes start at 1"},
		{"index out of range", Bytecode{"_h", OP_INTEGER, int64(1), OP_ARRAY, int64(1), OP_INTEGER, int64(2), OP_GET_PROPERTY},
			InvalidIndex, "Index 2 out of range for a sequence of length 1"},
		{"division by zero", Bytecode{"_h", OP_INTEGER, int64(0), OP_INTEGER, int64(1), OP_DIVIDE},
			TypeError, "Division by zero"},
		{"cohort", Bytecode{"_h", OP_TRUE, OP_TRUE, OP_IN_COHORT}, UnsupportedCall,
			"Cohort operators are not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(tt.code, Options{})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestExecuteOperators(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"int division is float", ast.Arith(ast.Div, ast.Const(4), ast.Const(2)), "2.0"},
		{"mod follows divisor sign", ast.Arith(ast.Mod, ast.Const(-7), ast.Const(3)), "2"},
		{"float mod", ast.Arith(ast.Mod, ast.Const(7.5), ast.Const(2)), "1.5"},
		{"mixed arithmetic", ast.Arith(ast.Mult, ast.Const(2), ast.Const(1.5)), "3.0"},
		{"string compare", ast.Cmp(ast.Lt, ast.Const("a"), ast.Const("b")), "true"},
		{"int float equality", ast.Cmp(ast.Eq, ast.Const(1), ast.Const(1.0)), "true"},
		{"null equality", ast.Cmp(ast.Eq, ast.Null(), ast.Null()), "true"},
		{"in array", ast.Cmp(ast.In, ast.Const(2), ast.NewArray(ast.Const(1), ast.Const(2))), "true"},
		{"not in string", ast.Cmp(ast.NotIn, ast.Const("z"), ast.Const("abc")), "true"},
		{"like underscore", ast.Cmp(ast.Like, ast.Const("cat"), ast.Const("c_t")), "true"},
		{"like anchored", ast.Cmp(ast.Like, ast.Const("cats"), ast.Const("c_t")), "false"},
		{"regex", ast.Cmp(ast.Regex, ast.Const("a1"), ast.Const(`\d`)), "true"},
		{"null never matches", ast.Cmp(ast.NotLike, ast.Null(), ast.Const("%")), "false"},
		{"eager or", ast.NewOr(ast.Const(0), ast.Const("")), "false"},
		{"not", ast.NewNot(ast.NewArray()), "true"},
		{"negative index", ast.Index(ast.NewArray(ast.Const(1), ast.Const(2)), ast.Const(-1)), "2"},
		{"string index", ast.Index(ast.Const("héllo"), ast.Const(2)), "'é'"},
		{"missing dict key", ast.Index(ast.NewDict(ast.Const("a"), ast.Const(1)), ast.Const("b")), "null"},
		{"property of scalar", ast.Index(ast.Const(1), ast.Const("x")), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileAndRun(t, ast.Return(tt.expr), Options{})
			assert.Equal(t, tt.want, res.Value.Inspect())
		})
	}
}

func TestExecuteFields(t *testing.T) {
	fields := map[string]any{
		"event": map[string]any{
			"properties": map[string]any{"list": []any{"a", "b"}},
		},
	}
	tests := []struct {
		chain []any
		want  string
	}{
		{[]any{"event", "properties", "list", 2}, "'b'"},
		{[]any{"event", "properties", "list", 5}, "null"},
		{[]any{"event", "missing", "deeper"}, "null"},
		{[]any{"nothing"}, "null"},
	}
	for _, tt := range tests {
		res := compileAndRun(t, ast.Return(ast.NewField(tt.chain...)), Options{Fields: fields})
		assert.Equal(t, tt.want, res.Value.Inspect(), "%v", tt.chain)
	}
}

func TestExecuteFieldIsCopied(t *testing.T) {
	list := object.NewArray(object.NewInteger(1))
	fields := map[string]any{"list": list}
	program := ast.NewProgram(
		ast.Let("l", ast.NewField("list")),
		ast.Assign(ast.Index(ast.NewField("l"), ast.Const(1)), ast.Const(9)),
		ast.Return(ast.NewField("l")),
	)
	res := compileAndRun(t, program, Options{Fields: fields})
	assert.Equal(t, "[9]", res.Value.Inspect())
	assert.Equal(t, "[1]", list.Inspect())
}

func TestExecuteMinInt64Index(t *testing.T) {
	minInt := ast.Arith(ast.Sub, ast.Const(int64(-9223372036854775807)), ast.Const(1))
	list := ast.Let("a", ast.NewArray(ast.Const(1), ast.Const(2)))

	tests := []struct {
		name    string
		program *ast.Program
		length  string
	}{
		{"set", ast.NewProgram(list, ast.Assign(ast.Index(ast.NewField("a"), minInt), ast.Const(5)), ast.Return(ast.NewField("a"))), "2"},
		{"get", ast.NewProgram(list, ast.Return(ast.Index(ast.NewField("a"), minInt))), "2"},
		{"tuple get", ast.NewProgram(ast.Return(ast.Index(ast.NewTuple(ast.Const(1)), minInt))), "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Compile(tt.program, nil, nil)
			require.NoError(t, err)
			_, err = Execute(code, Options{})
			require.Error(t, err)
			assert.Equal(t, InvalidIndex, KindOf(err))
			assert.Equal(t, "Index -9223372036854775808 out of range for a sequence of length "+tt.length, err.Error())
		})
	}

	// FIELD stays lenient
	fields := map[string]any{"list": []any{1, 2}}
	res := compileAndRun(t, ast.Return(ast.NewField("list", int64(-9223372036854775808))), Options{Fields: fields})
	assert.Equal(t, "null", res.Value.Inspect())
}

func TestExecuteSetPropertyOnTuple(t *testing.T) {
	code := Bytecode{"_h",
		OP_INTEGER, int64(1), OP_TUPLE, int64(1),
		OP_INTEGER, int64(1), OP_INTEGER, int64(2), OP_SET_PROPERTY,
	}
	_, err := Execute(code, Options{})
	require.Error(t, err)
	assert.Equal(t, TypeError, KindOf(err))
}

func TestExecuteTimeout(t *testing.T) {
	program := ast.While(ast.Const(true), ast.Expr(ast.Const(1)))
	code, err := Compile(program, nil, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = Execute(code, Options{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, Timeout, KindOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Execution timed out after 0.050 seconds."), err.Error())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteRecursionLimit(t *testing.T) {
	program := ast.NewProgram(
		ast.Fn("loop", []string{"n"},
			ast.Return(ast.NewCall("loop", ast.Arith(ast.Add, ast.NewField("n"), ast.Const(1)))),
		),
		ast.Return(ast.NewCall("loop", ast.Const(0))),
	)
	code, err := Compile(program, nil, nil)
	require.NoError(t, err)
	_, err = Execute(code, Options{MaxCallDepth: 16})
	require.Error(t, err)
	assert.Equal(t, StackOverflow, KindOf(err))
}

func TestExecuteDeclaredArity(t *testing.T) {
	code := Bytecode{"_h",
		OP_DECLARE_FN, "f", int64(1), int64(2), OP_NULL, OP_RETURN,
		OP_CALL, "f", int64(0),
	}
	_, err := Execute(code, Options{})
	require.Error(t, err)
	assert.Equal(t, "Function `f` expects 1 arguments, got 0", err.Error())
}

func TestExecuteNativeFunctions(t *testing.T) {
	var got []object.Object
	opts := Options{Functions: map[string]object.NativeFunc{
		"capture": func(args []object.Object) (object.Object, error) {
			got = args
			return nil, nil
		},
	}}
	node := ast.Return(ast.NewCall("capture", ast.Const("a"), ast.Const(2)))
	code, err := Compile(node, map[string]bool{"capture": true}, nil)
	require.NoError(t, err)
	res, err := Execute(code, opts)
	require.NoError(t, err)
	assert.Equal(t, object.NULL, res.Value)
	require.Len(t, got, 2)
	assert.Equal(t, "'a'", got[0].Inspect())
	assert.Equal(t, "2", got[1].Inspect())

	// compiled against the allow-list but not provided at runtime
	_, err = Execute(code, Options{})
	assert.Equal(t, "Unsupported function call: capture", err.Error())
}

func TestExecuteBuiltinError(t *testing.T) {
	res, err := Execute(Bytecode{"_h", OP_STRING, "{", OP_CALL, "jsonParse", int64(1)}, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, BuiltinError, KindOf(err))
}

func TestExecuteStdoutTee(t *testing.T) {
	var sb strings.Builder
	res := compileAndRun(t, ast.NewProgram(
		ast.Expr(ast.NewCall("print", ast.Const("hi"))),
		ast.Return(ast.Null()),
	), Options{Stdout: &sb})
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Equal(t, "hi\n", sb.String())
}

func TestExecuteTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	compileAndRun(t, ast.Return(ast.Const(1)), Options{Logger: zap.New(core)})
	traced := logs.FilterMessage("exec").All()
	require.Len(t, traced, 2)
	assert.Equal(t, "INTEGER", traced[0].ContextMap()["op"])
	assert.Equal(t, "RETURN", traced[1].ContextMap()["op"])
}
