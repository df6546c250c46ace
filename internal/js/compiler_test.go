package js

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/internal/ast"
)

func TestToJSProgram(t *testing.T) {
	code, err := ToJSProgram(ast.NewProgram(
		ast.Let("a", ast.Arith(ast.Add, ast.Const(1), ast.Const(2))),
		ast.Return(ast.NewField("a")),
	))
	require.NoError(t, err)
	assert.Equal(t, "let a = (1 + 2);\nreturn a;", code)
}

func TestToJSExpr(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"constants", ast.NewArray(ast.Null(), ast.Const(true), ast.Const(1.5), ast.Const("it's \"x\"")),
			`[null, true, 1.5, "it's \"x\""]`},
		{"and", ast.NewAnd(ast.Const(true), ast.Cmp(ast.Gt, ast.Const(2), ast.Const(1))),
			"!!(true && (2 > 1))"},
		{"or truthiness", ast.NewOr(ast.Const(0), ast.Const("")),
			"!!(__truthy(0) || __truthy(\"\"))"},
		{"not", ast.NewNot(ast.Const(false)), "(!false)"},
		{"equality with constant", ast.Cmp(ast.Eq, ast.NewField("x"), ast.Const(1)),
			`(__getGlobal("x") === 1)`},
		{"deep equality", ast.Cmp(ast.NotEq, ast.NewArray(), ast.NewArray()),
			"(!__equal([], []))"},
		{"like", ast.Cmp(ast.Like, ast.Const("baa"), ast.Const("%a%")), `like("baa", "%a%")`},
		{"not iregex", ast.Cmp(ast.NotIRegex, ast.Const("abc"), ast.Const("B")), `__notIMatch("abc", "B")`},
		{"in", ast.Cmp(ast.In, ast.Const(1), ast.NewArray(ast.Const(1))), "__in(1, [1])"},
		{"global chain", ast.NewField("event", "properties", 1),
			`__getField(__getField(__getGlobal("event"), "properties"), 1)`},
		{"index", ast.Index(ast.NewArray(ast.Const(1)), ast.Const(1)), "__getProperty([1], 1)"},
		{"tuple", ast.TupleIndex(ast.NewTuple(ast.Const("a"), ast.Const("b")), 2),
			`__getProperty(tuple("a", "b"), 2)`},
		{"dict", ast.NewDict(ast.Const("a"), ast.Const(1), ast.Const(2), ast.Const(3)),
			`{"a": 1, [2]: 3}`},
		{"if", ast.NewCall("if", ast.Cmp(ast.Lt, ast.Const(1), ast.Const(2)), ast.Const("y")),
			`((1 < 2) ? "y" : null)`},
		{"multiIf", ast.NewCall("multiIf", ast.Const(false), ast.Const(1), ast.Const(0), ast.Const(2), ast.Const(3)),
			"(false ? 1 : (__truthy(0) ? 2 : 3))"},
		{"typeof is sanitized", ast.NewCall("typeof", ast.Const(1)), "__x_typeof(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ToJSExpr(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestStatements(t *testing.T) {
	program := ast.NewProgram(
		ast.Fn("fib", []string{"n"},
			ast.If(ast.Cmp(ast.LtEq, ast.NewField("n"), ast.Const(1)), ast.NewBlock(ast.Return(ast.NewField("n"))), nil),
			ast.Return(ast.Arith(ast.Add,
				ast.NewCall("fib", ast.Arith(ast.Sub, ast.NewField("n"), ast.Const(1))),
				ast.NewCall("fib", ast.Arith(ast.Sub, ast.NewField("n"), ast.Const(2))),
			)),
		),
		ast.Let("d", ast.NewDict(ast.Const("a"), ast.Const(1))),
		ast.ForIn("k", "v", ast.NewField("d"), ast.NewBlock(
			ast.Assign(ast.NewField("d", "a"), ast.NewField("v")),
		)),
		ast.For(
			ast.Let("i", ast.Const(0)),
			ast.Cmp(ast.Lt, ast.NewField("i"), ast.Const(3)),
			ast.Assign(ast.NewField("i"), ast.Arith(ast.Add, ast.NewField("i"), ast.Const(1))),
			ast.NewBlock(),
		),
		ast.While(ast.NewField("d"), ast.Return(ast.NewCall("fib", ast.Const(6)))),
	)
	c := NewCompiler(nil)
	code, err := c.Program(program)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"function fib(n) {",
		"    if ((n <= 1)) {",
		"        return n;",
		"    }",
		"    return (fib((n - 1)) + fib((n - 2)));",
		"}",
		`let d = {"a": 1};`,
		"for (let [k, v] of __entries(d)) {",
		`    __setProperty(d, "a", v);`,
		"}",
		"for (let i = 0; (i < 3); i = (i + 1)) {",
		"}",
		"while (__truthy(d)) {",
		"    return fib(6);",
		"}",
	}, "\n"), code)
	assert.Equal(t, []string{"__entries", "__setProperty", "__truthy"}, c.UsedHelpers())

	bundle, err := c.InlinedSTL()
	require.NoError(t, err)
	assert.Contains(t, bundle, "function __entries(")
	assert.Contains(t, bundle, "function keys(")
	assert.Contains(t, bundle, "function __x_typeof(")
}

func TestShadowedLocalsAreRenamed(t *testing.T) {
	code, err := NewCompiler(nil).Program(ast.NewProgram(
		ast.Fn("f", []string{"a"}, ast.Let("a", ast.Const(2)), ast.Return(ast.NewField("a"))),
		ast.Let("a", ast.Const(1)),
		ast.If(ast.Const(true), ast.NewBlock(
			ast.Let("a", ast.Arith(ast.Add, ast.NewField("a"), ast.Const(1))),
			ast.Return(ast.NewField("a")),
		), nil),
		ast.Return(ast.NewField("a")),
	))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"function f(a) {",
		"    let __x_1_a = 2;",
		"    return __x_1_a;",
		"}",
		"let a = 1;",
		"if (true) {",
		"    let __x_2_a = (a + 1);",
		"    return __x_2_a;",
		"}",
		"return a;",
	}, "\n"), code)
}

func TestFunctionReturnsNullByDefault(t *testing.T) {
	code, err := NewCompiler(nil).Program(ast.NewProgram(
		ast.Fn("g", nil, ast.Let("x", ast.Const(1))),
		ast.Fn("h", nil),
	))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"function g() {",
		"    let x = 1;",
		"    return null;",
		"}",
		"function h() {",
		"    return null;",
		"}",
	}, "\n"), code)
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"event":         "event",
		"typeof":        "__x_typeof",
		"let":           "__x_let",
		"__x_let":       "__x___x_let",
		"__getProperty": "__x___getProperty",
		"__custom":      "__custom",
		"a b":           `["a b"]`,
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitize(in), in)
	}

	code, err := ToJSProgram(ast.NewProgram(
		ast.Let("class", ast.Const(1)),
		ast.Return(ast.NewField("class")),
	))
	require.NoError(t, err)
	assert.Equal(t, "let __x_class = 1;\nreturn __x_class;", code)
}

func TestForeign(t *testing.T) {
	node := &ast.Foreign{
		Kind: "SelectQuery",
		Fields: []ast.ForeignField{
			{Name: "select", Value: []any{&ast.Foreign{
				Kind:   "Field",
				Fields: []ast.ForeignField{{Name: "chain", Value: []any{"event"}}},
			}}},
			{Name: "limit", Value: &ast.Placeholder{Expr: ast.Arith(ast.Add, ast.Const(1), ast.Const(2))}},
			{Name: "distinct", Value: nil},
		},
	}
	code, err := ToJSExpr(node)
	require.NoError(t, err)
	assert.Equal(t,
		`{"__hx_ast": "SelectQuery", "select": [{"__hx_ast": "Field", "chain": ["event"]}], "limit": (1 + 2), "distinct": null}`,
		code)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		node *ast.Program
		msg  string
	}{
		{"cohort", ast.NewProgram(ast.Return(ast.Cmp(ast.InCohort, ast.Const(1), ast.Const(2)))),
			"Cohort operators are not supported"},
		{"unsupported call", ast.NewProgram(ast.Return(ast.NewCall("fetch"))),
			"Unsupported function call: fetch"},
		{"internal helper call", ast.NewProgram(ast.Return(ast.NewCall("__getGlobal", ast.Const("x")))),
			"Unsupported function call: __getGlobal"},
		{"assign global", ast.NewProgram(ast.Assign(ast.NewField("event"), ast.Const(1))),
			"Variable `event` not declared in this scope, cannot assign to globals"},
		{"redeclare", ast.NewProgram(ast.Let("a", ast.Null()), ast.Let("a", ast.Null())),
			"Variable `a` already declared in this scope"},
		{"capture", ast.NewProgram(ast.Let("a", ast.Null()), ast.Fn("f", nil, ast.Return(ast.NewField("a")))),
			"Cannot capture variable `a` from an enclosing scope in a function body"},
		{"arity", ast.NewProgram(ast.Fn("f", []string{"x"}), ast.Expr(ast.NewCall("f"))),
			"Function `f` expects 1 arguments, got 0"},
		{"placeholder outside foreign", ast.NewProgram(ast.Return(&ast.Placeholder{Expr: ast.Const(1)})),
			"Placeholders are only allowed inside a foreign syntax tree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToJSProgram(tt.node)
			require.Error(t, err)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestSupportedFunctions(t *testing.T) {
	c := NewCompiler(map[string]bool{"fetch": true})
	code, err := c.Expr(ast.NewCall("fetch", ast.Const("https://example.com")))
	require.NoError(t, err)
	assert.Equal(t, `fetch("https://example.com")`, code)
	assert.Empty(t, c.UsedHelpers())
}
