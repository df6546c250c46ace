package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProgram(t *testing.T) {
	src := `{
		"node": "Program",
		"declarations": [
			{"node": "VariableDeclaration", "name": "a", "expr": {
				"node": "ArithmeticOperation", "op": "+",
				"left": {"node": "Constant", "value": 1},
				"right": {"node": "Constant", "value": 2.5}
			}},
			{"node": "IfStatement",
				"expr": {"node": "Field", "chain": ["a"]},
				"then": {"node": "Block", "declarations": [
					{"node": "ReturnStatement", "expr": {"node": "Field", "chain": ["event", "properties", 1]}}
				]}
			},
			{"node": "ReturnStatement"}
		]
	}`
	p, err := DecodeProgram([]byte(src))
	require.NoError(t, err)

	want := NewProgram(
		Let("a", Arith(Add, Const(1), Const(2.5))),
		If(NewField("a"), NewBlock(Return(NewField("event", "properties", 1))), nil),
		Return(nil),
	)
	assert.Equal(t, want, p)
}

func TestDecodeExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expression
	}{
		{
			name: "compare",
			src:  `{"node": "CompareOperation", "op": "not ilike", "left": {"node": "Constant", "value": "a"}, "right": {"node": "Constant", "value": null}}`,
			want: Cmp(NotILike, Const("a"), Null()),
		},
		{
			name: "and of calls",
			src:  `{"node": "And", "exprs": [{"node": "Call", "name": "f", "args": [{"node": "Constant", "value": true}]}, {"node": "Not", "expr": {"node": "Constant", "value": false}}]}`,
			want: NewAnd(NewCall("f", Const(true)), NewNot(Const(false))),
		},
		{
			name: "dict",
			src:  `{"node": "Dict", "items": [{"key": {"node": "Constant", "value": "k"}, "value": {"node": "Array", "exprs": []}}]}`,
			want: NewDict(Const("k"), NewArray()),
		},
		{
			name: "tuple access",
			src:  `{"node": "TupleAccess", "tuple": {"node": "Tuple", "exprs": [{"node": "Constant", "value": 1e3}]}, "index": 1}`,
			want: TupleIndex(NewTuple(Const(1000.0)), 1),
		},
		{
			name: "foreign with placeholder",
			src: `{"node": "Foreign", "kind": "SelectQuery", "fields": [
				{"name": "limit", "value": 10},
				{"name": "where", "value": {"node": "Placeholder", "expr": {"node": "Field", "chain": ["x"]}}},
				{"name": "columns", "value": [{"node": "Foreign", "kind": "Field", "fields": [{"name": "chain", "value": ["event"]}]}]}
			]}`,
			want: &Foreign{Kind: "SelectQuery", Fields: []ForeignField{
				{Name: "limit", Value: int64(10)},
				{Name: "where", Value: &Placeholder{Expr: NewField("x")}},
				{Name: "columns", Value: []any{&Foreign{Kind: "Field", Fields: []ForeignField{
					{Name: "chain", Value: []any{"event"}},
				}}}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeExpression([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"invalid json", `{"node": `, "invalid JSON"},
		{"missing tag", `{"value": 1}`, "missing node tag"},
		{"unknown tag", `{"node": "Lambda"}`, `unknown node "Lambda"`},
		{"bad operator", `{"node": "ArithmeticOperation", "op": "**", "left": {"node": "Constant", "value": 1}, "right": {"node": "Constant", "value": 1}}`, "unknown arithmetic operator"},
		{"statement as expression", `{"node": "Not", "expr": {"node": "ReturnStatement"}}`, "is not an expression"},
		{"empty chain", `{"node": "Field", "chain": []}`, "non-empty chain"},
		{"bad chain segment", `{"node": "Field", "chain": [1.5]}`, "segment must be"},
		{"function without block", `{"node": "Function", "name": "f", "body": {"node": "ReturnStatement"}}`, "expected a Block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := DecodeProgram([]byte(`{"node": "Constant", "value": 1}`))
	assert.ErrorContains(t, err, "expected Program")
}

func TestNumber(t *testing.T) {
	n, err := Number("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = Number("4.0")
	require.NoError(t, err)
	assert.Equal(t, 4.0, n)

	n, err = Number("99999999999999999999")
	require.NoError(t, err)
	assert.IsType(t, float64(0), n)
}
