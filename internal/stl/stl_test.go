package stl

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/hog/internal/object"
)

func call(t *testing.T, env *Env, name string, args ...object.Object) object.Object {
	t.Helper()
	b, ok := Default().Lookup(name)
	require.True(t, ok, "builtin %s", name)
	res, err := b.Call(env, args)
	require.NoError(t, err)
	return res
}

func str(s string) object.Object { return object.NewString(s) }
func num(i int64) object.Object  { return object.NewInteger(i) }

func TestBuiltins(t *testing.T) {
	d := object.NewDict()
	d.SetString("b", num(1))
	d.SetString("a", object.NewArray(num(2), object.NULL))

	tests := []struct {
		name string
		args []object.Object
		want string // Inspect form
	}{
		{"toString", []object.Object{object.NewFloat(2)}, "'2.0'"},
		{"toString", []object.Object{object.NULL}, "'null'"},
		{"toInt", []object.Object{str(" 42 ")}, "42"},
		{"toInt", []object.Object{str("4.9")}, "4"},
		{"toInt", []object.Object{str("nope")}, "null"},
		{"toFloat", []object.Object{num(3)}, "3.0"},
		{"toUUID", []object.Object{str("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")}, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{"lower", []object.Object{str("ÄBC")}, "'äbc'"},
		{"upper", []object.Object{str("straße")}, "'STRASSE'"},
		{"reverse", []object.Object{str("héllo")}, "'olléh'"},
		{"trim", []object.Object{str("  x  ")}, "'x'"},
		{"trimLeft", []object.Object{str("--x--"), str("-")}, "'x--'"},
		{"trimRight", []object.Object{str("--x--"), str("-")}, "'--x'"},
		{"concat", []object.Object{str("a"), object.NULL, num(1), object.TRUE}, "'a1true'"},
		{"match", []object.Object{str("test@example.com"), str("^[^@]+@example\\.com$")}, "true"},
		{"like", []object.Object{str("baa"), str("%a%")}, "true"},
		{"like", []object.Object{str("abc"), str("a_c")}, "true"},
		{"like", []object.Object{str("abc"), str("b")}, "false"},
		{"ilike", []object.Object{str("baa"), str("%A%")}, "true"},
		{"notLike", []object.Object{str("a"), str("b")}, "true"},
		{"notILike", []object.Object{str("A"), str("a")}, "false"},
		{"notLike", []object.Object{object.NULL, str("b")}, "false"},
		{"replaceOne", []object.Object{str("aaa"), str("a"), str("b")}, "'baa'"},
		{"replaceAll", []object.Object{str("aaa"), str("a"), str("b")}, "'bbb'"},
		{"splitByString", []object.Object{str(","), str("a,b,c")}, "['a', 'b', 'c']"},
		{"splitByString", []object.Object{str(","), str("a,b,c"), num(2)}, "['a', 'b']"},
		{"position", []object.Object{str("héllo"), str("llo")}, "3"},
		{"position", []object.Object{str("hello"), str("z")}, "0"},
		{"length", []object.Object{str("héllo")}, "5"},
		{"length", []object.Object{d}, "2"},
		{"empty", []object.Object{object.NewArray()}, "true"},
		{"notEmpty", []object.Object{str("x")}, "true"},
		{"keys", []object.Object{d}, "['b', 'a']"},
		{"keys", []object.Object{object.NewArray(str("x"), str("y"))}, "[0, 1]"},
		{"values", []object.Object{d}, "[1, [2, null]]"},
		{"has", []object.Object{object.NewArray(num(1), num(2)), num(2)}, "true"},
		{"has", []object.Object{d, str("z")}, "false"},
		{"indexOf", []object.Object{object.NewArray(str("a"), str("b")), str("b")}, "2"},
		{"arrayPushBack", []object.Object{object.NewArray(num(1)), num(2)}, "[1, 2]"},
		{"arrayPushFront", []object.Object{object.NewArray(num(1)), num(2)}, "[2, 1]"},
		{"arrayPopBack", []object.Object{object.NewArray(num(1), num(2))}, "[1]"},
		{"arrayPopFront", []object.Object{object.NewArray(num(1), num(2))}, "[2]"},
		{"arraySort", []object.Object{object.NewArray(num(3), object.NewFloat(1.5), num(2))}, "[1.5, 2, 3]"},
		{"arrayReverseSort", []object.Object{object.NewArray(str("a"), str("c"), str("b"))}, "['c', 'b', 'a']"},
		{"arrayReverse", []object.Object{object.NewArray(num(1), num(2))}, "[2, 1]"},
		{"arrayStringConcat", []object.Object{object.NewArray(str("a"), num(1)), str("-")}, "'a-1'"},
		{"tuple", []object.Object{num(1), str("x")}, "(1, 'x')"},
		{"typeof", []object.Object{d}, "'object'"},
		{"ifNull", []object.Object{object.NULL, num(1)}, "1"},
		{"round", []object.Object{object.NewFloat(2.5)}, "2"},
		{"floor", []object.Object{object.NewFloat(-1.5)}, "-2"},
		{"ceil", []object.Object{object.NewFloat(1.1)}, "2"},
		{"abs", []object.Object{num(-4)}, "4"},
		{"min2", []object.Object{num(3), object.NewFloat(2.5)}, "2.5"},
		{"max2", []object.Object{num(3), object.NewFloat(2.5)}, "3"},
		{"base64Encode", []object.Object{str("hog")}, "'aG9n'"},
		{"base64Decode", []object.Object{str("aG9n")}, "'hog'"},
		{"tryBase64Decode", []object.Object{str("!!")}, "''"},
		{"encodeURLComponent", []object.Object{str("a b&c")}, "'a%20b%26c'"},
		{"decodeURLComponent", []object.Object{str("a%20b%26c")}, "'a b&c'"},
		{"jsonParse", []object.Object{str(`{"z": 1, "a": [1.5, "x", null, true]}`)}, "{'z': 1, 'a': [1.5, 'x', null, true]}"},
		{"jsonStringify", []object.Object{d}, `'{"b":1,"a":[2,null]}'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, nil, tt.name, tt.args...).Inspect())
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		args []object.Object
		msg  string
	}{
		{"length", nil, "function length expects 1 argument, got 0"},
		{"trim", []object.Object{str("x"), str("ab")}, "single character"},
		{"lower", []object.Object{num(1)}, "argument 1 must be a string, got integer"},
		{"jsonParse", []object.Object{str("{")}, "invalid JSON"},
		{"base64Decode", []object.Object{str("***")}, "base64Decode"},
		{"arraySort", []object.Object{object.NewArray(num(1), str("a"))}, "arraySort"},
		{"match", []object.Object{str("a"), str("(")}, "invalid regular expression"},
		{"run", []object.Object{str("select 1")}, "no team context"},
		{"jsonStringify", []object.Object{&object.Callable{Name: "f"}}, "cannot encode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Default().Lookup(tt.name)
			require.True(t, ok)
			_, err := b.Call(nil, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPrintWritesToEnvStdout(t *testing.T) {
	var buf bytes.Buffer
	env := &Env{Stdout: &buf}
	res := call(t, env, "print", str("hello"), num(1), object.NewArray(str("a")))
	assert.True(t, object.IsNull(res))
	call(t, env, "print")
	assert.Equal(t, "hello 1 ['a']\n\n", buf.String())
}

func TestJSONStringifyIndent(t *testing.T) {
	d := object.NewDict()
	d.SetString("a", num(1))
	out, err := StringifyJSON(d, 2)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", out)

	out, err = StringifyJSON(object.NewString("<b>"), 0)
	require.NoError(t, err)
	assert.Equal(t, `"<b>"`, out)
}

func TestGenerateUUID(t *testing.T) {
	res := call(t, nil, "generateUUIDv4")
	id, err := uuid.Parse(res.(*object.String).Value)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
}

type fakeTeam struct {
	query    string
	args     []object.Object
	deadline time.Time
}

func (f *fakeTeam) ID() int64 { return 7 }

func (f *fakeTeam) Query(ctx context.Context, query string, args []object.Object) (object.Object, error) {
	f.query = query
	f.args = args
	f.deadline, _ = ctx.Deadline()
	return object.NewArray(num(1)), nil
}

func TestRunUsesTeam(t *testing.T) {
	team := &fakeTeam{}
	env := &Env{Team: team, Timeout: time.Second}
	res := call(t, env, "run", str("select ?"), num(5))
	assert.Equal(t, "[1]", res.Inspect())
	assert.Equal(t, "select ?", team.query)
	assert.Equal(t, "[5]", object.NewArray(team.args...).Inspect())
	assert.False(t, team.deadline.IsZero())
}

func TestRunKeepsInvocationDeadline(t *testing.T) {
	team := &fakeTeam{}
	deadline := time.Now().Add(50 * time.Millisecond)
	env := &Env{Team: team, Timeout: time.Hour, Deadline: deadline}
	call(t, env, "run", str("select 1"))
	assert.Equal(t, deadline, team.deadline)
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.True(t, r.Has("print"))
	assert.False(t, r.Has("fetch"))
	names := r.Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "jsonParse")

	assert.Panics(t, func() {
		New(fixed("x", 0, nil), fixed("x", 0, nil))
	})
}

func TestPatternCacheIsBounded(t *testing.T) {
	for i := 0; i < 4*patternCacheSize; i++ {
		ok, err := Match("x"+strconv.Itoa(i), "^x"+strconv.Itoa(i)+"$", false)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.LessOrEqual(t, patternCache.Len(), patternCacheSize)

	// evicted patterns compile again
	ok, err := Like("x0", "x_", false)
	require.NoError(t, err)
	assert.True(t, ok)
}
