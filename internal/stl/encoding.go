package stl

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/object"
)

func encodingBuiltins() []*Builtin {
	return []*Builtin{
		fixed("jsonParse", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return ParseJSON(s)
		}),
		ranged("jsonStringify", 1, 2, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			var indent int64
			if len(args) > 1 {
				n, err := intArg(name, args, 1)
				if err != nil {
					return nil, err
				}
				indent = n
			}
			out, err := StringifyJSON(args[0], int(indent))
			if err != nil {
				return nil, errors.Wrapf(err, "function %s", name)
			}
			return object.NewString(out), nil
		}),
		fixed("base64Encode", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return object.NewString(base64.StdEncoding.EncodeToString([]byte(s))), nil
		}),
		fixed("base64Decode", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := decodeBase64(s)
			if err != nil {
				return nil, errors.Wrapf(err, "function %s", name)
			}
			return object.NewString(string(b)), nil
		}),
		fixed("tryBase64Decode", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := decodeBase64(s)
			if err != nil {
				return object.NewString(""), nil
			}
			return object.NewString(string(b)), nil
		}),
		fixed("encodeURLComponent", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return object.NewString(strings.ReplaceAll(url.QueryEscape(s), "+", "%20")), nil
		}),
		fixed("decodeURLComponent", 1, func(_ *Env, name string, args []object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			out, err := url.PathUnescape(s)
			if err != nil {
				return nil, errors.Wrapf(err, "function %s", name)
			}
			return object.NewString(out), nil
		}),
	}
}

// decodeBase64 accepts padded and unpadded input.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// ParseJSON decodes a JSON document into Hog values, keeping object key order.
func ParseJSON(s string) (object.Object, error) {
	if !gjson.Valid(s) {
		return nil, errors.New("jsonParse: invalid JSON")
	}
	return fromJSON(gjson.Parse(s))
}

func fromJSON(r gjson.Result) (object.Object, error) {
	switch r.Type {
	case gjson.Null:
		return object.NULL, nil
	case gjson.True:
		return object.TRUE, nil
	case gjson.False:
		return object.FALSE, nil
	case gjson.String:
		return object.NewString(r.String()), nil
	case gjson.Number:
		n, err := ast.Number(r.Raw)
		if err != nil {
			return nil, err
		}
		return object.FromGo(n)
	}
	if r.IsArray() {
		var elems []object.Object
		var err error
		r.ForEach(func(_, v gjson.Result) bool {
			var o object.Object
			o, err = fromJSON(v)
			elems = append(elems, o)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return object.NewArray(elems...), nil
	}
	d := object.NewDict()
	var err error
	r.ForEach(func(k, v gjson.Result) bool {
		var o object.Object
		o, err = fromJSON(v)
		if err == nil {
			d.SetString(k.String(), o)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// StringifyJSON encodes o as JSON. Dictionary order is preserved; a positive
// indent pretty-prints with that many spaces.
func StringifyJSON(o object.Object, indent int) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, o); err != nil {
		return "", err
	}
	if indent <= 0 {
		return buf.String(), nil
	}
	out := pretty.PrettyOptions(buf.Bytes(), &pretty.Options{
		Width:  80,
		Prefix: "",
		Indent: strings.Repeat(" ", indent),
	})
	return strings.TrimRight(string(out), "\n"), nil
}

func writeJSON(buf *bytes.Buffer, o object.Object) error {
	switch v := o.(type) {
	case nil, *object.Null:
		buf.WriteString("null")
	case *object.Boolean:
		buf.WriteString(strconv.FormatBool(v.Value))
	case *object.Integer:
		buf.WriteString(strconv.FormatInt(v.Value, 10))
	case *object.Float:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(v.Inspect())
		}
	case *object.String:
		writeJSONString(buf, v.Value)
	case *object.Array:
		return writeJSONList(buf, v.Elements)
	case *object.Tuple:
		return writeJSONList(buf, v.Elements)
	case *object.Dict:
		buf.WriteByte('{')
		first := true
		var err error
		v.Each(func(k, val object.Object) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, object.Print(k))
			buf.WriteByte(':')
			err = writeJSON(buf, val)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	case *object.Callable:
		return errors.Errorf("cannot encode %s as JSON", v.Inspect())
	}
	return nil
}

func writeJSONList(buf *bytes.Buffer, elems []object.Object) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode only fails for unsupported types.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // trailing newline
}
