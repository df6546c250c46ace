package vm

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/config"
)

// Bytecode is a flat token stream: the optional marker, then opcodes each
// followed by their operands. Tokens are Opcode, int64, float64 or string.
// Integer tokens of other Go types are accepted wherever an Opcode or int is
// expected, so bytecode built by hand or decoded elsewhere runs as well.
type Bytecode []any

// HasMarker reports whether b starts with the program marker.
func (b Bytecode) HasMarker() bool {
	if len(b) == 0 {
		return false
	}
	s, ok := b[0].(string)
	return ok && s == config.BytecodeMarker
}

// MarshalJSON writes the wire form: a JSON array of scalars.
func (b Bytecode) MarshalJSON() ([]byte, error) {
	out := make([]any, len(b))
	for i, tok := range b {
		switch v := tok.(type) {
		case Opcode:
			out[i] = int(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Errorf("bytecode token %d: non-finite float", i)
			}
			out[i] = json.Number(floatLiteral(v))
		default:
			out[i] = v
		}
	}
	return json.Marshal(out)
}

// floatLiteral keeps a decimal point on integral floats so they decode back
// as floats.
func floatLiteral(f float64) string {
	b, _ := json.Marshal(f)
	s := string(b)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}

// ParseBytecode decodes the JSON wire form and validates its structure.
func ParseBytecode(data []byte) (Bytecode, error) {
	if !gjson.ValidBytes(data) {
		return nil, newError(InvalidBytecode, "Invalid bytecode. Not a JSON document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, newError(InvalidBytecode, "Invalid bytecode. Expected a JSON array")
	}
	var (
		out Bytecode
		err error
	)
	root.ForEach(func(_, tok gjson.Result) bool {
		var v any
		v, err = wireToken(tok, len(out))
		out = append(out, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return NewBytecode(out)
}

// NewBytecode validates tokens decoded from any other encoding and
// normalizes them the way ParseBytecode does.
func NewBytecode(tokens []any) (Bytecode, error) {
	b := Bytecode(tokens)
	if err := Validate(b); err != nil {
		return nil, err
	}
	return normalize(b), nil
}

func wireToken(tok gjson.Result, pos int) (any, error) {
	switch tok.Type {
	case gjson.String:
		return tok.String(), nil
	case gjson.Number:
		n, err := ast.Number(tok.Raw)
		if err != nil {
			return nil, newError(InvalidBytecode, "Invalid bytecode. Token %d: %v", pos, err)
		}
		return n, nil
	}
	return nil, newError(InvalidBytecode, "Invalid bytecode. Token %d must be a number or a string", pos)
}

// Validate checks that every opcode is known, that it is followed by
// operands of the right kinds and that the marker appears only first.
func Validate(b Bytecode) error {
	ip := 0
	if b.HasMarker() {
		ip = 1
	}
	for ip < len(b) {
		op, ok := asOpcode(b[ip])
		if !ok || !op.Valid() {
			return newError(InvalidBytecode, "Invalid bytecode. Unknown opcode %v at %d", b[ip], ip)
		}
		ip++
		for _, kind := range op.Operands() {
			if ip >= len(b) {
				return newError(InvalidBytecode, "Invalid bytecode. %s at %d is truncated", op, ip-1)
			}
			if !operandMatches(kind, b[ip]) {
				return newError(InvalidBytecode, "Invalid bytecode. Bad operand %v for %s at %d", b[ip], op, ip)
			}
			ip++
		}
	}
	return nil
}

// normalize turns opcode positions into Opcode tokens, which makes decoded
// programs self-describing for the disassembler.
func normalize(b Bytecode) Bytecode {
	ip := 0
	if b.HasMarker() {
		ip = 1
	}
	for ip < len(b) {
		op, _ := asOpcode(b[ip])
		b[ip] = op
		ip++
		for _, kind := range op.Operands() {
			if kind == OperandFloat {
				f, _ := asFloat(b[ip])
				b[ip] = f
			}
			ip++
		}
	}
	return b
}

func operandMatches(kind OperandKind, tok any) bool {
	switch kind {
	case OperandInt:
		_, ok := asInt(tok)
		return ok
	case OperandFloat:
		_, ok := asFloat(tok)
		return ok
	case OperandString:
		_, ok := tok.(string)
		return ok
	}
	return false
}

func asOpcode(tok any) (Opcode, bool) {
	if op, ok := tok.(Opcode); ok {
		return op, true
	}
	n, ok := asInt(tok)
	return Opcode(n), ok
}

func asInt(tok any) (int64, bool) {
	switch v := tok.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case Opcode:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v), true
		}
	}
	return 0, false
}

func asFloat(tok any) (float64, bool) {
	switch v := tok.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
