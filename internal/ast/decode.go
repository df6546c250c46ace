package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Decode reads a JSON-encoded syntax tree as produced by the external parser.
// Every node is an object carrying a "node" tag, e.g.
//
//	{"node": "CompareOperation", "op": "==", "left": {...}, "right": {...}}
func Decode(data []byte) (Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("ast: invalid JSON document")
	}
	d := &decoder{}
	return d.node(gjson.ParseBytes(data), "$")
}

// DecodeProgram decodes a document whose root must be a Program.
func DecodeProgram(data []byte) (*Program, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	p, ok := n.(*Program)
	if !ok {
		return nil, fmt.Errorf("ast: root node is %T, expected Program", n)
	}
	return p, nil
}

// DecodeExpression decodes a document whose root must be an expression.
func DecodeExpression(data []byte) (Expression, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	e, ok := n.(Expression)
	if !ok {
		return nil, fmt.Errorf("ast: root node is %T, expected an expression", n)
	}
	return e, nil
}

type decoder struct{}

func (d *decoder) node(r gjson.Result, path string) (Node, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("ast: %s: expected a node object", path)
	}
	tag := r.Get("node").String()
	switch tag {
	case "Program":
		stmts, err := d.statements(r.Get("declarations"), path+".declarations")
		if err != nil {
			return nil, err
		}
		return &Program{Declarations: stmts}, nil
	case "Block":
		return d.block(r, path)
	case "ExprStatement":
		e, err := d.optExpr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		return &ExprStatement{Expr: e}, nil
	case "ReturnStatement":
		e, err := d.optExpr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		return &ReturnStatement{Expr: e}, nil
	case "IfStatement":
		cond, err := d.expr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		then, err := d.statement(r.Get("then"), path+".then")
		if err != nil {
			return nil, err
		}
		els, err := d.optStatement(r.Get("else"), path+".else")
		if err != nil {
			return nil, err
		}
		return &IfStatement{Expr: cond, Then: then, Else: els}, nil
	case "WhileStatement":
		cond, err := d.expr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		body, err := d.statement(r.Get("body"), path+".body")
		if err != nil {
			return nil, err
		}
		return &WhileStatement{Expr: cond, Body: body}, nil
	case "ForStatement":
		init, err := d.optStatement(r.Get("initializer"), path+".initializer")
		if err != nil {
			return nil, err
		}
		cond, err := d.optExpr(r.Get("condition"), path+".condition")
		if err != nil {
			return nil, err
		}
		incr, err := d.optStatement(r.Get("increment"), path+".increment")
		if err != nil {
			return nil, err
		}
		body, err := d.statement(r.Get("body"), path+".body")
		if err != nil {
			return nil, err
		}
		return &ForStatement{Initializer: init, Condition: cond, Increment: incr, Body: body}, nil
	case "ForInStatement":
		valueVar := r.Get("valueVar").String()
		if valueVar == "" {
			return nil, fmt.Errorf("ast: %s: ForInStatement needs a valueVar", path)
		}
		expr, err := d.expr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		body, err := d.statement(r.Get("body"), path+".body")
		if err != nil {
			return nil, err
		}
		return &ForInStatement{KeyVar: r.Get("keyVar").String(), ValueVar: valueVar, Expr: expr, Body: body}, nil
	case "VariableDeclaration":
		name := r.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("ast: %s: VariableDeclaration needs a name", path)
		}
		e, err := d.optExpr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		return &VariableDeclaration{Name: name, Expr: e}, nil
	case "VariableAssignment":
		left, err := d.expr(r.Get("left"), path+".left")
		if err != nil {
			return nil, err
		}
		right, err := d.expr(r.Get("right"), path+".right")
		if err != nil {
			return nil, err
		}
		return &VariableAssignment{Left: left, Right: right}, nil
	case "Function":
		name := r.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("ast: %s: Function needs a name", path)
		}
		var params []string
		for _, p := range r.Get("params").Array() {
			params = append(params, p.String())
		}
		body, err := d.block(r.Get("body"), path+".body")
		if err != nil {
			return nil, err
		}
		return &Function{Name: name, Params: params, Body: body}, nil
	case "Constant":
		v, err := d.scalar(r.Get("value"), path+".value")
		if err != nil {
			return nil, err
		}
		return &Constant{Value: v}, nil
	case "Field":
		chain := r.Get("chain")
		if !chain.IsArray() || len(chain.Array()) == 0 {
			return nil, fmt.Errorf("ast: %s: Field needs a non-empty chain", path)
		}
		var segments []any
		for i, seg := range chain.Array() {
			v, err := d.scalar(seg, fmt.Sprintf("%s.chain[%d]", path, i))
			if err != nil {
				return nil, err
			}
			switch v.(type) {
			case string, int64:
			default:
				return nil, fmt.Errorf("ast: %s.chain[%d]: segment must be a string or integer", path, i)
			}
			segments = append(segments, v)
		}
		return &Field{Chain: segments}, nil
	case "ArithmeticOperation":
		left, right, err := d.operands(r, path)
		if err != nil {
			return nil, err
		}
		op := ArithmeticOp(r.Get("op").String())
		switch op {
		case Add, Sub, Mult, Div, Mod:
		default:
			return nil, fmt.Errorf("ast: %s: unknown arithmetic operator %q", path, op)
		}
		return &ArithmeticOperation{Op: op, Left: left, Right: right}, nil
	case "CompareOperation":
		left, right, err := d.operands(r, path)
		if err != nil {
			return nil, err
		}
		op := CompareOp(r.Get("op").String())
		if !validCompareOp(op) {
			return nil, fmt.Errorf("ast: %s: unknown comparison operator %q", path, op)
		}
		return &CompareOperation{Op: op, Left: left, Right: right}, nil
	case "And":
		exprs, err := d.exprs(r.Get("exprs"), path+".exprs")
		if err != nil {
			return nil, err
		}
		return &And{Exprs: exprs}, nil
	case "Or":
		exprs, err := d.exprs(r.Get("exprs"), path+".exprs")
		if err != nil {
			return nil, err
		}
		return &Or{Exprs: exprs}, nil
	case "Not":
		e, err := d.expr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		return &Not{Expr: e}, nil
	case "Call":
		name := r.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("ast: %s: Call needs a name", path)
		}
		args, err := d.exprs(r.Get("args"), path+".args")
		if err != nil {
			return nil, err
		}
		return &Call{Name: name, Args: args}, nil
	case "Array":
		exprs, err := d.exprs(r.Get("exprs"), path+".exprs")
		if err != nil {
			return nil, err
		}
		return &Array{Exprs: exprs}, nil
	case "Tuple":
		exprs, err := d.exprs(r.Get("exprs"), path+".exprs")
		if err != nil {
			return nil, err
		}
		return &Tuple{Exprs: exprs}, nil
	case "Dict":
		var items []DictItem
		for i, item := range r.Get("items").Array() {
			p := fmt.Sprintf("%s.items[%d]", path, i)
			k, err := d.expr(item.Get("key"), p+".key")
			if err != nil {
				return nil, err
			}
			v, err := d.expr(item.Get("value"), p+".value")
			if err != nil {
				return nil, err
			}
			items = append(items, DictItem{Key: k, Value: v})
		}
		return &Dict{Items: items}, nil
	case "ArrayAccess":
		arr, err := d.expr(r.Get("array"), path+".array")
		if err != nil {
			return nil, err
		}
		prop, err := d.expr(r.Get("property"), path+".property")
		if err != nil {
			return nil, err
		}
		return &ArrayAccess{Array: arr, Property: prop}, nil
	case "TupleAccess":
		tup, err := d.expr(r.Get("tuple"), path+".tuple")
		if err != nil {
			return nil, err
		}
		idx := r.Get("index")
		if idx.Type != gjson.Number {
			return nil, fmt.Errorf("ast: %s: TupleAccess needs an integer index", path)
		}
		return &TupleAccess{Tuple: tup, Index: idx.Int()}, nil
	case "Foreign":
		return d.foreign(r, path)
	case "Placeholder":
		e, err := d.expr(r.Get("expr"), path+".expr")
		if err != nil {
			return nil, err
		}
		return &Placeholder{Expr: e}, nil
	case "":
		return nil, fmt.Errorf("ast: %s: missing node tag", path)
	}
	return nil, fmt.Errorf("ast: %s: unknown node %q", path, tag)
}

func validCompareOp(op CompareOp) bool {
	switch op {
	case Eq, NotEq, Gt, GtEq, Lt, LtEq, Like, ILike, NotLike, NotILike, In, NotIn,
		InCohort, NotInCohort, Regex, IRegex, NotRegex, NotIRegex:
		return true
	}
	return false
}

func (d *decoder) block(r gjson.Result, path string) (*Block, error) {
	if r.Get("node").String() != "Block" {
		return nil, fmt.Errorf("ast: %s: expected a Block", path)
	}
	stmts, err := d.statements(r.Get("declarations"), path+".declarations")
	if err != nil {
		return nil, err
	}
	return &Block{Declarations: stmts}, nil
}

func (d *decoder) statements(r gjson.Result, path string) ([]Statement, error) {
	var out []Statement
	for i, item := range r.Array() {
		s, err := d.statement(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) statement(r gjson.Result, path string) (Statement, error) {
	n, err := d.node(r, path)
	if err != nil {
		return nil, err
	}
	s, ok := n.(Statement)
	if !ok {
		return nil, fmt.Errorf("ast: %s: %T is not a statement", path, n)
	}
	return s, nil
}

func (d *decoder) optStatement(r gjson.Result, path string) (Statement, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	return d.statement(r, path)
}

func (d *decoder) expr(r gjson.Result, path string) (Expression, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, fmt.Errorf("ast: %s: missing expression", path)
	}
	n, err := d.node(r, path)
	if err != nil {
		return nil, err
	}
	e, ok := n.(Expression)
	if !ok {
		return nil, fmt.Errorf("ast: %s: %T is not an expression", path, n)
	}
	return e, nil
}

func (d *decoder) optExpr(r gjson.Result, path string) (Expression, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	return d.expr(r, path)
}

func (d *decoder) exprs(r gjson.Result, path string) ([]Expression, error) {
	var out []Expression
	for i, item := range r.Array() {
		e, err := d.expr(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) operands(r gjson.Result, path string) (Expression, Expression, error) {
	left, err := d.expr(r.Get("left"), path+".left")
	if err != nil {
		return nil, nil, err
	}
	right, err := d.expr(r.Get("right"), path+".right")
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// scalar decodes a JSON literal, keeping integers and floats apart.
func (d *decoder) scalar(r gjson.Result, path string) (any, error) {
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		return r.String(), nil
	case gjson.Number:
		return Number(r.Raw)
	}
	return nil, fmt.Errorf("ast: %s: expected a literal value", path)
}

// Number parses a raw JSON number, returning int64 for integral literals
// and float64 otherwise.
func Number(raw string) (any, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("ast: invalid number %q", raw)
	}
	return f, nil
}

func (d *decoder) foreign(r gjson.Result, path string) (*Foreign, error) {
	kind := r.Get("kind").String()
	if kind == "" {
		return nil, fmt.Errorf("ast: %s: Foreign needs a kind", path)
	}
	f := &Foreign{Kind: kind}
	for i, field := range r.Get("fields").Array() {
		p := fmt.Sprintf("%s.fields[%d]", path, i)
		name := field.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("ast: %s: foreign field needs a name", p)
		}
		v, err := d.foreignValue(field.Get("value"), p+".value")
		if err != nil {
			return nil, err
		}
		f.Fields = append(f.Fields, ForeignField{Name: name, Value: v})
	}
	return f, nil
}

func (d *decoder) foreignValue(r gjson.Result, path string) (any, error) {
	switch {
	case !r.Exists():
		return nil, nil
	case r.IsArray():
		var out []any
		for i, item := range r.Array() {
			v, err := d.foreignValue(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case r.IsObject():
		switch r.Get("node").String() {
		case "Foreign":
			return d.foreign(r, path)
		case "Placeholder":
			e, err := d.expr(r.Get("expr"), path+".expr")
			if err != nil {
				return nil, err
			}
			return &Placeholder{Expr: e}, nil
		}
		return nil, fmt.Errorf("ast: %s: foreign values may only nest Foreign or Placeholder nodes", path)
	}
	return d.scalar(r, path)
}
