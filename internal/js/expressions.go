package js

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/config"
)

var arithmeticOps = map[ast.ArithmeticOp]string{
	ast.Add:  "+",
	ast.Sub:  "-",
	ast.Mult: "*",
	ast.Div:  "/",
	ast.Mod:  "%",
}

var orderOps = map[ast.CompareOp]string{
	ast.Gt:   ">",
	ast.GtEq: ">=",
	ast.Lt:   "<",
	ast.LtEq: "<=",
}

// patternOps maps pattern operators to the helpers implementing them. All
// of them return false when either operand is null.
var patternOps = map[ast.CompareOp]string{
	ast.Like:      "like",
	ast.ILike:     "ilike",
	ast.NotLike:   "notLike",
	ast.NotILike:  "notILike",
	ast.Regex:     "match",
	ast.NotRegex:  "__notMatch",
	ast.IRegex:    "__imatch",
	ast.NotIRegex: "__notIMatch",
}

func (c *Compiler) expression(expr ast.Expression) (string, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		return constant(e.Value)
	case *ast.Field:
		return c.field(e)
	case *ast.ArithmeticOperation:
		op, ok := arithmeticOps[e.Op]
		if !ok {
			return "", errors.Errorf("Unknown arithmetic operator %q", e.Op)
		}
		return c.binary(e.Left, e.Right, func(l, r string) string {
			return "(" + l + " " + op + " " + r + ")"
		})
	case *ast.CompareOperation:
		return c.comparison(e)
	case *ast.And:
		return c.logical(e.Exprs, " && ")
	case *ast.Or:
		return c.logical(e.Exprs, " || ")
	case *ast.Not:
		code, err := c.condition(e.Expr)
		if err != nil {
			return "", err
		}
		return "(!" + code + ")", nil
	case *ast.Call:
		return c.call(e)
	case *ast.Array:
		items, err := c.list(e.Exprs)
		if err != nil {
			return "", err
		}
		return "[" + items + "]", nil
	case *ast.Tuple:
		items, err := c.list(e.Exprs)
		if err != nil {
			return "", err
		}
		c.use(config.TupleFuncName)
		return "tuple(" + items + ")", nil
	case *ast.Dict:
		return c.dict(e)
	case *ast.ArrayAccess:
		container, err := c.expression(e.Array)
		if err != nil {
			return "", err
		}
		key, err := c.expression(e.Property)
		if err != nil {
			return "", err
		}
		return c.property(container, key), nil
	case *ast.TupleAccess:
		container, err := c.expression(e.Tuple)
		if err != nil {
			return "", err
		}
		return c.property(container, strconv.FormatInt(e.Index, 10)), nil
	case *ast.Foreign:
		return c.withMode(modeAST, func() (string, error) { return c.foreign(e) })
	case *ast.Placeholder:
		if c.mode != modeAST {
			return "", errors.New("Placeholders are only allowed inside a foreign syntax tree")
		}
		return c.withMode(modeHog, func() (string, error) { return c.expression(e.Expr) })
	case nil:
		return "", errors.New("Cannot compile an empty expression")
	}
	return "", errors.Errorf("Expression %T is not implemented", expr)
}

func constant(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return jsNumber(val), nil
	case string:
		return jsString(val), nil
	}
	return "", errors.Errorf("Unsupported constant type %T", v)
}

func (c *Compiler) binary(left, right ast.Expression, render func(l, r string) string) (string, error) {
	l, err := c.expression(left)
	if err != nil {
		return "", err
	}
	r, err := c.expression(right)
	if err != nil {
		return "", err
	}
	return render(l, r), nil
}

func (c *Compiler) comparison(e *ast.CompareOperation) (string, error) {
	switch e.Op {
	case ast.InCohort, ast.NotInCohort:
		return "", errors.New("Cohort operators are not supported")
	case ast.Eq, ast.NotEq:
		_, lConst := e.Left.(*ast.Constant)
		_, rConst := e.Right.(*ast.Constant)
		return c.binary(e.Left, e.Right, func(l, r string) string {
			if lConst || rConst {
				op := " === "
				if e.Op == ast.NotEq {
					op = " !== "
				}
				return "(" + l + op + r + ")"
			}
			c.use("__equal")
			if e.Op == ast.NotEq {
				return "(!__equal(" + l + ", " + r + "))"
			}
			return "__equal(" + l + ", " + r + ")"
		})
	case ast.In, ast.NotIn:
		c.use("__in")
		return c.binary(e.Left, e.Right, func(l, r string) string {
			if e.Op == ast.NotIn {
				return "(!__in(" + l + ", " + r + "))"
			}
			return "__in(" + l + ", " + r + ")"
		})
	}
	if op, ok := orderOps[e.Op]; ok {
		return c.binary(e.Left, e.Right, func(l, r string) string {
			return "(" + l + " " + op + " " + r + ")"
		})
	}
	if helper, ok := patternOps[e.Op]; ok {
		c.use(helper)
		return c.binary(e.Left, e.Right, func(l, r string) string {
			return helper + "(" + l + ", " + r + ")"
		})
	}
	return "", errors.Errorf("Unknown comparison operator %q", e.Op)
}

// logical forces a boolean result the way the AND and OR opcodes do.
func (c *Compiler) logical(exprs []ast.Expression, op string) (string, error) {
	if len(exprs) == 0 {
		return strconv.FormatBool(op == " && "), nil
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		code, err := c.condition(e)
		if err != nil {
			return "", err
		}
		parts[i] = code
	}
	return "!!(" + strings.Join(parts, op) + ")", nil
}

// condition renders expr for a boolean context. Hog treats empty arrays and
// dictionaries as false, so anything that may not be a boolean goes
// through __truthy.
func (c *Compiler) condition(expr ast.Expression) (string, error) {
	code, err := c.expression(expr)
	if err != nil {
		return "", err
	}
	if isBoolean(expr) {
		return code, nil
	}
	c.use("__truthy")
	return "__truthy(" + code + ")", nil
}

func isBoolean(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.CompareOperation, *ast.And, *ast.Or, *ast.Not:
		return true
	case *ast.Constant:
		_, ok := e.Value.(bool)
		return ok
	case *ast.Call:
		switch e.Name {
		case config.NotFuncName, config.AndFuncName, config.OrFuncName:
			return true
		}
	}
	return false
}

func (c *Compiler) list(exprs []ast.Expression) (string, error) {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		code, err := c.expression(e)
		if err != nil {
			return "", err
		}
		parts[i] = code
	}
	return strings.Join(parts, ", "), nil
}

func (c *Compiler) dict(d *ast.Dict) (string, error) {
	if len(d.Items) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(d.Items))
	for i, item := range d.Items {
		value, err := c.expression(item.Value)
		if err != nil {
			return "", err
		}
		var key string
		if k, ok := item.Key.(*ast.Constant); ok {
			if s, ok := k.Value.(string); ok {
				key = jsString(s)
			}
		}
		if key == "" {
			code, err := c.expression(item.Key)
			if err != nil {
				return "", err
			}
			key = "[" + code + "]"
		}
		parts[i] = key + ": " + value
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func (c *Compiler) property(container, key string) string {
	c.use("__getProperty")
	return "__getProperty(" + container + ", " + key + ")"
}

func segment(seg any) string {
	switch v := seg.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case string:
		return jsString(v)
	}
	// the decoder only produces strings and integers
	panic("js: unexpected field chain segment")
}

// field reads a local directly and anything else through __getGlobal. Global
// chains are lenient like FIELD: a missing step yields null.
func (c *Compiler) field(f *ast.Field) (string, error) {
	if len(f.Chain) == 0 {
		return "", errors.New("Field chain is empty")
	}
	if name, ok := f.Chain[0].(string); ok {
		local, err := c.resolveVariable(name)
		if err != nil {
			return "", err
		}
		if local {
			code := c.localName(name)
			for _, seg := range f.Chain[1:] {
				code = c.property(code, segment(seg))
			}
			return code, nil
		}
	}
	c.use("__getGlobal")
	code := "__getGlobal(" + segment(f.Chain[0]) + ")"
	if len(f.Chain) > 1 {
		c.use("__getField")
	}
	for _, seg := range f.Chain[1:] {
		code = "__getField(" + code + ", " + segment(seg) + ")"
	}
	return code, nil
}

func (c *Compiler) call(call *ast.Call) (string, error) {
	switch call.Name {
	case config.NotFuncName:
		if len(call.Args) != 1 {
			return "", errors.Errorf("Function `not` expects 1 argument, got %d", len(call.Args))
		}
		return c.expression(&ast.Not{Expr: call.Args[0]})
	case config.AndFuncName:
		return c.logical(call.Args, " && ")
	case config.OrFuncName:
		return c.logical(call.Args, " || ")
	case config.IfFuncName:
		if len(call.Args) < 2 || len(call.Args) > 3 {
			return "", errors.Errorf("Function `if` expects 2 or 3 arguments, got %d", len(call.Args))
		}
		args := call.Args
		if len(args) == 2 {
			args = append(args[:2:2], ast.Null())
		}
		return c.ternary(args)
	case config.MultiIfFuncName:
		if len(call.Args) < 3 || len(call.Args)%2 == 0 {
			return "", errors.Errorf("Function `multiIf` expects an odd number of at least 3 arguments, got %d", len(call.Args))
		}
		return c.ternary(call.Args)
	}

	if arity, ok := c.functions[call.Name]; ok && arity != len(call.Args) {
		return "", errors.Errorf("Function `%s` expects %d arguments, got %d", call.Name, arity, len(call.Args))
	}
	args, err := c.list(call.Args)
	if err != nil {
		return "", err
	}
	switch {
	case c.isDeclared(call.Name):
	case c.stl.Has(call.Name) && !strings.HasPrefix(call.Name, "__"):
		c.use(call.Name)
	case c.supported[call.Name]:
	default:
		return "", errors.Errorf("Unsupported function call: %s", call.Name)
	}
	return sanitize(call.Name) + "(" + args + ")", nil
}

func (c *Compiler) isDeclared(name string) bool {
	_, ok := c.functions[name]
	return ok
}

// ternary renders cond1, value1, ..., else as nested conditionals. Only the
// chosen branch is evaluated, like the bytecode lowering.
func (c *Compiler) ternary(args []ast.Expression) (string, error) {
	code, err := c.expression(args[len(args)-1])
	if err != nil {
		return "", err
	}
	for i := len(args) - 3; i >= 0; i -= 2 {
		cond, err := c.condition(args[i])
		if err != nil {
			return "", err
		}
		then, err := c.expression(args[i+1])
		if err != nil {
			return "", err
		}
		code = "(" + cond + " ? " + then + " : " + code + ")"
	}
	return code, nil
}

// foreign serializes an embedded query node as a tagged object literal.
func (c *Compiler) foreign(f *ast.Foreign) (string, error) {
	parts := []string{jsString(config.ForeignTagKey) + ": " + jsString(f.Kind)}
	for _, field := range f.Fields {
		value, err := c.foreignValue(field.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, jsString(field.Name)+": "+value)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func (c *Compiler) foreignValue(v any) (string, error) {
	switch val := v.(type) {
	case *ast.Foreign:
		return c.foreign(val)
	case *ast.Placeholder:
		return c.expression(val)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			code, err := c.foreignValue(item)
			if err != nil {
				return "", err
			}
			items[i] = code
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	}
	return constant(v)
}
