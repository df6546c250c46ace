package vm

import (
	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/config"
)

var arithmeticOps = map[ast.ArithmeticOp]Opcode{
	ast.Add:  OP_PLUS,
	ast.Sub:  OP_MINUS,
	ast.Mult: OP_MULTIPLY,
	ast.Div:  OP_DIVIDE,
	ast.Mod:  OP_MOD,
}

var compareOps = map[ast.CompareOp]Opcode{
	ast.Eq:        OP_EQ,
	ast.NotEq:     OP_NOT_EQ,
	ast.Gt:        OP_GT,
	ast.GtEq:      OP_GT_EQ,
	ast.Lt:        OP_LT,
	ast.LtEq:      OP_LT_EQ,
	ast.Like:      OP_LIKE,
	ast.ILike:     OP_ILIKE,
	ast.NotLike:   OP_NOT_LIKE,
	ast.NotILike:  OP_NOT_ILIKE,
	ast.In:        OP_IN,
	ast.NotIn:     OP_NOT_IN,
	ast.Regex:     OP_REGEX,
	ast.NotRegex:  OP_NOT_REGEX,
	ast.IRegex:    OP_IREGEX,
	ast.NotIRegex: OP_NOT_IREGEX,
}

func (c *Compiler) compileExpression(expr ast.Expression) (Bytecode, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		return constant(e.Value)
	case *ast.Field:
		return c.compileField(e)
	case *ast.ArithmeticOperation:
		op, ok := arithmeticOps[e.Op]
		if !ok {
			return nil, newError(CompileError, "Unknown arithmetic operator %q", e.Op)
		}
		return c.compileBinary(e.Left, e.Right, op)
	case *ast.CompareOperation:
		if e.Op == ast.InCohort || e.Op == ast.NotInCohort {
			return nil, newError(CompileError, "Cohort operators are not supported")
		}
		op, ok := compareOps[e.Op]
		if !ok {
			return nil, newError(CompileError, "Unknown comparison operator %q", e.Op)
		}
		return c.compileBinary(e.Left, e.Right, op)
	case *ast.And:
		return c.compileLogical(e.Exprs, OP_AND)
	case *ast.Or:
		return c.compileLogical(e.Exprs, OP_OR)
	case *ast.Not:
		ops, err := c.compileExpression(e.Expr)
		if err != nil {
			return nil, err
		}
		return append(ops, OP_NOT), nil
	case *ast.Call:
		return c.compileCall(e)
	case *ast.Array:
		return c.compileSequence(e.Exprs, OP_ARRAY)
	case *ast.Tuple:
		return c.compileSequence(e.Exprs, OP_TUPLE)
	case *ast.Dict:
		var ops Bytecode
		for _, item := range e.Items {
			for _, part := range []ast.Expression{item.Key, item.Value} {
				code, err := c.compileExpression(part)
				if err != nil {
					return nil, err
				}
				ops = append(ops, code...)
			}
		}
		return append(ops, OP_DICT, int64(len(e.Items))), nil
	case *ast.ArrayAccess:
		ops, err := c.compileExpression(e.Array)
		if err != nil {
			return nil, err
		}
		prop, err := c.compileExpression(e.Property)
		if err != nil {
			return nil, err
		}
		ops = append(ops, prop...)
		return append(ops, OP_GET_PROPERTY), nil
	case *ast.TupleAccess:
		ops, err := c.compileExpression(e.Tuple)
		if err != nil {
			return nil, err
		}
		return append(ops, OP_INTEGER, e.Index, OP_GET_PROPERTY), nil
	case *ast.Foreign:
		return c.compileForeign(e)
	case *ast.Placeholder:
		return nil, newError(CompileError, "Placeholders are only allowed inside a foreign syntax tree")
	case nil:
		return nil, newError(CompileError, "Cannot compile an empty expression")
	}
	return nil, newError(CompileError, "Expression %T is not implemented", expr)
}

func constant(v any) (Bytecode, error) {
	switch val := v.(type) {
	case nil:
		return Bytecode{OP_NULL}, nil
	case bool:
		if val {
			return Bytecode{OP_TRUE}, nil
		}
		return Bytecode{OP_FALSE}, nil
	case int64:
		return Bytecode{OP_INTEGER, val}, nil
	case int:
		return Bytecode{OP_INTEGER, int64(val)}, nil
	case float64:
		return Bytecode{OP_FLOAT, val}, nil
	case string:
		return Bytecode{OP_STRING, val}, nil
	}
	return nil, newError(CompileError, "Unsupported constant type %T", v)
}

// compileBinary emits the right operand first, then the left one.
func (c *Compiler) compileBinary(left, right ast.Expression, op Opcode) (Bytecode, error) {
	ops, err := c.compileExpression(right)
	if err != nil {
		return nil, err
	}
	l, err := c.compileExpression(left)
	if err != nil {
		return nil, err
	}
	ops = append(ops, l...)
	return append(ops, op), nil
}

// compileLogical evaluates every operand (in reverse) before reducing them.
func (c *Compiler) compileLogical(exprs []ast.Expression, op Opcode) (Bytecode, error) {
	var ops Bytecode
	for i := len(exprs) - 1; i >= 0; i-- {
		code, err := c.compileExpression(exprs[i])
		if err != nil {
			return nil, err
		}
		ops = append(ops, code...)
	}
	return append(ops, op, int64(len(exprs))), nil
}

func (c *Compiler) compileSequence(exprs []ast.Expression, op Opcode) (Bytecode, error) {
	var ops Bytecode
	for _, e := range exprs {
		code, err := c.compileExpression(e)
		if err != nil {
			return nil, err
		}
		ops = append(ops, code...)
	}
	return append(ops, op, int64(len(exprs))), nil
}

// compileField reads a local when the chain starts with one, walking the
// rest with GET_PROPERTY. Anything else is a global lookup through FIELD.
func (c *Compiler) compileField(f *ast.Field) (Bytecode, error) {
	if len(f.Chain) == 0 {
		return nil, newError(CompileError, "Field chain is empty")
	}
	if name, ok := f.Chain[0].(string); ok {
		slot, err := c.resolveVariable(name)
		if err != nil {
			return nil, err
		}
		if slot != -1 {
			ops := Bytecode{OP_GET_LOCAL, int64(slot)}
			for _, seg := range f.Chain[1:] {
				ops = append(ops, chainSegment(seg)...)
				ops = append(ops, OP_GET_PROPERTY)
			}
			return ops, nil
		}
	}
	var ops Bytecode
	for i := len(f.Chain) - 1; i >= 0; i-- {
		ops = append(ops, chainSegment(f.Chain[i])...)
	}
	return append(ops, OP_FIELD, int64(len(f.Chain))), nil
}

func chainSegment(seg any) Bytecode {
	switch v := seg.(type) {
	case int64:
		return Bytecode{OP_INTEGER, v}
	case int:
		return Bytecode{OP_INTEGER, int64(v)}
	case string:
		return Bytecode{OP_STRING, v}
	}
	// the decoder only produces strings and integers
	panic("vm: unexpected field chain segment")
}

func (c *Compiler) compileCall(call *ast.Call) (Bytecode, error) {
	switch call.Name {
	case config.NotFuncName:
		if len(call.Args) != 1 {
			return nil, newError(CompileError, "Function `not` expects 1 argument, got %d", len(call.Args))
		}
		return c.compileExpression(&ast.Not{Expr: call.Args[0]})
	case config.AndFuncName:
		return c.compileLogical(call.Args, OP_AND)
	case config.OrFuncName:
		return c.compileLogical(call.Args, OP_OR)
	case config.IfFuncName:
		return c.compileIfCall(call.Args)
	case config.MultiIfFuncName:
		return c.compileMultiIf(call.Args)
	}

	if arity, ok := c.functions[call.Name]; ok && arity != len(call.Args) {
		return nil, newError(CompileError, "Function `%s` expects %d arguments, got %d", call.Name, arity, len(call.Args))
	}
	if !c.isCallable(call.Name) {
		return nil, newError(CompileError, "Unsupported function call: %s", call.Name)
	}
	var ops Bytecode
	for i := len(call.Args) - 1; i >= 0; i-- {
		code, err := c.compileExpression(call.Args[i])
		if err != nil {
			return nil, err
		}
		ops = append(ops, code...)
	}
	return append(ops, OP_CALL, call.Name, int64(len(call.Args))), nil
}

// compileIfCall lowers if(cond, then[, else]) to a conditional jump; only
// the chosen branch is evaluated.
func (c *Compiler) compileIfCall(args []ast.Expression) (Bytecode, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, newError(CompileError, "Function `if` expects 2 or 3 arguments, got %d", len(args))
	}
	cond, err := c.compileExpression(args[0])
	if err != nil {
		return nil, err
	}
	then, err := c.compileExpression(args[1])
	if err != nil {
		return nil, err
	}
	els := Bytecode{OP_NULL}
	if len(args) == 3 {
		if els, err = c.compileExpression(args[2]); err != nil {
			return nil, err
		}
	}
	return branch(cond, then, els, true), nil
}

// compileMultiIf lowers multiIf(c1, v1, c2, v2, ..., else) into a chain of
// conditional jumps built from the last pair outwards.
func (c *Compiler) compileMultiIf(args []ast.Expression) (Bytecode, error) {
	if len(args) < 3 || len(args)%2 == 0 {
		return nil, newError(CompileError, "Function `multiIf` expects an odd number of at least 3 arguments, got %d", len(args))
	}
	res, err := c.compileExpression(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	for i := len(args) - 3; i >= 0; i -= 2 {
		cond, err := c.compileExpression(args[i])
		if err != nil {
			return nil, err
		}
		then, err := c.compileExpression(args[i+1])
		if err != nil {
			return nil, err
		}
		res = branch(cond, then, res, true)
	}
	return res, nil
}

// compileForeign builds a dictionary tagged with the foreign node kind.
// Placeholders inside it are ordinary Hog expressions.
func (c *Compiler) compileForeign(f *ast.Foreign) (Bytecode, error) {
	ops := Bytecode{OP_STRING, config.ForeignTagKey, OP_STRING, f.Kind}
	for _, field := range f.Fields {
		value, err := c.compileForeignValue(field.Value)
		if err != nil {
			return nil, err
		}
		ops = append(ops, OP_STRING, field.Name)
		ops = append(ops, value...)
	}
	return append(ops, OP_DICT, int64(len(f.Fields)+1)), nil
}

func (c *Compiler) compileForeignValue(v any) (Bytecode, error) {
	switch val := v.(type) {
	case *ast.Foreign:
		return c.compileForeign(val)
	case *ast.Placeholder:
		return c.compileExpression(val.Expr)
	case []any:
		var ops Bytecode
		for _, item := range val {
			code, err := c.compileForeignValue(item)
			if err != nil {
				return nil, err
			}
			ops = append(ops, code...)
		}
		return append(ops, OP_ARRAY, int64(len(val))), nil
	}
	return constant(v)
}
