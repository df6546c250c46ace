package vm

import (
	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/config"
)

// Names of the hidden locals a for-in loop keeps on the stack.
const (
	forInSource = "__H_source_H__"
	forInKeys   = "__H_keys_H__"
	forInValues = "__H_values_H__"
	forInIndex  = "__H_index_H__"
)

func (c *Compiler) compileStatement(stmt ast.Statement) (Bytecode, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return c.compileBlock(s)
	case *ast.ExprStatement:
		if s.Expr == nil {
			return nil, nil
		}
		ops, err := c.compileExpression(s.Expr)
		if err != nil {
			return nil, err
		}
		return append(ops, OP_POP), nil
	case *ast.ReturnStatement:
		ops, err := c.compileOptional(s.Expr)
		if err != nil {
			return nil, err
		}
		return append(ops, OP_RETURN), nil
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.ForInStatement:
		return c.compileForIn(s)
	case *ast.VariableDeclaration:
		return c.compileDeclaration(s)
	case *ast.VariableAssignment:
		return c.compileAssignment(s)
	case *ast.Function:
		return c.compileFunction(s)
	case nil:
		return nil, newError(CompileError, "Cannot compile an empty statement")
	}
	return nil, newError(CompileError, "Statement %T is not implemented", stmt)
}

func (c *Compiler) compileBlock(b *ast.Block) (Bytecode, error) {
	c.beginScope()
	ops, err := c.compileStatements(b.Declarations)
	if err != nil {
		return nil, err
	}
	return append(ops, c.endScope()...), nil
}

// compileScoped compiles a branch or loop body in its own scope, so a bare
// declaration cannot leak into the enclosing one.
func (c *Compiler) compileScoped(stmt ast.Statement) (Bytecode, error) {
	if b, ok := stmt.(*ast.Block); ok {
		return c.compileBlock(b)
	}
	c.beginScope()
	ops, err := c.compileStatement(stmt)
	if err != nil {
		return nil, err
	}
	return append(ops, c.endScope()...), nil
}

func (c *Compiler) compileOptional(expr ast.Expression) (Bytecode, error) {
	if expr == nil {
		return Bytecode{OP_NULL}, nil
	}
	return c.compileExpression(expr)
}

// compileIf emits: cond JUMP_IF_FALSE then [JUMP else].
func (c *Compiler) compileIf(s *ast.IfStatement) (Bytecode, error) {
	cond, err := c.compileExpression(s.Expr)
	if err != nil {
		return nil, err
	}
	then, err := c.compileScoped(s.Then)
	if err != nil {
		return nil, err
	}
	var els Bytecode
	if s.Else != nil {
		if els, err = c.compileScoped(s.Else); err != nil {
			return nil, err
		}
	}
	return branch(cond, then, els, s.Else != nil), nil
}

func branch(cond, then, els Bytecode, hasElse bool) Bytecode {
	skip := len(then)
	if hasElse {
		skip += 2
	}
	ops := append(cond, OP_JUMP_IF_FALSE, int64(skip))
	ops = append(ops, then...)
	if hasElse {
		ops = append(ops, OP_JUMP, int64(len(els)))
		ops = append(ops, els...)
	}
	return ops
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) (Bytecode, error) {
	cond, err := c.compileExpression(s.Expr)
	if err != nil {
		return nil, err
	}
	body, err := c.compileScoped(s.Body)
	if err != nil {
		return nil, err
	}
	return loop(cond, body), nil
}

// loop emits: cond JUMP_IF_FALSE body JUMP back-to-cond.
func loop(cond, body Bytecode) Bytecode {
	ops := append(cond, OP_JUMP_IF_FALSE, int64(len(body)+2))
	ops = append(ops, body...)
	return append(ops, OP_JUMP, -int64(len(ops)+2))
}

// compileFor lowers for (init; cond; incr) body into a scoped while loop.
func (c *Compiler) compileFor(s *ast.ForStatement) (Bytecode, error) {
	c.beginScope()
	var ops Bytecode
	if s.Initializer != nil {
		init, err := c.compileStatement(s.Initializer)
		if err != nil {
			return nil, err
		}
		ops = append(ops, init...)
	}
	cond := Bytecode{OP_TRUE}
	if s.Condition != nil {
		var err error
		if cond, err = c.compileExpression(s.Condition); err != nil {
			return nil, err
		}
	}
	body, err := c.compileScoped(s.Body)
	if err != nil {
		return nil, err
	}
	if s.Increment != nil {
		incr, err := c.compileScoped(s.Increment)
		if err != nil {
			return nil, err
		}
		body = append(body, incr...)
	}
	ops = append(ops, loop(cond, body)...)
	return append(ops, c.endScope()...), nil
}

// compileForIn lowers for (k, v in expr) into an index loop over hidden
// locals holding keys(expr) and values(expr). Sequence indexes are 1-based.
func (c *Compiler) compileForIn(s *ast.ForInStatement) (Bytecode, error) {
	c.beginScope()
	source, err := c.compileExpression(s.Expr)
	if err != nil {
		return nil, err
	}
	var ops Bytecode
	if s.KeyVar != "" {
		ops = append(ops, source...)
		if err := c.declareLocal(forInSource); err != nil {
			return nil, err
		}
		src := int64(c.resolveLocal(forInSource))
		ops = append(ops, OP_GET_LOCAL, src, OP_CALL, config.KeysFuncName, int64(1))
		if err := c.declareLocal(forInKeys); err != nil {
			return nil, err
		}
		ops = append(ops, OP_GET_LOCAL, src, OP_CALL, config.ValuesFuncName, int64(1))
	} else {
		ops = append(ops, source...)
		ops = append(ops, OP_CALL, config.ValuesFuncName, int64(1))
	}
	if err := c.declareLocal(forInValues); err != nil {
		return nil, err
	}
	ops = append(ops, OP_INTEGER, int64(1))
	if err := c.declareLocal(forInIndex); err != nil {
		return nil, err
	}
	values := int64(c.resolveLocal(forInValues))
	index := int64(c.resolveLocal(forInIndex))

	// index <= length(values)
	cond := Bytecode{
		OP_GET_LOCAL, values, OP_CALL, config.LengthFuncName, int64(1),
		OP_GET_LOCAL, index,
		OP_LT_EQ,
	}

	c.beginScope()
	var body Bytecode
	if s.KeyVar != "" {
		keys := int64(c.resolveLocal(forInKeys))
		body = append(body, OP_GET_LOCAL, keys, OP_GET_LOCAL, index, OP_GET_PROPERTY)
		if err := c.declareLocal(s.KeyVar); err != nil {
			return nil, err
		}
	}
	body = append(body, OP_GET_LOCAL, values, OP_GET_LOCAL, index, OP_GET_PROPERTY)
	if err := c.declareLocal(s.ValueVar); err != nil {
		return nil, err
	}
	inner, err := c.compileScoped(s.Body)
	if err != nil {
		return nil, err
	}
	body = append(body, inner...)
	body = append(body, c.endScope()...)
	body = append(body,
		OP_INTEGER, int64(1), OP_GET_LOCAL, index, OP_PLUS,
		OP_SET_LOCAL, index,
	)

	ops = append(ops, loop(cond, body)...)
	return append(ops, c.endScope()...), nil
}

func (c *Compiler) compileDeclaration(s *ast.VariableDeclaration) (Bytecode, error) {
	// The initializer is compiled first so `let a := a` reads the outer a.
	ops, err := c.compileOptional(s.Expr)
	if err != nil {
		return nil, err
	}
	if err := c.declareLocal(s.Name); err != nil {
		return nil, err
	}
	return ops, nil
}

func (c *Compiler) compileAssignment(s *ast.VariableAssignment) (Bytecode, error) {
	value, err := c.compileExpression(s.Right)
	if err != nil {
		return nil, err
	}
	switch left := s.Left.(type) {
	case *ast.Field:
		return c.compileFieldAssignment(left, value)
	case *ast.ArrayAccess:
		container, err := c.compileExpression(left.Array)
		if err != nil {
			return nil, err
		}
		if !c.rootedInLocal(left.Array) {
			return nil, newError(CompileError, "Can only assign to properties of local variables")
		}
		property, err := c.compileExpression(left.Property)
		if err != nil {
			return nil, err
		}
		ops := append(container, property...)
		ops = append(ops, value...)
		return append(ops, OP_SET_PROPERTY), nil
	case *ast.TupleAccess:
		return nil, newError(CompileError, "Cannot assign to a tuple element, tuples are immutable")
	}
	return nil, newError(CompileError, "Cannot assign to %T", s.Left)
}

func (c *Compiler) compileFieldAssignment(left *ast.Field, value Bytecode) (Bytecode, error) {
	name, ok := left.Chain[0].(string)
	if !ok {
		return nil, newError(CompileError, "Cannot assign to a field starting with an index")
	}
	slot, err := c.resolveVariable(name)
	if err != nil {
		return nil, err
	}
	if slot == -1 {
		return nil, newError(CompileError, "Variable `%s` not declared in this scope, cannot assign to globals", name)
	}
	if len(left.Chain) == 1 {
		return append(value, OP_SET_LOCAL, int64(slot)), nil
	}
	ops := Bytecode{OP_GET_LOCAL, int64(slot)}
	for _, seg := range left.Chain[1 : len(left.Chain)-1] {
		ops = append(ops, chainSegment(seg)...)
		ops = append(ops, OP_GET_PROPERTY)
	}
	ops = append(ops, chainSegment(left.Chain[len(left.Chain)-1])...)
	ops = append(ops, value...)
	return append(ops, OP_SET_PROPERTY), nil
}

// rootedInLocal rejects writes through globals: FIELD yields a copy, so
// such a write could never be observed.
func (c *Compiler) rootedInLocal(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.ArrayAccess:
		return c.rootedInLocal(e.Array)
	case *ast.TupleAccess:
		return c.rootedInLocal(e.Tuple)
	case *ast.Field:
		name, ok := e.Chain[0].(string)
		return ok && c.resolveLocal(name) != -1
	}
	return true
}

// compileFunction emits DECLARE_FN name arity bodyLen followed by the body.
// The name is registered first so the body may call itself.
func (c *Compiler) compileFunction(s *ast.Function) (Bytecode, error) {
	if _, ok := c.functions[s.Name]; ok {
		return nil, newError(CompileError, "Function `%s` already declared", s.Name)
	}
	c.functions[s.Name] = len(s.Params)
	params := s.Params
	if params == nil {
		params = []string{}
	}
	body, err := c.child().compileBody(s.Body, params)
	if err != nil {
		return nil, err
	}
	ops := Bytecode{OP_DECLARE_FN, s.Name, int64(len(s.Params)), int64(len(body))}
	return append(ops, body...), nil
}
