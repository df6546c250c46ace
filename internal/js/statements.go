package js

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/ast"
)

func (c *Compiler) statements(stmts []ast.Statement) (string, error) {
	lines := make([]string, 0, len(stmts))
	for _, s := range stmts {
		code, err := c.statement(s)
		if err != nil {
			return "", err
		}
		if code != "" {
			lines = append(lines, code)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Compiler) statement(stmt ast.Statement) (string, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return c.block(s)
	case *ast.ExprStatement:
		if s.Expr == nil {
			return "", nil
		}
		code, err := c.expression(s.Expr)
		if err != nil {
			return "", err
		}
		return code + ";", nil
	case *ast.ReturnStatement:
		if s.Expr == nil {
			return "return null;", nil
		}
		code, err := c.expression(s.Expr)
		if err != nil {
			return "", err
		}
		return "return " + code + ";", nil
	case *ast.IfStatement:
		return c.ifStatement(s)
	case *ast.WhileStatement:
		cond, err := c.condition(s.Expr)
		if err != nil {
			return "", err
		}
		body, err := c.scoped(s.Body)
		if err != nil {
			return "", err
		}
		return "while (" + cond + ") " + body, nil
	case *ast.ForStatement:
		return c.forStatement(s)
	case *ast.ForInStatement:
		return c.forInStatement(s)
	case *ast.VariableDeclaration:
		value := "null"
		if s.Expr != nil {
			var err error
			if value, err = c.expression(s.Expr); err != nil {
				return "", err
			}
		}
		name, err := c.declareLocal(s.Name)
		if err != nil {
			return "", err
		}
		return "let " + name + " = " + value + ";", nil
	case *ast.VariableAssignment:
		return c.assignment(s)
	case *ast.Function:
		return c.function(s)
	case nil:
		return "", errors.New("Cannot compile an empty statement")
	}
	return "", errors.Errorf("Statement %T is not implemented", stmt)
}

func (c *Compiler) block(b *ast.Block) (string, error) {
	c.beginScope()
	defer c.endScope()
	body, err := c.statements(b.Declarations)
	if err != nil {
		return "", err
	}
	return block(body), nil
}

// scoped renders a branch or loop body as a braced block.
func (c *Compiler) scoped(stmt ast.Statement) (string, error) {
	if b, ok := stmt.(*ast.Block); ok {
		return c.block(b)
	}
	c.beginScope()
	defer c.endScope()
	body, err := c.statement(stmt)
	if err != nil {
		return "", err
	}
	return block(body), nil
}

func (c *Compiler) ifStatement(s *ast.IfStatement) (string, error) {
	cond, err := c.condition(s.Expr)
	if err != nil {
		return "", err
	}
	then, err := c.scoped(s.Then)
	if err != nil {
		return "", err
	}
	code := "if (" + cond + ") " + then
	if s.Else == nil {
		return code, nil
	}
	els, err := c.scoped(s.Else)
	if err != nil {
		return "", err
	}
	return code + " else " + els, nil
}

func (c *Compiler) forStatement(s *ast.ForStatement) (string, error) {
	c.beginScope()
	defer c.endScope()

	var init, cond, incr string
	var err error
	if s.Initializer != nil {
		if init, err = c.statement(s.Initializer); err != nil {
			return "", err
		}
	}
	if s.Condition != nil {
		if cond, err = c.condition(s.Condition); err != nil {
			return "", err
		}
	}
	if s.Increment != nil {
		if incr, err = c.statement(s.Increment); err != nil {
			return "", err
		}
	}
	body, err := c.scoped(s.Body)
	if err != nil {
		return "", err
	}
	header := strings.TrimSuffix(init, ";") + "; " + cond + "; " + strings.TrimSuffix(incr, ";")
	return "for (" + header + ") " + body, nil
}

// forInStatement iterates values(expr), or key/value pairs built from
// keys(expr) and values(expr) when a key variable is given.
func (c *Compiler) forInStatement(s *ast.ForInStatement) (string, error) {
	source, err := c.expression(s.Expr)
	if err != nil {
		return "", err
	}
	c.beginScope()
	defer c.endScope()

	var binding, iter string
	if s.KeyVar != "" {
		key, err := c.declareLocal(s.KeyVar)
		if err != nil {
			return "", err
		}
		value, err := c.declareLocal(s.ValueVar)
		if err != nil {
			return "", err
		}
		c.use("__entries")
		binding = "[" + key + ", " + value + "]"
		iter = "__entries(" + source + ")"
	} else {
		value, err := c.declareLocal(s.ValueVar)
		if err != nil {
			return "", err
		}
		c.use("values")
		binding = value
		iter = "values(" + source + ")"
	}
	body, err := c.scoped(s.Body)
	if err != nil {
		return "", err
	}
	return "for (let " + binding + " of " + iter + ") " + body, nil
}

func (c *Compiler) assignment(s *ast.VariableAssignment) (string, error) {
	value, err := c.expression(s.Right)
	if err != nil {
		return "", err
	}
	switch left := s.Left.(type) {
	case *ast.Field:
		name, ok := left.Chain[0].(string)
		if !ok {
			return "", errors.New("Cannot assign to a field starting with an index")
		}
		local, err := c.resolveVariable(name)
		if err != nil {
			return "", err
		}
		if !local {
			return "", errors.Errorf("Variable `%s` not declared in this scope, cannot assign to globals", name)
		}
		if len(left.Chain) == 1 {
			return c.localName(name) + " = " + value + ";", nil
		}
		container := c.localName(name)
		for _, seg := range left.Chain[1 : len(left.Chain)-1] {
			container = c.property(container, segment(seg))
		}
		key := segment(left.Chain[len(left.Chain)-1])
		c.use("__setProperty")
		return "__setProperty(" + container + ", " + key + ", " + value + ");", nil
	case *ast.ArrayAccess:
		if !c.rootedInLocal(left.Array) {
			return "", errors.New("Can only assign to properties of local variables")
		}
		container, err := c.expression(left.Array)
		if err != nil {
			return "", err
		}
		key, err := c.expression(left.Property)
		if err != nil {
			return "", err
		}
		c.use("__setProperty")
		return "__setProperty(" + container + ", " + key + ", " + value + ");", nil
	case *ast.TupleAccess:
		return "", errors.New("Cannot assign to a tuple element, tuples are immutable")
	}
	return "", errors.Errorf("Cannot assign to %T", s.Left)
}

func (c *Compiler) rootedInLocal(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.ArrayAccess:
		return c.rootedInLocal(e.Array)
	case *ast.TupleAccess:
		return c.rootedInLocal(e.Tuple)
	case *ast.Field:
		name, ok := e.Chain[0].(string)
		return ok && c.isLocal(name)
	}
	return true
}

func (c *Compiler) function(s *ast.Function) (string, error) {
	if _, ok := c.functions[s.Name]; ok {
		return "", errors.Errorf("Function `%s` already declared", s.Name)
	}
	if !isIdentifier(s.Name) {
		return "", errors.Errorf("Invalid function name `%s`", s.Name)
	}
	c.functions[s.Name] = len(s.Params)

	fn := c.child()
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		name, err := fn.declareLocal(p)
		if err != nil {
			return "", err
		}
		params[i] = name
	}
	var stmts []ast.Statement
	if s.Body != nil {
		stmts = s.Body.Declarations
	}
	// the body is a scope of its own, so it may shadow a parameter
	fn.beginScope()
	body, err := fn.statements(stmts)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 || !isReturn(stmts[len(stmts)-1]) {
		body = strings.TrimPrefix(body+"\nreturn null;", "\n")
	}
	return "function " + sanitize(s.Name) + "(" + strings.Join(params, ", ") + ") " + block(body), nil
}

func isReturn(stmt ast.Statement) bool {
	_, ok := stmt.(*ast.ReturnStatement)
	return ok
}
