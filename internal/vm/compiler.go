package vm

import (
	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/stl"
)

// Local represents a local variable during compilation
type Local struct {
	Name       string
	Depth      int  // Scope depth where this local was declared
	IsCaptured bool // Referenced from a nested function body
}

// Compiler lowers one compilation unit (a program or a function body).
// Slot numbers are indexes into locals, relative to the frame base.
type Compiler struct {
	locals     []Local
	scopeDepth int

	// Shared by every unit of one compilation: declared function arities.
	functions map[string]int
	supported map[string]bool
	builtins  *stl.Registry

	// Enclosing compiler (for function bodies)
	enclosing *Compiler
}

// NewCompiler creates a compiler for top-level code. supportedFunctions is
// the host's allow-list of native functions scripts may call.
func NewCompiler(supportedFunctions map[string]bool) *Compiler {
	if supportedFunctions == nil {
		supportedFunctions = map[string]bool{}
	}
	return &Compiler{
		functions: make(map[string]int),
		supported: supportedFunctions,
		builtins:  stl.Default(),
	}
}

// Compile lowers node into bytecode. With args == nil the result is a
// standalone program starting with the marker. Otherwise node is compiled as
// a function body whose parameters are args; no marker is emitted.
func Compile(node ast.Node, supportedFunctions map[string]bool, args []string) (Bytecode, error) {
	c := NewCompiler(supportedFunctions)
	if args != nil {
		return c.compileBody(node, args)
	}
	body, err := c.compileUnit(node)
	if err != nil {
		return nil, err
	}
	return append(Bytecode{config.BytecodeMarker}, body...), nil
}

// compileUnit compiles node at the top of a unit and pops every local the
// unit declared, so the runtime stack mirrors the compiler's bookkeeping.
func (c *Compiler) compileUnit(node ast.Node) (Bytecode, error) {
	base := len(c.locals)
	ops, err := c.compile(node)
	if err != nil {
		return nil, err
	}
	for len(c.locals) > base {
		c.locals = c.locals[:len(c.locals)-1]
		ops = append(ops, OP_POP)
	}
	return ops, nil
}

// compileBody compiles a function body. Parameters are declared in reverse:
// callers push the last argument first, so it lands in slot 0.
func (c *Compiler) compileBody(node ast.Node, params []string) (Bytecode, error) {
	for i := len(params) - 1; i >= 0; i-- {
		if err := c.declareLocal(params[i]); err != nil {
			return nil, err
		}
	}
	ops, err := c.compile(node)
	if err != nil {
		return nil, err
	}
	if !endsWithReturn(node) {
		ops = append(ops, OP_NULL, OP_RETURN)
	}
	return ops, nil
}

func endsWithReturn(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.ReturnStatement:
		return true
	case *ast.Block:
		// Block locals are popped after the last statement, so only a
		// block without locals can end in its own RETURN.
		if len(n.Declarations) == 0 {
			return false
		}
		for _, s := range n.Declarations {
			if _, ok := s.(*ast.VariableDeclaration); ok {
				return false
			}
		}
		_, ok := n.Declarations[len(n.Declarations)-1].(*ast.ReturnStatement)
		return ok
	}
	return false
}

// compile dispatches on the node kind.
func (c *Compiler) compile(node ast.Node) (Bytecode, error) {
	switch n := node.(type) {
	case ast.Statement:
		return c.compileStatement(n)
	case ast.Expression:
		return c.compileExpression(n)
	case *ast.Program:
		return c.compileStatements(n.Declarations)
	case nil:
		return nil, newError(CompileError, "Cannot compile an empty node")
	}
	return nil, newError(CompileError, "Node %T is not implemented", node)
}

func (c *Compiler) compileStatements(stmts []ast.Statement) (Bytecode, error) {
	var ops Bytecode
	for _, s := range stmts {
		code, err := c.compileStatement(s)
		if err != nil {
			return nil, err
		}
		ops = append(ops, code...)
	}
	return ops, nil
}

// isCallable reports whether name may appear in a CALL emitted by this compilation.
func (c *Compiler) isCallable(name string) bool {
	if _, ok := c.functions[name]; ok {
		return true
	}
	return c.builtins.Has(name) || c.supported[name]
}
