package vm

// beginScope starts a new scope
func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope ends the current scope and emits one POP per local it drops
func (c *Compiler) endScope() Bytecode {
	c.scopeDepth--

	var ops Bytecode
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		ops = append(ops, OP_POP)
		c.locals = c.locals[:len(c.locals)-1]
	}
	return ops
}

// declareLocal adds a local variable to the current scope. The value must
// already be on the stack, one slot above the previous local.
func (c *Compiler) declareLocal(name string) error {
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.Depth < c.scopeDepth {
			break
		}
		if local.Name == name {
			return newError(CompileError, "Variable `%s` already declared in this scope", name)
		}
	}
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth})
	return nil
}

// resolveLocal looks up a local variable by name, innermost first
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return i
		}
	}
	return -1
}

// resolveEnclosing looks for name among the locals of enclosing units and
// marks it captured. Function bodies run in their own frame, so a captured
// local cannot be read from them.
func (c *Compiler) resolveEnclosing(name string) bool {
	for enc := c.enclosing; enc != nil; enc = enc.enclosing {
		if idx := enc.resolveLocal(name); idx != -1 {
			enc.locals[idx].IsCaptured = true
			return true
		}
	}
	return false
}

// resolveVariable resolves a bare identifier to a slot, -1 meaning global.
func (c *Compiler) resolveVariable(name string) (int, error) {
	if slot := c.resolveLocal(name); slot != -1 {
		return slot, nil
	}
	if c.resolveEnclosing(name) {
		return -1, newError(CompileError, "Cannot capture variable `%s` from an enclosing scope in a function body", name)
	}
	return -1, nil
}

// child creates the compiler for a nested function body.
func (c *Compiler) child() *Compiler {
	return &Compiler{
		functions: c.functions,
		supported: c.supported,
		builtins:  c.builtins,
		enclosing: c,
	}
}
