// Package js translates Hog syntax trees into JavaScript source. The output
// calls helpers from the jsstl bundle, which InlinedSTL returns separately.
package js

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/js/jsstl"
)

// Local represents a local variable during compilation. JSName differs
// from the sanitized Name when the local shadows another one of the same
// function.
type Local struct {
	Name       string
	JSName     string
	Depth      int
	IsCaptured bool
}

// mode selects how a node is emitted: as Hog code or as a serialized
// foreign syntax tree.
type mode int

const (
	modeHog mode = iota
	modeAST
)

// Compiler holds the state for one translation.
type Compiler struct {
	locals     []Local
	scopeDepth int
	mode       mode

	// shared by every unit of one translation
	functions map[string]int
	supported map[string]bool
	helpers   map[string]struct{}
	stl       *jsstl.Resolver
	renamed   *int

	enclosing *Compiler
}

// NewCompiler creates a compiler. supportedFunctions lists the host
// functions scripts may call; the JavaScript host must define them.
func NewCompiler(supportedFunctions map[string]bool) *Compiler {
	if supportedFunctions == nil {
		supportedFunctions = map[string]bool{}
	}
	return &Compiler{
		functions: make(map[string]int),
		supported: supportedFunctions,
		helpers:   make(map[string]struct{}),
		stl:       jsstl.Default(),
		renamed:   new(int),
	}
}

// ToJSProgram translates a program and prepends the helpers it uses.
func ToJSProgram(program *ast.Program) (string, error) {
	return NewCompiler(nil).Bundle(program)
}

// ToJSExpr translates a single expression. Helpers are not included.
func ToJSExpr(expr ast.Expression) (string, error) {
	return NewCompiler(nil).Expr(expr)
}

// Program translates a whole program.
func (c *Compiler) Program(program *ast.Program) (string, error) {
	if program == nil {
		return "", errors.New("Cannot compile an empty program")
	}
	return c.statements(program.Declarations)
}

// Bundle translates program and prepends the helpers it uses.
func (c *Compiler) Bundle(program *ast.Program) (string, error) {
	code, err := c.Program(program)
	if err != nil {
		return "", err
	}
	imports, err := c.InlinedSTL()
	if err != nil {
		return "", err
	}
	if imports == "" {
		return code, nil
	}
	return imports + "\n\n" + code, nil
}

// Expr translates one expression.
func (c *Compiler) Expr(expr ast.Expression) (string, error) {
	return c.expression(expr)
}

// UsedHelpers returns the sorted standard library names the translated
// code refers to.
func (c *Compiler) UsedHelpers() []string {
	names := make([]string, 0, len(c.helpers))
	for name := range c.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InlinedSTL returns the source of every helper the translated code needs,
// dependencies first.
func (c *Compiler) InlinedSTL() (string, error) {
	if len(c.helpers) == 0 {
		return "", nil
	}
	return c.stl.Import(c.UsedHelpers()...)
}

func (c *Compiler) use(helper string) {
	c.helpers[helper] = struct{}{}
}

// withMode runs fn with the compiler switched to m. Foreign nodes enter
// the ast mode and placeholders inside them come back to Hog.
func (c *Compiler) withMode(m mode, fn func() (string, error)) (string, error) {
	prev := c.mode
	c.mode = m
	defer func() { c.mode = prev }()
	return fn()
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareLocal adds name to the current scope and returns the identifier
// the output uses for it. A local shadowing another one of the same
// function gets a fresh identifier: JavaScript rejects a let redeclaring a
// parameter, and `let a = a` in an inner block reads the uninitialized
// inner a.
func (c *Compiler) declareLocal(name string) (string, error) {
	if !isIdentifier(name) {
		return "", errors.Errorf("Invalid variable name `%s`", name)
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.Depth < c.scopeDepth {
			break
		}
		if local.Name == name {
			return "", errors.Errorf("Variable `%s` already declared in this scope", name)
		}
	}
	jsName := sanitize(name)
	if _, ok := c.local(name); ok {
		*c.renamed++
		jsName = helperPrefix + strconv.Itoa(*c.renamed) + "_" + name
	}
	c.locals = append(c.locals, Local{Name: name, JSName: jsName, Depth: c.scopeDepth})
	return jsName, nil
}

func (c *Compiler) local(name string) (Local, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i], true
		}
	}
	return Local{}, false
}

func (c *Compiler) isLocal(name string) bool {
	_, ok := c.local(name)
	return ok
}

// localName is the output identifier of a declared local.
func (c *Compiler) localName(name string) string {
	if l, ok := c.local(name); ok {
		return l.JSName
	}
	return sanitize(name)
}

// resolveVariable reports whether name is a local of this unit. Locals of
// an enclosing unit are rejected so both backends accept the same programs.
func (c *Compiler) resolveVariable(name string) (bool, error) {
	if c.isLocal(name) {
		return true, nil
	}
	for enc := c.enclosing; enc != nil; enc = enc.enclosing {
		for i := len(enc.locals) - 1; i >= 0; i-- {
			if enc.locals[i].Name == name {
				enc.locals[i].IsCaptured = true
				return false, errors.Errorf("Cannot capture variable `%s` from an enclosing scope in a function body", name)
			}
		}
	}
	return false, nil
}

func (c *Compiler) child() *Compiler {
	return &Compiler{
		functions: c.functions,
		supported: c.supported,
		helpers:   c.helpers,
		stl:       c.stl,
		renamed:   c.renamed,
		enclosing: c,
	}
}

// indent shifts every line of code one level right.
func indent(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

// block wraps statements in braces.
func block(body string) string {
	if body == "" {
		return "{\n}"
	}
	return "{\n" + indent(body) + "\n}"
}
