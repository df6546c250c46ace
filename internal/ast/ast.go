// Package ast defines the Hog syntax tree consumed by the bytecode and
// JavaScript compilers. Trees are produced by an external parser and cross
// into this module as JSON (see Decode) or are built with the constructors
// in build.go.
package ast

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// ArithmeticOp is a binary arithmetic operator.
type ArithmeticOp string

const (
	Add  ArithmeticOp = "+"
	Sub  ArithmeticOp = "-"
	Mult ArithmeticOp = "*"
	Div  ArithmeticOp = "/"
	Mod  ArithmeticOp = "%"
)

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	Eq          CompareOp = "=="
	NotEq       CompareOp = "!="
	Gt          CompareOp = ">"
	GtEq        CompareOp = ">="
	Lt          CompareOp = "<"
	LtEq        CompareOp = "<="
	Like        CompareOp = "like"
	ILike       CompareOp = "ilike"
	NotLike     CompareOp = "not like"
	NotILike    CompareOp = "not ilike"
	In          CompareOp = "in"
	NotIn       CompareOp = "not in"
	InCohort    CompareOp = "in cohort"
	NotInCohort CompareOp = "not in cohort"
	Regex       CompareOp = "=~"
	IRegex      CompareOp = "=~*"
	NotRegex    CompareOp = "!~"
	NotIRegex   CompareOp = "!~*"
)

// Program is the root node of a Hog script.
type Program struct {
	Declarations []Statement
}

func (p *Program) node() {}

// Block is a braced statement list that opens a scope.
type Block struct {
	Declarations []Statement
}

func (b *Block) node()          {}
func (b *Block) statementNode() {}

// ExprStatement evaluates an expression and discards the result. Expr may be nil.
type ExprStatement struct {
	Expr Expression
}

func (s *ExprStatement) node()          {}
func (s *ExprStatement) statementNode() {}

// ReturnStatement returns Expr (null when nil) from the enclosing function or program.
type ReturnStatement struct {
	Expr Expression
}

func (s *ReturnStatement) node()          {}
func (s *ReturnStatement) statementNode() {}

// IfStatement
type IfStatement struct {
	Expr Expression
	Then Statement
	Else Statement // optional
}

func (s *IfStatement) node()          {}
func (s *IfStatement) statementNode() {}

// WhileStatement
type WhileStatement struct {
	Expr Expression
	Body Statement
}

func (s *WhileStatement) node()          {}
func (s *WhileStatement) statementNode() {}

// ForStatement is a C-style loop. Every part except Body is optional.
type ForStatement struct {
	Initializer Statement
	Condition   Expression
	Increment   Statement
	Body        Statement
}

func (s *ForStatement) node()          {}
func (s *ForStatement) statementNode() {}

// ForInStatement iterates over the values (and optionally keys) of a container.
// for (v in expr) / for (k, v in expr)
type ForInStatement struct {
	KeyVar   string // optional
	ValueVar string
	Expr     Expression
	Body     Statement
}

func (s *ForInStatement) node()          {}
func (s *ForInStatement) statementNode() {}

// VariableDeclaration is `let Name := Expr`. Expr may be nil.
type VariableDeclaration struct {
	Name string
	Expr Expression
}

func (s *VariableDeclaration) node()          {}
func (s *VariableDeclaration) statementNode() {}

// VariableAssignment is `Left := Right` where Left is a Field, ArrayAccess or TupleAccess.
type VariableAssignment struct {
	Left  Expression
	Right Expression
}

func (s *VariableAssignment) node()          {}
func (s *VariableAssignment) statementNode() {}

// Function declares a named function.
type Function struct {
	Name   string
	Params []string
	Body   *Block
}

func (s *Function) node()          {}
func (s *Function) statementNode() {}

// Constant holds a literal: nil, bool, int64, float64 or string.
type Constant struct {
	Value any
}

func (e *Constant) node()           {}
func (e *Constant) expressionNode() {}

// Field is an identifier chain such as `event.properties.$browser`.
// Chain segments are strings or int64 indexes.
type Field struct {
	Chain []any
}

func (e *Field) node()           {}
func (e *Field) expressionNode() {}

// ArithmeticOperation
type ArithmeticOperation struct {
	Op    ArithmeticOp
	Left  Expression
	Right Expression
}

func (e *ArithmeticOperation) node()           {}
func (e *ArithmeticOperation) expressionNode() {}

// CompareOperation
type CompareOperation struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

func (e *CompareOperation) node()           {}
func (e *CompareOperation) expressionNode() {}

// And is true when every operand is truthy.
type And struct {
	Exprs []Expression
}

func (e *And) node()           {}
func (e *And) expressionNode() {}

// Or is true when any operand is truthy.
type Or struct {
	Exprs []Expression
}

func (e *Or) node()           {}
func (e *Or) expressionNode() {}

// Not
type Not struct {
	Expr Expression
}

func (e *Not) node()           {}
func (e *Not) expressionNode() {}

// Call invokes a named function.
type Call struct {
	Name string
	Args []Expression
}

func (e *Call) node()           {}
func (e *Call) expressionNode() {}

// Array literal
type Array struct {
	Exprs []Expression
}

func (e *Array) node()           {}
func (e *Array) expressionNode() {}

// Tuple literal
type Tuple struct {
	Exprs []Expression
}

func (e *Tuple) node()           {}
func (e *Tuple) expressionNode() {}

// DictItem is one key/value pair of a Dict literal.
type DictItem struct {
	Key   Expression
	Value Expression
}

// Dict literal
type Dict struct {
	Items []DictItem
}

func (e *Dict) node()           {}
func (e *Dict) expressionNode() {}

// ArrayAccess is `Array[Property]`, 1-based for sequences.
type ArrayAccess struct {
	Array    Expression
	Property Expression
}

func (e *ArrayAccess) node()           {}
func (e *ArrayAccess) expressionNode() {}

// TupleAccess is `Tuple.Index`, 1-based.
type TupleAccess struct {
	Tuple Expression
	Index int64
}

func (e *TupleAccess) node()           {}
func (e *TupleAccess) expressionNode() {}

// Foreign is a node of an embedded query sub-language (e.g. a SQL select).
// Backends do not compile it; they serialize it as a tagged object.
type Foreign struct {
	Kind   string
	Fields []ForeignField
}

func (e *Foreign) node()           {}
func (e *Foreign) expressionNode() {}

// ForeignField is a named attribute of a Foreign node. Value is one of:
// nil, bool, int64, float64, string, []any, *Foreign or *Placeholder.
type ForeignField struct {
	Name  string
	Value any
}

// Placeholder embeds a Hog expression inside a Foreign node.
type Placeholder struct {
	Expr Expression
}

func (e *Placeholder) node()           {}
func (e *Placeholder) expressionNode() {}
