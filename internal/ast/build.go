package ast

// Constructors for building trees programmatically (hosts that generate Hog,
// tests). They normalize Go literal types to the ones the compilers expect.

// Const builds a Constant, widening Go ints and float32 to int64/float64.
func Const(v any) *Constant {
	switch n := v.(type) {
	case int:
		return &Constant{Value: int64(n)}
	case int32:
		return &Constant{Value: int64(n)}
	case float32:
		return &Constant{Value: float64(n)}
	}
	return &Constant{Value: v}
}

// Null is the null literal.
func Null() *Constant { return &Constant{} }

// NewField builds a Field; int chain segments are widened to int64.
func NewField(chain ...any) *Field {
	out := make([]any, len(chain))
	for i, c := range chain {
		if n, ok := c.(int); ok {
			out[i] = int64(n)
			continue
		}
		out[i] = c
	}
	return &Field{Chain: out}
}

func Arith(op ArithmeticOp, left, right Expression) *ArithmeticOperation {
	return &ArithmeticOperation{Op: op, Left: left, Right: right}
}

func Cmp(op CompareOp, left, right Expression) *CompareOperation {
	return &CompareOperation{Op: op, Left: left, Right: right}
}

func NewAnd(exprs ...Expression) *And { return &And{Exprs: exprs} }

func NewOr(exprs ...Expression) *Or { return &Or{Exprs: exprs} }

func NewNot(expr Expression) *Not { return &Not{Expr: expr} }

func NewCall(name string, args ...Expression) *Call { return &Call{Name: name, Args: args} }

func NewArray(exprs ...Expression) *Array { return &Array{Exprs: exprs} }

func NewTuple(exprs ...Expression) *Tuple { return &Tuple{Exprs: exprs} }

// NewDict builds a Dict from alternating keys and values.
func NewDict(kv ...Expression) *Dict {
	if len(kv)%2 != 0 {
		panic("ast: NewDict needs an even number of expressions")
	}
	items := make([]DictItem, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		items = append(items, DictItem{Key: kv[i], Value: kv[i+1]})
	}
	return &Dict{Items: items}
}

func Index(array, property Expression) *ArrayAccess {
	return &ArrayAccess{Array: array, Property: property}
}

func TupleIndex(tuple Expression, index int64) *TupleAccess {
	return &TupleAccess{Tuple: tuple, Index: index}
}

func NewProgram(stmts ...Statement) *Program { return &Program{Declarations: stmts} }

func NewBlock(stmts ...Statement) *Block { return &Block{Declarations: stmts} }

func Expr(e Expression) *ExprStatement { return &ExprStatement{Expr: e} }

func Return(e Expression) *ReturnStatement { return &ReturnStatement{Expr: e} }

func Let(name string, e Expression) *VariableDeclaration {
	return &VariableDeclaration{Name: name, Expr: e}
}

func Assign(left, right Expression) *VariableAssignment {
	return &VariableAssignment{Left: left, Right: right}
}

func If(cond Expression, then, els Statement) *IfStatement {
	return &IfStatement{Expr: cond, Then: then, Else: els}
}

func While(cond Expression, body Statement) *WhileStatement {
	return &WhileStatement{Expr: cond, Body: body}
}

func For(init Statement, cond Expression, incr Statement, body Statement) *ForStatement {
	return &ForStatement{Initializer: init, Condition: cond, Increment: incr, Body: body}
}

func ForIn(keyVar, valueVar string, expr Expression, body Statement) *ForInStatement {
	return &ForInStatement{KeyVar: keyVar, ValueVar: valueVar, Expr: expr, Body: body}
}

func Fn(name string, params []string, body ...Statement) *Function {
	return &Function{Name: name, Params: params, Body: NewBlock(body...)}
}
