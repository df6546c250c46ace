// Package vm implements the Hog instruction set, the compiler that lowers
// the AST into bytecode and the virtual machine that executes it.
package vm

import "strconv"

// Opcode represents a single VM instruction. Values are persisted in stored
// bytecode and must never be renumbered.
type Opcode int

const (
	OP_FIELD         Opcode = 1  // Resolve a global field chain: [segN..seg1] -> [value]
	OP_CALL          Opcode = 2  // Call by name: name argc
	OP_AND           Opcode = 3  // all() over count operands
	OP_OR            Opcode = 4  // any() over count operands
	OP_NOT           Opcode = 5  // !
	OP_PLUS          Opcode = 6  // +
	OP_MINUS         Opcode = 7  // -
	OP_MULTIPLY      Opcode = 8  // *
	OP_DIVIDE        Opcode = 9  // /
	OP_MOD           Opcode = 10 // %
	OP_EQ            Opcode = 11 // ==
	OP_NOT_EQ        Opcode = 12 // !=
	OP_GT            Opcode = 13 // >
	OP_GT_EQ         Opcode = 14 // >=
	OP_LT            Opcode = 15 // <
	OP_LT_EQ         Opcode = 16 // <=
	OP_LIKE          Opcode = 17
	OP_ILIKE         Opcode = 18
	OP_NOT_LIKE      Opcode = 19
	OP_NOT_ILIKE     Opcode = 20
	OP_IN            Opcode = 21
	OP_NOT_IN        Opcode = 22
	OP_REGEX         Opcode = 23 // =~
	OP_NOT_REGEX     Opcode = 24 // !~
	OP_IREGEX        Opcode = 25 // =~*
	OP_NOT_IREGEX    Opcode = 26 // !~*
	OP_IN_COHORT     Opcode = 27 // reserved, never executed
	OP_NOT_IN_COHORT Opcode = 28 // reserved, never executed
	OP_TRUE          Opcode = 29
	OP_FALSE         Opcode = 30
	OP_NULL          Opcode = 31
	OP_STRING        Opcode = 32 // literal
	OP_INTEGER       Opcode = 33 // literal
	OP_FLOAT         Opcode = 34 // literal
	OP_POP           Opcode = 35 // Discard top of stack
	OP_GET_LOCAL     Opcode = 36 // slot
	OP_SET_LOCAL     Opcode = 37 // slot
	OP_RETURN        Opcode = 38
	OP_JUMP          Opcode = 39 // signed relative offset
	OP_JUMP_IF_FALSE Opcode = 40 // signed relative offset
	OP_DECLARE_FN    Opcode = 41 // name argc bodyLen, body follows inline
	OP_DICT          Opcode = 42 // pair count
	OP_ARRAY         Opcode = 43 // element count
	OP_TUPLE         Opcode = 44 // element count
	OP_GET_PROPERTY  Opcode = 45 // [container, property] -> [value]
	OP_SET_PROPERTY  Opcode = 46 // [container, property, value] -> []
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_FIELD:         "FIELD",
	OP_CALL:          "CALL",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_NOT:           "NOT",
	OP_PLUS:          "PLUS",
	OP_MINUS:         "MINUS",
	OP_MULTIPLY:      "MULTIPLY",
	OP_DIVIDE:        "DIVIDE",
	OP_MOD:           "MOD",
	OP_EQ:            "EQ",
	OP_NOT_EQ:        "NOT_EQ",
	OP_GT:            "GT",
	OP_GT_EQ:         "GT_EQ",
	OP_LT:            "LT",
	OP_LT_EQ:         "LT_EQ",
	OP_LIKE:          "LIKE",
	OP_ILIKE:         "ILIKE",
	OP_NOT_LIKE:      "NOT_LIKE",
	OP_NOT_ILIKE:     "NOT_ILIKE",
	OP_IN:            "IN",
	OP_NOT_IN:        "NOT_IN",
	OP_REGEX:         "REGEX",
	OP_NOT_REGEX:     "NOT_REGEX",
	OP_IREGEX:        "IREGEX",
	OP_NOT_IREGEX:    "NOT_IREGEX",
	OP_IN_COHORT:     "IN_COHORT",
	OP_NOT_IN_COHORT: "NOT_IN_COHORT",
	OP_TRUE:          "TRUE",
	OP_FALSE:         "FALSE",
	OP_NULL:          "NULL",
	OP_STRING:        "STRING",
	OP_INTEGER:       "INTEGER",
	OP_FLOAT:         "FLOAT",
	OP_POP:           "POP",
	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_RETURN:        "RETURN",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_DECLARE_FN:    "DECLARE_FN",
	OP_DICT:          "DICT",
	OP_ARRAY:         "ARRAY",
	OP_TUPLE:         "TUPLE",
	OP_GET_PROPERTY:  "GET_PROPERTY",
	OP_SET_PROPERTY:  "SET_PROPERTY",
}

// OperandKind describes the token type an operand must have.
type OperandKind int

const (
	OperandInt OperandKind = iota
	OperandFloat
	OperandString
)

// operands lists the operand kinds that follow each opcode in the stream.
// Opcodes absent from the table take no operands.
var operands = map[Opcode][]OperandKind{
	OP_FIELD:         {OperandInt},
	OP_CALL:          {OperandString, OperandInt},
	OP_AND:           {OperandInt},
	OP_OR:            {OperandInt},
	OP_STRING:        {OperandString},
	OP_INTEGER:       {OperandInt},
	OP_FLOAT:         {OperandFloat},
	OP_GET_LOCAL:     {OperandInt},
	OP_SET_LOCAL:     {OperandInt},
	OP_JUMP:          {OperandInt},
	OP_JUMP_IF_FALSE: {OperandInt},
	OP_DECLARE_FN:    {OperandString, OperandInt, OperandInt},
	OP_DICT:          {OperandInt},
	OP_ARRAY:         {OperandInt},
	OP_TUPLE:         {OperandInt},
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "OP(" + strconv.Itoa(int(op)) + ")"
}

// Valid reports whether op belongs to the instruction set.
func (op Opcode) Valid() bool {
	_, ok := OpcodeNames[op]
	return ok
}

// Operands returns the kinds of the operands following op.
func (op Opcode) Operands() []OperandKind {
	return operands[op]
}
