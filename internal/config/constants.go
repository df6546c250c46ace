package config

import "time"

// BytecodeMarker is the first token of every standalone Hog program.
const BytecodeMarker = "_h"

// SourceFileExt is the extension of AST documents produced by the external parser.
const SourceFileExt = ".hog.json"

// BytecodeFileExt is the extension of serialized bytecode programs.
const BytecodeFileExt = ".hoge"

// Execution limits
const (
	DefaultTimeout       = 5 * time.Second
	DefaultMaxCallDepth  = 1000
	MaxStackSize         = 1024 * 1024
	TimeoutCheckInterval = 128 // ops between deadline checks, must be a power of two
)

// Built-in function names with compiler-level meaning
const (
	NotFuncName     = "not"
	AndFuncName     = "and"
	OrFuncName      = "or"
	IfFuncName      = "if"
	MultiIfFuncName = "multiIf"
	IfNullFuncName  = "ifNull"
	PrintFuncName   = "print"
	KeysFuncName    = "keys"
	ValuesFuncName  = "values"
	LengthFuncName  = "length"
	RunFuncName     = "run"
	TupleFuncName   = "tuple"
)

// ForeignTagKey tags dictionaries that carry an embedded query AST.
const ForeignTagKey = "__hx_ast"
