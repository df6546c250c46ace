package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies compiler and VM failures.
type ErrorKind int

const (
	CompileError ErrorKind = iota + 1
	StackUnderflow
	StackSize
	UnsupportedCall
	InvalidIndex
	Timeout
	StackOverflow
	TypeError
	InvalidBytecode
	BuiltinError
	HostError
)

var errorKindNames = map[ErrorKind]string{
	CompileError:    "compile error",
	StackUnderflow:  "stack underflow",
	StackSize:       "stack size",
	UnsupportedCall: "unsupported call",
	InvalidIndex:    "invalid index",
	Timeout:         "timeout",
	StackOverflow:   "stack overflow",
	TypeError:       "type error",
	InvalidBytecode: "invalid bytecode",
	BuiltinError:    "builtin error",
	HostError:       "host error",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the structured error surfaced by Compile and Execute.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause for BuiltinError and HostError
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of a vm error anywhere in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
