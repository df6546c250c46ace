package pipeline

import (
	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/vm"
)

// DecodeProcessor reads the parser's JSON syntax tree from Source.
type DecodeProcessor struct{}

func (DecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Node != nil || len(ctx.Errors) > 0 {
		return ctx
	}
	node, err := ast.Decode(ctx.Source)
	if err != nil {
		return ctx.fail(errors.Wrapf(err, "decoding %s", ctx.name()))
	}
	ctx.Node = node
	return ctx
}

// BytecodeProcessor reads compiled bytecode in its JSON wire form from
// Source.
type BytecodeProcessor struct{}

func (BytecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Bytecode != nil || len(ctx.Errors) > 0 {
		return ctx
	}
	code, err := vm.ParseBytecode(ctx.Source)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Bytecode = code
	return ctx
}

func (c *PipelineContext) name() string {
	if c.FilePath == "" {
		return "<stdin>"
	}
	return c.FilePath
}
