package pipeline

import (
	"context"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/vm"
)

// PipelineContext carries one program through the stages.
type PipelineContext struct {
	Context  context.Context
	FilePath string
	Source   []byte

	// Node is the decoded syntax tree.
	Node ast.Node
	// Args compiles Node as a function body with these parameters.
	Args []string
	// SupportedFunctions are host functions scripts may call.
	SupportedFunctions map[string]bool

	Bytecode vm.Bytecode
	JS       string
	// Exec configures the VM run. Context is filled from the pipeline.
	Exec   vm.Options
	Result *vm.Result

	Errors []error
}

func NewContext(ctx context.Context, source []byte) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{Context: ctx, Source: source}
}

// Err returns the first error recorded, if any.
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

func (c *PipelineContext) fail(err error) *PipelineContext {
	c.Errors = append(c.Errors, err)
	return c
}
