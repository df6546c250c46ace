package backend

import (
	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/pipeline"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run
	if len(ctx.Errors) > 0 {
		return ctx
	}
	if err := p.Backend.Run(ctx); err != nil {
		ctx.Errors = append(ctx.Errors, errors.WithMessage(err, p.Backend.Name()))
	}
	return ctx
}
