package backend

import (
	"github.com/pkg/errors"

	"github.com/funvibe/hog/internal/ast"
	"github.com/funvibe/hog/internal/js"
	"github.com/funvibe/hog/internal/metrics"
	"github.com/funvibe/hog/internal/pipeline"
)

// JSBackend translates programs to JavaScript. Programs get the helpers
// they use prepended; a bare expression is translated alone.
type JSBackend struct {
	metrics *metrics.Metrics
}

func NewJS(m *metrics.Metrics) *JSBackend {
	return &JSBackend{metrics: m}
}

func (b *JSBackend) Run(ctx *pipeline.PipelineContext) error {
	code, err := b.translate(ctx)
	if b.metrics != nil {
		b.metrics.ObserveCompilation(b.Name(), err)
	}
	if err != nil {
		return err
	}
	ctx.JS = code
	return nil
}

func (b *JSBackend) translate(ctx *pipeline.PipelineContext) (string, error) {
	c := js.NewCompiler(ctx.SupportedFunctions)
	switch node := ctx.Node.(type) {
	case nil:
		return "", errors.New("no syntax tree to translate")
	case *ast.Program:
		return c.Bundle(node)
	case ast.Expression:
		return c.Expr(node)
	}
	return "", errors.Errorf("cannot translate a %T", ctx.Node)
}

func (b *JSBackend) Name() string {
	return "javascript"
}
