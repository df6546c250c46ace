// Package backend provides the two ways of running a Hog program: the
// bytecode compiler plus VM, and the JavaScript translator.
package backend

import (
	"github.com/funvibe/hog/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run processes the program in ctx and stores its output there.
	Run(ctx *pipeline.PipelineContext) error

	// Name returns the backend name for display
	Name() string
}
