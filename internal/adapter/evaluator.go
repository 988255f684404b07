// Package adapter provides the filesystem, evaluation, and persistence
// adapters behind the generation domain.
package adapter

import (
	"context"

	"github.com/mouse-blink/loom/internal/domain/emit"
	m "github.com/mouse-blink/loom/internal/model"
)

// EvalRequest carries everything an evaluator needs to run one directive
// body.
type EvalRequest struct {
	// Source and BodyLine locate the body inside its original file, so
	// failures can point at real coordinates instead of a synthetic chunk.
	Source   m.Path
	BodyLine int

	Body string

	// Namespace holds the imported values and defined constants visible to
	// the body. Evaluators must not let the body mutate what other bodies
	// will later read.
	Namespace map[string]any

	// Buffer receives the text the body emits.
	Buffer *emit.Buffer

	// Print receives body print output; nil discards it.
	Print func(text string)
}

// Evaluator runs directive bodies. Implementations return the names the body
// bound at its top level, which the caller checks against the directive's
// declared exports. A body failure is reported as a *model.BodyError when
// positions are known.
type Evaluator interface {
	Run(ctx context.Context, req EvalRequest) (map[string]any, error)
}
