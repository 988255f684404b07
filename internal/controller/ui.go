// Package controller renders plans, progress, and diagnostics to the user.
package controller

import (
	m "github.com/mouse-blink/loom/internal/model"
)

// StartMode defines what the UI is about to display.
type StartMode int

// Available StartMode values.
const (
	ModePlan StartMode = iota
	ModeRun
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithPlanMode sets the UI up for a static plan or report display.
func WithPlanMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModePlan
	}
}

// WithRunMode sets the UI up for live generation progress.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// ReadFileFunc loads source text for diagnostic excerpts.
type ReadFileFunc func(path m.Path) ([]byte, error)

// UI is how the generation workflow talks to the user. Implementations can
// use different output methods (simple text, TUI); the workflow itself never
// prints.
type UI interface {
	Start(options ...StartOption) error
	Close()

	// DisplayPlan shows discovered directives in schedule order.
	DisplayPlan(plan *m.Plan) error
	// DisplayDiagnostics renders a batch of failures with source excerpts.
	DisplayDiagnostics(diags m.Diagnostics)
	// DisplayReport renders a persisted run report.
	DisplayReport(report m.Report) error

	// Live run events. These mirror the executor's observer so a UI can be
	// handed to it directly.
	RunStarted(total int)
	NodeStarted(node *m.Node, index, total int)
	NodeFinished(node *m.Node, index, total int, err error)
	NodeSkipped(node *m.Node, cause *m.Node)

	ArtifactsWritten(root m.Path, artifacts []m.Artifact)
	WatchStarted(paths int)

	// Printf surfaces incidental output, such as a body's print calls.
	Printf(format string, args ...any)
}
