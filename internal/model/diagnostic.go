package model

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies a diagnostic by the phase that produced it.
type Category string

// Diagnostic categories, in rough pipeline order.
const (
	CategoryExtract          Category = "extract"
	CategoryExportCollision  Category = "export-collision"
	CategoryUnresolvedImport Category = "unresolved-import"
	CategoryImportCycle      Category = "import-cycle"
	CategoryMissingExport    Category = "missing-export"
	CategoryBodyFailure      Category = "body-failure"
	CategoryOutputIO         Category = "output-io"
)

// Span marks a line range in a source file. End may equal Start for a single
// line, and both may be zero when no position applies (IO failures).
type Span struct {
	Source Path
	Start  int
	End    int
}

func (s Span) String() string {
	if s.Start == 0 {
		return string(s.Source)
	}

	if s.End > s.Start {
		return fmt.Sprintf("%s:%d-%d", s.Source, s.Start, s.End)
	}

	return fmt.Sprintf("%s:%d", s.Source, s.Start)
}

// IsZero reports whether the span carries no position at all.
func (s Span) IsZero() bool {
	return s.Source == "" && s.Start == 0
}

// Diagnostic describes one failure of a run. Failures never abort the batch
// on their own; they are collected and reported together.
type Diagnostic struct {
	Category Category

	// Span is the primary position. Related points at the other places
	// involved, such as the prior exporter in a collision or the frames of
	// an import cycle.
	Span    Span
	Related []Span

	Message string

	// Detail carries multi-line supplements such as evaluator backtraces.
	Detail string
}

func (d Diagnostic) Error() string {
	if d.Span.IsZero() {
		return fmt.Sprintf("%s: %s", d.Category, d.Message)
	}

	return fmt.Sprintf("%s: %s: %s", d.Span, d.Category, d.Message)
}

// Diagnostics aggregates every independent failure of a run. A non-empty
// value is an error; callers inspect it for per-failure positions.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].Error()
	}

	lines := make([]string, 0, len(ds)+1)
	lines = append(lines, fmt.Sprintf("%d problems:", len(ds)))

	for _, d := range ds {
		lines = append(lines, "  "+d.Error())
	}

	return strings.Join(lines, "\n")
}

// Sort orders diagnostics by position, then category, so batch output is
// stable across runs.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Span.Source != b.Span.Source {
			return a.Span.Source < b.Span.Source
		}

		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}

		return a.Category < b.Category
	})
}

// ErrOrNil returns the aggregate as an error, or nil when empty.
func (ds Diagnostics) ErrOrNil() error {
	if len(ds) == 0 {
		return nil
	}

	return ds
}

// Frame is one level of an evaluator call stack, already mapped back to
// source file coordinates.
type Frame struct {
	Span Span
	Func string
}

// BodyError describes a failure raised while a directive body ran. The
// innermost frame is last.
type BodyError struct {
	Message string
	Stack   []Frame
}

func (e *BodyError) Error() string {
	return e.Message
}

// At returns the most precise position available, falling back to the zero
// span when the failure carried no stack.
func (e *BodyError) At() Span {
	if len(e.Stack) == 0 {
		return Span{}
	}

	return e.Stack[len(e.Stack)-1].Span
}

// Backtrace renders the stack outermost first, one frame per line.
func (e *BodyError) Backtrace() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder

	for _, f := range e.Stack {
		fmt.Fprintf(&b, "  %s: in %s\n", f.Span, f.Func)
	}

	fmt.Fprintf(&b, "Error: %s", e.Message)

	return b.String()
}
