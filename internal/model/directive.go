// Package model defines the data structures for directive-driven code generation.
package model

import "fmt"

// Directive is one unit of scripted generation discovered in a source file.
// A framed directive lives inside a block comment of a larger file; a
// whole-file directive claims the entire file as its body.
type Directive struct {
	// Source is the file the directive was extracted from, as given by the
	// caller (kept relative so diagnostics and banners stay portable).
	Source Path

	// Line is the 1-based line of the directive header. EndLine is the last
	// line covered by the directive, frame included.
	Line    int
	EndLine int

	// Ordinal is the position of the directive within Source, counting from
	// zero in file order. (Source, Ordinal) identifies a directive uniquely.
	Ordinal int

	// Exports lists the names this directive promises to bind. Imports lists
	// the names it reads. Bare marks the implicit form that imports every
	// export in the batch; a bare directive has no explicit names at all.
	Exports []string
	Imports []string
	Bare    bool

	// Body is the script text with the frame indentation stripped. BodyLine
	// is the 1-based line in Source where the body starts, so evaluator
	// errors can point back into the original file.
	Body     string
	BodyLine int

	// Target is the output path relative to the artifact root, or empty when
	// the directive's emitted text is discarded.
	Target Path
}

// HasTarget reports whether the directive contributes to an output artifact.
func (d Directive) HasTarget() bool {
	return d.Target != ""
}

// Ref renders the canonical "file:line" reference for the directive.
func (d Directive) Ref() string {
	return fmt.Sprintf("%s:%d", d.Source, d.Line)
}

// Before orders directives by source path, then by position within the file.
// This is the tie-break order used everywhere determinism matters.
func (d Directive) Before(other Directive) bool {
	if d.Source != other.Source {
		return d.Source < other.Source
	}

	return d.Ordinal < other.Ordinal
}

// Node is a directive with its resolved dependencies.
type Node struct {
	Directive

	// Deps holds the nodes whose exports this node consumes, deduplicated
	// and sorted in Before order.
	Deps []*Node
}

// Define is a constant injected into every directive namespace, typically
// from the manifest or the command line.
type Define struct {
	Name   string
	Value  any
	Origin Span
}

// Plan is the resolved view of one scan: every directive, its dependency
// node, and the execution order.
type Plan struct {
	// Directives in extraction order.
	Directives []Directive

	// Nodes mirrors Directives index for index.
	Nodes []*Node

	// Order is the schedule: every node, dependencies first, ties broken in
	// Before order.
	Order []*Node

	// Exporters maps each export name to its producing node.
	Exporters map[string]*Node
}

// Artifact is one output file assembled from the emitted text of the
// directives that target it, concatenated in schedule order.
type Artifact struct {
	// Target is the output path relative to the artifact root.
	Target Path

	Text []byte

	// Chunks counts the directives that contributed to the artifact.
	Chunks int
}
