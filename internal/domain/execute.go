package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/mouse-blink/loom/internal/adapter"
	"github.com/mouse-blink/loom/internal/domain/emit"
	m "github.com/mouse-blink/loom/internal/model"
)

// RunObserver receives progress callbacks while a schedule executes.
type RunObserver interface {
	RunStarted(total int)
	NodeStarted(node *m.Node, index, total int)
	NodeFinished(node *m.Node, index, total int, err error)
	NodeSkipped(node *m.Node, cause *m.Node)
}

// ExecArgs configures one execution pass over a schedule.
type ExecArgs struct {
	Order    []*m.Node
	Eval     adapter.Evaluator
	Defines  []m.Define
	Observer RunObserver
	Print    func(text string)
}

// RunResult is what one execution pass produced: the emission buffer of
// every node that ran cleanly, the nodes skipped because something upstream
// failed, the export store, and every diagnostic raised along the way.
type RunResult struct {
	Buffers map[*m.Node]*emit.Buffer
	Skipped map[*m.Node]*m.Node
	Store   *Store
	Diags   m.Diagnostics
}

// ExecuteAll runs every node of the schedule in order. Execution is
// best-effort: when a node fails, its dependents are skipped, but nodes that
// do not depend on it still run, so one broken body reports alongside
// everything else wrong in the batch. The returned error is non-nil only for
// cancellation.
func ExecuteAll(ctx context.Context, args ExecArgs) (*RunResult, error) {
	if args.Observer == nil {
		args.Observer = nopObserver{}
	}

	result := &RunResult{
		Buffers: make(map[*m.Node]*emit.Buffer),
		Skipped: make(map[*m.Node]*m.Node),
		Store:   NewStore(),
	}

	failed := make(map[*m.Node]*m.Node)
	total := len(args.Order)

	args.Observer.RunStarted(total)

	for i, node := range args.Order {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if cause := skipCause(node, failed); cause != nil {
			failed[node] = cause
			result.Skipped[node] = cause
			args.Observer.NodeSkipped(node, cause)

			continue
		}

		args.Observer.NodeStarted(node, i, total)

		err := executeNode(ctx, node, args, result)
		if err != nil {
			failed[node] = node
		}

		args.Observer.NodeFinished(node, i, total, err)
	}

	return result, nil
}

// executeNode evaluates one body, checks its declared exports, and banks the
// emission buffer on success.
func executeNode(ctx context.Context, node *m.Node, args ExecArgs, result *RunResult) error {
	buf := emit.NewBuffer()

	globals, err := args.Eval.Run(ctx, adapter.EvalRequest{
		Source:    node.Source,
		BodyLine:  node.BodyLine,
		Body:      node.Body,
		Namespace: namespaceFor(node, args.Defines, result.Store),
		Buffer:    buf,
		Print:     args.Print,
	})
	if err != nil {
		result.Diags = append(result.Diags, bodyDiagnostic(node, err))
		return err
	}

	var firstErr error

	for _, name := range node.Exports {
		value, ok := globals[name]
		if !ok {
			result.Diags = append(result.Diags, m.Diagnostic{
				Category: m.CategoryMissingExport,
				Span:     headerSpan(node.Directive),
				Message:  fmt.Sprintf("directive never bound its declared export %q", name),
			})

			if firstErr == nil {
				firstErr = fmt.Errorf("export %q was never bound", name)
			}

			continue
		}

		if err := result.Store.Set(name, value, node.Directive); err != nil {
			result.Diags = append(result.Diags, m.Diagnostic{
				Category: m.CategoryExportCollision,
				Span:     headerSpan(node.Directive),
				Message:  err.Error(),
			})

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}

	result.Buffers[node] = buf

	return nil
}

// namespaceFor assembles what a body sees: the defined constants, plus
// either its declared imports or, for a bare node, every export bound so
// far.
func namespaceFor(node *m.Node, defines []m.Define, store *Store) map[string]any {
	ns := make(map[string]any, len(defines)+len(node.Imports))

	for _, def := range defines {
		ns[def.Name] = def.Value
	}

	if node.Bare {
		for _, name := range store.Names() {
			v, _ := store.Get(name)
			ns[name] = v
		}

		return ns
	}

	for _, name := range node.Imports {
		if v, ok := store.Get(name); ok {
			ns[name] = v
		}
	}

	return ns
}

// skipCause returns the root failure this node inherits from its
// dependencies, or nil when all of them succeeded.
func skipCause(node *m.Node, failed map[*m.Node]*m.Node) *m.Node {
	for _, dep := range node.Deps {
		if cause, ok := failed[dep]; ok {
			return cause
		}
	}

	return nil
}

// bodyDiagnostic shapes an evaluator failure into a diagnostic, carrying the
// remapped stack when the evaluator provided one.
func bodyDiagnostic(node *m.Node, err error) m.Diagnostic {
	var bodyErr *m.BodyError

	if errors.As(err, &bodyErr) {
		span := bodyErr.At()
		if span.IsZero() {
			span = headerSpan(node.Directive)
		}

		related := make([]m.Span, 0, len(bodyErr.Stack))
		for _, frame := range bodyErr.Stack {
			related = append(related, frame.Span)
		}

		return m.Diagnostic{
			Category: m.CategoryBodyFailure,
			Span:     span,
			Related:  related,
			Message:  bodyErr.Message,
			Detail:   bodyErr.Backtrace(),
		}
	}

	return m.Diagnostic{
		Category: m.CategoryBodyFailure,
		Span:     headerSpan(node.Directive),
		Message:  err.Error(),
	}
}

// BuildArtifacts concatenates the emitted text of every targeted node in
// schedule order, one artifact per target path. Each chunk opens with a
// banner naming the source file it came from; chunks sharing an artifact are
// separated by a blank line.
func BuildArtifacts(order []*m.Node, buffers map[*m.Node]*emit.Buffer) []m.Artifact {
	var artifacts []m.Artifact

	index := make(map[m.Path]int)

	for _, node := range order {
		if !node.HasTarget() {
			continue
		}

		buf, ok := buffers[node]
		if !ok {
			continue
		}

		at, seen := index[node.Target]
		if !seen {
			at = len(artifacts)
			index[node.Target] = at
			artifacts = append(artifacts, m.Artifact{Target: node.Target})
		}

		if artifacts[at].Chunks > 0 {
			artifacts[at].Text = append(artifacts[at].Text, '\n')
		}

		artifacts[at].Text = append(artifacts[at].Text, fmt.Sprintf("// [%s].\n", node.Source)...)
		artifacts[at].Text = append(artifacts[at].Text, buf.Bytes()...)
		artifacts[at].Chunks++
	}

	return artifacts
}

type nopObserver struct{}

func (nopObserver) RunStarted(int) {}
func (nopObserver) NodeStarted(*m.Node, int, int) {}
func (nopObserver) NodeFinished(*m.Node, int, int, error) {}
func (nopObserver) NodeSkipped(*m.Node, *m.Node) {}
