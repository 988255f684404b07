package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mouse-blink/loom/internal/adapter"
	"github.com/mouse-blink/loom/internal/domain/emit"
	m "github.com/mouse-blink/loom/internal/model"
)

// fakeEvaluator dispatches on the request's source path so each test can
// script one behavior per node.
type fakeEvaluator struct {
	runs []adapter.EvalRequest
	fn   func(req adapter.EvalRequest) (map[string]any, error)
}

func (f *fakeEvaluator) Run(_ context.Context, req adapter.EvalRequest) (map[string]any, error) {
	f.runs = append(f.runs, req)

	if f.fn == nil {
		return map[string]any{}, nil
	}

	return f.fn(req)
}

type obsRecorder struct {
	events []string
}

func (o *obsRecorder) RunStarted(total int) {
	o.events = append(o.events, fmt.Sprintf("start %d", total))
}

func (o *obsRecorder) NodeStarted(node *m.Node, index, total int) {
	o.events = append(o.events, fmt.Sprintf("run %s %d/%d", node.Ref(), index+1, total))
}

func (o *obsRecorder) NodeFinished(node *m.Node, _, _ int, err error) {
	if err != nil {
		o.events = append(o.events, fmt.Sprintf("fail %s", node.Ref()))
		return
	}

	o.events = append(o.events, fmt.Sprintf("ok %s", node.Ref()))
}

func (o *obsRecorder) NodeSkipped(node, cause *m.Node) {
	o.events = append(o.events, fmt.Sprintf("skip %s because %s", node.Ref(), cause.Ref()))
}

func exportingNode(source string, exports ...string) *m.Node {
	return &m.Node{Directive: m.Directive{
		Source:  m.Path(source),
		Line:    1,
		Exports: exports,
		Body:    "x",
	}}
}

func TestExecuteAllBindsExports(t *testing.T) {
	n := exportingNode("a.c", "x")

	eval := &fakeEvaluator{fn: func(req adapter.EvalRequest) (map[string]any, error) {
		req.Buffer.Line("generated")
		return map[string]any{"x": int64(7), "extra": "ignored"}, nil
	}}

	result, err := ExecuteAll(context.Background(), ExecArgs{
		Order: []*m.Node{n},
		Eval:  eval,
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if len(result.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}

	if v, ok := result.Store.Get("x"); !ok || v != int64(7) {
		t.Fatalf("export not banked: %v, %v", v, ok)
	}

	// Bindings beyond the declared exports stay private.
	if _, ok := result.Store.Get("extra"); ok {
		t.Fatal("undeclared binding leaked into the store")
	}

	buf, ok := result.Buffers[n]
	if !ok || buf.String() != "generated\n" {
		t.Fatalf("buffer not banked, got %v", buf)
	}
}

func TestExecuteAllMissingExport(t *testing.T) {
	n := exportingNode("a.c", "x")

	eval := &fakeEvaluator{fn: func(adapter.EvalRequest) (map[string]any, error) {
		return map[string]any{}, nil
	}}

	result, err := ExecuteAll(context.Background(), ExecArgs{
		Order: []*m.Node{n},
		Eval:  eval,
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if len(result.Diags) != 1 || result.Diags[0].Category != m.CategoryMissingExport {
		t.Fatalf("expected missing-export, got %v", result.Diags)
	}

	if _, ok := result.Buffers[n]; ok {
		t.Fatal("failed node must not bank its buffer")
	}
}

func TestExecuteAllSkipsDependents(t *testing.T) {
	a := exportingNode("a.c", "x")
	b := &m.Node{Directive: m.Directive{Source: "b.c", Line: 1, Imports: []string{"x"}, Body: "x"}, Deps: []*m.Node{a}}
	c := &m.Node{Directive: m.Directive{Source: "c.c", Line: 1, Body: "x"}, Deps: []*m.Node{b}}
	free := &m.Node{Directive: m.Directive{Source: "d.c", Line: 1, Body: "x"}}

	eval := &fakeEvaluator{fn: func(req adapter.EvalRequest) (map[string]any, error) {
		if req.Source == "a.c" {
			return nil, errors.New("boom")
		}

		return map[string]any{}, nil
	}}

	obs := &obsRecorder{}

	result, err := ExecuteAll(context.Background(), ExecArgs{
		Order:    []*m.Node{a, b, c, free},
		Eval:     eval,
		Observer: obs,
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if result.Skipped[b] != a {
		t.Fatalf("b should be skipped because of a, got %v", result.Skipped[b])
	}

	// The root cause propagates through skipped intermediates.
	if result.Skipped[c] != a {
		t.Fatalf("c should inherit the root cause a, got %v", result.Skipped[c])
	}

	if _, ok := result.Skipped[free]; ok {
		t.Fatal("independent node must still run")
	}

	if len(result.Diags) != 1 || result.Diags[0].Category != m.CategoryBodyFailure {
		t.Fatalf("expected one body failure, got %v", result.Diags)
	}

	want := []string{
		"start 4",
		"run a.c:1 1/4",
		"fail a.c:1",
		"skip b.c:1 because a.c:1",
		"skip c.c:1 because a.c:1",
		"run d.c:1 4/4",
		"ok d.c:1",
	}
	if got := strings.Join(obs.events, "; "); got != strings.Join(want, "; ") {
		t.Fatalf("unexpected observer trace:\n%s", got)
	}
}

func TestExecuteAllNamespaces(t *testing.T) {
	producer := exportingNode("a.c", "v")
	consumer := &m.Node{Directive: m.Directive{Source: "b.c", Line: 1, Imports: []string{"v"}, Body: "x"}, Deps: []*m.Node{producer}}

	bare := &m.Node{Directive: m.Directive{Source: "c.c", Line: 1, Bare: true, Body: "x"}, Deps: []*m.Node{producer}}

	seen := map[string]map[string]any{}

	eval := &fakeEvaluator{fn: func(req adapter.EvalRequest) (map[string]any, error) {
		seen[string(req.Source)] = req.Namespace

		if req.Source == "a.c" {
			return map[string]any{"v": int64(2)}, nil
		}

		// Mutating the handed-in namespace must not poison later nodes.
		req.Namespace["v"] = int64(99)

		return map[string]any{}, nil
	}}

	defines := []m.Define{{Name: "k", Value: int64(1)}}

	result, err := ExecuteAll(context.Background(), ExecArgs{
		Order:   []*m.Node{producer, consumer, bare},
		Eval:    eval,
		Defines: defines,
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if len(result.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}

	if ns := seen["a.c"]; ns["k"] != int64(1) || len(ns) != 1 {
		t.Fatalf("producer namespace = %v, want just the define", ns)
	}

	if ns := seen["b.c"]; ns["v"] != int64(2) || ns["k"] != int64(1) {
		t.Fatalf("consumer namespace = %v", ns)
	}

	if ns := seen["c.c"]; ns["v"] != int64(2) || ns["k"] != int64(1) {
		t.Fatalf("bare namespace should see every export, got %v", ns)
	}
}

func TestExecuteAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := &fakeEvaluator{}

	_, err := ExecuteAll(ctx, ExecArgs{
		Order: []*m.Node{exportingNode("a.c", "x")},
		Eval:  eval,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	if len(eval.runs) != 0 {
		t.Fatal("nothing should run after cancellation")
	}
}

func TestExecuteAllBodyErrorDiagnostic(t *testing.T) {
	n := exportingNode("a.c", "x")
	n.Line = 3
	n.BodyLine = 4

	eval := &fakeEvaluator{fn: func(adapter.EvalRequest) (map[string]any, error) {
		return nil, &m.BodyError{
			Message: "division by zero",
			Stack: []m.Frame{
				{Span: m.Span{Source: "a.c", Start: 6, End: 6}, Func: "<directive>"},
			},
		}
	}}

	result, err := ExecuteAll(context.Background(), ExecArgs{
		Order: []*m.Node{n},
		Eval:  eval,
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if len(result.Diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", result.Diags)
	}

	d := result.Diags[0]
	if d.Category != m.CategoryBodyFailure {
		t.Fatalf("expected body-failure, got %s", d.Category)
	}

	if d.Span.Start != 6 {
		t.Fatalf("diagnostic should point at the failing line, got %d", d.Span.Start)
	}

	if !strings.Contains(d.Detail, "division by zero") {
		t.Fatalf("detail should carry the backtrace, got %q", d.Detail)
	}
}

func TestBuildArtifacts(t *testing.T) {
	first := &m.Node{Directive: m.Directive{Source: "a.c", Line: 1, Target: "gen/a.h"}}
	second := &m.Node{Directive: m.Directive{Source: "b.c", Line: 1, Target: "gen/a.h"}}
	other := &m.Node{Directive: m.Directive{Source: "c.c", Line: 1, Target: "gen/b.h"}}
	silent := &m.Node{Directive: m.Directive{Source: "d.c", Line: 1}}
	failed := &m.Node{Directive: m.Directive{Source: "e.c", Line: 1, Target: "gen/a.h"}}

	buffers := map[*m.Node]*emit.Buffer{}
	for text, n := range map[string]*m.Node{"one": first, "two": second, "three": other, "four": silent} {
		buf := emit.NewBuffer()
		buf.Line(text)
		buffers[n] = buf
	}

	artifacts := BuildArtifacts([]*m.Node{first, second, other, silent, failed}, buffers)

	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}

	wantA := "// [a.c].\none\n\n// [b.c].\ntwo\n"
	if string(artifacts[0].Text) != wantA {
		t.Fatalf("expected %q, got %q", wantA, artifacts[0].Text)
	}

	if artifacts[0].Target != "gen/a.h" || artifacts[0].Chunks != 2 {
		t.Fatalf("artifact meta wrong: %+v", artifacts[0])
	}

	wantB := "// [c.c].\nthree\n"
	if string(artifacts[1].Text) != wantB {
		t.Fatalf("expected %q, got %q", wantB, artifacts[1].Text)
	}
}

func TestBuildArtifactsEmpty(t *testing.T) {
	if got := BuildArtifacts(nil, nil); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}
