package domain

import (
	"strings"
	"testing"

	m "github.com/mouse-blink/loom/internal/model"
)

func directive(source string, ordinal int, exports, imports []string) m.Directive {
	return m.Directive{
		Source:  m.Path(source),
		Line:    ordinal*10 + 1,
		Ordinal: ordinal,
		Exports: exports,
		Imports: imports,
	}
}

func bareDirective(source string, ordinal int) m.Directive {
	d := directive(source, ordinal, nil, nil)
	d.Bare = true

	return d
}

func TestResolveLinksImports(t *testing.T) {
	plan, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"x", "y"}, nil),
		directive("b.c", 0, nil, []string{"x", "y"}),
	}, nil)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if plan.Exporters["x"] != plan.Nodes[0] || plan.Exporters["y"] != plan.Nodes[0] {
		t.Fatal("exporter table not filled")
	}

	deps := plan.Nodes[1].Deps
	if len(deps) != 1 || deps[0] != plan.Nodes[0] {
		t.Fatalf("expected a single deduplicated dep, got %v", deps)
	}
}

func TestResolveExportCollision(t *testing.T) {
	plan, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"x"}, nil),
		directive("b.c", 0, []string{"x"}, nil),
	}, nil)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}

	d := diags[0]
	if d.Category != m.CategoryExportCollision {
		t.Fatalf("expected export collision, got %s", d.Category)
	}

	if d.Span.Source != "b.c" {
		t.Fatalf("collision should point at the later claimant, got %s", d.Span.Source)
	}

	if len(d.Related) != 1 || d.Related[0].Source != "a.c" {
		t.Fatalf("expected related span at first exporter, got %v", d.Related)
	}

	// The first claimant keeps the name.
	if plan.Exporters["x"] != plan.Nodes[0] {
		t.Fatal("first exporter lost the name")
	}
}

func TestResolveDefineCollision(t *testing.T) {
	defines := []m.Define{{
		Name:   "x",
		Value:  int64(1),
		Origin: m.Span{Source: "loom.hcl", Start: 3},
	}}

	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"x"}, nil),
	}, defines)

	if len(diags) != 1 || diags[0].Category != m.CategoryExportCollision {
		t.Fatalf("expected collision with define, got %v", diags)
	}

	if len(diags[0].Related) != 1 || diags[0].Related[0].Source != "loom.hcl" {
		t.Fatalf("expected related span at the define, got %v", diags[0].Related)
	}
}

func TestResolveImportOfDefine(t *testing.T) {
	defines := []m.Define{{Name: "limit", Value: int64(8)}}

	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, nil, []string{"limit"}),
	}, defines)

	if len(diags) != 1 || diags[0].Category != m.CategoryUnresolvedImport {
		t.Fatalf("expected unresolved-import, got %v", diags)
	}

	if !strings.Contains(diags[0].Message, "without importing") {
		t.Fatalf("expected the define hint, got %q", diags[0].Message)
	}
}

func TestResolveUnresolvedImportWithHint(t *testing.T) {
	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"sizes"}, nil),
		directive("b.c", 0, nil, []string{"size"}),
	}, nil)

	if len(diags) != 1 || diags[0].Category != m.CategoryUnresolvedImport {
		t.Fatalf("expected unresolved-import, got %v", diags)
	}

	if !strings.Contains(diags[0].Message, `did you mean "sizes"`) {
		t.Fatalf("expected a suggestion, got %q", diags[0].Message)
	}
}

func TestResolveUnresolvedImportNoHint(t *testing.T) {
	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, nil, []string{"qqq"}),
	}, nil)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}

	if strings.Contains(diags[0].Message, "did you mean") {
		t.Fatalf("no candidates means no suggestion, got %q", diags[0].Message)
	}
}

func TestResolveSelfImport(t *testing.T) {
	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"x"}, []string{"x"}),
	}, nil)

	if len(diags) != 1 || diags[0].Category != m.CategoryImportCycle {
		t.Fatalf("expected import-cycle, got %v", diags)
	}
}

func TestResolveBareDependsOnEveryExporter(t *testing.T) {
	plan, diags := Resolve([]m.Directive{
		directive("b.c", 0, []string{"x"}, nil),
		directive("a.c", 0, []string{"y"}, nil),
		directive("a.c", 1, nil, []string{"x"}),
		bareDirective("c.c", 0),
	}, nil)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	bare := plan.Nodes[3]
	if len(bare.Deps) != 2 {
		t.Fatalf("bare node must depend on both exporters, got %v", bare.Deps)
	}

	// Deps come back in (source, ordinal) order.
	if bare.Deps[0].Source != "a.c" || bare.Deps[1].Source != "b.c" {
		t.Fatalf("deps out of order: %s, %s", bare.Deps[0].Source, bare.Deps[1].Source)
	}
}

func TestResolveBareWithNoExporters(t *testing.T) {
	plan, diags := Resolve([]m.Directive{
		bareDirective("a.c", 0),
	}, nil)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if len(plan.Nodes[0].Deps) != 0 {
		t.Fatalf("expected no deps, got %v", plan.Nodes[0].Deps)
	}
}

func TestResolveCollectsEverything(t *testing.T) {
	// One batch with a collision, an unresolved import, and a self-import
	// reports all three at once.
	_, diags := Resolve([]m.Directive{
		directive("a.c", 0, []string{"x"}, nil),
		directive("b.c", 0, []string{"x"}, nil),
		directive("c.c", 0, nil, []string{"missing"}),
		directive("d.c", 0, []string{"z"}, []string{"z"}),
	}, nil)

	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %v", len(diags), diags)
	}
}
