package domain

import (
	"fmt"
	"slices"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	m "github.com/mouse-blink/loom/internal/model"
)

// Resolve links every import to its exporter and builds the dependency plan.
// All resolution failures across the batch are collected and reported
// together rather than stopping at the first one.
func Resolve(directives []m.Directive, defines []m.Define) (*m.Plan, m.Diagnostics) {
	plan := &m.Plan{
		Directives: directives,
		Nodes:      make([]*m.Node, len(directives)),
		Exporters:  make(map[string]*m.Node),
	}

	for i, d := range directives {
		plan.Nodes[i] = &m.Node{Directive: d}
	}

	defineOrigins := make(map[string]m.Span, len(defines))
	for _, def := range defines {
		defineOrigins[def.Name] = def.Origin
	}

	var diags m.Diagnostics

	diags = append(diags, collectExporters(plan, defineOrigins)...)
	diags = append(diags, linkImports(plan, defineOrigins)...)
	linkBare(plan)

	return plan, diags
}

// collectExporters fills the export table, reporting a collision for every
// name claimed twice or already taken by a defined constant.
func collectExporters(plan *m.Plan, defineOrigins map[string]m.Span) m.Diagnostics {
	var diags m.Diagnostics

	for _, node := range plan.Nodes {
		for _, name := range node.Exports {
			if origin, ok := defineOrigins[name]; ok {
				diags = append(diags, m.Diagnostic{
					Category: m.CategoryExportCollision,
					Span:     headerSpan(node.Directive),
					Related:  []m.Span{origin},
					Message:  fmt.Sprintf("export %q collides with a defined constant", name),
				})

				continue
			}

			if prev, ok := plan.Exporters[name]; ok {
				diags = append(diags, m.Diagnostic{
					Category: m.CategoryExportCollision,
					Span:     headerSpan(node.Directive),
					Related:  []m.Span{headerSpan(prev.Directive)},
					Message:  fmt.Sprintf("multiple directives export %q", name),
				})

				continue
			}

			plan.Exporters[name] = node
		}
	}

	return diags
}

// linkImports resolves the explicit imports of every non-bare node into
// dependency edges.
func linkImports(plan *m.Plan, defineOrigins map[string]m.Span) m.Diagnostics {
	var diags m.Diagnostics

	for _, node := range plan.Nodes {
		if node.Bare {
			continue
		}

		deps := make(map[*m.Node]bool)

		for _, name := range node.Imports {
			if slices.Contains(node.Exports, name) {
				diags = append(diags, m.Diagnostic{
					Category: m.CategoryImportCycle,
					Span:     headerSpan(node.Directive),
					Message:  fmt.Sprintf("directive imports its own export %q", name),
				})

				continue
			}

			if origin, ok := defineOrigins[name]; ok {
				diags = append(diags, m.Diagnostic{
					Category: m.CategoryUnresolvedImport,
					Span:     headerSpan(node.Directive),
					Related:  []m.Span{origin},
					Message:  fmt.Sprintf("%q is a defined constant; it is available without importing", name),
				})

				continue
			}

			exporter, ok := plan.Exporters[name]
			if !ok {
				message := fmt.Sprintf("nothing exports %q", name)
				if hint := nearestExport(name, plan.Exporters); hint != "" {
					message = fmt.Sprintf("%s (did you mean %q?)", message, hint)
				}

				diags = append(diags, m.Diagnostic{
					Category: m.CategoryUnresolvedImport,
					Span:     headerSpan(node.Directive),
					Message:  message,
				})

				continue
			}

			deps[exporter] = true
		}

		node.Deps = sortedDeps(deps)
	}

	return diags
}

// linkBare gives every bare node an edge to every exporter in the batch, so
// it runs once the full export set is available.
func linkBare(plan *m.Plan) {
	for _, node := range plan.Nodes {
		if !node.Bare {
			continue
		}

		deps := make(map[*m.Node]bool)

		for _, exporter := range plan.Nodes {
			if len(exporter.Exports) > 0 && exporter != node {
				deps[exporter] = true
			}
		}

		node.Deps = sortedDeps(deps)
	}
}

// nearestExport suggests the closest known export name for a typo, or ""
// when nothing is close enough to be worth mentioning.
func nearestExport(name string, exporters map[string]*m.Node) string {
	names := make([]string, 0, len(exporters))
	for export := range exporters {
		names = append(names, export)
	}

	sort.Strings(names)

	matches := fuzzy.RankFindNormalizedFold(name, names)
	if len(matches) == 0 {
		return ""
	}

	sort.Sort(matches)

	return matches[0].Target
}

func sortedDeps(deps map[*m.Node]bool) []*m.Node {
	out := make([]*m.Node, 0, len(deps))
	for dep := range deps {
		out = append(out, dep)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j].Directive)
	})

	return out
}

func headerSpan(d m.Directive) m.Span {
	return m.Span{Source: d.Source, Start: d.Line, End: d.Line}
}
