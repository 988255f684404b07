package domain

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	m "github.com/mouse-blink/loom/internal/model"
)

// Schedule orders nodes so every dependency runs before its dependents.
// Ready nodes are drained smallest-first by (source, ordinal), so the same
// input set always yields the same order no matter how it was discovered.
// Nodes left over after the drain sit on cycles, reported one diagnostic
// per cycle with the full path.
func Schedule(nodes []*m.Node) ([]*m.Node, m.Diagnostics) {
	indegree := make(map[*m.Node]int, len(nodes))
	dependents := make(map[*m.Node][]*m.Node)

	for _, node := range nodes {
		indegree[node] = len(node.Deps)

		for _, dep := range node.Deps {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	ready := &nodeHeap{}

	for _, node := range nodes {
		if indegree[node] == 0 {
			heap.Push(ready, node)
		}
	}

	order := make([]*m.Node, 0, len(nodes))

	for ready.Len() > 0 {
		node := heap.Pop(ready).(*m.Node)
		order = append(order, node)

		for _, dependent := range dependents[node] {
			indegree[dependent]--

			if indegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) == len(nodes) {
		return order, nil
	}

	return nil, cycleDiagnostics(leftoverNodes(nodes, order))
}

// leftoverNodes returns the nodes missing from the drained order, in
// (source, ordinal) order.
func leftoverNodes(nodes, order []*m.Node) []*m.Node {
	scheduled := make(map[*m.Node]bool, len(order))
	for _, node := range order {
		scheduled[node] = true
	}

	var leftovers []*m.Node

	for _, node := range nodes {
		if !scheduled[node] {
			leftovers = append(leftovers, node)
		}
	}

	sort.Slice(leftovers, func(i, j int) bool {
		return leftovers[i].Before(leftovers[j].Directive)
	})

	return leftovers
}

// cycleDiagnostics walks the leftover subgraph and reports each distinct
// cycle it reaches. Leftovers that merely depend on a cycle produce no
// diagnostic of their own; they are covered by the cycle they hang off.
func cycleDiagnostics(leftovers []*m.Node) m.Diagnostics {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*m.Node]int, len(leftovers))
	stuck := make(map[*m.Node]bool, len(leftovers))

	for _, node := range leftovers {
		stuck[node] = true
	}

	var (
		diags m.Diagnostics
		path  []*m.Node
		visit func(node *m.Node)
	)

	visit = func(node *m.Node) {
		color[node] = gray
		path = append(path, node)

		for _, dep := range node.Deps {
			if !stuck[dep] {
				continue
			}

			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				diags = append(diags, cycleDiagnostic(extractCycle(path, dep)))
			}
		}

		path = path[:len(path)-1]
		color[node] = black
	}

	for _, node := range leftovers {
		if color[node] == white {
			visit(node)
		}
	}

	return diags
}

// extractCycle slices the DFS path from the first occurrence of start.
func extractCycle(path []*m.Node, start *m.Node) []*m.Node {
	for i, node := range path {
		if node == start {
			cycle := make([]*m.Node, len(path)-i)
			copy(cycle, path[i:])

			return cycle
		}
	}

	return path
}

func cycleDiagnostic(cycle []*m.Node) m.Diagnostic {
	refs := make([]string, 0, len(cycle)+1)
	related := make([]m.Span, 0, len(cycle))

	for _, node := range cycle {
		refs = append(refs, node.Ref())
		related = append(related, headerSpan(node.Directive))
	}

	refs = append(refs, cycle[0].Ref())

	return m.Diagnostic{
		Category: m.CategoryImportCycle,
		Span:     headerSpan(cycle[0].Directive),
		Related:  related,
		Message:  fmt.Sprintf("import cycle: %s", strings.Join(refs, " -> ")),
	}
}

// nodeHeap is a min-heap of nodes keyed by (source, ordinal).
type nodeHeap []*m.Node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	return h[i].Before(h[j].Directive)
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*m.Node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]

	return node
}
