package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	m "github.com/mouse-blink/loom/internal/model"
)

var graphDotFlag bool

// graphCmd represents the graph command.
var graphCmd = newGraphCmd()

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Print the directive dependency graph",
		Long: `Graph scans the given paths and prints which directive feeds which,
one edge per line in schedule order. With --dot the graph is rendered
in Graphviz format instead:

  loom graph --dot src/... | dot -Tsvg -o deps.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest()
			if err != nil {
				return err
			}

			planArgs, err := resolvePlanArgs(args, manifest)
			if err != nil {
				return err
			}

			plan, err := workflow.Plan(cmd.Context(), planArgs)
			if err != nil {
				return err
			}

			if graphDotFlag {
				renderDot(cmd.OutOrStdout(), plan)

				return nil
			}

			renderEdges(cmd.OutOrStdout(), plan)

			return nil
		},
	}
	cmd.Flags().BoolVar(&graphDotFlag, "dot", false, "render the graph in Graphviz dot format")

	return cmd
}

// renderDot writes the dependency graph in Graphviz syntax. Edges point from
// exporter to importer, so generation flows left to right.
func renderDot(w io.Writer, plan *m.Plan) {
	_, _ = fmt.Fprintln(w, "digraph loom {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, node := range plan.Order {
		_, _ = fmt.Fprintf(w, "  %q;\n", node.Ref())

		for _, dep := range node.Deps {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", dep.Ref(), node.Ref())
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

// renderEdges lists each node with the directives it depends on, in schedule
// order.
func renderEdges(w io.Writer, plan *m.Plan) {
	for i, node := range plan.Order {
		_, _ = fmt.Fprintf(w, "%3d  %s", i+1, node.Ref())

		for j, dep := range node.Deps {
			if j == 0 {
				_, _ = fmt.Fprint(w, "  <- ")
			} else {
				_, _ = fmt.Fprint(w, ", ")
			}

			_, _ = fmt.Fprint(w, dep.Ref())
		}

		_, _ = fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
