package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/mouse-blink/loom/internal/model"
)

// SimpleUI implements UI with plain text on the cobra Command's output. It is
// what non-interactive runs and --plain get.
type SimpleUI struct {
	cmd      *cobra.Command
	readFile ReadFileFunc
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, readFile ReadFileFunc) *SimpleUI {
	return &SimpleUI{cmd: cmd, readFile: readFile}
}

// Start initializes the UI.
func (s *SimpleUI) Start(options ...StartOption) error {
	var config StartConfig
	for _, option := range options {
		option(&config)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {

}

// DisplayPlan prints the schedule as a table.
func (s *SimpleUI) DisplayPlan(plan *m.Plan) error {
	if len(plan.Order) == 0 {
		s.printf("No directives found\n")

		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"#", "Directive", "Exports", "Imports", "Target"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	targets := 0

	for i, node := range plan.Order {
		target := ""
		if node.HasTarget() {
			target = string(node.Target)
			targets++
		}

		imports := strings.Join(node.Imports, ", ")
		if node.Bare {
			imports = "(everything)"
		}

		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			node.Ref(),
			strings.Join(node.Exports, ", "),
			imports,
			target,
		})
	}

	table.SetFooter([]string{
		"", fmt.Sprintf("%d directives", len(plan.Order)), "", "",
		fmt.Sprintf("%d targeted", targets),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayDiagnostics prints the failure batch with source excerpts.
func (s *SimpleUI) DisplayDiagnostics(diags m.Diagnostics) {
	renderDiagnostics(s.cmd.OutOrStderr(), diags, s.readFile, diagnosticStyles{})
}

// DisplayReport prints a persisted run report.
func (s *SimpleUI) DisplayReport(report m.Report) error {
	s.printf("Run started %s, took %s: %d sources, %d directives\n",
		report.StartedAt.Format("2006-01-02 15:04:05"), report.Elapsed,
		report.Sources, len(report.Directives))

	if len(report.Artifacts) > 0 {
		var tableBuffer bytes.Buffer

		table := tablewriter.NewWriter(&tableBuffer)
		table.SetHeader([]string{"Artifact", "Bytes", "Chunks", "SHA-256"})
		table.SetBorder(false)
		table.SetCenterSeparator("")

		for _, artifact := range report.Artifacts {
			table.Append([]string{
				artifact.Path,
				fmt.Sprintf("%d", artifact.Bytes),
				fmt.Sprintf("%d", artifact.Chunks),
				shortHash(artifact.Sha256),
			})
		}

		table.Render()
		s.printf("\n%s", tableBuffer.String())
	}

	if len(report.Failures) > 0 {
		s.printf("\n%d failure(s):\n", len(report.Failures))

		for _, failure := range report.Failures {
			s.printf("  [%s] %s: %s\n", failure.Category, failure.Where, failure.Message)
		}
	}

	return nil
}

// RunStarted announces the execution phase.
func (s *SimpleUI) RunStarted(total int) {
	s.printf("Executing %d directive(s)\n", total)
}

// NodeStarted is quiet in plain mode; completion lines carry the progress.
func (s *SimpleUI) NodeStarted(_ *m.Node, _, _ int) {

}

// NodeFinished prints one line per executed directive.
func (s *SimpleUI) NodeFinished(node *m.Node, index, total int, err error) {
	if err != nil {
		s.printf("[%d/%d] FAIL %s: %v\n", index+1, total, node.Ref(), err)

		return
	}

	s.printf("[%d/%d] ok   %s\n", index+1, total, node.Ref())
}

// NodeSkipped prints the directive that was skipped and the failure it
// depends on.
func (s *SimpleUI) NodeSkipped(node *m.Node, cause *m.Node) {
	s.printf("[-] skip %s (depends on failed %s)\n", node.Ref(), cause.Ref())
}

// ArtifactsWritten summarizes the written outputs.
func (s *SimpleUI) ArtifactsWritten(root m.Path, artifacts []m.Artifact) {
	s.printf("Wrote %d artifact(s) under %s\n", len(artifacts), root)

	for _, artifact := range artifacts {
		s.printf("  %s (%d bytes, %d chunk(s))\n", artifact.Target, len(artifact.Text), artifact.Chunks)
	}
}

// WatchStarted announces watch mode.
func (s *SimpleUI) WatchStarted(paths int) {
	s.printf("Watching %d file(s) for changes; press Ctrl-C to stop\n", paths)
}

// Printf surfaces incidental output such as body print calls.
func (s *SimpleUI) Printf(format string, args ...any) {
	s.printf(format, args...)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}

	return hash
}
