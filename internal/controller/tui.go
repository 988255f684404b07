package controller

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/mouse-blink/loom/internal/model"
)

// TUI implements UI with styled output and a live Bubble Tea view during
// generation runs.
type TUI struct {
	output   io.Writer
	readFile ReadFileFunc

	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer, readFile ReadFileFunc) *TUI {
	return &TUI{output: output, readFile: readFile}
}

// Start launches the live view in run mode. Plan mode renders statically and
// needs no program.
func (t *TUI) Start(options ...StartOption) error {
	var config StartConfig
	for _, option := range options {
		option(&config)
	}

	if config.mode != ModeRun {
		return nil
	}

	t.program = tea.NewProgram(newRunModel(), tea.WithOutput(t.output))
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		_, _ = t.program.Run()
	}()

	return nil
}

// Close stops the live view after it has printed its final frame.
func (t *TUI) Close() {
	if t.program == nil {
		return
	}

	t.program.Send(runDoneMsg{})
	<-t.done

	t.program = nil
	t.done = nil
}

// DisplayPlan prints the schedule with one line per directive.
func (t *TUI) DisplayPlan(plan *m.Plan) error {
	if len(plan.Order) == 0 {
		_, _ = fmt.Fprintln(t.output, "No directives found")

		return nil
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	_, _ = fmt.Fprintln(t.output, title.Render(fmt.Sprintf("Schedule, %d directive(s)", len(plan.Order))))

	refWidth := 0

	for _, node := range plan.Order {
		if len(node.Ref()) > refWidth {
			refWidth = len(node.Ref())
		}
	}

	for i, node := range plan.Order {
		var parts []string

		if len(node.Exports) > 0 {
			parts = append(parts, "exports "+strings.Join(node.Exports, ", "))
		}

		if node.Bare {
			parts = append(parts, "imports everything")
		} else if len(node.Imports) > 0 {
			parts = append(parts, "imports "+strings.Join(node.Imports, ", "))
		}

		if node.HasTarget() {
			parts = append(parts, "writes "+string(node.Target))
		}

		_, _ = fmt.Fprintf(t.output, "  %2d. %-*s  %s\n",
			i+1, refWidth, node.Ref(), runDimStyle.Render(strings.Join(parts, "; ")))
	}

	return nil
}

// DisplayDiagnostics prints the failure batch with colored source excerpts.
func (t *TUI) DisplayDiagnostics(diags m.Diagnostics) {
	renderDiagnostics(t.output, diags, t.readFile, coloredDiagnosticStyles())
}

// DisplayReport prints a persisted run report.
func (t *TUI) DisplayReport(report m.Report) error {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	_, _ = fmt.Fprintln(t.output, title.Render(fmt.Sprintf(
		"Run of %s, %d source(s), %d directive(s), took %s",
		report.StartedAt.Format("2006-01-02 15:04:05"),
		report.Sources, len(report.Directives), report.Elapsed)))

	for _, artifact := range report.Artifacts {
		_, _ = fmt.Fprintf(t.output, "  %s  %s\n", artifact.Path,
			runDimStyle.Render(fmt.Sprintf("%d bytes, %d chunk(s), %s",
				artifact.Bytes, artifact.Chunks, shortHash(artifact.Sha256))))
	}

	for _, failure := range report.Failures {
		_, _ = fmt.Fprintf(t.output, "  %s %s: %s\n",
			runFailStyle.Render("["+failure.Category+"]"), failure.Where, failure.Message)
	}

	return nil
}

// RunStarted feeds the live view.
func (t *TUI) RunStarted(total int) {
	t.send(runStartedMsg{total: total})
}

// NodeStarted feeds the live view.
func (t *TUI) NodeStarted(node *m.Node, index, total int) {
	t.send(nodeStartedMsg{ref: node.Ref(), index: index, total: total})
}

// NodeFinished feeds the live view.
func (t *TUI) NodeFinished(node *m.Node, _, _ int, err error) {
	t.send(nodeFinishedMsg{ref: node.Ref(), err: err})
}

// NodeSkipped feeds the live view.
func (t *TUI) NodeSkipped(node *m.Node, cause *m.Node) {
	t.send(nodeSkippedMsg{ref: node.Ref(), cause: cause.Ref()})
}

// ArtifactsWritten feeds the live view, or prints directly when no run view
// is up.
func (t *TUI) ArtifactsWritten(root m.Path, artifacts []m.Artifact) {
	if t.program == nil {
		_, _ = fmt.Fprintf(t.output, "Wrote %d artifact(s) under %s\n", len(artifacts), root)

		return
	}

	t.send(artifactsMsg{root: string(root), count: len(artifacts)})
}

// WatchStarted announces watch mode between runs.
func (t *TUI) WatchStarted(paths int) {
	_, _ = fmt.Fprintf(t.output, "%s\n",
		runDimStyle.Render(fmt.Sprintf("Watching %d file(s) for changes; press Ctrl-C to stop", paths)))
}

// Printf surfaces incidental output such as body print calls.
func (t *TUI) Printf(format string, args ...any) {
	text := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	if t.program == nil {
		_, _ = fmt.Fprintln(t.output, text)

		return
	}

	t.send(printMsg{text: text})
}

func (t *TUI) send(msg tea.Msg) {
	if t.program == nil {
		return
	}

	t.program.Send(msg)
}
