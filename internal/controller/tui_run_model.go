package controller

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	runOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	runFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	runSkipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	runDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// runModel is the Bubble Tea model for live generation progress. Completed
// directives scroll up as plain lines; the bottom line carries the spinner,
// the progress bar, and the directive currently executing.
type runModel struct {
	spin spinner.Model
	bar  progress.Model

	total    int
	finished int
	failures int
	skips    int
	current  string

	lines         []string
	artifactsLine string

	width int
	done  bool
}

func newRunModel() runModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return runModel{spin: spin, bar: bar}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spin.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width

		return rm, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spin, cmd = rm.spin.Update(msg)

		return rm, cmd

	case runStartedMsg:
		rm.total = msg.total
		rm.finished = 0
		rm.failures = 0
		rm.skips = 0

		return rm, nil

	case nodeStartedMsg:
		rm.current = msg.ref

		return rm, nil

	case nodeFinishedMsg:
		rm.finished++
		rm.current = ""

		if msg.err != nil {
			rm.failures++
			rm.lines = append(rm.lines,
				runFailStyle.Render("x "+msg.ref)+runDimStyle.Render("  "+msg.err.Error()))
		} else {
			rm.lines = append(rm.lines, runOkStyle.Render("+ "+msg.ref))
		}

		return rm, nil

	case nodeSkippedMsg:
		rm.finished++
		rm.skips++
		rm.lines = append(rm.lines,
			runSkipStyle.Render("~ "+msg.ref)+runDimStyle.Render("  depends on failed "+msg.cause))

		return rm, nil

	case printMsg:
		rm.lines = append(rm.lines, runDimStyle.Render(msg.text))

		return rm, nil

	case artifactsMsg:
		rm.artifactsLine = fmt.Sprintf("Wrote %d artifact(s) under %s", msg.count, msg.root)

		return rm, nil

	case runDoneMsg:
		rm.done = true
		rm.current = ""

		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	for _, line := range rm.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if rm.artifactsLine != "" {
		b.WriteString(runOkStyle.Render(rm.artifactsLine))
		b.WriteString("\n")
	}

	if rm.done {
		b.WriteString(rm.summary())
		b.WriteString("\n")

		return b.String()
	}

	percent := 0.0
	if rm.total > 0 {
		percent = float64(rm.finished) / float64(rm.total)
	}

	fmt.Fprintf(&b, "\n%s %s %d/%d", rm.spin.View(), rm.bar.ViewAs(percent), rm.finished, rm.total)

	if rm.current != "" {
		b.WriteString("  " + runDimStyle.Render(rm.current))
	}

	b.WriteString("\n")

	return b.String()
}

func (rm runModel) summary() string {
	executed := rm.finished - rm.skips

	parts := []string{fmt.Sprintf("%d executed", executed)}

	if rm.failures > 0 {
		parts = append(parts, runFailStyle.Render(fmt.Sprintf("%d failed", rm.failures)))
	}

	if rm.skips > 0 {
		parts = append(parts, runSkipStyle.Render(fmt.Sprintf("%d skipped", rm.skips)))
	}

	return strings.Join(parts, ", ")
}
