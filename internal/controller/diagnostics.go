package controller

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	m "github.com/mouse-blink/loom/internal/model"
)

// excerptContext is how many source lines to show around an offending line.
const excerptContext = 2

// diagnosticStyles bundles the styles used when rendering diagnostics. The
// zero value renders everything unstyled, which is what the plain UI wants.
type diagnosticStyles struct {
	category lipgloss.Style
	location lipgloss.Style
	lineNum  lipgloss.Style
	bad      lipgloss.Style
	context  lipgloss.Style
	related  lipgloss.Style
	detail   lipgloss.Style
}

func coloredDiagnosticStyles() diagnosticStyles {
	return diagnosticStyles{
		category: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		location: lipgloss.NewStyle().Bold(true),
		lineNum:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		bad:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		context:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		related:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// renderDiagnostics writes the batch, one block per diagnostic, with a
// trailing problem count.
func renderDiagnostics(w io.Writer, diags m.Diagnostics, readFile ReadFileFunc, styles diagnosticStyles) {
	for i, d := range diags {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}

		renderDiagnostic(w, d, readFile, styles)
	}

	_, _ = fmt.Fprintf(w, "\n%d problem(s)\n", len(diags))
}

func renderDiagnostic(w io.Writer, d m.Diagnostic, readFile ReadFileFunc, styles diagnosticStyles) {
	head := styles.category.Render(fmt.Sprintf("[%s]", d.Category))

	if d.Span.IsZero() {
		_, _ = fmt.Fprintf(w, "%s %s\n", head, d.Message)
	} else {
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", head, styles.location.Render(d.Span.String()), d.Message)
	}

	renderExcerpt(w, d.Span, readFile, styles)

	for _, rel := range d.Related {
		_, _ = fmt.Fprintf(w, "    %s\n", styles.related.Render("see also "+rel.String()))
	}

	if d.Detail != "" {
		for _, line := range strings.Split(d.Detail, "\n") {
			_, _ = fmt.Fprintf(w, "    %s\n", styles.detail.Render(line))
		}
	}
}

// renderExcerpt prints the offending lines with surrounding context. It is
// silent when the file cannot be read or the span is out of range.
func renderExcerpt(w io.Writer, span m.Span, readFile ReadFileFunc, styles diagnosticStyles) {
	if readFile == nil || span.Source == "" || span.Start <= 0 {
		return
	}

	content, err := readFile(span.Source)
	if err != nil {
		return
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if span.Start > len(lines) {
		return
	}

	markEnd := span.End
	if markEnd < span.Start {
		markEnd = span.Start
	}

	first := span.Start - excerptContext
	if first < 1 {
		first = 1
	}

	last := markEnd + excerptContext
	if last > len(lines) {
		last = len(lines)
	}

	width := len(fmt.Sprintf("%d", last))

	for n := first; n <= last; n++ {
		text := strings.ReplaceAll(lines[n-1], "\t", "    ")
		num := styles.lineNum.Render(fmt.Sprintf("%*d", width, n))

		if n >= span.Start && n <= markEnd {
			_, _ = fmt.Fprintf(w, "    %s > %s\n", num, styles.bad.Render(text))
		} else {
			_, _ = fmt.Fprintf(w, "    %s | %s\n", num, styles.context.Render(text))
		}
	}
}
