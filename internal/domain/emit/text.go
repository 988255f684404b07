package emit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// splitLines splits on newlines without producing a phantom empty line for a
// trailing newline. An empty string yields no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	s = strings.TrimSuffix(s, "\n")

	return strings.Split(s, "\n")
}

// Deindent strips the common leading indentation from a multi-line fragment.
// A leading blank line is dropped, and the indent of the first non-blank line
// becomes the amount stripped from every following line. Lines indented less
// than that keep only their own indent removed, never more.
func Deindent(s string) string {
	lines := splitLines(s)
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	base := -1

	for i, line := range lines {
		own := len(line) - len(strings.TrimLeft(line, " "))

		if base < 0 && strings.TrimSpace(line) != "" {
			base = own
		}

		strip := own
		if base >= 0 && base < strip {
			strip = base
		}

		lines[i] = line[strip:]
	}

	return strings.Join(lines, "\n")
}

// ReprC renders a value the way generated C expects to see it: booleans
// lowercased, whole floats without a fractional part, nil as "none", and
// everything else via its default formatting.
func ReprC(v any) string {
	switch x := v.(type) {
	case nil:
		return "none"
	case bool:
		if x {
			return "true"
		}

		return "false"
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}

		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// columnWidths computes the widest cell per column across ragged rows.
func columnWidths(rows [][]string) []int {
	var widths []int

	for _, row := range rows {
		for i, cell := range row {
			for len(widths) <= i {
				widths = append(widths, 0)
			}

			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	return widths
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return s + strings.Repeat(" ", width-len(s))
}

// maxLen returns the length of the longest string.
func maxLen(items []string) int {
	widest := 0

	for _, item := range items {
		if len(item) > widest {
			widest = len(item)
		}
	}

	return widest
}

// findDupe returns the first repeated string, or "" when all are distinct.
func findDupe(items []string) string {
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if seen[item] {
			return item
		}

		seen[item] = true
	}

	return ""
}
