package emit

import (
	"fmt"
	"strings"
)

// TableField is one field of a lookup table row. Type is consulted only when
// the table's element type is inferred.
type TableField struct {
	Type  string
	Name  string
	Value string
}

// TableRow is one entry of a lookup table. A non-empty Index becomes an
// explicit array designator; rows must either all carry an index or none.
type TableRow struct {
	Index  string
	Fields []TableField
}

// Table emits a static const lookup table. When elemType is empty the element
// type is inferred as an anonymous struct from the field types, in first-seen
// field order; otherwise rows render as designated initializers of elemType.
// Values are padded column-wise so the table reads as a grid. Duplicate
// indices and duplicate field names within a row are rejected.
func (b *Buffer) Table(name, elemType string, rows []TableRow) error {
	indexed, err := tableIndexMode(name, rows)
	if err != nil {
		return err
	}

	cells := make([][]string, len(rows))

	for i, row := range rows {
		names := make([]string, len(row.Fields))
		cells[i] = make([]string, len(row.Fields))

		for j, field := range row.Fields {
			names[j] = field.Name

			if elemType == "" {
				cells[i][j] = field.Value
			} else {
				cells[i][j] = fmt.Sprintf(".%s = %s", field.Name, field.Value)
			}
		}

		if dupe := findDupe(names); dupe != "" {
			return fmt.Errorf("table %q row %d repeats field %q", name, i, dupe)
		}
	}

	rowType := elemType
	if rowType == "" {
		rowType, err = inferredElemType(name, rows)
		if err != nil {
			return err
		}
	}

	lines := renderTableLines(rows, cells, indexed)

	return b.Scope(fmt.Sprintf("static const %s %s[] =", rowType, name), func() error {
		b.Line(lines...)
		return nil
	})
}

// tableIndexMode decides between designated and sequential rows, rejecting a
// mix of the two.
func tableIndexMode(name string, rows []TableRow) (bool, error) {
	indexed := 0

	for _, row := range rows {
		if row.Index != "" {
			indexed++
		}
	}

	switch indexed {
	case 0:
		return false, nil
	case len(rows):
		var indices []string
		for _, row := range rows {
			indices = append(indices, row.Index)
		}

		if dupe := findDupe(indices); dupe != "" {
			return false, fmt.Errorf("table %q repeats index %q", name, dupe)
		}

		return true, nil
	default:
		return false, fmt.Errorf("table %q mixes indexed and sequential rows", name)
	}
}

// inferredElemType builds an anonymous struct type from the field types of
// every row, deduplicated in first-seen order.
func inferredElemType(name string, rows []TableRow) (string, error) {
	var (
		members []string
		seen    = make(map[string]bool)
	)

	for _, row := range rows {
		for _, field := range row.Fields {
			if field.Type == "" {
				return "", fmt.Errorf("table %q field %q needs a type to infer the element type", name, field.Name)
			}

			member := fmt.Sprintf("%s %s;", field.Type, field.Name)
			if !seen[member] {
				seen[member] = true
				members = append(members, member)
			}
		}
	}

	return fmt.Sprintf("struct { %s }", strings.Join(members, " ")), nil
}

// renderTableLines pads cells column-wise and attaches index designators.
func renderTableLines(rows []TableRow, cells [][]string, indexed bool) []string {
	widths := columnWidths(cells)
	lines := make([]string, len(rows))

	for i := range rows {
		padded := make([]string, len(cells[i]))
		for j, cell := range cells[i] {
			padded[j] = padRight(cell, widths[j])
		}

		lines[i] = fmt.Sprintf("{ %s },", strings.Join(padded, ", "))
	}

	if indexed {
		indices := make([]string, len(rows))
		for i, row := range rows {
			indices[i] = row.Index
		}

		indexWidth := maxLen(indices)
		for i := range lines {
			lines[i] = fmt.Sprintf("[%s] = %s", padRight(indices[i], indexWidth), lines[i])
		}
	}

	return lines
}
