package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows under a header with aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Empty is printed instead of the table when there are no rows.
	Empty string
}

// NewTable creates a Table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table with st.
func (t *Table) View(st Styles) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(st.Heading.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		if t.Empty != "" {
			sb.WriteString(st.Muted.Render(t.Empty))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// Width includes the one-cell padding on each side.
	for i := range widths {
		widths[i] += 2
	}

	header := st.Bold.Padding(0, 1)
	cell := st.Body.Padding(0, 1)
	sep := st.Muted.Render("|")

	for i, h := range t.Headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(header.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(st.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i := range widths {
			if i > 0 {
				sb.WriteString(sep)
			}
			var v string
			if i < len(row) {
				v = row[i]
			}
			sb.WriteString(cell.Width(widths[i]).Render(v))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
