package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	awhere "github.com/MwendaMugendi/awhere-go"
)

// maxColWidth caps a single column so one long cell cannot push the rest
// of the table off screen.
const maxColWidth = 24

// Table renders a normalized response table as aligned text with a styled
// header line. A maxWidth of 0 leaves lines unclipped.
func Table(t *awhere.Table, maxWidth int) string {
	if t == nil || t.Empty() {
		return HelpStyle.Render("No rows")
	}

	widths := columnWidths(t)

	var b strings.Builder
	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = pad(col, widths[i])
	}
	b.WriteString(TableHeaderStyle.Render(clip(strings.Join(header, "  "), maxWidth)))
	b.WriteByte('\n')

	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			cells[i] = pad(formatCell(row[col]), widths[i])
		}
		b.WriteString(clip(strings.Join(cells, "  "), maxWidth))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func columnWidths(t *awhere.Table) []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = lipgloss.Width(col)
	}
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			if w := lipgloss.Width(formatCell(row[col])); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColWidth {
			widths[i] = maxColWidth
		}
	}
	return widths
}

func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if n := width - lipgloss.Width(s); n > 0 {
		s += strings.Repeat(" ", n)
	}
	return s
}

func clip(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}
	return ansi.Truncate(s, maxWidth, "…")
}

// formatCell renders one table cell. Missing cells render empty rather
// than as a placeholder so sparse columns stay readable.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber prints a reading with at most two decimals. Shorter
// fractions keep their exact form.
func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return s
}
