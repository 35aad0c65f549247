package tui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Table width limits.
const (
	// DefaultTerminalWidth is assumed when the width cannot be detected.
	DefaultTerminalWidth = 80

	// MinColumnWidth is the narrowest a column is squeezed to.
	MinColumnWidth = 6

	columnGap = 2
)

// Table renders rows as aligned columns. Cell widths are measured in
// terminal cells, so wide runes and emoji line up.
type Table struct {
	w        io.Writer
	styles   *TableStyles
	headers  []string
	rows     [][]string
	maxWidth int
}

// NewAutoTable creates a table sized to its content and the terminal width.
func NewAutoTable(w io.Writer, headers []string, rows [][]string) *Table {
	return &Table{
		w:        w,
		styles:   NewTableStyles(),
		headers:  headers,
		rows:     rows,
		maxWidth: detectTerminalWidth(w),
	}
}

// WithMaxWidth overrides the detected terminal width.
func (t *Table) WithMaxWidth(width int) *Table {
	t.maxWidth = width
	return t
}

// Render writes the header and every row.
func (t *Table) Render() {
	widths := t.columnWidths()

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = t.styles.Header.Render(fit(h, widths[i]))
	}
	_, _ = io.WriteString(t.w, strings.TrimRight(strings.Join(header, strings.Repeat(" ", columnGap)), " ")+"\n")

	for _, row := range t.rows {
		cells := make([]string, len(t.headers))
		for i := range t.headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = t.styles.Cell.Render(fit(cell, widths[i]))
		}
		_, _ = io.WriteString(t.w, strings.TrimRight(strings.Join(cells, strings.Repeat(" ", columnGap)), " ")+"\n")
	}
}

// columnWidths sizes columns to content, then shrinks the widest column
// until the table fits maxWidth.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	if t.maxWidth <= 0 {
		return widths
	}
	for total(widths) > t.maxWidth {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= MinColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func total(widths []int) int {
	sum := columnGap * (len(widths) - 1)
	for _, w := range widths {
		sum += w
	}
	return sum
}

// fit truncates s with an ellipsis or pads it to exactly width cells.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// detectTerminalWidth returns the width of w when it is a terminal, or
// DefaultTerminalWidth otherwise.
func detectTerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // fd fits in int
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}
