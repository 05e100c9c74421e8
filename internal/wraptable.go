package gudgeontop

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RowStyleFunc styles a data row (0 based, header excluded) and column
type RowStyleFunc func(row, col int) lipgloss.Style

// WrapTable wraps lipgloss table to support height-based wrapping
// When data exceeds maxHeight, it creates multiple tables side-by-side
type WrapTable struct {
	headers     []string
	rows        [][]string
	maxHeight   int
	maxWidth    int
	noWrap      bool
	border      lipgloss.Border
	borderStyle lipgloss.Style
	styleFunc   RowStyleFunc
}

// NewWrapTable creates a new wrap table
func NewWrapTable() *WrapTable {
	return &WrapTable{
		border:      lipgloss.NormalBorder(),
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Headers sets the table headers
func (wt *WrapTable) Headers(headers ...string) *WrapTable {
	wt.headers = headers
	return wt
}

// Rows sets the table rows
func (wt *WrapTable) Rows(rows ...[]string) *WrapTable {
	wt.rows = rows
	return wt
}

// MaxHeight sets the maximum height constraint
func (wt *WrapTable) MaxHeight(height int) *WrapTable {
	wt.maxHeight = height
	return wt
}

// MaxWidth sets the maximum width constraint
func (wt *WrapTable) MaxWidth(width int) *WrapTable {
	wt.maxWidth = width
	return wt
}

// NoWrap truncates to maxHeight instead of wrapping into side-by-side tables
func (wt *WrapTable) NoWrap() *WrapTable {
	wt.noWrap = true
	return wt
}

// Border sets the table border style
func (wt *WrapTable) Border(border lipgloss.Border) *WrapTable {
	wt.border = border
	return wt
}

// BorderStyle sets the border styling
func (wt *WrapTable) BorderStyle(style lipgloss.Style) *WrapTable {
	wt.borderStyle = style
	return wt
}

// StyleFunc sets per-cell styling for data rows
func (wt *WrapTable) StyleFunc(fn RowStyleFunc) *WrapTable {
	wt.styleFunc = fn
	return wt
}

// RowsPerTable is how many data rows fit under maxHeight
func (wt *WrapTable) RowsPerTable() int {
	// Account for header (1 line) + borders (top + bottom + header separator = 3)
	return max(wt.maxHeight-4, 1)
}

func (wt *WrapTable) build(rows [][]string, offset int) *table.Table {
	t := table.New().
		Border(wt.border).
		BorderStyle(wt.borderStyle).
		Headers(wt.headers...).
		Rows(rows...)

	if wt.styleFunc != nil {
		fn := wt.styleFunc
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return fn(row+offset, col).Padding(0, 1)
		})
	}
	if wt.maxWidth > 0 {
		t = t.Width(wt.maxWidth)
	}
	return t
}

// Render renders the table with wrapping if needed
func (wt *WrapTable) Render() string {
	if len(wt.rows) == 0 {
		return ""
	}

	rowsPerTable := wt.RowsPerTable()
	if wt.maxHeight <= 0 || len(wt.rows) <= rowsPerTable {
		return wt.build(wt.rows, 0).String()
	}
	if wt.noWrap {
		return wt.build(wt.rows[:rowsPerTable], 0).String()
	}

	// Split rows into multiple tables
	var tables []string
	for i := 0; i < len(wt.rows); i += rowsPerTable {
		end := min(i+rowsPerTable, len(wt.rows))
		tables = append(tables, wt.build(wt.rows[i:end], i).String())
	}

	// Join tables horizontally
	return lipgloss.JoinHorizontal(lipgloss.Top, tables...)
}

// String is a convenience method that calls Render
func (wt *WrapTable) String() string {
	return wt.Render()
}
