package gudgeontop

import (
	"github.com/charmbracelet/lipgloss"
)

// Horizontal renders panes side by side
func Horizontal(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}

	views := make([]string, len(panes))
	for i, pane := range panes {
		views[i] = pane.Render()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// GridLayout renders panes in a 2D grid layout
type GridLayout struct {
	rows [][]Pane
}

// NewGrid creates a new grid layout
func NewGrid() *GridLayout {
	return &GridLayout{
		rows: make([][]Pane, 0),
	}
}

// AddRow adds a row of panes to the grid
func (g *GridLayout) AddRow(panes ...Pane) {
	g.rows = append(g.rows, panes)
}

// Render renders the grid layout
func (g *GridLayout) Render() string {
	if len(g.rows) == 0 {
		return ""
	}
	if len(g.rows) == 1 {
		return Horizontal(g.rows[0]...)
	}

	rowViews := make([]string, len(g.rows))
	for i, row := range g.rows {
		rowViews[i] = Horizontal(row...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, rowViews...)
}

// Wrap lays panes out left to right, starting a new row every columns panes
func Wrap(columns int, panes ...Pane) string {
	if columns < 1 {
		columns = 1
	}
	grid := NewGrid()
	for i := 0; i < len(panes); i += columns {
		grid.AddRow(panes[i:min(i+columns, len(panes))]...)
	}
	return grid.Render()
}

// gridColumns returns the number of columns used for n panes
func gridColumns(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 4:
		return 2
	default:
		return 3
	}
}

// gridRows returns the number of rows needed for n panes
func gridRows(n int) int {
	columns := gridColumns(n)
	return max(1, (n+columns-1)/columns)
}
