package gudgeontop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille patterns are a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
const brailleBase = '\u2800'

// brailleDots maps [row][col] inside a character to the pattern bit
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

var seriesColors = []lipgloss.Color{"39", "170", "214", "82", "245"}

var (
	axisLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chartTitle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// SeriesColor returns the display color of series i
func SeriesColor(i int) lipgloss.Color {
	return seriesColors[i%len(seriesColors)]
}

type brailleCanvas struct {
	width  int
	height int
	cells  [][]rune
	owner  [][]int
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	c := &brailleCanvas{width: width, height: height}
	c.cells = make([][]rune, height)
	c.owner = make([][]int, height)
	for row := range c.cells {
		c.cells[row] = make([]rune, width)
		c.owner[row] = make([]int, width)
		for col := range c.cells[row] {
			c.cells[row][col] = brailleBase
			c.owner[row][col] = -1
		}
	}
	return c
}

// set lights the dot at x (0..2*width) and y (0..4*height, counted from the bottom)
func (c *brailleCanvas) set(x, y, series int) {
	col := x / 2
	row := c.height - 1 - y/4
	if col < 0 || col >= c.width || row < 0 || row >= c.height {
		return
	}
	c.cells[row][col] |= rune(1 << brailleDots[3-y%4][x%2])
	c.owner[row][col] = series
}

func (c *brailleCanvas) lines() []string {
	out := make([]string, c.height)
	for row := range c.cells {
		var b strings.Builder
		for col, char := range c.cells[row] {
			if owner := c.owner[row][col]; owner >= 0 {
				b.WriteString(lipgloss.NewStyle().Foreground(SeriesColor(owner)).Render(string(char)))
			} else {
				b.WriteRune(char)
			}
		}
		out[row] = b.String()
	}
	return out
}

// normalizeValue converts a value to the 0-1 range of the axis, clamped
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal <= minVal {
		return 0
	}
	n := (val - minVal) / (maxVal - minVal)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// plot draws one series as a connected line, right aligned when there are
// fewer points than dot columns
func (c *brailleCanvas) plot(data []float64, axis AxisConfig, series int) {
	targetPoints := c.width * 2
	totalDots := c.height * 4
	if len(data) == 0 || targetPoints == 0 {
		return
	}
	points := data
	if len(points) > targetPoints {
		points = resampleData(points, targetPoints)
	}
	offset := targetPoints - len(points)

	prev := -1
	for i, val := range points {
		y := clampInt(int(normalizeValue(val, axis.Min, axis.Max)*float64(totalDots-1)), totalDots-1)
		x := i + offset
		if prev < 0 {
			c.set(x, y, series)
		} else {
			lo, hi := min(prev, y), max(prev, y)
			for dot := lo; dot <= hi; dot++ {
				c.set(x, dot, series)
			}
		}
		prev = y
	}
}

// resampleData shrinks data to targetSize keeping the max of each bucket so spikes survive
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) <= targetSize {
		return data
	}

	result := make([]float64, targetSize)
	bucketSize := float64(len(data)) / float64(targetSize)
	for i := 0; i < targetSize; i++ {
		start := int(float64(i) * bucketSize)
		end := min(int(float64(i+1)*bucketSize), len(data))
		if start >= end {
			start = end - 1
		}
		maxVal := data[start]
		for j := start + 1; j < end; j++ {
			if data[j] > maxVal {
				maxVal = data[j]
			}
		}
		result[i] = maxVal
	}
	return result
}

// axisColumn places tick labels on the rows matching their value
func axisColumn(axis AxisConfig, height int) ([]string, int) {
	labels := make([]string, height)
	ticks := axis.Ticks
	if len(ticks) == 0 {
		ticks = []float64{axis.Min, (axis.Min + axis.Max) / 2, axis.Max}
	}
	width := 0
	for _, tick := range ticks {
		label := axis.Format(tick)
		row := height - 1 - int(normalizeValue(tick, axis.Min, axis.Max)*float64(height-1))
		if row < 0 || row >= height || label == "" {
			continue
		}
		labels[row] = label
		width = max(width, lipgloss.Width(label))
	}
	return labels, width
}

// RenderGraph draws the chart view as a braille line graph with axis labels,
// first and last timestamps and a legend holding the newest values
func RenderGraph(view ChartView, width, height int) string {
	if width < 8 || height < 4 {
		return ""
	}
	if view.Empty() {
		return axisLabelStyle.Render("waiting for data...")
	}

	// one row each for the time labels and the legend
	graphHeight := height - 2
	left, leftWidth := axisColumn(view.Primary, graphHeight)
	var right []string
	rightWidth := 0
	if view.Secondary != nil {
		right, rightWidth = axisColumn(*view.Secondary, graphHeight)
	}

	graphWidth := width - leftWidth - rightWidth - 2
	if graphWidth < 2 {
		return ""
	}

	canvas := newBrailleCanvas(graphWidth, graphHeight)
	for i, column := range view.Columns {
		axis := view.Primary
		if i < len(view.Axes) && view.Axes[i] == AxisSecondary && view.Secondary != nil {
			axis = *view.Secondary
		}
		canvas.plot(column.Values, axis, i)
	}

	var b strings.Builder
	for row, line := range canvas.lines() {
		b.WriteString(axisLabelStyle.Render(padLeft(left[row], leftWidth)))
		b.WriteString(" ")
		b.WriteString(line)
		if view.Secondary != nil {
			b.WriteString(" ")
			b.WriteString(axisLabelStyle.Render(right[row]))
		}
		b.WriteString("\n")
	}

	first := view.Times[0].Local().Format("15:04:05")
	last := view.Times[len(view.Times)-1].Local().Format("15:04:05")
	gap := max(1, graphWidth-len(first)-len(last))
	b.WriteString(strings.Repeat(" ", leftWidth+1))
	b.WriteString(axisLabelStyle.Render(first + strings.Repeat(" ", gap) + last))
	b.WriteString("\n")

	b.WriteString(renderLegend(view))
	return b.String()
}

func renderLegend(view ChartView) string {
	items := make([]string, 0, len(view.Columns))
	for i, column := range view.Columns {
		entry := column.Label
		if len(column.Values) > 0 {
			entry = view.Tooltip(i, column.Values[len(column.Values)-1])
		}
		marker := lipgloss.NewStyle().Foreground(SeriesColor(i)).Render("●")
		items = append(items, marker+" "+entry)
	}
	return strings.Join(items, "  ")
}

func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}
