package gudgeontop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pane represents a bordered panel in the dashboard.
//
// Example usage:
//
//	pane := NewPane("Top Domains", 40, 10).
//	    SetContent("example.com  1,024").
//	    SetStatus("updated 12:00:01").
//	    SetFocused(true)
//	fmt.Println(pane.Render())
type Pane struct {
	title       string
	content     string
	status      string
	width       int
	height      int
	borderStyle lipgloss.Style
	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	focused     bool
}

// NewPane creates a new pane with default styling
func NewPane(title string, width, height int) Pane {
	return Pane{
		title:  title,
		width:  width,
		height: height,
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		focused: false,
	}
}

// SetContent sets the pane content
func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

// SetStatus sets the dim line pinned to the bottom of the pane
func (p Pane) SetStatus(status string) Pane {
	p.status = status
	return p
}

// SetFocused sets the focus state
func (p Pane) SetFocused(focused bool) Pane {
	p.focused = focused
	if focused {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("170"))
	} else {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("240"))
	}
	return p
}

// ContentHeight is the number of lines available for content
func (p Pane) ContentHeight() int {
	h := p.height
	if p.title != "" {
		h--
	}
	if p.status != "" {
		h--
	}
	return max(h, 0)
}

// View draws the bordered pane
func (p Pane) View() string {
	var b strings.Builder

	if p.title != "" {
		b.WriteString(p.titleStyle.Render(p.title) + "\n")
	}

	content := p.content
	if p.status != "" {
		// keep the status on the last line by clipping the content
		lines := strings.Split(content, "\n")
		if limit := p.ContentHeight(); limit > 0 && len(lines) > limit {
			lines = lines[:limit]
		}
		for len(lines) < p.ContentHeight() {
			lines = append(lines, "")
		}
		content = strings.Join(lines, "\n") + "\n" + p.statusStyle.Render(p.status)
	}
	b.WriteString(content)

	box := p.borderStyle.
		Width(p.width).
		Height(p.height).
		MaxHeight(p.height + 2).
		Render(b.String())

	return box
}

// Render is a convenience method that calls View()
func (p Pane) Render() string {
	return p.View()
}
