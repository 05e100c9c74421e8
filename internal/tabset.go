package gudgeontop

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is a self-polling piece of a page. Mount starts its poller and
// restores preferences; Unmount stops the poller and saves preferences.
type Component interface {
	ID() string
	Title() string
	Mount() tea.Cmd
	Unmount()
	Update(msg tea.Msg) tea.Cmd
	HandleKey(msg tea.KeyMsg) (bool, tea.Cmd)
	View(width, height int) string
}

// inputCapturer is implemented by components that can take over the keyboard
type inputCapturer interface {
	Capturing() bool
}

func capturing(c Component) bool {
	ic, ok := c.(inputCapturer)
	return ok && ic.Capturing()
}

// TabSet shows one of several components in a pane with tab navigation.
// Only the selected component is mounted while its page is shown.
type TabSet struct {
	components  []Component
	selectedTab int
	mounted     bool
	width       int
	height      int
}

// NewTabSet creates a new TabSet
func NewTabSet(components ...Component) *TabSet {
	return &TabSet{
		components:  components,
		selectedTab: 0,
		width:       40,
		height:      10,
	}
}

// SetSize sets the dimensions for rendering
func (ts *TabSet) SetSize(width, height int) *TabSet {
	ts.width = width
	ts.height = height
	return ts
}

// Components returns all components in the tab set
func (ts *TabSet) Components() []Component {
	return ts.components
}

// Active returns the selected component, nil when empty
func (ts *TabSet) Active() Component {
	if len(ts.components) == 0 {
		return nil
	}
	return ts.components[ts.selectedTab]
}

// Mount mounts the selected component
func (ts *TabSet) Mount() tea.Cmd {
	ts.mounted = true
	if c := ts.Active(); c != nil {
		return c.Mount()
	}
	return nil
}

// Unmount unmounts the selected component
func (ts *TabSet) Unmount() {
	if ts.mounted {
		if c := ts.Active(); c != nil {
			c.Unmount()
		}
	}
	ts.mounted = false
}

// Update forwards msg to the mounted component
func (ts *TabSet) Update(msg tea.Msg) tea.Cmd {
	if !ts.mounted {
		return nil
	}
	if c := ts.Active(); c != nil {
		return c.Update(msg)
	}
	return nil
}

// Mounted reports whether the tab set's page is shown
func (ts *TabSet) Mounted() bool {
	return ts.mounted
}

// SelectTab changes the active tab, swapping which component is mounted
func (ts *TabSet) SelectTab(index int) tea.Cmd {
	if index < 0 || index >= len(ts.components) || index == ts.selectedTab {
		return nil
	}
	if !ts.mounted {
		ts.selectedTab = index
		return nil
	}
	ts.Active().Unmount()
	ts.selectedTab = index
	return ts.Active().Mount()
}

// NextTab moves to the next tab (wraps around)
func (ts *TabSet) NextTab() tea.Cmd {
	if len(ts.components) < 2 {
		return nil
	}
	return ts.SelectTab((ts.selectedTab + 1) % len(ts.components))
}

// PrevTab moves to the previous tab (wraps around)
func (ts *TabSet) PrevTab() tea.Cmd {
	if len(ts.components) < 2 {
		return nil
	}
	return ts.SelectTab((ts.selectedTab - 1 + len(ts.components)) % len(ts.components))
}

// Render renders the tab set with tabs and the active component
func (ts *TabSet) Render() string {
	active := ts.Active()
	if active == nil {
		return "Nothing to show"
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	contentHeight := ts.height
	if len(ts.components) > 1 {
		b.WriteString(ts.renderTabs())
		b.WriteString("\n")
		contentHeight -= 3 // Account for tab bar height
	} else {
		b.WriteString(titleStyle.Render(active.Title()))
		b.WriteString("\n")
		contentHeight--
	}

	b.WriteString(active.View(ts.width, max(contentHeight, 1)))
	return b.String()
}

// renderTabs renders the tab navigation bar
func (ts *TabSet) renderTabs() string {
	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("170"))

	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("236"))

	var renderedTabs []string
	for i, c := range ts.components {
		if i == ts.selectedTab {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(c.Title()))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(c.Title()))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

// String is a convenience method that calls Render
func (ts *TabSet) String() string {
	return ts.Render()
}
