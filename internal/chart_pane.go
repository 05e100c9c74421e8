package gudgeontop

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChartPane polls one metric group into a Buffer and draws it
type ChartPane struct {
	id     string
	title  string
	source SampleSource
	prefs  *PrefStore
	groups []MetricGroup
	buffer *Buffer
	poller *Poller
	now    func() time.Time
}

// NewChartPane creates a chart cycling through groups, starting at the first
func NewChartPane(id, title string, source SampleSource, prefs *PrefStore, groups []MetricGroup, window int) *ChartPane {
	if len(groups) == 0 {
		groups = DashboardGroups()
	}
	return &ChartPane{
		id:     id,
		title:  title,
		source: source,
		prefs:  prefs,
		groups: groups,
		buffer: NewBuffer(groups[0], window),
		poller: mustPoller(id, ChartInterval),
		now:    time.Now,
	}
}

func (c *ChartPane) ID() string    { return c.id }
func (c *ChartPane) Title() string { return c.title }

// Buffer exposes the chart data
func (c *ChartPane) Buffer() *Buffer {
	return c.buffer
}

func (c *ChartPane) groupByID(id string) (MetricGroup, bool) {
	for _, g := range c.groups {
		if g.ID == id {
			return g, true
		}
	}
	return MetricGroup{}, false
}

func (c *ChartPane) Mount() tea.Cmd {
	group, window := c.buffer.Group(), c.buffer.Window()
	if p, ok := c.prefs.Load(c.id); ok {
		if g, found := c.groupByID(p.Group); found {
			group = g
		}
		if validWindow(p.Window) {
			window = p.Window
		}
	}
	return c.reload(group, window)
}

func validWindow(window int) bool {
	for _, w := range WindowOptions() {
		if w.Seconds == window {
			return true
		}
	}
	return false
}

func (c *ChartPane) Unmount() {
	c.poller.Stop()
	c.prefs.saveLogged(c.id, ComponentPrefs{
		Group:  c.buffer.Group().ID,
		Window: c.buffer.Window(),
	})
}

// reload throws away every point and starts polling again from the window start
func (c *ChartPane) reload(group MetricGroup, window int) tea.Cmd {
	c.buffer.Reset(group, window)
	c.poller.Restart()
	return c.fetch()
}

func (c *ChartPane) fetch() tea.Cmd {
	source := c.source
	since := c.buffer.Since(c.now())
	metricKeys := c.buffer.Group().Keys()
	return c.poller.Fetch(func(ctx context.Context) (any, error) {
		return source.Samples(ctx, since, metricKeys)
	})
}

func (c *ChartPane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollTickMsg:
		if c.poller.Due(msg) {
			return c.fetch()
		}
	case pollResultMsg:
		if !c.poller.Accept(msg) {
			return nil
		}
		if samples, ok := msg.value.([]Sample); ok && msg.err == nil {
			c.buffer.Merge(samples, c.now())
		}
		return c.poller.Schedule(msg.err)
	}
	return nil
}

// SelectGroup switches to the group with id, reloading when it changes
func (c *ChartPane) SelectGroup(id string) tea.Cmd {
	group, ok := c.groupByID(id)
	if !ok || group.ID == c.buffer.Group().ID {
		return nil
	}
	return c.reload(group, c.buffer.Window())
}

// SelectWindow switches the retention window, reloading when it changes
func (c *ChartPane) SelectWindow(window int) tea.Cmd {
	if window == c.buffer.Window() {
		return nil
	}
	return c.reload(c.buffer.Group(), window)
}

func (c *ChartPane) nextGroup() tea.Cmd {
	current := c.buffer.Group().ID
	for i, g := range c.groups {
		if g.ID == current {
			return c.SelectGroup(c.groups[(i+1)%len(c.groups)].ID)
		}
	}
	return c.SelectGroup(c.groups[0].ID)
}

func (c *ChartPane) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextGroup):
		return true, c.nextGroup()
	case key.Matches(msg, keys.NextWindow):
		return true, c.SelectWindow(NextWindow(c.buffer.Window()))
	case key.Matches(msg, keys.PrevWindow):
		return true, c.SelectWindow(PrevWindow(c.buffer.Window()))
	case key.Matches(msg, keys.Refresh):
		return true, c.reload(c.buffer.Group(), c.buffer.Window())
	}
	return false, nil
}

func (c *ChartPane) Status() string {
	return c.poller.Status()
}

func (c *ChartPane) View(width, height int) string {
	header := axisLabelStyle.Render(WindowLabel(c.buffer.Window()))
	if len(c.groups) > 1 {
		header = chartTitle.Render(c.buffer.Group().Label) +
			axisLabelStyle.Render(fmt.Sprintf(" · %s  (%d/%d)", WindowLabel(c.buffer.Window()), c.groupIndex()+1, len(c.groups)))
	}
	graph := RenderGraph(Present(c.buffer), width, height-1)
	return lipgloss.JoinVertical(lipgloss.Left, header, graph)
}

func (c *ChartPane) groupIndex() int {
	current := c.buffer.Group().ID
	for i, g := range c.groups {
		if g.ID == current {
			return i
		}
	}
	return 0
}
