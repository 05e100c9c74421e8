package gudgeontop

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

// Backend is the part of the Gudgeon API the dashboard pages use
type Backend interface {
	CurrentSource
	TopSource
	QueryLogSource
	ComponentLister
	QueryTester
}

// statusReporter is implemented by components that show a status line
type statusReporter interface {
	Status() string
}

type page struct {
	title string
	panes []*TabSet
}

type dashboardModel struct {
	cfg          Config
	pages        []page
	selectedPage int
	selectedPane int
	queryLog     *QueryLogModel
	help         help.Model
	showHelp     bool
	width        int
	height       int
	ready        bool
}

// NewDashboard builds the pages allowed by cfg.Features
func NewDashboard(cfg Config, backend Backend, samples SampleSource, prefs *PrefStore) *dashboardModel {
	m := &dashboardModel{
		cfg:  cfg,
		help: help.New(),
	}
	features := cfg.Features

	var overview []*TabSet
	if features.Metrics {
		overview = append(overview, NewTabSet(NewCards(backend, prefs)))
	}
	if features.MetricsDetailed {
		overview = append(overview, NewTabSet(
			NewTopList(backend, TopClients, TOP_LIMIT),
			NewTopList(backend, TopDomains, TOP_LIMIT),
			NewTopList(backend, TopRules, TOP_LIMIT),
			NewTopList(backend, TopTypes, TOP_LIMIT),
		))
	}
	if features.Charts() && samples != nil {
		overview = append(overview, NewTabSet(
			NewChartPane("dashboard-chart", "Activity", samples, prefs, DashboardGroups(), cfg.Window),
		))
	}
	m.addPage("Dashboard", overview...)

	if features.Charts() && samples != nil {
		var charts []*TabSet
		for _, group := range ChartPageGroups() {
			charts = append(charts, NewTabSet(
				NewChartPane("charts-"+group.ID, group.Label, samples, prefs, []MetricGroup{group}, cfg.Window),
			))
		}
		m.addPage("Charts", charts...)
	}

	if features.QueryLog {
		m.queryLog = NewQueryLog(backend, prefs, cfg.PageSize)
		m.addPage("Query Log", NewTabSet(m.queryLog))
	}

	m.addPage("Tester", NewTabSet(NewTester(NewCache(backend), backend)))
	return m
}

func (m *dashboardModel) addPage(title string, panes ...*TabSet) {
	if len(panes) == 0 {
		return
	}
	m.pages = append(m.pages, page{title: title, panes: panes})
}

func (m *dashboardModel) currentPage() page {
	return m.pages[m.selectedPage]
}

func (m *dashboardModel) focusedTabSet() *TabSet {
	panes := m.currentPage().panes
	if m.selectedPane >= len(panes) {
		return nil
	}
	return panes[m.selectedPane]
}

func (m *dashboardModel) focusedComponent() Component {
	if ts := m.focusedTabSet(); ts != nil {
		return ts.Active()
	}
	return nil
}

func (m *dashboardModel) mountPage() tea.Cmd {
	var cmds []tea.Cmd
	for _, ts := range m.currentPage().panes {
		cmds = append(cmds, ts.Mount())
	}
	return tea.Batch(cmds...)
}

func (m *dashboardModel) unmountPage() {
	for _, ts := range m.currentPage().panes {
		ts.Unmount()
	}
}

// selectPage unmounts the shown page and mounts page index
func (m *dashboardModel) selectPage(index int) tea.Cmd {
	if index < 0 || index >= len(m.pages) || index == m.selectedPage {
		return nil
	}
	m.unmountPage()
	m.selectedPage = index
	m.selectedPane = 0
	return m.mountPage()
}

func (m *dashboardModel) pageIndex(title string) int {
	for i, p := range m.pages {
		if p.title == title {
			return i
		}
	}
	return -1
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.mountPage()
}

func (m *dashboardModel) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, ts := range m.currentPage().panes {
		cmds = append(cmds, ts.Update(msg))
	}
	return tea.Batch(cmds...)
}

func (m *dashboardModel) quit() tea.Cmd {
	m.unmountPage()
	return tea.Quit
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, m.broadcast(msg)

	case drillDownMsg:
		if m.queryLog == nil {
			return m, nil
		}
		mount := m.selectPage(m.pageIndex("Query Log"))
		search, err := m.queryLog.ExternalSearch(msg.field, msg.value)
		if err != nil {
			return m, mount
		}
		return m, tea.Batch(mount, search)
	}

	return m, m.broadcast(msg)
}

func (m *dashboardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, keys.Help), key.Matches(msg, keys.Cancel):
			m.showHelp = false
		case key.Matches(msg, keys.Quit):
			return m.quit()
		}
		return nil
	}

	focused := m.focusedComponent()
	if focused != nil && capturing(focused) {
		_, cmd := focused.HandleKey(msg)
		return cmd
	}

	columns := gridColumns(len(m.currentPage().panes))
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, keys.NextPage):
		return m.selectPage((m.selectedPage + 1) % len(m.pages))
	case key.Matches(msg, keys.PrevPage):
		return m.selectPage((m.selectedPage - 1 + len(m.pages)) % len(m.pages))
	case key.Matches(msg, keys.GotoPage):
		return m.selectPage(int(msg.String()[0]-'1'))
	case key.Matches(msg, keys.Down):
		if m.selectedPane+columns < len(m.currentPage().panes) {
			m.selectedPane += columns
		}
		return nil
	case key.Matches(msg, keys.Up):
		if m.selectedPane-columns >= 0 {
			m.selectedPane -= columns
		}
		return nil
	case key.Matches(msg, keys.Left):
		if m.selectedPane > 0 {
			m.selectedPane--
		}
		return nil
	case key.Matches(msg, keys.Right):
		if m.selectedPane < len(m.currentPage().panes)-1 {
			m.selectedPane++
		}
		return nil
	case key.Matches(msg, keys.NextTab):
		if ts := m.focusedTabSet(); ts != nil {
			return ts.NextTab()
		}
		return nil
	case key.Matches(msg, keys.PrevTab):
		if ts := m.focusedTabSet(); ts != nil {
			return ts.PrevTab()
		}
		return nil
	}

	if focused != nil {
		_, cmd := focused.HandleKey(msg)
		return cmd
	}
	return nil
}

func (m *dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderModal()
	}

	// one line each for the page bar and the help bar
	availableHeight := m.height - 2
	panes := m.currentPage().panes
	columns := gridColumns(len(panes))
	rows := gridRows(len(panes))
	paneWidth := m.width/columns - 2
	paneHeight := availableHeight/rows - 2

	renderedPanes := make([]Pane, 0, len(panes))
	for i, ts := range panes {
		pane := NewPane("", paneWidth, paneHeight)
		if reporter, ok := ts.Active().(statusReporter); ok {
			pane = pane.SetStatus(reporter.Status())
		}
		ts.SetSize(paneWidth, pane.ContentHeight())
		pane = pane.SetContent(ts.Render())
		if i == m.selectedPane {
			pane = pane.SetFocused(true)
		}
		renderedPanes = append(renderedPanes, pane)
	}

	helpBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Width(m.width).
		Render(m.help.ShortHelpView(keys.ShortHelp()))

	return m.renderPageBar() + "\n" + Wrap(columns, renderedPanes...) + "\n" + helpBar
}

func (m *dashboardModel) renderPageBar() string {
	activeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1)

	var tabs []string
	for i, p := range m.pages {
		label := fmt.Sprintf("%d %s", i+1, p.title)
		if i == m.selectedPage {
			tabs = append(tabs, activeStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	backend := ""
	if m.cfg.BackendURL != nil {
		backend = m.cfg.BackendURL.String()
	}
	right := axisLabelStyle.Render(strings.TrimSpace("gudgeontop " + m.cfg.Version + "  " + backend))
	gap := m.width - lipgloss.Width(bar) - lipgloss.Width(right)
	if gap < 1 {
		return bar
	}
	return bar + strings.Repeat(" ", gap) + right
}

// renderModal renders the key binding help over the dashboard
func (m *dashboardModel) renderModal() string {
	modalWidth := int(float64(m.width) * 0.6)
	modalHeight := int(float64(m.height) * 0.6)

	full := m.help
	full.ShowAll = true
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		full.FullHelpView(keys.FullHelp()),
		"    ",
		m.renderPageTree(),
	)
	modalPane := NewPane("Keys", modalWidth, modalHeight).
		SetContent(content).
		SetFocused(true)

	helpText := axisLabelStyle.Render("?/esc=Close  q=Quit")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalPane.Render()+"\n"+helpText,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("235")),
	)
}

// renderPageTree lists every page with the components of each pane
func (m *dashboardModel) renderPageTree() string {
	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Bold(true)
	pageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	var trees []string
	for i, p := range m.pages {
		label := fmt.Sprintf("%d %s", i+1, p.title)
		if i == m.selectedPage {
			label = selectedStyle.Render("▶ " + label)
		} else {
			label = pageStyle.Render(label)
		}
		t := tree.New().Root(label)
		for _, ts := range p.panes {
			titles := make([]string, 0, len(ts.Components()))
			for _, c := range ts.Components() {
				titles = append(titles, c.Title())
			}
			t = t.Child(strings.Join(titles, " | "))
		}
		trees = append(trees, t.String())
	}
	return strings.Join(trees, "\n")
}

// Dashboard runs the interactive dashboard until the user quits
func Dashboard(cfg Config, backend Backend, samples SampleSource, prefs *PrefStore) error {
	m := NewDashboard(cfg, backend, samples, prefs)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubbletea program: %w", err)
	}
	return nil
}
