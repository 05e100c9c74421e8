package gudgeontop

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(t *testing.T, features Features) (*dashboardModel, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(t)
	now := time.Now()
	samples := &fakeSamples{samples: []Sample{sampleAt(now, map[MetricKey]float64{SessionQueriesPerSec: 3})}}

	cfg := Config{
		BackendURL: backend.url(t),
		Features:   features,
		Window:     DEFAULT_WINDOW,
		Version:    "v-test",
	}
	return NewDashboard(cfg, backend.client(t), samples, memoryPrefs(t)), backend
}

func pageTitles(m *dashboardModel) []string {
	titles := make([]string, len(m.pages))
	for i, p := range m.pages {
		titles[i] = p.title
	}
	return titles
}

// deliver runs cmd and hands every resulting message back to the dashboard
func deliver(m *dashboardModel, cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
}

func TestDashboard_PagesFollowFeatures(t *testing.T) {
	m, _ := newTestDashboard(t, DefaultFeatures())
	assert.Equal(t, []string{"Dashboard", "Charts", "Query Log", "Tester"}, pageTitles(m))
	assert.Len(t, m.pages[0].panes, 3)
	assert.Len(t, m.pages[1].panes, len(ChartPageGroups()))

	m, _ = newTestDashboard(t, Features{QueryLog: true})
	assert.Equal(t, []string{"Query Log", "Tester"}, pageTitles(m))

	m, _ = newTestDashboard(t, Features{Metrics: true})
	assert.Equal(t, []string{"Dashboard", "Tester"}, pageTitles(m), "charts need persisted metrics")
	assert.Nil(t, m.queryLog)
}

func TestDashboard_MountsOnlyTheShownPage(t *testing.T) {
	m, backend := newTestDashboard(t, DefaultFeatures())
	deliver(m, m.Init())

	cards, ok := m.pages[0].panes[0].Active().(*CardsModel)
	require.True(t, ok)
	total, _ := cards.Counters()
	assert.Equal(t, 1000.0, total)
	assert.Len(t, backend.calls("top/clients"), 1)
	assert.Empty(t, backend.calls("list"), "the query log is not polled while hidden")

	deliver(m, m.handleKey(tea.KeyMsg{Type: tea.KeyTab}))
	assert.Equal(t, 1, m.selectedPage)
	for _, ts := range m.pages[0].panes {
		assert.False(t, ts.Mounted())
	}
	for _, ts := range m.pages[1].panes {
		assert.True(t, ts.Mounted())
	}

	deliver(m, m.handleKey(runes("3")))
	assert.Equal(t, "Query Log", m.currentPage().title)
	assert.Len(t, backend.calls("list"), 1)
	require.NotNil(t, m.queryLog.Page())

	deliver(m, m.handleKey(tea.KeyMsg{Type: tea.KeyShiftTab}))
	assert.Equal(t, 1, m.selectedPage)
	assert.False(t, m.pages[2].panes[0].Mounted())
}

func TestDashboard_PaneFocusAndTabs(t *testing.T) {
	m, backend := newTestDashboard(t, DefaultFeatures())
	deliver(m, m.Init())

	m.handleKey(runes("l"))
	assert.Equal(t, 1, m.selectedPane)
	m.handleKey(runes("j"))
	assert.Equal(t, 1, m.selectedPane, "no pane below")
	m.handleKey(runes("h"))
	m.handleKey(runes("j"))
	assert.Equal(t, 2, m.selectedPane)
	m.handleKey(runes("k"))
	m.handleKey(runes("l"))
	assert.Equal(t, 1, m.selectedPane)

	deliver(m, m.handleKey(runes("]")))
	assert.Equal(t, "Top Domains", m.focusedComponent().Title())
	assert.Len(t, backend.calls("top/domains"), 1)
}

func TestDashboard_DrillDownOpensQueryLog(t *testing.T) {
	m, backend := newTestDashboard(t, DefaultFeatures())
	deliver(m, m.Init())

	_, cmd := m.Update(drillDownMsg{field: "address", value: "10.0.0.2"})
	assert.Equal(t, "Query Log", m.currentPage().title)
	deliver(m, cmd)

	calls := backend.calls("list")
	require.NotEmpty(t, calls)
	assert.Equal(t, "10.0.0.2", calls[len(calls)-1].Get("address"))
	assert.True(t, m.queryLog.Request().External())
	require.NotNil(t, m.queryLog.Page())

	m, _ = newTestDashboard(t, Features{Metrics: true})
	_, cmd = m.Update(drillDownMsg{field: "address", value: "10.0.0.2"})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.selectedPage)
}

func TestDashboard_CapturingComponentOwnsKeys(t *testing.T) {
	m, _ := newTestDashboard(t, DefaultFeatures())
	deliver(m, m.Init())
	deliver(m, m.handleKey(runes("3")))

	m.handleKey(runes("/"))
	require.True(t, m.queryLog.Capturing())

	m.handleKey(runes("1"))
	m.handleKey(runes("q"))
	m.handleKey(runes("?"))
	assert.Equal(t, "Query Log", m.currentPage().title)
	assert.False(t, m.showHelp)

	m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.queryLog.Capturing())

	cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.pages[2].panes[0].Mounted())
}

func TestDashboard_View(t *testing.T) {
	m, _ := newTestDashboard(t, DefaultFeatures())
	assert.Equal(t, "Initializing...", m.View())

	deliver(m, m.Init())
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})

	view := m.View()
	assert.Contains(t, view, "1 Dashboard")
	assert.Contains(t, view, "4 Tester")
	assert.Contains(t, view, "gudgeontop v-test")
	assert.Contains(t, view, "Top Clients")

	m.handleKey(runes("?"))
	require.True(t, m.showHelp)
	modal := m.View()
	assert.Contains(t, modal, "Keys")
	assert.Contains(t, modal, "search")

	pageTree := m.renderPageTree()
	assert.Contains(t, pageTree, "▶ 1 Dashboard")
	assert.Contains(t, pageTree, "3 Query Log")
	assert.Contains(t, pageTree, "Top Clients | Top Domains | Top Rule Matches | Top Query Types")

	m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}
