package gudgeontop

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TopSource serves /api/metrics/top/:type
type TopSource interface {
	Top(ctx context.Context, topType string, limit int) ([]TopEntry, error)
}

// TopType is one of the backend's top-N lists
type TopType struct {
	Name  string
	Title string
	// query log field a row drills down into, empty when not searchable
	SearchField string
}

var (
	TopClients = TopType{Name: "clients", Title: "Top Clients", SearchField: "address"}
	TopRules   = TopType{Name: "rules", Title: "Top Rule Matches"}
	TopDomains = TopType{Name: "domains", Title: "Top Domains", SearchField: "rdomain"}
	TopTypes   = TopType{Name: "types", Title: "Top Query Types"}
)

// drillDownMsg asks the dashboard to open the query log searching field for value
type drillDownMsg struct {
	field string
	value string
}

// TopListModel polls and shows one top-N list
type TopListModel struct {
	id       string
	topType  TopType
	limit    int
	source   TopSource
	poller   *Poller
	entries  []TopEntry
	selected int
}

func NewTopList(source TopSource, topType TopType, limit int) *TopListModel {
	id := "metrics-top-" + topType.Name
	if limit < 1 {
		limit = TOP_LIMIT
	}
	return &TopListModel{
		id:      id,
		topType: topType,
		limit:   limit,
		source:  source,
		poller:  mustPoller(id, TopInterval),
	}
}

func (t *TopListModel) ID() string    { return t.id }
func (t *TopListModel) Title() string { return t.topType.Title }

func (t *TopListModel) Mount() tea.Cmd {
	t.poller.Restart()
	return t.fetch()
}

func (t *TopListModel) Unmount() {
	t.poller.Stop()
}

func (t *TopListModel) fetch() tea.Cmd {
	source, name, limit := t.source, t.topType.Name, t.limit
	return t.poller.Fetch(func(ctx context.Context) (any, error) {
		return source.Top(ctx, name, limit)
	})
}

func (t *TopListModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollTickMsg:
		if t.poller.Due(msg) {
			return t.fetch()
		}
	case pollResultMsg:
		if !t.poller.Accept(msg) {
			return nil
		}
		if entries, ok := msg.value.([]TopEntry); ok && msg.err == nil {
			t.entries = entries
			if t.selected >= len(entries) {
				t.selected = max(0, len(entries)-1)
			}
		}
		return t.poller.Schedule(msg.err)
	}
	return nil
}

func (t *TopListModel) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextRows):
		if t.selected < len(t.entries)-1 {
			t.selected++
		}
		return true, nil
	case key.Matches(msg, keys.PrevRows):
		if t.selected > 0 {
			t.selected--
		}
		return true, nil
	case key.Matches(msg, keys.Refresh):
		t.poller.Restart()
		return true, t.fetch()
	case key.Matches(msg, keys.Drill):
		if cmd := t.DrillDown(); cmd != nil {
			return true, cmd
		}
	}
	return false, nil
}

// DrillDown returns the command opening the query log for the selected entry
func (t *TopListModel) DrillDown() tea.Cmd {
	if t.topType.SearchField == "" || t.selected >= len(t.entries) {
		return nil
	}
	msg := drillDownMsg{field: t.topType.SearchField, value: t.entries[t.selected].Desc}
	return func() tea.Msg {
		return msg
	}
}

func (t *TopListModel) Status() string {
	return t.poller.Status()
}

// Entries returns the latest list
func (t *TopListModel) Entries() []TopEntry {
	return t.entries
}

func (t *TopListModel) View(width, height int) string {
	if len(t.entries) == 0 {
		return axisLabelStyle.Render("no entries")
	}

	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Bold(true)

	rows := make([][]string, 0, len(t.entries))
	for i, entry := range t.entries {
		desc := entry.Desc
		if i == t.selected && t.topType.SearchField != "" {
			desc = "▶ " + desc
		}
		rows = append(rows, []string{desc, LocaleNumber(entry.Count)})
	}

	selected := t.selected
	searchable := t.topType.SearchField != ""
	return NewWrapTable().
		MaxHeight(height).
		MaxWidth(width).
		NoWrap().
		Headers("", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if searchable && row == selected {
				return selectedStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
