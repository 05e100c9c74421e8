package gudgeontop

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Scope selects which counters the cards show
type Scope string

const (
	ScopeLifetime Scope = "lifetime"
	ScopeSession  Scope = "session"
)

func (s Scope) Label() string {
	if s == ScopeSession {
		return "Session"
	}
	return "Lifetime"
}

func (s Scope) toggle() Scope {
	if s == ScopeSession {
		return ScopeLifetime
	}
	return ScopeSession
}

func (s Scope) queryKeys() (total, blocked MetricKey) {
	if s == ScopeSession {
		return TotalSessionQueries, BlockedSessionQueries
	}
	return TotalLifetimeQueries, BlockedLifetimeQueries
}

// CurrentSource serves /api/metrics/current
type CurrentSource interface {
	CurrentMetrics(ctx context.Context) (CurrentMetrics, error)
}

// CardsModel shows the query counters and the per-list rule table
type CardsModel struct {
	id      string
	source  CurrentSource
	prefs   *PrefStore
	poller  *Poller
	scope   Scope
	current *CurrentMetrics
}

func NewCards(source CurrentSource, prefs *PrefStore) *CardsModel {
	id := "metrics-cards"
	return &CardsModel{
		id:     id,
		source: source,
		prefs:  prefs,
		poller: mustPoller(id, CardsInterval),
		scope:  ScopeLifetime,
	}
}

func (c *CardsModel) ID() string    { return c.id }
func (c *CardsModel) Title() string { return "Queries" }

// Scope returns the selected counter scope
func (c *CardsModel) Scope() Scope {
	return c.scope
}

func (c *CardsModel) Mount() tea.Cmd {
	if p, ok := c.prefs.Load(c.id); ok {
		switch Scope(p.Scope) {
		case ScopeLifetime, ScopeSession:
			c.scope = Scope(p.Scope)
		}
	}
	c.poller.Restart()
	return c.fetch()
}

func (c *CardsModel) Unmount() {
	c.poller.Stop()
	c.prefs.saveLogged(c.id, ComponentPrefs{Scope: string(c.scope)})
}

func (c *CardsModel) fetch() tea.Cmd {
	source := c.source
	return c.poller.Fetch(func(ctx context.Context) (any, error) {
		return source.CurrentMetrics(ctx)
	})
}

func (c *CardsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollTickMsg:
		if c.poller.Due(msg) {
			return c.fetch()
		}
	case pollResultMsg:
		if !c.poller.Accept(msg) {
			return nil
		}
		if current, ok := msg.value.(CurrentMetrics); ok && msg.err == nil {
			c.current = &current
		}
		return c.poller.Schedule(msg.err)
	}
	return nil
}

func (c *CardsModel) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Scope):
		c.scope = c.scope.toggle()
		return true, nil
	case key.Matches(msg, keys.Refresh):
		c.poller.Restart()
		return true, c.fetch()
	}
	return false, nil
}

func (c *CardsModel) Status() string {
	return c.poller.Status()
}

// Counters returns the total and blocked query counts for the selected scope
func (c *CardsModel) Counters() (total, blocked float64) {
	if c.current == nil {
		return 0, 0
	}
	totalKey, blockedKey := c.scope.queryKeys()
	return c.current.Count(totalKey), c.current.Count(blockedKey)
}

// ListRows builds the lists table; missing counters show as zero
func (c *CardsModel) ListRows() [][]string {
	if c.current == nil {
		return nil
	}
	rows := make([][]string, 0, len(c.current.Lists))
	for _, list := range c.current.Lists {
		rows = append(rows, []string{
			list.Name,
			LocaleNumber(c.current.ListCount(ListRules, list.Short)),
			LocaleNumber(c.current.ListCount(ListSessionMatched, list.Short)),
			LocaleNumber(c.current.ListCount(ListLifetimeMatched, list.Short)),
		})
	}
	return rows
}

func (c *CardsModel) View(width, height int) string {
	if c.current == nil {
		return axisLabelStyle.Render("waiting for data...")
	}

	total, blocked := c.Counters()
	percent := 0.0
	if total > 0 {
		percent = blocked / total * 100
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	counters := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(
			[]string{labelStyle.Render("Scope"), c.scope.Label()},
			[]string{labelStyle.Render("Queries"), LocaleNumber(total)},
			[]string{labelStyle.Render("Blocked"), fmt.Sprintf("%s (%.1f%%)", LocaleNumber(blocked), percent)},
			[]string{labelStyle.Render("Cached"), LocaleNumber(c.current.Count(CachedQueries))},
			[]string{labelStyle.Render("Active Rules"), LocaleNumber(c.current.Count(ActiveRules))},
		)

	var b strings.Builder
	b.WriteString(counters.String())

	rows := c.ListRows()
	if len(rows) > 0 && height > 8 {
		b.WriteString("\n")
		b.WriteString(NewWrapTable().
			MaxHeight(height-lipgloss.Height(counters.String())-1).
			MaxWidth(width).
			Headers("List", "Rules", "Session Matches", "Lifetime Matches").
			Rows(rows...).
			Render())
	}
	return b.String()
}
