package gudgeontop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	blockedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cachedRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// QueryLogModel is the paged, searchable query log table
type QueryLogModel struct {
	id          string
	source      QueryLogSource
	prefs       *PrefStore
	poller      *Poller
	request     PageRequest
	search      textinput.Model
	autoRefresh bool
	page        *QueryLogPage
	now         func() time.Time
}

func NewQueryLog(source QueryLogSource, prefs *PrefStore, pageSize int) *QueryLogModel {
	id := "query-log"
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "domain, client or response"
	search.CharLimit = 128

	request := NewPageRequest()
	if pageSize > 0 {
		request.PageSize = pageSize
	}
	return &QueryLogModel{
		id:      id,
		source:  source,
		prefs:   prefs,
		poller:  mustPoller(id, QueryLogInterval),
		request: request,
		search:  search,
		now:     time.Now,
	}
}

func (q *QueryLogModel) ID() string    { return q.id }
func (q *QueryLogModel) Title() string { return "Query Log" }

// Request returns the page currently shown
func (q *QueryLogModel) Request() PageRequest {
	return q.request
}

// Page returns the latest response, nil before the first one
func (q *QueryLogModel) Page() *QueryLogPage {
	return q.page
}

// Capturing reports whether the search input owns the keyboard
func (q *QueryLogModel) Capturing() bool {
	return q.search.Focused()
}

func (q *QueryLogModel) Mount() tea.Cmd {
	if p, ok := q.prefs.Load(q.id); ok && validPageSize(p.PageSize) {
		q.request.PageSize = p.PageSize
	}
	return q.reload()
}

func (q *QueryLogModel) Unmount() {
	q.poller.Stop()
	q.search.Blur()
	q.prefs.saveLogged(q.id, ComponentPrefs{PageSize: q.request.PageSize})
}

func (q *QueryLogModel) reload() tea.Cmd {
	q.poller.Restart()
	return q.fetch()
}

func (q *QueryLogModel) fetch() tea.Cmd {
	source, request, now := q.source, q.request, q.now()
	return q.poller.Fetch(func(ctx context.Context) (any, error) {
		return QueryPage(ctx, source, request, now)
	})
}

// ExternalSearch shows the rows where field equals value, ignoring the time bound
func (q *QueryLogModel) ExternalSearch(field, value string) (tea.Cmd, error) {
	request, err := q.request.WithExternalSearch(field, value)
	if err != nil {
		return nil, err
	}
	request.SearchText = ""
	q.request = request
	q.search.SetValue("")
	return q.reload(), nil
}

// ClearSearch drops both the free text and any drill-down search
func (q *QueryLogModel) ClearSearch() tea.Cmd {
	q.request.SearchText = ""
	q.request.ExternalField = ""
	q.request.ExternalValue = ""
	q.request.Page = 0
	q.search.SetValue("")
	return q.reload()
}

// SetPage moves to page (0 based), clamped to the known total
func (q *QueryLogModel) SetPage(page int) tea.Cmd {
	if q.page != nil {
		page = min(page, TotalPages(q.page.TotalCount, q.request.PageSize)-1)
	}
	page = max(page, 0)
	if page == q.request.Page {
		return nil
	}
	q.request.Page = page
	return q.reload()
}

// CyclePageSize moves to the next page size and back to the first page
func (q *QueryLogModel) CyclePageSize() tea.Cmd {
	next := PageSizes[0]
	for i, size := range PageSizes {
		if size == q.request.PageSize {
			next = PageSizes[(i+1)%len(PageSizes)]
			break
		}
	}
	q.request.PageSize = next
	q.request.Page = 0
	return q.reload()
}

// ToggleAutoRefresh turns periodic reloading of the current page on or off
func (q *QueryLogModel) ToggleAutoRefresh() tea.Cmd {
	q.autoRefresh = !q.autoRefresh
	if q.autoRefresh {
		return q.reload()
	}
	return nil
}

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

func (q *QueryLogModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollTickMsg:
		if q.poller.Due(msg) {
			return q.fetch()
		}
	case pollResultMsg:
		if !q.poller.Accept(msg) {
			return nil
		}
		if page, ok := msg.value.(QueryLogPage); ok && msg.err == nil {
			q.page = &page
		}
		if q.autoRefresh || (msg.err != nil && !IsNoData(msg.err)) {
			return q.poller.Schedule(msg.err)
		}
	}
	return nil
}

func (q *QueryLogModel) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if q.search.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			q.search.Blur()
			q.request.SearchText = strings.TrimSpace(q.search.Value())
			q.request.ExternalField = ""
			q.request.ExternalValue = ""
			q.request.Page = 0
			return true, q.reload()
		case tea.KeyEsc:
			q.search.Blur()
			q.search.SetValue(q.request.SearchText)
			return true, nil
		}
		var cmd tea.Cmd
		q.search, cmd = q.search.Update(msg)
		return true, cmd
	}

	switch {
	case key.Matches(msg, keys.Search):
		return true, q.search.Focus()
	case key.Matches(msg, keys.Clear):
		return true, q.ClearSearch()
	case key.Matches(msg, keys.NextRows):
		return true, q.SetPage(q.request.Page + 1)
	case key.Matches(msg, keys.PrevRows):
		return true, q.SetPage(q.request.Page - 1)
	case key.Matches(msg, keys.PageSize):
		return true, q.CyclePageSize()
	case key.Matches(msg, keys.Auto):
		return true, q.ToggleAutoRefresh()
	case key.Matches(msg, keys.Refresh):
		return true, q.reload()
	}
	return false, nil
}

func (q *QueryLogModel) Status() string {
	status := q.poller.Status()
	if q.page != nil {
		status = fmt.Sprintf("page %d/%d · %s rows · %s",
			q.request.Page+1,
			TotalPages(q.page.TotalCount, q.request.PageSize),
			LocaleInteger(float64(q.page.TotalCount)),
			status)
	}
	if q.autoRefresh {
		status += " · auto"
	}
	return status
}

func (q *QueryLogModel) searchLine() string {
	switch {
	case q.search.Focused():
		return q.search.View()
	case q.request.External():
		return axisLabelStyle.Render(fmt.Sprintf("%s = %s (c to clear)", q.request.ExternalField, q.request.ExternalValue))
	case q.request.SearchText != "":
		return axisLabelStyle.Render(fmt.Sprintf("search: %s (c to clear)", q.request.SearchText))
	}
	return axisLabelStyle.Render("last hour · / to search")
}

func (q *QueryLogModel) View(width, height int) string {
	header := q.searchLine()
	if q.page == nil {
		return header + "\n" + axisLabelStyle.Render("waiting for data...")
	}
	if len(q.page.Rows) == 0 {
		return header + "\n" + axisLabelStyle.Render("no queries")
	}

	rows := make([][]string, len(q.page.Rows))
	statuses := make([]RowStatus, len(q.page.Rows))
	for i, row := range q.page.Rows {
		display := DisplayRow(row)
		rows[i] = []string{display.Client, display.Request, display.Response, display.Created}
		statuses[i] = display.Status
	}

	body := NewWrapTable().
		MaxHeight(height-1).
		MaxWidth(width).
		NoWrap().
		Headers("Client", "Request", "Response", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 || row >= len(statuses) {
				return lipgloss.NewStyle()
			}
			switch statuses[row] {
			case RowBlocked:
				return blockedRowStyle
			case RowCached:
				return cachedRowStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
	return header + "\n" + body
}
