package gudgeontop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// QueryTester runs a test resolution against the backend
type QueryTester interface {
	TestQuery(ctx context.Context, domain, qtype, testType, target string) (TestResult, error)
}

// TestTypes are the component kinds a test can run against, keyed by the
// query parameter the backend expects
var TestTypes = []struct {
	Key   string
	Label string
}{
	{Key: "consumer", Label: "Consumer"},
	{Key: "groups", Label: "Group"},
	{Key: "resolvers", Label: "Resolver"},
}

// QueryTypes are the record types offered by the tester
var QueryTypes = []string{"A", "AAAA", "PTR", "TXT", "ANY"}

var errEmptyDomain = errors.New("domain is required")

// TesterModel is the query tester form and its last result
type TesterModel struct {
	id      string
	cache   *Cache
	tester  QueryTester
	loader  *Poller
	querier *Poller

	form    *huh.Form
	editing bool

	testType string
	target   string
	qtype    string
	domain   string

	lastQuery string
	result    *TestResult
	resultErr error
}

func NewTester(cache *Cache, tester QueryTester) *TesterModel {
	id := "query-tester"
	return &TesterModel{
		id:       id,
		cache:    cache,
		tester:   tester,
		loader:   mustPoller(id+"-components", TopInterval),
		querier:  mustPoller(id+"-query", TopInterval),
		testType: TestTypes[0].Key,
		qtype:    QueryTypes[0],
	}
}

func (t *TesterModel) ID() string    { return t.id }
func (t *TesterModel) Title() string { return "Query Tester" }

// Capturing reports whether the form owns the keyboard
func (t *TesterModel) Capturing() bool {
	return t.editing && t.form != nil
}

// Result returns the latest test result
func (t *TesterModel) Result() (*TestResult, error) {
	return t.result, t.resultErr
}

func (t *TesterModel) Mount() tea.Cmd {
	t.loader.Restart()
	return t.loadComponents()
}

func (t *TesterModel) Unmount() {
	t.loader.Stop()
	t.querier.Stop()
	t.editing = false
}

func (t *TesterModel) loadComponents() tea.Cmd {
	cache := t.cache
	return t.loader.Fetch(func(ctx context.Context) (any, error) {
		return cache.TestComponents(ctx)
	})
}

func (t *TesterModel) runQuery() tea.Cmd {
	tester := t.tester
	domain, qtype, testType, target := strings.TrimSpace(t.domain), t.qtype, t.testType, t.target
	t.lastQuery = fmt.Sprintf("%s %s via %s %s", domain, qtype, testType, target)
	t.querier.Restart()
	return t.querier.Fetch(func(ctx context.Context) (any, error) {
		return tester.TestQuery(ctx, domain, qtype, testType, target)
	})
}

func (t *TesterModel) targetOptions() []huh.Option[string] {
	components, _ := t.cache.Cached()
	targets := components.ForType(t.testType)
	options := make([]huh.Option[string], len(targets))
	for i, name := range targets {
		options[i] = huh.NewOption(name, name)
	}
	return options
}

func (t *TesterModel) buildForm() *huh.Form {
	typeOptions := make([]huh.Option[string], len(TestTypes))
	for i, tt := range TestTypes {
		label := fmt.Sprintf("%s (%d)", tt.Label, t.cache.NumberOfTargets(tt.Key))
		typeOptions[i] = huh.NewOption(label, tt.Key)
	}

	if targets := t.targetOptions(); len(targets) > 0 && t.target == "" {
		t.target = targets[0].Value
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Test Type").
				Options(typeOptions...).
				Value(&t.testType),
			huh.NewSelect[string]().
				Title("Test Target").
				OptionsFunc(t.targetOptions, &t.testType).
				Height(min(8, t.maxTargets()+2)).
				Value(&t.target),
			huh.NewSelect[string]().
				Title("Query Type").
				Options(huh.NewOptions(QueryTypes...)...).
				Value(&t.qtype),
			huh.NewInput().
				Title("Query String").
				Placeholder("example.com").
				Value(&t.domain).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errEmptyDomain
					}
					return nil
				}),
		),
	).WithShowHelp(false)
}

func (t *TesterModel) maxTargets() int {
	n := 1
	for _, tt := range TestTypes {
		n = max(n, t.cache.NumberOfTargets(tt.Key))
	}
	return n
}

// Edit opens the form, keeping previous answers
func (t *TesterModel) Edit() tea.Cmd {
	if _, ok := t.cache.Cached(); !ok {
		return nil
	}
	t.form = t.buildForm()
	t.editing = true
	return t.form.Init()
}

func (t *TesterModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollTickMsg:
		if t.loader.Due(msg) {
			return t.loadComponents()
		}
		return nil
	case pollResultMsg:
		if t.loader.Accept(msg) {
			if msg.err != nil {
				return t.loader.Schedule(msg.err)
			}
			return t.Edit()
		}
		if t.querier.Accept(msg) {
			t.resultErr = msg.err
			if result, ok := msg.value.(TestResult); ok && msg.err == nil {
				t.result = &result
			} else {
				t.result = nil
			}
		}
		return nil
	}

	// anything else (cursor blinks, field focus) goes to the open form
	if t.editing && t.form != nil {
		return t.updateForm(msg)
	}
	return nil
}

func (t *TesterModel) updateForm(msg tea.Msg) tea.Cmd {
	model, cmd := t.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		t.form = form
	}
	switch t.form.State {
	case huh.StateCompleted:
		t.editing = false
		return tea.Batch(cmd, t.runQuery())
	case huh.StateAborted:
		t.editing = false
	}
	return cmd
}

func (t *TesterModel) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if t.Capturing() {
		if key.Matches(msg, keys.Cancel) {
			t.editing = false
			return true, nil
		}
		return true, t.updateForm(msg)
	}

	switch {
	case key.Matches(msg, keys.Drill), key.Matches(msg, keys.Search):
		return true, t.Edit()
	case key.Matches(msg, keys.Refresh):
		t.cache.clear()
		t.loader.Restart()
		return true, t.loadComponents()
	}
	return false, nil
}

func (t *TesterModel) Status() string {
	if _, ok := t.cache.Cached(); !ok {
		return t.loader.Status()
	}
	if t.querier.InFlight() {
		return "querying " + t.lastQuery
	}
	if t.editing {
		return "enter to submit · esc to cancel"
	}
	return "enter to edit · r to reload components"
}

func (t *TesterModel) View(width, height int) string {
	if _, ok := t.cache.Cached(); !ok {
		return axisLabelStyle.Render("loading test components...")
	}
	if t.editing && t.form != nil {
		formWidth := min(width, max(40, t.cache.MaxTargetNameLen()+8))
		return t.form.WithWidth(formWidth).WithHeight(height).View()
	}

	var b strings.Builder
	if t.lastQuery != "" {
		b.WriteString(chartTitle.Render(t.lastQuery))
		b.WriteString("\n\n")
	}
	switch {
	case t.resultErr != nil:
		b.WriteString(blockedRowStyle.Render(t.resultErr.Error()))
	case t.result != nil:
		output := lipgloss.NewStyle().MaxWidth(width).MaxHeight(max(height-2, 1)).Render(t.result.Output())
		b.WriteString(output)
	default:
		b.WriteString(axisLabelStyle.Render("press enter to run a test query"))
	}
	return b.String()
}
