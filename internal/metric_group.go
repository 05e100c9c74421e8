package gudgeontop

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/common/model"
)

// Axis selects which Y axis a series is drawn against
type Axis int

const (
	AxisPrimary Axis = iota
	AxisSecondary
)

func (a Axis) String() string {
	if a == AxisSecondary {
		return "y2"
	}
	return "y"
}

// MetricSeriesSpec describes one line of a chart
type MetricSeriesSpec struct {
	Key        MetricKey
	Name       string
	Axis       Axis
	UseAverage bool
	Formatter  Formatter
}

// Domain is a fixed Y axis range
type Domain struct {
	Min float64
	Max float64
}

// MetricGroup is a named bundle of series sharing a formatter and Y domain policy
type MetricGroup struct {
	ID        string
	Label     string
	Formatter Formatter
	Domain    *Domain
	Ticks     []float64
	Series    []MetricSeriesSpec
}

// Keys returns the metric keys requested for this group, in series order
func (g MetricGroup) Keys() []MetricKey {
	keys := make([]MetricKey, 0, len(g.Series))
	for _, s := range g.Series {
		keys = append(keys, s.Key)
	}
	return keys
}

// HasSecondary reports whether any series is drawn on the secondary axis
func (g MetricGroup) HasSecondary() bool {
	for _, s := range g.Series {
		if s.Axis == AxisSecondary {
			return true
		}
	}
	return false
}

// Validate checks the group is usable for charting
func (g MetricGroup) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("metric group has no id")
	}
	if len(g.Series) == 0 {
		return fmt.Errorf("metric group %s has no series", g.ID)
	}
	seen := make(map[string]bool, len(g.Series))
	for _, s := range g.Series {
		if _, ok := knownMetricKeys[s.Key]; !ok {
			return fmt.Errorf("metric group %s: unknown metric key %q", g.ID, s.Key)
		}
		if seen[s.Name] {
			return fmt.Errorf("metric group %s: duplicate series name %q", g.ID, s.Name)
		}
		seen[s.Name] = true
	}
	if g.Domain != nil && g.Domain.Max <= g.Domain.Min {
		return fmt.Errorf("metric group %s: domain max must be above min", g.ID)
	}
	return nil
}

var (
	QueriesGroup = MetricGroup{
		ID:        "queries",
		Label:     "Queries",
		Formatter: LocaleNumber,
		Series: []MetricSeriesSpec{
			{Key: SessionQueriesPerSec, Name: "Queries/s"},
			{Key: SessionBlocksPerSec, Name: "Blocked/s"},
		},
	}

	IntervalQueriesGroup = MetricGroup{
		ID:        "interval-queries",
		Label:     "Queries",
		Formatter: LocaleNumber,
		Series: []MetricSeriesSpec{
			{Key: TotalIntervalQueries, Name: "Queries"},
			{Key: BlockedIntervalQueries, Name: "Blocked"},
		},
	}

	MemoryGroup = MetricGroup{
		ID:        "memory",
		Label:     "Memory",
		Formatter: HumanBytes,
		Series: []MetricSeriesSpec{
			{Key: AllocatedBytes, Name: "Allocated Heap"},
			{Key: ProcessUsedBytes, Name: "Resident Memory"},
			{Key: CacheEntries, Name: "Cache Entries", Axis: AxisSecondary, Formatter: LocaleInteger},
		},
	}

	ThreadsGroup = MetricGroup{
		ID:        "threads",
		Label:     "Threads",
		Formatter: LocaleNumber,
		Series: []MetricSeriesSpec{
			{Key: ProcessThreads, Name: "Threads"},
			{Key: GoRoutines, Name: "Go Routines"},
		},
	}

	// cpu use is reported in thousandths of a percent
	CPUGroup = MetricGroup{
		ID:        "cpu",
		Label:     "CPU",
		Formatter: ProcessorPercent,
		Domain:    &Domain{Min: 0, Max: 100000},
		Ticks:     []float64{50000, 100000},
		Series: []MetricSeriesSpec{
			{Key: CPUHundredsPercent, Name: "CPU Use"},
		},
	}
)

// DashboardGroups are the groups selectable on the overview chart
func DashboardGroups() []MetricGroup {
	return []MetricGroup{QueriesGroup, MemoryGroup, ThreadsGroup, CPUGroup}
}

// ChartPageGroups are the groups shown one per pane on the charts page
func ChartPageGroups() []MetricGroup {
	return []MetricGroup{IntervalQueriesGroup, MemoryGroup, ThreadsGroup, CPUGroup}
}

// WindowOption is one selectable retention window
type WindowOption struct {
	Label   string
	Seconds int
}

// Duration returns the window length, zero for All Time
func (w WindowOption) Duration() time.Duration {
	if w.Seconds < 0 {
		return 0
	}
	return time.Duration(w.Seconds) * time.Second
}

var windowOptionSpecs = []string{"5m", "10m", "30m", "1h", "2h", "4h", "6h", "12h", "24h"}

var windowOptions = buildWindowOptions()

func buildWindowOptions() []WindowOption {
	options := make([]WindowOption, 0, len(windowOptionSpecs)+1)
	for _, spec := range windowOptionSpecs {
		d, err := model.ParseDuration(spec)
		if err != nil {
			log.Printf("skipping window option %q: %v", spec, err)
			continue
		}
		options = append(options, WindowOption{Label: spec, Seconds: int(time.Duration(d) / time.Second)})
	}
	return append(options, WindowOption{Label: "All Time", Seconds: ALL_TIME})
}

// WindowOptions lists the retention windows in display order
func WindowOptions() []WindowOption {
	out := make([]WindowOption, len(windowOptions))
	copy(out, windowOptions)
	return out
}

// ParseWindow accepts a window label ("30m", "All Time", "all") or any
// Prometheus style duration ("90m", "1d") and returns it in seconds
func ParseWindow(raw string) (int, error) {
	switch raw {
	case "", "default":
		return DEFAULT_WINDOW, nil
	case "All Time", "all", "-1":
		return ALL_TIME, nil
	}
	d, err := model.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", raw, err)
	}
	seconds := int(time.Duration(d) / time.Second)
	if seconds < 1 {
		return 0, fmt.Errorf("invalid window %q: must be at least one second", raw)
	}
	return seconds, nil
}

// NextWindow returns the option after seconds, wrapping around
func NextWindow(seconds int) int {
	return stepWindow(seconds, 1)
}

// PrevWindow returns the option before seconds, wrapping around
func PrevWindow(seconds int) int {
	return stepWindow(seconds, -1)
}

func stepWindow(seconds, step int) int {
	n := len(windowOptions)
	for i, opt := range windowOptions {
		if opt.Seconds == seconds {
			return windowOptions[(i+step+n)%n].Seconds
		}
	}
	return DEFAULT_WINDOW
}

// GroupByID finds a predefined group by its id
func GroupByID(id string) (MetricGroup, bool) {
	for _, g := range []MetricGroup{QueriesGroup, IntervalQueriesGroup, MemoryGroup, ThreadsGroup, CPUGroup} {
		if g.ID == id {
			return g, true
		}
	}
	return MetricGroup{}, false
}
