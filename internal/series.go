package gudgeontop

import (
	"math"
	"time"
)

// ChartColumn is one labelled column of chart data. Its label-inclusive
// length is 1 + len(Values).
type ChartColumn struct {
	Label  string
	Values []float64
}

// Len is the label-inclusive length
func (c ChartColumn) Len() int {
	return len(c.Values) + 1
}

// Buffer accumulates samples for one metric group inside a retention window.
// It holds one shared x column and one value column per series; all columns
// always have the same length.
type Buffer struct {
	group         MetricGroup
	window        int
	x             []time.Time
	series        [][]float64
	lastFetchedAt *time.Time
}

// NewBuffer creates an empty buffer. window is in seconds, ALL_TIME disables trimming.
func NewBuffer(group MetricGroup, window int) *Buffer {
	b := &Buffer{}
	b.Reset(group, window)
	return b
}

// Reset discards all data and starts over for group and window
func (b *Buffer) Reset(group MetricGroup, window int) {
	b.group = group
	b.window = window
	b.x = nil
	b.series = make([][]float64, len(group.Series))
	b.lastFetchedAt = nil
}

// SetGroup switches to another group, resetting when it differs
func (b *Buffer) SetGroup(group MetricGroup) {
	if group.ID == b.group.ID {
		return
	}
	b.Reset(group, b.window)
}

// SetWindow switches to another retention window, resetting when it differs
func (b *Buffer) SetWindow(window int) {
	if window == b.window {
		return
	}
	b.Reset(b.group, window)
}

// Group returns the active metric group
func (b *Buffer) Group() MetricGroup {
	return b.group
}

// Window returns the retention window in seconds
func (b *Buffer) Window() int {
	return b.window
}

// LastFetchedAt returns the start for the next incremental query, nil before the first merge
func (b *Buffer) LastFetchedAt() *time.Time {
	return b.lastFetchedAt
}

// Since returns the start parameter for the next query
func (b *Buffer) Since(now time.Time) time.Time {
	if b.lastFetchedAt != nil {
		return *b.lastFetchedAt
	}
	if b.window < 0 {
		return time.Unix(0, 0)
	}
	return now.Add(-time.Duration(b.window) * time.Second)
}

// Merge appends one point per sample to every column, trims to the window
// and advances LastFetchedAt. It returns the number of samples merged.
func (b *Buffer) Merge(incoming []Sample, now time.Time) int {
	for _, sample := range incoming {
		b.x = append(b.x, sample.AtTime)
		for i, spec := range b.group.Series {
			b.series[i] = append(b.series[i], seriesValue(sample, spec))
		}
	}
	b.trim(now)

	if len(incoming) > 0 {
		next := incoming[len(incoming)-1].AtTime.Truncate(time.Second).Add(time.Second)
		b.lastFetchedAt = &next
	}
	return len(incoming)
}

func seriesValue(sample Sample, spec MetricSeriesSpec) float64 {
	value, ok := sample.Values[spec.Key]
	if !ok {
		return 0
	}
	if spec.UseAverage {
		if value.Average == nil || math.IsNaN(*value.Average) {
			return 0
		}
		return *value.Average
	}
	if math.IsNaN(value.Count) {
		return 0
	}
	return value.Count
}

// trim drops the earliest point from every column while it is older than now - window
func (b *Buffer) trim(now time.Time) {
	if b.window < 0 {
		return
	}
	minTime := now.Unix() - int64(b.window)
	drop := 0
	for drop < len(b.x) && b.x[drop].Unix() < minTime {
		drop++
	}
	if drop == 0 {
		return
	}
	b.x = append([]time.Time(nil), b.x[drop:]...)
	for i := range b.series {
		b.series[i] = append([]float64(nil), b.series[i][drop:]...)
	}
}

// Len is the label-inclusive length shared by every column
func (b *Buffer) Len() int {
	return len(b.x) + 1
}

// Times returns the x column values
func (b *Buffer) Times() []time.Time {
	return b.x
}

// Columns returns the value columns labelled with their series names
func (b *Buffer) Columns() []ChartColumn {
	columns := make([]ChartColumn, len(b.group.Series))
	for i, spec := range b.group.Series {
		columns[i] = ChartColumn{Label: spec.Name, Values: b.series[i]}
	}
	return columns
}

// ColumnLengths returns the label-inclusive length of x followed by every series
func (b *Buffer) ColumnLengths() []int {
	lengths := []int{len(b.x) + 1}
	for _, values := range b.series {
		lengths = append(lengths, len(values)+1)
	}
	return lengths
}

// Latest returns the newest value of series i
func (b *Buffer) Latest(i int) (float64, bool) {
	if i < 0 || i >= len(b.series) || len(b.series[i]) == 0 {
		return 0, false
	}
	values := b.series[i]
	return values[len(values)-1], true
}

func (b *Buffer) observedMax(axis Axis) float64 {
	observed := 0.0
	for i, spec := range b.group.Series {
		if spec.Axis != axis {
			continue
		}
		for _, v := range b.series[i] {
			if v > observed {
				observed = v
			}
		}
	}
	return observed
}

// ComputeDomainMax applies headroom and the floor to an observed maximum
func ComputeDomainMax(observed float64) float64 {
	return math.Max(DOMAIN_FLOOR, math.Ceil(observed*DOMAIN_HEADROOM))
}

// DomainMax is the primary axis maximum: the group's fixed domain if it has
// one, otherwise computed from primary series only
func (b *Buffer) DomainMax() float64 {
	if b.group.Domain != nil {
		return b.group.Domain.Max
	}
	return ComputeDomainMax(b.observedMax(AxisPrimary))
}

// DomainMin is the primary axis minimum
func (b *Buffer) DomainMin() float64 {
	if b.group.Domain != nil {
		return b.group.Domain.Min
	}
	return 0
}

// SecondaryDomainMax is computed the same way over secondary series
func (b *Buffer) SecondaryDomainMax() float64 {
	return ComputeDomainMax(b.observedMax(AxisSecondary))
}
