package gudgeontop

import (
	"math"
	"time"
)

// AxisConfig describes one rendered Y axis
type AxisConfig struct {
	Min    float64
	Max    float64
	Ticks  []float64
	Format Formatter
}

// TickLabels formats the axis ticks, using min and max when no ticks are declared
func (a AxisConfig) TickLabels() []string {
	ticks := a.Ticks
	if len(ticks) == 0 {
		ticks = []float64{a.Max, a.Min}
	}
	labels := make([]string, len(ticks))
	for i, tick := range ticks {
		labels[i] = a.Format(tick)
	}
	return labels
}

// ChartView is everything needed to draw one chart
type ChartView struct {
	Title     string
	Times     []time.Time
	Columns   []ChartColumn
	Axes      []Axis
	Primary   AxisConfig
	Secondary *AxisConfig
	Tooltip   func(series int, value float64) string
}

// Empty reports whether there is no data point to draw
func (v ChartView) Empty() bool {
	return len(v.Times) == 0
}

// Present builds the chart view for the buffer's current group
func Present(buf *Buffer) ChartView {
	group := buf.Group()
	view := ChartView{
		Title:   group.Label,
		Times:   buf.Times(),
		Columns: buf.Columns(),
		Axes:    make([]Axis, len(group.Series)),
		Primary: AxisConfig{
			Min:    buf.DomainMin(),
			Max:    buf.DomainMax(),
			Ticks:  group.Ticks,
			Format: WrapAxisFormatter(group.Formatter),
		},
		Tooltip: TooltipFormatter(group),
	}
	for i, spec := range group.Series {
		view.Axes[i] = spec.Axis
	}

	if group.HasSecondary() {
		view.Secondary = &AxisConfig{
			Min:    0,
			Max:    buf.SecondaryDomainMax(),
			Format: WrapAxisFormatter(secondaryFormatter(group)),
		}
	}
	return view
}

func secondaryFormatter(group MetricGroup) Formatter {
	for _, spec := range group.Series {
		if spec.Axis == AxisSecondary && spec.Formatter != nil {
			return spec.Formatter
		}
	}
	return group.Formatter
}

// WrapAxisFormatter never labels negative values, floors fractions and
// hides a formatted zero
func WrapAxisFormatter(format Formatter) Formatter {
	return func(value float64) string {
		if value < 0 {
			return ""
		}
		value = math.Floor(value)
		var label string
		if format != nil {
			label = format(value)
		} else {
			label = LocaleNumber(value)
		}
		if label == "0" {
			return ""
		}
		return label
	}
}

// TooltipFormatter formats a value of series i with that series' formatter,
// falling back to the group formatter, prefixed by the series name
func TooltipFormatter(group MetricGroup) func(series int, value float64) string {
	return func(series int, value float64) string {
		if series < 0 || series >= len(group.Series) {
			return ""
		}
		spec := group.Series[series]
		format := spec.Formatter
		if format == nil {
			format = group.Formatter
		}
		if format == nil {
			format = LocaleNumber
		}
		return spec.Name + ": " + format(value)
	}
}
