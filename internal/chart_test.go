package gudgeontop

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format Formatter
		value  float64
		want   string
	}{
		{"number", LocaleNumber, 1234567, "1,234,567"},
		{"number fraction", LocaleNumber, 1234.5, "1,234.5"},
		{"integer below one", LocaleInteger, 0.4, "0"},
		{"integer", LocaleInteger, 2500, "2,500"},
		{"bytes", HumanBytes, 2_000_000, "2.0 MB"},
		{"negative bytes", HumanBytes, -1000, "-1.0 kB"},
		{"cpu", ProcessorPercent, 50000, "50%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format(tt.value))
		})
	}

	assert.Equal(t, "", PrettyDate(time.Time{}))
	assert.NotEmpty(t, PrettyDate(time.Unix(1714557600, 0)))
}

func TestWrapAxisFormatter(t *testing.T) {
	format := WrapAxisFormatter(LocaleNumber)
	assert.Equal(t, "", format(-5), "negative values are never labelled")
	assert.Equal(t, "", format(0), "zero is hidden")
	assert.Equal(t, "", format(0.9), "fractions below one floor to zero")
	assert.Equal(t, "12", format(12.7))

	assert.Equal(t, "0 B", WrapAxisFormatter(HumanBytes)(0), "only a bare zero is hidden")
	assert.Equal(t, "1,000", WrapAxisFormatter(nil)(1000))
}

func TestTooltipFormatter(t *testing.T) {
	tooltip := TooltipFormatter(MemoryGroup)
	assert.Equal(t, "Allocated Heap: 2.0 MB", tooltip(0, 2_000_000))
	assert.Equal(t, "Cache Entries: 1,500", tooltip(2, 1500), "series formatter wins over the group's")
	assert.Equal(t, "", tooltip(3, 1))
	assert.Equal(t, "", tooltip(-1, 1))
}

func TestAxisConfig_TickLabels(t *testing.T) {
	cpu := AxisConfig{Min: 0, Max: 100000, Ticks: CPUGroup.Ticks, Format: WrapAxisFormatter(ProcessorPercent)}
	assert.Equal(t, []string{"50%", "100%"}, cpu.TickLabels())

	plain := AxisConfig{Min: 0, Max: 125, Format: WrapAxisFormatter(LocaleNumber)}
	assert.Equal(t, []string{"125", ""}, plain.TickLabels())
}

func TestPresent(t *testing.T) {
	now := time.Unix(1714557600, 0)

	buf := NewBuffer(QueriesGroup, 1800)
	buf.Merge([]Sample{sampleAt(now, map[MetricKey]float64{SessionQueriesPerSec: 40})}, now)
	view := Present(buf)
	assert.Equal(t, "Queries", view.Title)
	assert.Nil(t, view.Secondary)
	assert.Equal(t, 0.0, view.Primary.Min)
	assert.Equal(t, 50.0, view.Primary.Max)
	assert.Equal(t, []Axis{AxisPrimary, AxisPrimary}, view.Axes)
	assert.False(t, view.Empty())

	memory := Present(NewBuffer(MemoryGroup, 1800))
	require.NotNil(t, memory.Secondary)
	assert.Equal(t, AxisSecondary, memory.Axes[2])
	assert.True(t, memory.Empty())
	assert.Equal(t, "1,000", memory.Secondary.Format(1000))
}

func TestRenderGraph(t *testing.T) {
	now := time.Unix(1714557600, 0)

	t.Run("too small", func(t *testing.T) {
		buf := NewBuffer(QueriesGroup, 1800)
		buf.Merge([]Sample{sampleAt(now, map[MetricKey]float64{SessionQueriesPerSec: 5})}, now)
		assert.Empty(t, RenderGraph(Present(buf), 4, 10))
		assert.Empty(t, RenderGraph(Present(buf), 40, 3))
	})

	t.Run("waiting", func(t *testing.T) {
		out := RenderGraph(Present(NewBuffer(QueriesGroup, 1800)), 40, 10)
		assert.Contains(t, out, "waiting for data")
	})

	t.Run("lines and legend", func(t *testing.T) {
		buf := NewBuffer(MemoryGroup, 1800)
		var samples []Sample
		for i := 0; i < 120; i++ {
			samples = append(samples, sampleAt(now.Add(time.Duration(i)*time.Second), map[MetricKey]float64{
				AllocatedBytes:   float64(i * 1000),
				ProcessUsedBytes: 50_000,
				CacheEntries:     float64(i),
			}))
		}
		buf.Merge(samples, now.Add(2*time.Minute))

		out := RenderGraph(Present(buf), 60, 12)
		lines := strings.Split(out, "\n")
		assert.Len(t, lines, 12)
		assert.Contains(t, lines[len(lines)-1], "Cache Entries: 119")
		assert.Contains(t, lines[len(lines)-1], "Resident Memory: 50 kB")
	})
}

func TestResampleData_KeepsSpikes(t *testing.T) {
	data := []float64{1, 1, 1, 9, 1, 1, 1, 1}
	assert.Equal(t, []float64{1, 9, 1, 1}, resampleData(data, 4))
	assert.Equal(t, data, resampleData(data, 20))
	assert.Nil(t, resampleData(nil, 4))
}
