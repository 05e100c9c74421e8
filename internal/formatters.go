package gudgeontop

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Formatter turns a raw metric value into a display string
type Formatter func(float64) string

const prettyDateLayout = "01/02/2006, 03:04:05 PM MST"

// HumanBytes formats a byte count with SI units (1.2 MB)
func HumanBytes(value float64) string {
	if value < 0 {
		return "-" + humanize.Bytes(uint64(-value))
	}
	return humanize.Bytes(uint64(value))
}

// LocaleNumber formats a number with thousands separators
func LocaleNumber(value float64) string {
	return humanize.Commaf(value)
}

// LocaleInteger is LocaleNumber that reports anything below one as zero
func LocaleInteger(value float64) string {
	if value < 1 {
		return "0"
	}
	return LocaleNumber(value)
}

// ProcessorPercent formats cpu use, which the backend reports in thousandths of a percent
func ProcessorPercent(value float64) string {
	return LocaleNumber(value/1000) + "%"
}

// PrettyDate renders a timestamp in local time, or "" for the zero time
func PrettyDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(prettyDateLayout)
}
