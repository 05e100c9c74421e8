package gudgeontop

import (
	"fmt"
	"time"
)

const (
	// DEFAULT_WINDOW is the chart retention window in seconds used when no preference is stored
	DEFAULT_WINDOW = 60 * 30

	// ALL_TIME is the window value that disables retention trimming
	ALL_TIME = -1

	// DOMAIN_FLOOR is the smallest computed Y-axis maximum
	DOMAIN_FLOOR = 10

	// DOMAIN_HEADROOM is applied to the observed maximum when no fixed domain is configured
	DOMAIN_HEADROOM = 1.25

	// QUERY_LOG_LOOKBACK is how far back, in seconds, the query log looks by default
	QUERY_LOG_LOOKBACK = 60 * 60

	// TOP_LIMIT is the number of entries requested for each top list
	TOP_LIMIT = 10
)

// Interval is the normal and backoff delay pair for one kind of poller
type Interval struct {
	Normal  time.Duration
	Backoff time.Duration
}

var (
	CardsInterval    = Interval{Normal: 2 * time.Second, Backoff: 15 * time.Second}
	TopInterval      = Interval{Normal: 15 * time.Second, Backoff: 60 * time.Second}
	ChartInterval    = Interval{Normal: 7 * time.Second, Backoff: 15 * time.Second}
	QueryLogInterval = Interval{Normal: 5 * time.Second, Backoff: 20 * time.Second}
	WatchInterval    = Interval{Normal: 1 * time.Second, Backoff: 15 * time.Second}
)

// RequestTimeout bounds a single backend request
func RequestTimeout() time.Duration {
	return 10 * time.Second
}

// WindowLabel returns the option label for a window in seconds (e.g. "30m", "All Time")
func WindowLabel(seconds int) string {
	for _, opt := range WindowOptions() {
		if opt.Seconds == seconds {
			return opt.Label
		}
	}
	if seconds < 0 {
		return "All Time"
	}
	return fmt.Sprintf("%ds", seconds)
}
