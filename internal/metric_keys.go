package gudgeontop

import "strings"

// MetricsPrefix is prepended to every metric name the backend reports
const MetricsPrefix = "gudgeon-"

// MetricKey identifies one backend metric. The set is closed: keys the
// dashboard does not know about are dropped when a response is decoded.
type MetricKey string

const (
	TotalLifetimeQueries   MetricKey = "gudgeon-total-lifetime-queries"
	BlockedLifetimeQueries MetricKey = "gudgeon-blocked-lifetime-queries"
	TotalSessionQueries    MetricKey = "gudgeon-total-session-queries"
	BlockedSessionQueries  MetricKey = "gudgeon-blocked-session-queries"
	TotalIntervalQueries   MetricKey = "gudgeon-total-interval-queries"
	BlockedIntervalQueries MetricKey = "gudgeon-blocked-interval-queries"
	CachedQueries          MetricKey = "gudgeon-cached-queries"
	ActiveRules            MetricKey = "gudgeon-active-rules"
	QueryTime              MetricKey = "gudgeon-query-time"
	SessionQueriesPerSec   MetricKey = "gudgeon-session-queries-ps"
	SessionBlocksPerSec    MetricKey = "gudgeon-session-blocks-ps"
	AllocatedBytes         MetricKey = "gudgeon-allocated-bytes"
	CurrentlyAllocated     MetricKey = "gudgeon-currently-allocated-bytes"
	ProcessUsedBytes       MetricKey = "gudgeon-process-used-bytes"
	CacheEntries           MetricKey = "gudgeon-cache-entries"
	ProcessThreads         MetricKey = "gudgeon-process-threads"
	GoRoutines             MetricKey = "gudgeon-goroutines"
	CPUHundredsPercent     MetricKey = "gudgeon-cpu-hundreds-percent"
)

var knownMetricKeys = map[MetricKey]struct{}{
	TotalLifetimeQueries:   {},
	BlockedLifetimeQueries: {},
	TotalSessionQueries:    {},
	BlockedSessionQueries:  {},
	TotalIntervalQueries:   {},
	BlockedIntervalQueries: {},
	CachedQueries:          {},
	ActiveRules:            {},
	QueryTime:              {},
	SessionQueriesPerSec:   {},
	SessionBlocksPerSec:    {},
	AllocatedBytes:         {},
	CurrentlyAllocated:     {},
	ProcessUsedBytes:       {},
	CacheEntries:           {},
	ProcessThreads:         {},
	GoRoutines:             {},
	CPUHundredsPercent:     {},
}

// ParseMetricKey validates a raw backend key
func ParseMetricKey(raw string) (MetricKey, bool) {
	key := MetricKey(raw)
	_, ok := knownMetricKeys[key]
	return key, ok
}

// PrometheusName maps the key onto the name it has when exported to Prometheus
func (k MetricKey) PrometheusName() string {
	return strings.ReplaceAll(string(k), "-", "_")
}

// ListMetricKind is the per-list counter family
type ListMetricKind string

const (
	ListRules           ListMetricKind = "rules-list-"
	ListSessionMatched  ListMetricKind = "rules-session-matched-"
	ListLifetimeMatched ListMetricKind = "rules-lifetime-matched-"
	ListBlocked         ListMetricKind = "rules-blocked-"
)

var listMetricKinds = []ListMetricKind{ListRules, ListSessionMatched, ListLifetimeMatched, ListBlocked}

// ListMetricKey is a per-list counter such as gudgeon-rules-list-<short>
type ListMetricKey struct {
	Kind ListMetricKind
	List string
}

// ParseListMetricKey recognises the per-list key families
func ParseListMetricKey(raw string) (ListMetricKey, bool) {
	if !strings.HasPrefix(raw, MetricsPrefix) {
		return ListMetricKey{}, false
	}
	rest := strings.TrimPrefix(raw, MetricsPrefix)
	for _, kind := range listMetricKinds {
		if list, ok := strings.CutPrefix(rest, string(kind)); ok && list != "" {
			return ListMetricKey{Kind: kind, List: list}, true
		}
	}
	return ListMetricKey{}, false
}

func (k ListMetricKey) String() string {
	return MetricsPrefix + string(k.Kind) + k.List
}
