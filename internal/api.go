package gudgeontop

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/tidwall/gjson"
)

// MetricValue is one metric reading. Average is only reported for some series.
type MetricValue struct {
	Count   float64
	Average *float64
}

// Sample is one backend metrics entry
type Sample struct {
	AtTime   time.Time
	FromTime time.Time
	Values   map[MetricKey]MetricValue
}

type rawMetric struct {
	Count   *float64 `json:"count"`
	Average *float64 `json:"average"`
}

type rawSample struct {
	AtTime   time.Time             `json:"AtTime"`
	FromTime time.Time             `json:"FromTime"`
	Values   map[string]*rawMetric `json:"Values"`
}

func decodeValues(raw map[string]*rawMetric) map[MetricKey]MetricValue {
	values := make(map[MetricKey]MetricValue, len(raw))
	for name, metric := range raw {
		key, ok := ParseMetricKey(name)
		if !ok || metric == nil {
			continue
		}
		value := MetricValue{Average: metric.Average}
		if metric.Count != nil {
			value.Count = *metric.Count
		}
		values[key] = value
	}
	return values
}

// DecodeSamples parses a /api/metrics/query body. Entries without values are
// skipped; anything that is not a JSON array is malformed.
func DecodeSamples(body []byte) ([]Sample, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformedResponse("invalid json")
	}
	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.Null {
		return nil, nil
	}
	if !parsed.IsArray() {
		return nil, errMalformedResponse("expected an array of samples")
	}

	var raw []*rawSample
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errMalformedResponse(err.Error())
	}

	samples := make([]Sample, 0, len(raw))
	for _, r := range raw {
		if r == nil || r.Values == nil {
			continue
		}
		samples = append(samples, Sample{
			AtTime:   r.AtTime,
			FromTime: r.FromTime,
			Values:   decodeValues(r.Values),
		})
	}
	return samples, nil
}

// ListInfo names one block list
type ListInfo struct {
	Short string `json:"short"`
	Name  string `json:"name"`
}

// CurrentMetrics is the /api/metrics/current response
type CurrentMetrics struct {
	Metrics map[MetricKey]MetricValue
	Lists   []ListInfo
	counts  map[ListMetricKey]float64
}

// Count returns the counter for key, or zero when the backend did not report it
func (c CurrentMetrics) Count(key MetricKey) float64 {
	return c.Metrics[key].Count
}

// ListCount returns the per-list counter, or zero when absent
func (c CurrentMetrics) ListCount(kind ListMetricKind, list string) float64 {
	return c.counts[ListMetricKey{Kind: kind, List: list}]
}

// HasListCount reports whether the per-list counter was present
func (c CurrentMetrics) HasListCount(kind ListMetricKind, list string) bool {
	_, ok := c.counts[ListMetricKey{Kind: kind, List: list}]
	return ok
}

// DecodeCurrentMetrics parses a /api/metrics/current body
func DecodeCurrentMetrics(body []byte) (CurrentMetrics, error) {
	var raw struct {
		Metrics map[string]*rawMetric `json:"metrics"`
		Lists   []ListInfo            `json:"lists"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return CurrentMetrics{}, errMalformedResponse(err.Error())
	}
	if raw.Metrics == nil {
		return CurrentMetrics{}, errMalformedResponse("missing metrics")
	}

	current := CurrentMetrics{
		Metrics: decodeValues(raw.Metrics),
		counts:  make(map[ListMetricKey]float64),
	}
	for name, metric := range raw.Metrics {
		key, ok := ParseListMetricKey(name)
		if !ok || metric == nil || metric.Count == nil {
			continue
		}
		current.counts[key] = *metric.Count
	}
	for _, list := range raw.Lists {
		if list.Name == "" {
			continue
		}
		current.Lists = append(current.Lists, list)
	}
	return current, nil
}

// TopEntry is one row of a top-N list
type TopEntry struct {
	Desc  string  `json:"Desc"`
	Count float64 `json:"Count"`
}

// DecodeTop parses a /api/metrics/top/:type body
func DecodeTop(body []byte) ([]TopEntry, error) {
	var entries []TopEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errMalformedResponse(err.Error())
	}
	return entries, nil
}

// QueryLogRow is one query log entry
type QueryLogRow struct {
	Address        string    `json:"Address"`
	ClientName     string    `json:"ClientName"`
	ConnectionType string    `json:"ConnectionType"`
	RequestDomain  string    `json:"RequestDomain"`
	RequestType    string    `json:"RequestType"`
	ResponseText   string    `json:"ResponseText"`
	Rcode          string    `json:"Rcode"`
	Blocked        bool      `json:"Blocked"`
	BlockedList    string    `json:"BlockedList"`
	BlockedRule    string    `json:"BlockedRule"`
	Match          int       `json:"Match"`
	MatchList      string    `json:"MatchList"`
	MatchRule      string    `json:"MatchRule"`
	Cached         bool      `json:"Cached"`
	Created        time.Time `json:"Created"`
}

// QueryLogPage is the /api/query/list response
type QueryLogPage struct {
	Rows       []QueryLogRow
	TotalCount int
}

// DecodeQueryLogPage parses a /api/query/list body
func DecodeQueryLogPage(body []byte) (QueryLogPage, error) {
	var raw struct {
		Items []QueryLogRow `json:"items"`
		Total *int          `json:"total"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return QueryLogPage{}, errMalformedResponse(err.Error())
	}
	if raw.Total == nil {
		return QueryLogPage{}, errMalformedResponse("missing total")
	}
	return QueryLogPage{Rows: raw.Items, TotalCount: *raw.Total}, nil
}

// DecodeLegacyLog parses a /api/log body. Older servers answer with a bare
// array, later ones with the same {items, total} object as /api/query/list.
func DecodeLegacyLog(body []byte) ([]QueryLogRow, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformedResponse("invalid json")
	}
	parsed := gjson.ParseBytes(body)
	if parsed.IsObject() {
		items := parsed.Get("items")
		if !items.Exists() || items.Type == gjson.Null {
			return nil, nil
		}
		if !items.IsArray() {
			return nil, errMalformedResponse("items is not a list")
		}
		body = []byte(items.Raw)
	}
	var rows []QueryLogRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errMalformedResponse(err.Error())
	}
	return rows, nil
}

// TestComponents lists the configured consumers, groups and resolvers
type TestComponents struct {
	Consumers []string
	Groups    []string
	Resolvers []string
}

// ForType returns the targets for a tester type ("consumer", "groups", "resolvers")
func (c TestComponents) ForType(testType string) []string {
	switch testType {
	case "consumer":
		return c.Consumers
	case "groups":
		return c.Groups
	case "resolvers":
		return c.Resolvers
	}
	return nil
}

// DecodeTestComponents parses a /api/test/components body. Both the
// "consumer" and "consumers" spellings are accepted.
func DecodeTestComponents(body []byte) (TestComponents, error) {
	var raw struct {
		Consumer  []string `json:"consumer"`
		Consumers []string `json:"consumers"`
		Groups    []string `json:"groups"`
		Resolvers []string `json:"resolvers"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return TestComponents{}, errMalformedResponse(err.Error())
	}
	consumers := raw.Consumers
	if len(consumers) == 0 {
		consumers = raw.Consumer
	}
	return TestComponents{Consumers: consumers, Groups: raw.Groups, Resolvers: raw.Resolvers}, nil
}

// TestResult is the /api/test/query response
type TestResult struct {
	Text   string
	Result string
}

// Output returns the text the tester shows: the backend's text, or the
// pretty-printed result object when no text was given
func (r TestResult) Output() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Result
}

// DecodeTestResult parses a /api/test/query body
func DecodeTestResult(body []byte) (TestResult, error) {
	if !gjson.ValidBytes(body) {
		return TestResult{}, errMalformedResponse("invalid json")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return TestResult{}, errMalformedResponse("expected an object")
	}
	result := TestResult{Text: parsed.Get("text").String()}
	if r := parsed.Get("result"); r.Exists() && r.Type != gjson.Null {
		result.Result = parsed.Get("result|@pretty").String()
	}
	if result.Text == "" && result.Result == "" {
		log.Printf("tester: empty result for %s", truncate(string(body), 80))
		return result, errMalformedResponse("empty result")
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
