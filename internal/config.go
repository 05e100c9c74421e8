package gudgeontop

import (
	"fmt"
	"net/url"
	"strings"
)

// Source names where time-series samples come from
const (
	SourceGudgeon    = "gudgeon"
	SourcePrometheus = "prometheus"
	SourceExporter   = "exporter"
)

// Features are the backend capabilities the dashboard is allowed to use.
// A page or component whose feature is off is never mounted.
type Features struct {
	Metrics         bool
	MetricsPersist  bool
	MetricsDetailed bool
	QueryLog        bool
}

// Charts reports whether time-series charts can be shown
func (f Features) Charts() bool {
	return f.Metrics && f.MetricsPersist
}

// Config is resolved once at startup and passed to every component
type Config struct {
	BackendURL    *url.URL
	Source        string
	PrometheusURL *url.URL
	ExporterURL   *url.URL
	Features      Features
	Window        int
	PageSize      int
	PrefsPath     string
	Version       string
}

// DefaultFeatures enables everything
func DefaultFeatures() Features {
	return Features{Metrics: true, MetricsPersist: true, MetricsDetailed: true, QueryLog: true}
}

// Validate checks the config is complete and consistent
func (c Config) Validate() error {
	if c.BackendURL == nil {
		return fmt.Errorf("gudgeon_url must be set")
	}
	switch c.Source {
	case "", SourceGudgeon:
	case SourcePrometheus:
		if c.PrometheusURL == nil {
			return fmt.Errorf("prometheus_url must be set when source is %s", SourcePrometheus)
		}
	case SourceExporter:
		if c.ExporterURL == nil {
			return fmt.Errorf("exporter_url must be set when source is %s", SourceExporter)
		}
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source, SourceGudgeon, SourcePrometheus, SourceExporter)
	}
	if c.Window == 0 || c.Window < ALL_TIME {
		return fmt.Errorf("invalid window %d", c.Window)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("invalid page size %d", c.PageSize)
	}
	return nil
}

// ParseBaseURL accepts "host", "host:port" or a full URL. The second result
// is false when scheme or port were left out and should be detected.
func ParseBaseURL(raw string) (*url.URL, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, fmt.Errorf("empty url")
	}
	complete := strings.Contains(raw, "://")
	if !complete {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return nil, false, fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u, complete && u.Port() != "", nil
}
