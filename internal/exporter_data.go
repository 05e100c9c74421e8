package gudgeontop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// ExporterSource scrapes a Prometheus text exposition of gudgeon metrics
// and turns every scrape into a single sample
type ExporterSource struct {
	url    *url.URL
	client *http.Client
	now    func() time.Time
}

func NewExporterSource(exporterURL *url.URL, timeout time.Duration) *ExporterSource {
	return &ExporterSource{
		url: exporterURL,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

func (e *ExporterSource) scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error querying exporter: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return nil, errMalformedResponse("failed to parse metrics: " + err.Error())
	}
	return families, nil
}

func (e *ExporterSource) Check(ctx context.Context) error {
	families, err := e.scrape(ctx)
	if err != nil {
		return err
	}
	if _, ok := families[TotalSessionQueries.PrometheusName()]; !ok {
		return fmt.Errorf("no gudgeon metrics exposed at %s", e.url)
	}
	return nil
}

// familyValue sums every metric of the family whatever its type
func familyValue(family *dto.MetricFamily) float64 {
	total := 0.0
	for _, metric := range family.GetMetric() {
		switch {
		case metric.Counter != nil:
			total += metric.GetCounter().GetValue()
		case metric.Gauge != nil:
			total += metric.GetGauge().GetValue()
		case metric.Untyped != nil:
			total += metric.GetUntyped().GetValue()
		}
	}
	return total
}

// Samples scrapes once. since is ignored apart from suppressing a sample
// that would land before it.
func (e *ExporterSource) Samples(ctx context.Context, since time.Time, keys []MetricKey) ([]Sample, error) {
	families, err := e.scrape(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now.Before(since) {
		return nil, nil
	}

	sample := Sample{AtTime: now, FromTime: now, Values: make(map[MetricKey]MetricValue, len(keys))}
	for _, key := range keys {
		family, ok := families[key.PrometheusName()]
		if !ok {
			continue
		}
		sample.Values[key] = MetricValue{Count: familyValue(family)}
	}
	return []Sample{sample}, nil
}

func (e *ExporterSource) String() string {
	return "exporter " + e.url.Host
}
