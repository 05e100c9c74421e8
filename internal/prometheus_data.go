package gudgeontop

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// prometheus refuses ranges with more points than this
const maxRangePoints = 11000

// PrometheusSource reads gudgeon metrics that were scraped into Prometheus.
// Each metric key maps onto gudgeon_<key with underscores>.
type PrometheusSource struct {
	client api.Client
	api    v1.API
	url    *url.URL
	step   time.Duration
}

func NewPrometheusSource(prometheusURL *url.URL, step time.Duration) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	if step <= 0 {
		step = ChartInterval.Normal
	}

	return &PrometheusSource{
		client: client,
		api:    v1.NewAPI(client),
		url:    prometheusURL,
		step:   step,
	}, nil
}

func (p *PrometheusSource) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Test basic Prometheus API connectivity
	_, warnings, err := p.api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("prometheus API query failed: %w", err)
	}
	if len(warnings) > 0 {
		log.Printf("Prometheus warnings: %v", warnings)
	}

	// Verify gudgeon metrics are being scraped
	query := "count(" + TotalSessionQueries.PrometheusName() + ")"
	result, _, err := p.api.Query(ctx, query, time.Now())
	if err != nil {
		return fmt.Errorf("gudgeon metrics query failed: %w", err)
	}
	if vector, ok := result.(model.Vector); !ok || vector.Len() == 0 {
		return fmt.Errorf("no gudgeon metrics found in prometheus")
	}

	return nil
}

// rangeStep widens the step so the range stays under the point limit
func (p *PrometheusSource) rangeStep(start, end time.Time) time.Duration {
	step := p.step
	if minStep := end.Sub(start) / maxRangePoints; minStep > step {
		step = minStep.Truncate(time.Second) + time.Second
	}
	return step
}

// Samples runs one range query per key from since to now and joins the
// results by timestamp. Series of the same metric are summed.
func (p *PrometheusSource) Samples(ctx context.Context, since time.Time, keys []MetricKey) ([]Sample, error) {
	end := time.Now()
	if !since.Before(end) {
		return nil, nil
	}
	r := v1.Range{Start: since, End: end, Step: p.rangeStep(since, end)}

	byTime := make(map[int64]*Sample)
	for _, key := range keys {
		result, warnings, err := p.api.QueryRange(ctx, "sum("+key.PrometheusName()+")", r)
		if err != nil {
			return nil, fmt.Errorf("prometheus range query for %s failed: %w", key, err)
		}
		if len(warnings) > 0 {
			log.Printf("Prometheus warnings: %v", warnings)
		}
		matrix, ok := result.(model.Matrix)
		if !ok {
			return nil, errMalformedResponse(fmt.Sprintf("expected matrix for %s, got %s", key, result.Type()))
		}
		for _, stream := range matrix {
			for _, pair := range stream.Values {
				at := pair.Timestamp.Time()
				sample, ok := byTime[at.Unix()]
				if !ok {
					sample = &Sample{AtTime: at, FromTime: at.Add(-r.Step), Values: make(map[MetricKey]MetricValue)}
					byTime[at.Unix()] = sample
				}
				value := sample.Values[key]
				value.Count += float64(pair.Value)
				sample.Values[key] = value
			}
		}
	}

	samples := make([]Sample, 0, len(byTime))
	for _, sample := range byTime {
		samples = append(samples, *sample)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].AtTime.Before(samples[j].AtTime)
	})
	return samples, nil
}

func (p *PrometheusSource) String() string {
	return "prometheus " + p.url.Host
}
