package gudgeontop

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"
)

// DetectBackend tries variants of base until a Gudgeon API answers and
// returns a client for the first that does
func DetectBackend(ctx context.Context, base *url.URL, timeout time.Duration) (*Client, error) {
	variants := generateURLVariants(base)
	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Printf("Trying Gudgeon backend: %s", variant)
		client := NewClient(variant, timeout)
		if err := client.Check(ctx); err != nil {
			log.Printf("Gudgeon check failed: %v", err)
			continue
		}
		log.Printf("✓ Found Gudgeon backend at %s", variant)
		return client, nil
	}
	return nil, fmt.Errorf("no gudgeon backend found at %s (tried %d addresses)", base.Host, len(variants))
}

// generateURLVariants creates different URL combinations to try
func generateURLVariants(base *url.URL) []*url.URL {
	var variants []*url.URL
	hostname := base.Hostname()
	port := base.Port()
	path := base.Path
	if path == "/" {
		path = ""
	}

	// Schemes to try: prefer HTTPS, fallback to HTTP
	schemes := []string{"https", "http"}
	if base.Scheme == "http" {
		schemes = []string{"http", "https"}
	}

	// Ports to try: 9009 is the gudgeon default web port
	ports := []string{"9009", "443", "80"}
	if port != "" {
		ports = append([]string{port}, ports...)
	}

	seen := make(map[string]bool)
	for _, scheme := range schemes {
		for _, p := range ports {
			u := &url.URL{
				Scheme: scheme,
				Host:   hostname + ":" + p,
				Path:   path,
			}
			if seen[u.String()] {
				continue
			}
			seen[u.String()] = true
			variants = append(variants, u)
		}
	}

	return variants
}

// NewSampleSource picks where chart samples come from
func NewSampleSource(ctx context.Context, cfg Config, client *Client) (SampleSource, error) {
	switch cfg.Source {
	case "", SourceGudgeon:
		return client, nil
	case SourcePrometheus:
		log.Printf("Using Prometheus sample source: %s", cfg.PrometheusURL)
		ps, err := NewPrometheusSource(cfg.PrometheusURL, ChartInterval.Normal)
		if err != nil {
			return nil, err
		}
		if err := ps.Check(ctx); err != nil {
			return nil, err
		}
		return ps, nil
	case SourceExporter:
		log.Printf("Using exporter sample source: %s", cfg.ExporterURL)
		es := NewExporterSource(cfg.ExporterURL, RequestTimeout())
		if err := es.Check(ctx); err != nil {
			return nil, err
		}
		return es, nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}
