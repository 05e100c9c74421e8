package gudgeontop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SampleSource supplies time-series samples for a set of metric keys
type SampleSource interface {
	Samples(ctx context.Context, since time.Time, keys []MetricKey) ([]Sample, error)
}

// Client talks to the Gudgeon REST API
type Client struct {
	base   *url.URL
	client *http.Client
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL *url.URL, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the backend address the client was created with
func (c *Client) BaseURL() *url.URL {
	return c.base
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.endpoint(path, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	debugf("GET %s", endpoint)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("GET %s: status %d", endpoint, resp.StatusCode)
		return nil, errStatusNotOK(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, errMalformedResponse("empty body")
	}
	return body, nil
}

// CurrentMetrics fetches /api/metrics/current
func (c *Client) CurrentMetrics(ctx context.Context) (CurrentMetrics, error) {
	body, err := c.get(ctx, "/api/metrics/current", nil)
	if err != nil {
		return CurrentMetrics{}, err
	}
	return DecodeCurrentMetrics(body)
}

// Samples fetches /api/metrics/query starting at since, condensed, for the given keys
func (c *Client) Samples(ctx context.Context, since time.Time, keys []MetricKey) ([]Sample, error) {
	params := url.Values{}
	params.Set("start", strconv.FormatInt(since.Unix(), 10))
	params.Set("condense", "true")
	if len(keys) > 0 {
		names := make([]string, 0, len(keys))
		for _, key := range keys {
			names = append(names, string(key))
		}
		params.Set("metrics", strings.Join(names, ","))
	}

	body, err := c.get(ctx, "/api/metrics/query", params)
	if err != nil {
		return nil, err
	}
	return DecodeSamples(body)
}

// Top fetches /api/metrics/top/:type
func (c *Client) Top(ctx context.Context, topType string, limit int) ([]TopEntry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/api/metrics/top/"+url.PathEscape(topType), params)
	if err != nil {
		return nil, err
	}
	return DecodeTop(body)
}

// QueryList fetches /api/query/list with already built parameters. Servers
// without that endpoint are paged through /api/log instead.
func (c *Client) QueryList(ctx context.Context, params url.Values) (QueryLogPage, error) {
	body, err := c.get(ctx, "/api/query/list", params)
	var status errStatusNotOK
	if errors.As(err, &status) && int(status) == http.StatusNotFound {
		return c.legacyPage(ctx, params)
	}
	if err != nil {
		return QueryLogPage{}, err
	}
	return DecodeQueryLogPage(body)
}

// legacyFilters are the /api/query/list parameters /api/log also understands
var legacyFilters = []string{"after", "before", "address", "rdomain", "clientName", "responseText", "blocked", "direction"}

// legacyPage asks /api/log for every matching row and pages them locally
func (c *Client) legacyPage(ctx context.Context, params url.Values) (QueryLogPage, error) {
	limit, _ := strconv.Atoi(params.Get("limit"))
	skip, _ := strconv.Atoi(params.Get("skip"))

	legacy := url.Values{}
	legacy.Set("limit", "none")
	for _, name := range legacyFilters {
		if value := params.Get(name); value != "" {
			legacy.Set(name, value)
		}
	}
	if sort := params.Get("sort"); sort != "" {
		legacy.Set("sortby", sort)
	}

	body, err := c.get(ctx, "/api/log", legacy)
	if err != nil {
		return QueryLogPage{}, err
	}
	rows, err := DecodeLegacyLog(body)
	if err != nil {
		return QueryLogPage{}, err
	}

	page := QueryLogPage{TotalCount: len(rows)}
	if skip < len(rows) {
		end := len(rows)
		if limit > 0 {
			end = min(skip+limit, len(rows))
		}
		page.Rows = rows[skip:end]
	}
	return page, nil
}

// TestComponents fetches /api/test/components
func (c *Client) TestComponents(ctx context.Context) (TestComponents, error) {
	body, err := c.get(ctx, "/api/test/components", nil)
	if err != nil {
		return TestComponents{}, err
	}
	return DecodeTestComponents(body)
}

// TestQuery runs /api/test/query for domain against one component
func (c *Client) TestQuery(ctx context.Context, domain, qtype, testType, target string) (TestResult, error) {
	if domain == "" {
		return TestResult{}, fmt.Errorf("domain must be provided")
	}
	params := url.Values{}
	params.Set("domain", domain)
	params.Set("qtype", qtype)
	if testType != "" {
		params.Set(testType, target)
	}
	body, err := c.get(ctx, "/api/test/query", params)
	if err != nil {
		return TestResult{}, err
	}
	return DecodeTestResult(body)
}

// Check verifies the backend answers on a known endpoint
func (c *Client) Check(ctx context.Context) error {
	_, err := c.get(ctx, "/api/test/components", nil)
	if err != nil {
		return fmt.Errorf("gudgeon API check failed: %w", err)
	}
	return nil
}
