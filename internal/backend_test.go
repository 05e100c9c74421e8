package gudgeontop

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeBackend mimics the Gudgeon REST routes the dashboard talks to
type fakeBackend struct {
	mu       sync.Mutex
	server   *httptest.Server
	requests map[string][]url.Values

	current    any
	samples    any
	top        map[string]any
	queryList  any
	legacyLog  any
	components any
	testResult any
	status     map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &fakeBackend{
		requests: make(map[string][]url.Values),
		top:      make(map[string]any),
		status:   make(map[string]int),
		current: gin.H{
			"metrics": gin.H{
				"gudgeon-total-lifetime-queries": gin.H{"count": 1000},
				"gudgeon-blocked-lifetime-queries": gin.H{"count": 250},
			},
			"lists": []gin.H{},
		},
		samples:    []any{},
		queryList:  gin.H{"items": []any{}, "total": 0},
		components: gin.H{"consumers": []string{"default"}, "groups": []string{"default"}, "resolvers": []string{"default"}},
		testResult: gin.H{"text": "example.com. 60 IN A 93.184.216.34"},
	}

	r := gin.New()
	r.GET("/api/metrics/current", b.handle("current", func() any { return b.current }))
	r.GET("/api/metrics/query", b.handle("query", func() any { return b.samples }))
	r.GET("/api/metrics/top/:type", func(c *gin.Context) {
		b.handle("top/"+c.Param("type"), func() any {
			if entries, ok := b.top[c.Param("type")]; ok {
				return entries
			}
			return []any{}
		})(c)
	})
	r.GET("/api/query/list", b.handle("list", func() any { return b.queryList }))
	r.GET("/api/log", b.handle("log", func() any { return b.legacyLog }))
	r.GET("/api/test/components", b.handle("components", func() any { return b.components }))
	r.GET("/api/test/query", b.handle("test", func() any { return b.testResult }))

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) handle(route string, body func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		b.requests[route] = append(b.requests[route], c.Request.URL.Query())
		status, failing := b.status[route]
		payload := body()
		b.mu.Unlock()

		if failing {
			c.Status(status)
			return
		}
		if raw, ok := payload.(string); ok {
			c.Data(http.StatusOK, "application/json", []byte(raw))
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) fail(route string, status int) {
	b.set(func(b *fakeBackend) { b.status[route] = status })
}

func (b *fakeBackend) calls(route string) []url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]url.Values(nil), b.requests[route]...)
}

func (b *fakeBackend) url(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(b.server.URL)
	require.NoError(t, err)
	return u
}

func (b *fakeBackend) client(t *testing.T) *Client {
	t.Helper()
	return NewClient(b.url(t), RequestTimeout())
}
