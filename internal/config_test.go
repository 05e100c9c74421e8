package gudgeontop

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		raw          string
		wantHost     string
		wantComplete bool
		wantErr      bool
	}{
		{"gudgeon.lan", "gudgeon.lan", false, false},
		{"gudgeon.lan:9009", "gudgeon.lan:9009", false, false},
		{"http://gudgeon.lan", "gudgeon.lan", false, false},
		{"https://gudgeon.lan:8443", "gudgeon.lan:8443", true, false},
		{"  ", "", false, true},
		{"http://:9009", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, complete, err := ParseBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Equal(t, tt.wantComplete, complete)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{BackendURL: mustURL(t, "http://gudgeon.lan:9009"), Window: DEFAULT_WINDOW, Features: DefaultFeatures()}
	}

	assert.NoError(t, valid().Validate())

	allTime := valid()
	allTime.Window = ALL_TIME
	assert.NoError(t, allTime.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no backend", func(c *Config) { c.BackendURL = nil }},
		{"prometheus without url", func(c *Config) { c.Source = SourcePrometheus }},
		{"exporter without url", func(c *Config) { c.Source = SourceExporter }},
		{"unknown source", func(c *Config) { c.Source = "graphite" }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"negative window", func(c *Config) { c.Window = -5 }},
		{"negative page size", func(c *Config) { c.PageSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestFeatures_Charts(t *testing.T) {
	assert.True(t, DefaultFeatures().Charts())
	assert.False(t, Features{Metrics: true}.Charts())
	assert.False(t, Features{MetricsPersist: true}.Charts())
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", DEFAULT_WINDOW, false},
		{"30m", 1800, false},
		{"12h", 43200, false},
		{"24h", 86400, false},
		{"1d", 86400, false},
		{"All Time", ALL_TIME, false},
		{"all", ALL_TIME, false},
		{"soon", 0, true},
		{"0s", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseWindow(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowOptions(t *testing.T) {
	options := WindowOptions()
	require.Len(t, options, 10)
	assert.Equal(t, WindowOption{Label: "5m", Seconds: 300}, options[0])
	assert.Equal(t, WindowOption{Label: "12h", Seconds: 43200}, options[7])
	assert.Equal(t, WindowOption{Label: "24h", Seconds: 86400}, options[8])
	assert.Equal(t, time.Duration(0), options[9].Duration())

	assert.Equal(t, 3600, NextWindow(1800))
	assert.Equal(t, 300, NextWindow(ALL_TIME), "wraps around")
	assert.Equal(t, ALL_TIME, PrevWindow(300))
	assert.Equal(t, DEFAULT_WINDOW, NextWindow(1234))

	assert.Equal(t, "30m", WindowLabel(1800))
	assert.Equal(t, "All Time", WindowLabel(ALL_TIME))
	assert.Equal(t, "90s", WindowLabel(90))
}

func TestMetricGroups(t *testing.T) {
	for _, group := range append(DashboardGroups(), ChartPageGroups()...) {
		assert.NoError(t, group.Validate(), group.ID)

		found, ok := GroupByID(group.ID)
		require.True(t, ok)
		assert.Equal(t, group.ID, found.ID)
	}

	_, ok := GroupByID("nope")
	assert.False(t, ok)

	assert.True(t, MemoryGroup.HasSecondary())
	assert.False(t, QueriesGroup.HasSecondary())
	assert.Equal(t, []MetricKey{SessionQueriesPerSec, SessionBlocksPerSec}, QueriesGroup.Keys())

	bad := []MetricGroup{
		{Series: []MetricSeriesSpec{{Key: QueryTime, Name: "a"}}},
		{ID: "empty"},
		{ID: "unknown", Series: []MetricSeriesSpec{{Key: "gudgeon-nope", Name: "a"}}},
		{ID: "dup", Series: []MetricSeriesSpec{{Key: QueryTime, Name: "a"}, {Key: QueryTime, Name: "a"}}},
		{ID: "domain", Domain: &Domain{Min: 5, Max: 5}, Series: []MetricSeriesSpec{{Key: QueryTime, Name: "a"}}},
	}
	for _, group := range bad {
		assert.Error(t, group.Validate(), group.ID)
	}
}

func TestPrefStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")

	store, err := OpenPrefStore(path)
	require.NoError(t, err)
	_, ok := store.Load("dashboard-chart")
	assert.False(t, ok, "a missing file is an empty store")

	require.NoError(t, store.Save("dashboard-chart", ComponentPrefs{Group: "memory", Window: 3600}))
	require.NoError(t, store.Save("query-log", ComponentPrefs{PageSize: 50}))

	reopened, err := OpenPrefStore(path)
	require.NoError(t, err)
	prefs, ok := reopened.Load("dashboard-chart")
	require.True(t, ok)
	assert.Equal(t, ComponentPrefs{Group: "memory", Window: 3600}, prefs)
	prefs, _ = reopened.Load("query-log")
	assert.Equal(t, 50, prefs.PageSize)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPrefStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = not [toml"), 0o644))
	_, err := OpenPrefStore(path)
	assert.Error(t, err)
}

func TestPrefStore_InMemory(t *testing.T) {
	store, err := OpenPrefStore("")
	require.NoError(t, err)
	require.NoError(t, store.Save("x", ComponentPrefs{Scope: "lifetime"}))
	prefs, ok := store.Load("x")
	assert.True(t, ok)
	assert.Equal(t, "lifetime", prefs.Scope)
	assert.Empty(t, store.Path())

	var nilStore *PrefStore
	assert.NoError(t, nilStore.Save("x", ComponentPrefs{}))
	_, ok = nilStore.Load("x")
	assert.False(t, ok)
}

func TestGenerateURLVariants(t *testing.T) {
	variants := generateURLVariants(mustURL(t, "http://gudgeon.lan/"))
	var got []string
	for _, v := range variants {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{
		"http://gudgeon.lan:9009",
		"http://gudgeon.lan:443",
		"http://gudgeon.lan:80",
		"https://gudgeon.lan:9009",
		"https://gudgeon.lan:443",
		"https://gudgeon.lan:80",
	}, got)

	variants = generateURLVariants(mustURL(t, "https://gudgeon.lan:9009/proxy"))
	assert.Len(t, variants, 6, "an explicit default port is not tried twice")
	assert.Equal(t, "https://gudgeon.lan:9009/proxy", variants[0].String())
}

func TestDetectBackend(t *testing.T) {
	backend := newFakeBackend(t)

	client, err := DetectBackend(context.Background(), backend.url(t), time.Second)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NotEmpty(t, backend.calls("components"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DetectBackend(ctx, backend.url(t), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingLister struct {
	calls      int
	components TestComponents
}

func (l *countingLister) TestComponents(ctx context.Context) (TestComponents, error) {
	l.calls++
	return l.components, nil
}

func TestCache(t *testing.T) {
	lister := &countingLister{components: TestComponents{
		Consumers: []string{"default", "living-room-tv"},
		Groups:    []string{"kids"},
	}}
	cache := NewCache(lister)

	assert.Equal(t, 0, cache.NumberOfTargets("consumer"))
	_, ok := cache.Cached()
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		_, err := cache.TestComponents(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, lister.calls, "memoized after the first fetch")
	assert.Equal(t, 2, cache.NumberOfTargets("consumer"))
	assert.Equal(t, 1, cache.NumberOfTargets("groups"))
	assert.Equal(t, 0, cache.NumberOfTargets("resolvers"))
	assert.Equal(t, len("living-room-tv"), cache.MaxTargetNameLen())

	cache.clear()
	_, err := cache.TestComponents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}
