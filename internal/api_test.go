package gudgeontop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSamples(t *testing.T) {
	body := []byte(`[
		{"AtTime": "2024-05-01T10:00:00Z", "FromTime": "2024-05-01T09:59:50Z", "Values": {
			"gudgeon-session-queries-ps": {"count": 12.5},
			"gudgeon-unknown-thing": {"count": 3},
			"gudgeon-query-time": {"count": 4, "average": 1.5}
		}},
		{"AtTime": "2024-05-01T10:00:10Z"}
	]`)

	samples, err := DecodeSamples(body)
	require.NoError(t, err)
	require.Len(t, samples, 1, "entries without values are skipped")

	s := samples[0]
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), s.AtTime.UTC())
	assert.Len(t, s.Values, 2, "unknown keys are dropped")
	assert.Equal(t, 12.5, s.Values[SessionQueriesPerSec].Count)
	assert.Nil(t, s.Values[SessionQueriesPerSec].Average)
	require.NotNil(t, s.Values[QueryTime].Average)
	assert.Equal(t, 1.5, *s.Values[QueryTime].Average)
}

func TestDecodeSamples_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"object", `{"items": []}`},
		{"wrong element type", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSamples([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, IsNoData(err))
		})
	}
}

func TestDecodeSamples_Null(t *testing.T) {
	samples, err := DecodeSamples([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestDecodeCurrentMetrics(t *testing.T) {
	body := []byte(`{
		"metrics": {
			"gudgeon-total-lifetime-queries": {"count": 1000},
			"gudgeon-rules-list-ads": {"count": 5000},
			"gudgeon-rules-session-matched-ads": {"count": 7},
			"gudgeon-something-new": {"count": 1}
		},
		"lists": [{"short": "ads", "name": "Ad Servers"}, {"short": "", "name": ""}]
	}`)

	current, err := DecodeCurrentMetrics(body)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, current.Count(TotalLifetimeQueries))
	assert.Equal(t, 0.0, current.Count(BlockedLifetimeQueries))
	require.Len(t, current.Lists, 1)
	assert.Equal(t, "Ad Servers", current.Lists[0].Name)

	assert.Equal(t, 5000.0, current.ListCount(ListRules, "ads"))
	assert.Equal(t, 7.0, current.ListCount(ListSessionMatched, "ads"))
	assert.False(t, current.HasListCount(ListLifetimeMatched, "ads"))
	assert.Equal(t, 0.0, current.ListCount(ListLifetimeMatched, "ads"))
}

func TestDecodeCurrentMetrics_MissingMetrics(t *testing.T) {
	_, err := DecodeCurrentMetrics([]byte(`{"lists": []}`))
	require.Error(t, err)
	assert.True(t, IsNoData(err))
}

func TestDecodeQueryLogPage(t *testing.T) {
	page, err := DecodeQueryLogPage([]byte(`{"items": [{"Address": "10.0.0.2", "RequestDomain": "example.com", "Blocked": true}], "total": 31}`))
	require.NoError(t, err)
	assert.Equal(t, 31, page.TotalCount)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "10.0.0.2", page.Rows[0].Address)
	assert.True(t, page.Rows[0].Blocked)

	_, err = DecodeQueryLogPage([]byte(`{"items": []}`))
	assert.True(t, IsNoData(err), "a page without total is malformed")
}

func TestDecodeTestComponents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plural", `{"consumers": ["a", "b"], "groups": ["g"], "resolvers": ["r"]}`},
		{"singular", `{"consumer": ["a", "b"], "groups": ["g"], "resolvers": ["r"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components, err := DecodeTestComponents([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, components.ForType("consumer"))
			assert.Equal(t, []string{"g"}, components.ForType("groups"))
			assert.Equal(t, []string{"r"}, components.ForType("resolvers"))
			assert.Nil(t, components.ForType("other"))
		})
	}
}

func TestDecodeTestResult(t *testing.T) {
	result, err := DecodeTestResult([]byte(`{"text": "answer", "result": {"blocked": false}}`))
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Output())

	result, err = DecodeTestResult([]byte(`{"result": {"blocked": true}}`))
	require.NoError(t, err)
	assert.Contains(t, result.Output(), `"blocked": true`)

	_, err = DecodeTestResult([]byte(`{"text": ""}`))
	assert.True(t, IsNoData(err))

	_, err = DecodeTestResult([]byte(`[]`))
	assert.True(t, IsNoData(err))
}
