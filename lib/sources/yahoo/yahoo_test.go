package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/politefetch"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(ClientOptions{
		BaseURL: baseURL,
		Fetch: politefetch.NewClient(politefetch.ClientOptions{
			Timeout: time.Second * 5,
			Policy:  politefetch.Policy{MaxAttempts: 2, Base: time.Millisecond, Multiplier: 2},
		}),
	})
}

func window(t *testing.T, start, end string) chrono.Window {
	t.Helper()
	w, err := chrono.ParseWindow(start, end)
	require.NoError(t, err)
	return w
}

// days 2024-01-02..04 as unix timestamps (UTC midnight)
const (
	jan2 = 1704153600
	jan3 = 1704240000
	jan4 = 1704326400
)

func chartBody(timestamps string, quote string, adjclose string) string {
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": %s,
				"indicators": {"quote": [%s], "adjclose": [%s]}
			}],
			"error": null
		}
	}`, timestamps, quote, adjclose)
}

func TestDailyParsesAndFiltersWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/finance/chart/^VIX", r.URL.Path)
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody(
			fmt.Sprintf("[%d, %d, %d]", jan2, jan3, jan4),
			`{"open": [13.2, 13.9, 14.1], "high": [14.0, 14.2, 14.5], "low": [13.0, 13.5, 13.9], "close": [13.8, 14.0, 14.2], "volume": [0, 0, 0]}`,
			`{"adjclose": [13.8, 14.0, 14.2]}`,
		))
	}))
	defer srv.Close()

	// window excludes jan 4
	bars, err := newTestClient(t, srv.URL).Daily(
		context.Background(), "^VIX", "VIX", "index", window(t, "2024-01-02", "2024-01-03"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, "2024-01-02", bars[0].Date)
	require.Equal(t, "VIX", bars[0].Symbol)
	require.Equal(t, "index", bars[0].AssetType)
	require.Equal(t, 13.8, bars[0].Close)
	require.NotNil(t, bars[0].AdjClose)
	require.Equal(t, 13.8, *bars[0].AdjClose)
}

func TestDailyDropsNullQuoteDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(
			fmt.Sprintf("[%d, %d]", jan2, jan3),
			`{"open": [13.2, null], "high": [14.0, null], "low": [13.0, null], "close": [13.8, null], "volume": [0, null]}`,
			`{"adjclose": [13.8, null]}`,
		))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv.URL).Daily(
		context.Background(), "^VIX", "VIX", "index", window(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.Equal(t, "2024-01-02", bars[0].Date)
}

func TestDailySurfacesChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Daily(
		context.Background(), "^NOPE", "VIX", "index", window(t, "2024-01-01", "2024-01-31"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "No data found")
}

func TestDailyWithFallbackTriesNextTicker(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if r.URL.Path == "/v8/finance/chart/^VIX" {
			// empty result set, not an error
			fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
			return
		}
		fmt.Fprint(w, chartBody(
			fmt.Sprintf("[%d]", jan2),
			`{"open": [13.2], "high": [14.0], "low": [13.0], "close": [13.8], "volume": [null]}`,
			`{"adjclose": [13.8]}`,
		))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv.URL).DailyWithFallback(
		context.Background(), VIXTickers, "VIX", "index", window(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Equal(t, []string{"/v8/finance/chart/^VIX", "/v8/finance/chart/^VIXCLS"}, requested)
	require.Len(t, bars, 1)
	require.Nil(t, bars[0].Volume)

	// symbol is always the caller's label, not the winning ticker
	require.Equal(t, "VIX", bars[0].Symbol)
}

func TestDailyWithFallbackAllEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).DailyWithFallback(
		context.Background(), VIXTickers, "VIX", "index", window(t, "2024-01-01", "2024-01-31"))
	require.Error(t, err)
}
