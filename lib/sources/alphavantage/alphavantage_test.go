package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
	"finfeed/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cleanup := telemetry.SetupForTesting(t, "test:sources/alphavantage")
	t.Cleanup(cleanup)
	fetch := politefetch.NewClient(politefetch.ClientOptions{
		Timeout:  time.Second * 5,
		Policy:   politefetch.Policy{MaxAttempts: 2, Base: time.Millisecond, Multiplier: 2, MaxWait: time.Millisecond * 4},
		Throttle: Throttle,
	})
	client, err := NewClient(ClientOptions{APIKey: "test-key", BaseURL: baseURL, Fetch: fetch})
	require.NoError(t, err)
	return client
}

func window(t *testing.T, start, end string) chrono.Window {
	t.Helper()
	w, err := chrono.ParseWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}

func TestDailyEquityFiltersWindowAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		require.Equal(t, "NVDA", r.URL.Query().Get("symbol"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "NVDA"},
			"Time Series (Daily)": {
				"2024-01-04": {"1. open": "4", "2. high": "4", "3. low": "4", "4. close": "4", "5. volume": "400"},
				"2024-01-02": {"1. open": "2", "2. high": "2", "3. low": "2", "4. close": "2", "5. volume": "200"},
				"2024-01-01": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "100"},
				"2023-12-31": {"1. open": "0", "2. high": "0", "3. low": "0", "4. close": "0", "5. volume": "50"}
			}
		}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv.URL).DailyEquity(context.Background(), "NVDA", window(t, "2024-01-01", "2024-01-03"))
	require.NoError(t, err)

	require.Len(t, bars, 2)
	require.Equal(t, "2024-01-01", bars[0].Date)
	require.Equal(t, "2024-01-02", bars[1].Date)
	require.Equal(t, 2.0, bars[1].Close)
	require.NotNil(t, bars[1].Volume)
	require.Equal(t, 200.0, *bars[1].Volume)
}

func TestDailyEquityShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Meta Data": {}, "Weekly Series": {}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).DailyEquity(context.Background(), "KO", window(t, "2024-01-01", "2024-01-31"))
	require.Error(t, err)

	var shape *payload.ShapeError
	require.ErrorAs(t, err, &shape)
	require.Contains(t, err.Error(), "Meta Data")
	require.Contains(t, err.Error(), "Weekly Series")
}

func TestThrottleNoteRetriesToExhaustion(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).DailyEquity(context.Background(), "SPY", window(t, "2024-01-01", "2024-01-31"))
	require.Error(t, err)

	var exhausted *politefetch.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	var throttled *politefetch.ThrottledError
	require.ErrorAs(t, err, &throttled)
	require.Equal(t, 2, requests)
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).DailyEquity(context.Background(), "BOGUS", window(t, "2024-01-01", "2024-01-31"))
	require.ErrorContains(t, err, "Invalid API call")
	require.Equal(t, 1, requests)
}

func TestDailyFXHasNoVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Time Series FX (Daily)": {
				"2024-01-02": {"1. open": "2062.2", "2. high": "2067.4", "3. low": "2055.1", "4. close": "2059.8"}
			}
		}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv.URL).DailyFX(context.Background(), "XAU", "USD", window(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.Equal(t, "XAUUSD", bars[0].Symbol)
	require.Equal(t, "fx", bars[0].AssetType)
	require.Nil(t, bars[0].Volume)

	rec := bars[0].Record()
	_, hasVolume := rec["volume"]
	require.False(t, hasVolume)
}

func TestDailyCryptoPrefersMarketKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Time Series (Digital Currency Daily)": {
				"2024-01-02": {
					"1a. open (USD)": "44200.1", "2a. high (USD)": "45500.0",
					"3a. low (USD)": "44100.9", "4a. close (USD)": "44950.5",
					"5. volume": "30251.7"
				},
				"2024-01-03": {
					"1. open": "44950.5", "2. high": "45100.0",
					"3. low": "42800.0", "4. close": "42845.2",
					"5. volume": "41123.9"
				}
			}
		}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(t, srv.URL).DailyCrypto(context.Background(), "BTC", "USD", window(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, "BTC-USD", bars[0].Symbol)
	require.Equal(t, 44200.1, bars[0].Open)
	require.Equal(t, 42845.2, bars[1].Close)
}

func TestIndicatorDropsUnparsableValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "Inflation - US Consumer Prices",
			"data": [
				{"date": "2024-03-01", "value": "3.2"},
				{"date": "2024-02-01", "value": "."},
				{"date": "2024-01-01", "value": "3.1"}
			]
		}`))
	}))
	defer srv.Close()

	points, err := newTestClient(t, srv.URL).Indicator(context.Background(), "INFLATION", "INFLATION", "daily", window(t, "2024-01-01", "2024-12-31"))
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, "2024-01-01", points[0].Date)
	require.Equal(t, 3.1, points[0].Value)
	require.Equal(t, "2024-03-01", points[1].Date)
}

func TestTreasuryYieldLabelsMaturity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "TREASURY_YIELD", r.URL.Query().Get("function"))
		require.Equal(t, "10year", r.URL.Query().Get("maturity"))
		w.Write([]byte(`{"data": [{"date": "2024-01-02", "value": "3.95"}]}`))
	}))
	defer srv.Close()

	points, err := newTestClient(t, srv.URL).TreasuryYield(context.Background(), "10year", "daily", window(t, "2024-01-01", "2024-12-31"))
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Equal(t, "TREASURY_YIELD_10year", points[0].Indicator)
}

func TestQuarterlyEarnings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"symbol": "NVDA",
			"quarterlyEarnings": [
				{"fiscalDateEnding": "2024-04-30", "reportedDate": "2024-05-22", "reportedEPS": "6.12", "estimatedEPS": "5.59", "surprise": "0.53", "surprisePercentage": "9.48"},
				{"fiscalDateEnding": "2022-10-31", "reportedDate": "2022-11-16", "reportedEPS": "0.58", "estimatedEPS": "0.69", "surprise": "-0.11", "surprisePercentage": "-15.94"},
				{"fiscalDateEnding": "bogus", "reportedDate": "", "reportedEPS": "", "estimatedEPS": "", "surprise": "", "surprisePercentage": ""}
			]
		}`))
	}))
	defer srv.Close()

	rows, err := newTestClient(t, srv.URL).QuarterlyEarnings(context.Background(), "NVDA", window(t, "2023-01-01", "2025-10-31"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2024-04-30", rows[0].FiscalDateEnding)
	require.Equal(t, "6.12", rows[0].ReportedEPS)
}

func TestEarningsEstimatesShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"quarterlyEarningsEstimates": [
				{"fiscalDateEnding": "2024-07-31", "estimatedEPS": "0.64", "numberAnalystsEstimated": "38"}
			],
			"quarterlyRevenueEstimates": [
				{"fiscalDateEnding": "2024-07-31", "revenueEstimate": "28700000000", "numberOfAnalysts": "32"}
			],
			"estimates": [
				{"date": "2024-07-31", "horizon": "current quarter", "eps_estimate_average": 0.64}
			]
		}`))
	}))
	defer srv.Close()

	est, err := newTestClient(t, srv.URL).EarningsEstimates(context.Background(), "NVDA", window(t, "2023-01-01", "2025-10-31"))
	require.NoError(t, err)

	require.Len(t, est.EPS, 1)
	require.Equal(t, "0.64", est.EPS[0].Estimate)
	require.Equal(t, "38", est.EPS[0].NumberAnalysts)

	require.Len(t, est.Revenue, 1)
	require.Equal(t, "28700000000", est.Revenue[0].Estimate)
	require.Equal(t, "32", est.Revenue[0].NumberAnalysts)

	require.Len(t, est.Trending, 1)
	cols := TrendingColumns(est.Trending)
	require.Equal(t, "symbol", cols[0])
	require.Equal(t, "date", cols[1])
	require.Equal(t, "horizon", cols[2])
}

func TestEarningsEstimatesUnknownShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something_else": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).EarningsEstimates(context.Background(), "KO", window(t, "2023-01-01", "2025-10-31"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "something_else")
}
