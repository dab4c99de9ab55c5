// Package yahoo pulls daily bars from the Yahoo Finance chart API.
// Index data is spotty across regions and mirrors, so callers pass a
// list of candidate tickers and the first one that yields data wins.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/politefetch"
	"finfeed/lib/recordio"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// VIXTickers are the symbols the CBOE volatility index trades under on
// Yahoo, in preference order.
var VIXTickers = []string{"^VIX", "^VIXCLS"}

type Client struct {
	fetch   *politefetch.Client
	baseURL string
}

type ClientOptions struct {
	BaseURL string
	Fetch   *politefetch.Client
}

func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = politefetch.NewClient(politefetch.ClientOptions{
			Timeout: time.Second * 30,
			Limiter: politefetch.NewLimiter(time.Second),
			Policy:  politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			// Yahoo rejects requests without a browser-looking agent
			UserAgents: []string{"Mozilla/5.0"},
			TracerName: "sources/yahoo",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL}
}

// Bar is one daily row. AdjClose and Volume stay nil when the API
// reports none, which serializes as a blank CSV field.
type Bar struct {
	Date      string
	Symbol    string
	AssetType string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	AdjClose  *float64
	Volume    *float64
}

var BarColumns = recordio.Columns{"date", "symbol", "asset_type", "open", "high", "low", "close", "adj_close", "volume"}

func (b Bar) Record() recordio.Record {
	rec := recordio.Record{
		"date":       b.Date,
		"symbol":     b.Symbol,
		"asset_type": b.AssetType,
		"open":       b.Open,
		"high":       b.High,
		"low":        b.Low,
		"close":      b.Close,
	}
	if b.AdjClose != nil {
		rec["adj_close"] = *b.AdjClose
	}
	if b.Volume != nil {
		rec["volume"] = *b.Volume
	}
	return rec
}

func BarRecords(bars []Bar) []recordio.Record {
	out := make([]recordio.Record, len(bars))
	for i, b := range bars {
		out[i] = b.Record()
	}
	return out
}

// chartResponse is the slice of the v8 chart payload the bars need.
// OHLC arrays run parallel to the timestamp array and carry nulls for
// days without a quote.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Daily fetches one ticker's daily bars inside the window, labelled
// with the given symbol and asset type, sorted ascending by date.
func (c *Client) Daily(ctx context.Context, ticker, symbol, assetType string, w chrono.Window) ([]Bar, error) {
	res, err := c.fetch.Get(ctx, c.baseURL+"/v8/finance/chart/"+ticker, map[string]string{
		"period1":              strconv.FormatInt(w.Start.Unix(), 10),
		"period2":              strconv.FormatInt(w.End.AddDate(0, 0, 1).Unix(), 10),
		"interval":             "1d",
		"includeAdjustedClose": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("chart for %s: %w", ticker, err)
	}

	var chart chartResponse
	if err := json.Unmarshal(res.Body, &chart); err != nil {
		return nil, fmt.Errorf("chart for %s: %w", ticker, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart for %s: %s (%s)", ticker, chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adjclose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjclose = result.Indicators.AdjClose[0].AdjClose
	}

	at := func(values []*float64, i int) (float64, bool) {
		if i >= len(values) || values[i] == nil {
			return 0, false
		}
		return *values[i], true
	}

	var bars []Bar
	for i, ts := range result.Timestamp {
		day := time.Unix(ts, 0).UTC().Format(chrono.DayFormat)
		if !w.ContainsDay(day) {
			continue
		}
		open, okO := at(quote.Open, i)
		high, okH := at(quote.High, i)
		low, okL := at(quote.Low, i)
		closePx, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			slog.WarnContext(ctx, "dropping bar with missing quote", "ticker", ticker, "date", day)
			continue
		}
		bar := Bar{Date: day, Symbol: symbol, AssetType: assetType, Open: open, High: high, Low: low, Close: closePx}
		if adj, ok := at(adjclose, i); ok {
			bar.AdjClose = &adj
		}
		if vol, ok := at(quote.Volume, i); ok {
			bar.Volume = &vol
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

// DailyWithFallback tries each ticker in order and returns the first
// non-empty result. An error from one ticker only moves on to the next
// candidate; only an all-empty run fails.
func (c *Client) DailyWithFallback(ctx context.Context, tickers []string, symbol, assetType string, w chrono.Window) ([]Bar, error) {
	var lastErr error
	for _, ticker := range tickers {
		bars, err := c.Daily(ctx, ticker, symbol, assetType, w)
		if err != nil {
			slog.WarnContext(ctx, "ticker failed, trying next candidate", "ticker", ticker, "err", err)
			lastErr = err
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
		slog.WarnContext(ctx, "ticker returned no data, trying next candidate", "ticker", ticker)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no data from any of %v: %w", tickers, lastErr)
	}
	return nil, fmt.Errorf("no data from any of %v", tickers)
}
