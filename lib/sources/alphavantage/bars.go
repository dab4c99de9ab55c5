package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"finfeed/lib/chrono"
	"finfeed/lib/payload"
	"finfeed/lib/recordio"
)

// Bar is one daily OHLCV row, normalized across equity, crypto and fx
// series. Volume is nil where the upstream does not report one (fx).
type Bar struct {
	Date      string
	Symbol    string
	AssetType string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    *float64
}

var BarColumns = recordio.Columns{"date", "symbol", "asset_type", "open", "high", "low", "close", "volume"}

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

// series is the date -> field -> value map every daily endpoint nests
// under its series key.
type series map[string]map[string]string

func decodeSeries(obj payload.Object, key string) (series, error) {
	var s series
	if err := json.Unmarshal(obj[key], &s); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	return s, nil
}

func sortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
}

// DailyEquity fetches TIME_SERIES_DAILY (non-adjusted) for an equity
// or ETF symbol, filtered to the window, sorted ascending by date.
func (c *Client) DailyEquity(ctx context.Context, symbol string, w chrono.Window) ([]Bar, error) {
	const key = "Time Series (Daily)"
	obj, err := c.query(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": "full",
		"datatype":   "json",
	}, payload.Shape{Required: []string{key}, Message: messageFields})
	if err != nil {
		return nil, fmt.Errorf("daily series for %s: %w", symbol, err)
	}

	s, err := decodeSeries(obj, key)
	if err != nil {
		return nil, err
	}

	var bars []Bar
	for day, row := range s {
		if !w.ContainsDay(day) {
			continue
		}
		bar, ok := parseBar(ctx, day, symbol, "equity", row, "1. open", "2. high", "3. low", "4. close", "5. volume")
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	sortBars(bars)
	return bars, nil
}

// DailyCrypto fetches DIGITAL_CURRENCY_DAILY for a crypto symbol in
// the given market. The API reports market-denominated OHLC under
// "1a."-style keys; some mirrors only carry the plain "1."-style ones,
// so those are the fallback.
func (c *Client) DailyCrypto(ctx context.Context, symbol, market string, w chrono.Window) ([]Bar, error) {
	const key = "Time Series (Digital Currency Daily)"
	obj, err := c.query(ctx, map[string]string{
		"function": "DIGITAL_CURRENCY_DAILY",
		"symbol":   symbol,
		"market":   market,
	}, payload.Shape{Required: []string{key}, Message: messageFields})
	if err != nil {
		return nil, fmt.Errorf("crypto series for %s: %w", symbol, err)
	}

	s, err := decodeSeries(obj, key)
	if err != nil {
		return nil, err
	}

	pair := symbol + "-" + market
	var bars []Bar
	for day, row := range s {
		if !w.ContainsDay(day) {
			continue
		}
		withMarket := func(n int, name string) string {
			return fmt.Sprintf("%da. %s (%s)", n, name, market)
		}
		open, okO := firstFloat(row, withMarket(1, "open"), "1. open")
		high, okH := firstFloat(row, withMarket(2, "high"), "2. high")
		low, okL := firstFloat(row, withMarket(3, "low"), "3. low")
		closePx, okC := firstFloat(row, withMarket(4, "close"), "4. close")
		if !okO || !okH || !okL || !okC {
			slog.WarnContext(ctx, "dropping unparsable bar", "symbol", pair, "date", day)
			continue
		}
		bar := Bar{Date: day, Symbol: pair, AssetType: "crypto", Open: open, High: high, Low: low, Close: closePx}
		if vol, ok := payload.Float(row["5. volume"]); ok {
			bar.Volume = &vol
		}
		bars = append(bars, bar)
	}
	sortBars(bars)
	return bars, nil
}

// DailyFX fetches FX_DAILY for a currency pair such as XAU/USD. The
// API reports no volume for fx.
func (c *Client) DailyFX(ctx context.Context, from, to string, w chrono.Window) ([]Bar, error) {
	const key = "Time Series FX (Daily)"
	obj, err := c.query(ctx, map[string]string{
		"function":    "FX_DAILY",
		"from_symbol": from,
		"to_symbol":   to,
		"outputsize":  "full",
	}, payload.Shape{Required: []string{key}, Message: messageFields})
	if err != nil {
		return nil, fmt.Errorf("fx series for %s%s: %w", from, to, err)
	}

	s, err := decodeSeries(obj, key)
	if err != nil {
		return nil, err
	}

	pair := from + to
	var bars []Bar
	for day, row := range s {
		if !w.ContainsDay(day) {
			continue
		}
		bar, ok := parseBar(ctx, day, pair, "fx", row, "1. open", "2. high", "3. low", "4. close", "")
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	sortBars(bars)
	return bars, nil
}

// parseBar coerces one series row; a row with any unparsable required
// field is dropped with a warning, never fatal.
func parseBar(ctx context.Context, day, symbol, assetType string, row map[string]string, openKey, highKey, lowKey, closeKey, volumeKey string) (Bar, bool) {
	open, okO := payload.Float(row[openKey])
	high, okH := payload.Float(row[highKey])
	low, okL := payload.Float(row[lowKey])
	closePx, okC := payload.Float(row[closeKey])
	if !okO || !okH || !okL || !okC {
		slog.WarnContext(ctx, "dropping unparsable bar", "symbol", symbol, "date", day)
		return Bar{}, false
	}
	bar := Bar{Date: day, Symbol: symbol, AssetType: assetType, Open: open, High: high, Low: low, Close: closePx}
	if volumeKey != "" {
		if vol, ok := payload.Float(row[volumeKey]); ok {
			bar.Volume = &vol
		}
	}
	return bar, true
}

func firstFloat(row map[string]string, keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, ok := row[key]; ok {
			if f, ok := payload.Float(raw); ok {
				return f, true
			}
		}
	}
	return 0, false
}
