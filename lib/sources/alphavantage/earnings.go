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

// EarningsRow is one reported quarter. EPS fields stay strings: the
// API mixes numbers with "None" and the CSV passes them through.
type EarningsRow struct {
	Symbol             string
	FiscalDateEnding   string
	ReportedDate       string
	ReportedEPS        string
	EstimatedEPS       string
	Surprise           string
	SurprisePercentage string
}

var EarningsColumns = recordio.Columns{
	"symbol", "fiscalDateEnding", "reportedDate", "reportedEPS",
	"estimatedEPS", "surprise", "surprisePercentage",
}

func (r EarningsRow) Record() recordio.Record {
	return recordio.Record{
		"symbol":             r.Symbol,
		"fiscalDateEnding":   r.FiscalDateEnding,
		"reportedDate":       r.ReportedDate,
		"reportedEPS":        r.ReportedEPS,
		"estimatedEPS":       r.EstimatedEPS,
		"surprise":           r.Surprise,
		"surprisePercentage": r.SurprisePercentage,
	}
}

func EarningsRecords(rows []EarningsRow) []recordio.Record {
	out := make([]recordio.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// QuarterlyEarnings fetches the EARNINGS function, keeping quarters
// whose fiscal end falls inside the window. Rows with an unparsable
// fiscal date are dropped.
func (c *Client) QuarterlyEarnings(ctx context.Context, symbol string, w chrono.Window) ([]EarningsRow, error) {
	obj, err := c.query(ctx, map[string]string{
		"function": "EARNINGS",
		"symbol":   symbol,
	}, payload.Shape{Required: []string{"quarterlyEarnings"}, Message: messageFields})
	if err != nil {
		return nil, fmt.Errorf("earnings for %s: %w", symbol, err)
	}

	var items []struct {
		FiscalDateEnding   string `json:"fiscalDateEnding"`
		ReportedDate       string `json:"reportedDate"`
		ReportedEPS        string `json:"reportedEPS"`
		EstimatedEPS       string `json:"estimatedEPS"`
		Surprise           string `json:"surprise"`
		SurprisePercentage string `json:"surprisePercentage"`
	}
	if err := json.Unmarshal(obj["quarterlyEarnings"], &items); err != nil {
		return nil, fmt.Errorf("earnings for %s: decoding quarterlyEarnings: %w", symbol, err)
	}

	var rows []EarningsRow
	for _, item := range items {
		if _, ok := payload.Day(item.FiscalDateEnding); !ok {
			slog.WarnContext(ctx, "dropping earnings row with bad fiscal date", "symbol", symbol, "fiscal_date", item.FiscalDateEnding)
			continue
		}
		if !w.ContainsDay(item.FiscalDateEnding) {
			continue
		}
		rows = append(rows, EarningsRow{
			Symbol:             symbol,
			FiscalDateEnding:   item.FiscalDateEnding,
			ReportedDate:       item.ReportedDate,
			ReportedEPS:        item.ReportedEPS,
			EstimatedEPS:       item.EstimatedEPS,
			Surprise:           item.Surprise,
			SurprisePercentage: item.SurprisePercentage,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FiscalDateEnding < rows[j].FiscalDateEnding })
	return rows, nil
}

// EstimateRow is one analyst-estimate quarter, for either EPS or
// revenue depending on which list it came from.
type EstimateRow struct {
	Symbol           string
	FiscalDateEnding string
	Estimate         string
	NumberAnalysts   string
}

var EPSEstimateColumns = recordio.Columns{"symbol", "fiscalDateEnding", "estimatedEPS", "numberAnalystsEstimated"}
var RevenueEstimateColumns = recordio.Columns{"symbol", "fiscalDateEnding", "revenueEstimate", "numberAnalystsEstimated"}

func EstimateRecords(rows []EstimateRow, estimateField string) []recordio.Record {
	out := make([]recordio.Record, len(rows))
	for i, r := range rows {
		out[i] = recordio.Record{
			"symbol":                  r.Symbol,
			"fiscalDateEnding":        r.FiscalDateEnding,
			estimateField:             r.Estimate,
			"numberAnalystsEstimated": r.NumberAnalysts,
		}
	}
	return out
}

// Estimates holds the two stable shapes of the EARNINGS_ESTIMATES
// function plus the newer "estimates" trending array passed through
// as-is (its fields vary by horizon).
type Estimates struct {
	EPS      []EstimateRow
	Revenue  []EstimateRow
	Trending []recordio.Record
}

// EarningsEstimates fetches EARNINGS_ESTIMATES. The function has
// shipped under several shapes; all known ones are read, and only when
// none is present does the call fail.
func (c *Client) EarningsEstimates(ctx context.Context, symbol string, w chrono.Window) (Estimates, error) {
	obj, err := c.query(ctx, map[string]string{
		"function": "EARNINGS_ESTIMATES",
		"symbol":   symbol,
	}, payload.Shape{Message: messageFields})
	if err != nil {
		return Estimates{}, fmt.Errorf("estimates for %s: %w", symbol, err)
	}

	out := Estimates{
		EPS:     c.estimateRows(ctx, obj, "quarterlyEarningsEstimates", symbol, estimateKeys{"estimatedEPS", "estimated_eps"}, w),
		Revenue: c.estimateRows(ctx, obj, "quarterlyRevenueEstimates", symbol, estimateKeys{"revenueEstimate", "revenue_estimate"}, w),
	}
	out.Trending = trendingRows(obj, symbol, w)

	if len(out.EPS) == 0 && len(out.Revenue) == 0 && len(out.Trending) == 0 {
		if _, hasTrending := obj["estimates"]; !hasTrending {
			return Estimates{}, payload.Validate(obj, payload.Shape{
				Required: []string{"quarterlyEarningsEstimates"},
				Message:  messageFields,
			})
		}
	}
	return out, nil
}

// estimateKeys lists the field names an estimate value has appeared
// under across API revisions, in preference order.
type estimateKeys []string

func (c *Client) estimateRows(ctx context.Context, obj payload.Object, listKey, symbol string, valueKeys estimateKeys, w chrono.Window) []EstimateRow {
	raw, ok := obj[listKey]
	if !ok {
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.WarnContext(ctx, "skipping undecodable estimates list", "symbol", symbol, "list", listKey, "err", err)
		return nil
	}

	var rows []EstimateRow
	for _, item := range items {
		fiscalDate := stringField(item, "fiscalDateEnding")
		if _, ok := payload.Day(fiscalDate); !ok || !w.ContainsDay(fiscalDate) {
			continue
		}
		rows = append(rows, EstimateRow{
			Symbol:           symbol,
			FiscalDateEnding: fiscalDate,
			Estimate:         firstStringField(item, valueKeys...),
			NumberAnalysts:   firstStringField(item, "numberAnalystsEstimated", "numberAnalystEstimated", "numberOfAnalysts"),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FiscalDateEnding < rows[j].FiscalDateEnding })
	return rows
}

// trendingRows passes the mixed-horizon "estimates" array through,
// keeping scalar fields only. A row is kept when its date is inside
// the window or missing entirely.
func trendingRows(obj payload.Object, symbol string, w chrono.Window) []recordio.Record {
	raw, ok := obj["estimates"]
	if !ok {
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var rows []recordio.Record
	for _, item := range items {
		if date := stringField(item, "date"); date != "" {
			if _, ok := payload.Day(date); ok && !w.ContainsDay(date) {
				continue
			}
		}
		row := recordio.Record{"symbol": symbol}
		for k, v := range item {
			switch v.(type) {
			case string, float64, bool, nil:
				row[k] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TrendingColumns builds a deterministic column set across trending
// rows: symbol, then date/horizon, then the rest sorted.
func TrendingColumns(rows []recordio.Record) recordio.Columns {
	seen := map[string]bool{"symbol": true}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	ordered := recordio.Columns{"symbol"}
	for _, k := range []string{"date", "horizon"} {
		if seen[k] {
			ordered = append(ordered, k)
			delete(seen, k)
		}
	}
	delete(seen, "symbol")
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

func firstStringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
