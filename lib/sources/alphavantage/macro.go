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

// Point is one observation of a macro indicator.
type Point struct {
	Date      string
	Indicator string
	Value     float64
}

var PointColumns = recordio.Columns{"date", "indicator", "value"}

func (p Point) Record() recordio.Record {
	return recordio.Record{"date": p.Date, "indicator": p.Indicator, "value": p.Value}
}

func PointRecords(points []Point) []recordio.Record {
	out := make([]recordio.Record, len(points))
	for i, p := range points {
		out[i] = p.Record()
	}
	return out
}

// Indicator fetches an economic indicator function such as INFLATION,
// UNEMPLOYMENT or FEDERAL_FUNDS_RATE. The code labels the rows in the
// output; interval is "daily" or "monthly" per what the function
// supports.
func (c *Client) Indicator(ctx context.Context, function, code, interval string, w chrono.Window) ([]Point, error) {
	return c.points(ctx, map[string]string{
		"function": function,
		"interval": interval,
	}, code, w)
}

// TreasuryYield fetches TREASURY_YIELD for one maturity ("3month",
// "2year", "10year", ...). Rows are labelled TREASURY_YIELD_<maturity>.
func (c *Client) TreasuryYield(ctx context.Context, maturity, interval string, w chrono.Window) ([]Point, error) {
	return c.points(ctx, map[string]string{
		"function": "TREASURY_YIELD",
		"interval": interval,
		"maturity": maturity,
	}, "TREASURY_YIELD_"+maturity, w)
}

func (c *Client) points(ctx context.Context, params map[string]string, code string, w chrono.Window) ([]Point, error) {
	obj, err := c.query(ctx, params, payload.Shape{
		Required: []string{"data"},
		Message:  messageFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", code, err)
	}

	var items []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(obj["data"], &items); err != nil {
		return nil, fmt.Errorf("%s: decoding data: %w", code, err)
	}

	var points []Point
	for _, item := range items {
		if item.Date == "" || !w.ContainsDay(item.Date) {
			continue
		}
		value, ok := payload.Float(item.Value)
		if !ok {
			slog.WarnContext(ctx, "dropping unparsable observation", "indicator", code, "date", item.Date, "value", item.Value)
			continue
		}
		points = append(points, Point{Date: item.Date, Indicator: code, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}
