// Package fred pulls series observations from the St. Louis Fed FRED
// API. The raw payload is preserved verbatim for later analysis; a
// normalized row form is derived alongside it.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
	"finfeed/lib/recordio"
)

const DefaultBaseURL = "https://api.stlouisfed.org/fred/series/observations"

type Client struct {
	fetch   *politefetch.Client
	baseURL string
	apiKey  string
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	Fetch   *politefetch.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("fred: api key is not set")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = politefetch.NewClient(politefetch.ClientOptions{
			Timeout:    time.Second * 15,
			Limiter:    politefetch.NewLimiter(time.Second),
			Policy:     politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			TracerName: "sources/fred",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL, apiKey: opts.APIKey}, nil
}

// Observation is one normalized row of a series.
type Observation struct {
	Date     string
	SeriesID string
	Value    float64
}

var ObservationColumns = recordio.Columns{"date", "series_id", "value"}

func ObservationRecords(obs []Observation) []recordio.Record {
	out := make([]recordio.Record, len(obs))
	for i, o := range obs {
		out[i] = recordio.Record{"date": o.Date, "series_id": o.SeriesID, "value": o.Value}
	}
	return out
}

// Realtime optionally pins the observations to a particular release
// vintage. Zero values mean "latest".
type Realtime struct {
	Start string
	End   string
}

// Observations fetches one series over the window. It returns both the
// verbatim payload and the normalized rows; observations FRED reports
// as "." (no data for that day) are dropped from the rows with a
// warning but stay in the raw payload.
func (c *Client) Observations(ctx context.Context, seriesID string, w chrono.Window, rt Realtime) ([]byte, []Observation, error) {
	params := map[string]string{
		"series_id":         seriesID,
		"api_key":           c.apiKey,
		"file_type":         "json",
		"observation_start": w.Start.Format(chrono.DayFormat),
		"observation_end":   w.End.Format(chrono.DayFormat),
	}
	if rt.Start != "" {
		params["realtime_start"] = rt.Start
	}
	if rt.End != "" {
		params["realtime_end"] = rt.End
	}

	res, err := c.fetch.Get(ctx, c.baseURL, params)
	if err != nil {
		return nil, nil, fmt.Errorf("series %s: %w", seriesID, err)
	}

	obj, err := payload.Decode(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("series %s: %w", seriesID, err)
	}
	if err := payload.Validate(obj, payload.Shape{
		Required: []string{"observations"},
		Message:  []string{"error_message"},
	}); err != nil {
		return nil, nil, fmt.Errorf("series %s: %w", seriesID, err)
	}

	var items []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(obj["observations"], &items); err != nil {
		return nil, nil, fmt.Errorf("series %s: decoding observations: %w", seriesID, err)
	}

	var obs []Observation
	for _, item := range items {
		value, ok := payload.Float(item.Value)
		if !ok {
			slog.WarnContext(ctx, "dropping observation without a value", "series", seriesID, "date", item.Date, "value", item.Value)
			continue
		}
		obs = append(obs, Observation{Date: item.Date, SeriesID: seriesID, Value: value})
	}
	return res.Body, obs, nil
}
