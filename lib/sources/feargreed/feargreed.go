// Package feargreed pulls the Alternative.me crypto Fear & Greed
// index. Alternative.me requires attribution alongside any display of
// the data, so source columns ride along in every row.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
	"finfeed/lib/recordio"
)

const (
	DefaultBaseURL = "https://api.alternative.me/fng/"
	SourceName     = "Alternative.me Fear and Greed Index"
	SourceURL      = "https://api.alternative.me/fng/"
)

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
			Timeout:    time.Second * 30,
			Policy:     politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			UserAgents: []string{"finfeed/1.0 (+https://alternative.me/)"},
			TracerName: "sources/feargreed",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL}
}

// Reading is one day of the index.
type Reading struct {
	Date           string
	Value          int64
	Classification string
	Timestamp      int64
}

var ReadingColumns = recordio.Columns{"date", "value", "value_classification", "timestamp", "source", "source_url"}

func (r Reading) Record() recordio.Record {
	return recordio.Record{
		"date":                 r.Date,
		"value":                r.Value,
		"value_classification": r.Classification,
		"timestamp":            r.Timestamp,
		"source":               SourceName,
		"source_url":           SourceURL,
	}
}

func ReadingRecords(readings []Reading) []recordio.Record {
	out := make([]recordio.Record, len(readings))
	for i, r := range readings {
		out[i] = r.Record()
	}
	return out
}

// History fetches the full index history (limit=0) and filters it to
// the window. The API occasionally reports more than one entry per UTC
// day; the one with the latest timestamp wins.
func (c *Client) History(ctx context.Context, w chrono.Window) ([]Reading, error) {
	res, err := c.fetch.Get(ctx, c.baseURL, map[string]string{
		"limit":  "0",
		"format": "json",
	})
	if err != nil {
		return nil, fmt.Errorf("fear & greed history: %w", err)
	}

	obj, err := payload.Decode(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fear & greed history: %w", err)
	}
	if err := payload.Validate(obj, payload.Shape{Required: []string{"data"}}); err != nil {
		return nil, fmt.Errorf("fear & greed history: %w", err)
	}

	var items []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	}
	if err := json.Unmarshal(obj["data"], &items); err != nil {
		return nil, fmt.Errorf("fear & greed history: decoding data: %w", err)
	}

	byDay := map[string]Reading{}
	for _, item := range items {
		ts, ok := payload.Int(item.Timestamp)
		if !ok {
			slog.WarnContext(ctx, "dropping index entry with bad timestamp", "timestamp", item.Timestamp)
			continue
		}
		day := time.Unix(ts, 0).UTC()
		if !w.Contains(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)) {
			continue
		}
		value, ok := payload.Int(item.Value)
		if !ok {
			slog.WarnContext(ctx, "dropping index entry with bad value", "value", item.Value)
			continue
		}

		key := day.Format(chrono.DayFormat)
		if prev, exists := byDay[key]; exists && prev.Timestamp > ts {
			continue
		}
		byDay[key] = Reading{
			Date:           key,
			Value:          value,
			Classification: item.Classification,
			Timestamp:      ts,
		}
	}

	readings := make([]Reading, 0, len(byDay))
	for _, r := range byDay {
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Date < readings[j].Date })
	return readings, nil
}
