// Package stocknews pulls headline pages from stocknewsapi.com. The
// upstream payload is saved verbatim; a thin article view is decoded
// for logging and counting.
package stocknews

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
)

const DefaultBaseURL = "https://stocknewsapi.com/api/v1"

type Client struct {
	fetch   *politefetch.Client
	baseURL string
	token   string
}

type ClientOptions struct {
	Token   string
	BaseURL string
	Fetch   *politefetch.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("stocknews: token is not set")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = politefetch.NewClient(politefetch.ClientOptions{
			Timeout:    time.Second * 20,
			Limiter:    politefetch.NewLimiter(time.Second),
			Policy:     politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			TracerName: "sources/stocknews",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL, token: opts.Token}, nil
}

// Query selects one page of headlines.
type Query struct {
	Tickers []string
	Items   int
	Page    int
	Window  chrono.Window
	// TimeRange bounds the ET time of day, e.g. "000000-235959".
	TimeRange string
	Search    string
	Source    string
}

// Article is the slice of the payload worth logging; the full payload
// is saved as-is.
type Article struct {
	Title   string `json:"title"`
	Source  string `json:"source_name"`
	Date    string `json:"date"`
	NewsURL string `json:"news_url"`
}

// Page fetches one page and returns the verbatim payload plus the
// decoded article list.
func (c *Client) Page(ctx context.Context, q Query) ([]byte, []Article, error) {
	items := q.Items
	if items <= 0 {
		items = 50
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	timeRange := q.TimeRange
	if timeRange == "" {
		timeRange = "000000-235959"
	}

	params := map[string]string{
		"tickers": strings.Join(q.Tickers, ","),
		"items":   strconv.Itoa(items),
		"page":    strconv.Itoa(page),
		"date":    q.Window.Compact(),
		"time":    timeRange,
		"token":   c.token,
	}
	if q.Search != "" {
		params["search"] = q.Search
	}
	if q.Source != "" {
		params["source"] = q.Source
	}

	res, err := c.fetch.Get(ctx, c.baseURL, params)
	if err != nil {
		return nil, nil, fmt.Errorf("news page %d: %w", page, err)
	}

	obj, err := payload.Decode(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("news page %d: %w", page, err)
	}
	if err := payload.Validate(obj, payload.Shape{
		Required: []string{"data"},
		Message:  []string{"message", "error"},
	}); err != nil {
		return nil, nil, fmt.Errorf("news page %d: %w", page, err)
	}

	var articles []Article
	if err := json.Unmarshal(obj["data"], &articles); err != nil {
		return nil, nil, fmt.Errorf("news page %d: decoding data: %w", page, err)
	}
	return res.Body, articles, nil
}
