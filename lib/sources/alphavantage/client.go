// Package alphavantage pulls daily price bars, macro indicators and
// earnings figures from the Alpha Vantage query API.
//
// The free tier throttles hard (5 requests/minute) and signals it
// inside a 200 response via a "Note" or "Information" field, so every
// call goes through the polite-fetch client with that detector wired
// in.
package alphavantage

import (
	"context"
	"fmt"
	"time"

	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
)

const DefaultBaseURL = "https://www.alphavantage.co/query"

// messageFields are where Alpha Vantage hides human-readable notices.
var messageFields = []string{"Note", "Information", "Error Message"}

// Throttle reports the rate-limit notice embedded in an otherwise
// successful response body, or "" when the body is real data.
func Throttle(body []byte) string {
	obj, err := payload.Decode(body)
	if err != nil {
		// not an object; let shape validation deal with it
		return ""
	}
	if msg := obj.Str("Note"); msg != "" {
		return msg
	}
	return obj.Str("Information")
}

type Client struct {
	fetch   *politefetch.Client
	baseURL string
	apiKey  string
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	// Fetch overrides the default polite-fetch client; tests inject
	// one with a fake clock.
	Fetch *politefetch.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("alphavantage: api key is not set")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = politefetch.NewClient(politefetch.ClientOptions{
			Timeout:    time.Second * 60,
			Limiter:    politefetch.NewLimiter(time.Second * 15),
			Policy:     politefetch.DefaultPolicy,
			Throttle:   Throttle,
			TracerName: "sources/alphavantage",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL, apiKey: opts.APIKey}, nil
}

// query runs one API function and validates the response shape before
// returning the decoded object.
func (c *Client) query(ctx context.Context, params map[string]string, shape payload.Shape) (payload.Object, error) {
	merged := map[string]string{"apikey": c.apiKey}
	for k, v := range params {
		merged[k] = v
	}

	res, err := c.fetch.Get(ctx, c.baseURL, merged)
	if err != nil {
		return nil, err
	}

	obj, err := payload.Decode(res.Body)
	if err != nil {
		return nil, err
	}
	if msg := obj.Str("Error Message"); msg != "" {
		return nil, fmt.Errorf("alphavantage: api error: %s", msg)
	}
	if err := payload.Validate(obj, shape); err != nil {
		return nil, err
	}
	return obj, nil
}
