// Package apidance pulls X (Twitter) user timelines through the
// apidance.pro proxy API. Tweets are kept as raw JSON objects so the
// saved files carry whatever the upstream returns.
package apidance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"finfeed/lib/payload"
	"finfeed/lib/politefetch"
)

const DefaultBaseURL = "https://api.apidance.pro"

// DefaultMaxPages bounds a timeline crawl when the caller doesn't.
const DefaultMaxPages = 20

type Client struct {
	fetch   *politefetch.Client
	baseURL string
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	Fetch   *politefetch.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" && opts.Fetch == nil {
		return nil, fmt.Errorf("apidance: api key is not set")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = politefetch.NewClient(politefetch.ClientOptions{
			Timeout: time.Second * 30,
			// the proxy is fast; pages just need a little breathing room
			Limiter:    politefetch.NewLimiter(time.Millisecond * 300),
			Policy:     politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			Headers:    map[string]string{"apikey": opts.APIKey},
			TracerName: "sources/apidance",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL}, nil
}

// UserID resolves a screen name to the account's rest_id, which the
// timeline endpoint keys on.
func (c *Client) UserID(ctx context.Context, screenName string) (string, error) {
	variables, err := json.Marshal(map[string]any{
		"screen_name":              screenName,
		"withSafetyModeUserFields": true,
		"withHighlightedLabel":     true,
	})
	if err != nil {
		return "", err
	}

	res, err := c.fetch.Get(ctx, c.baseURL+"/graphql/UserByScreenName", map[string]string{
		"variables": string(variables),
	})
	if err != nil {
		return "", fmt.Errorf("looking up @%s: %w", screenName, err)
	}

	var lookup struct {
		Data struct {
			User struct {
				Result struct {
					RestID string `json:"rest_id"`
				} `json:"result"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &lookup); err != nil {
		return "", fmt.Errorf("looking up @%s: %w", screenName, err)
	}
	if lookup.Data.User.Result.RestID == "" {
		obj, err := payload.Decode(res.Body)
		if err != nil {
			return "", fmt.Errorf("looking up @%s: %w", screenName, err)
		}
		return "", fmt.Errorf("looking up @%s: %w", screenName, &payload.ShapeError{
			Missing: []string{"data.user.result.rest_id"},
			Present: obj.Keys(),
			Message: obj.Str("msg"),
		})
	}
	return lookup.Data.User.Result.RestID, nil
}

type timelinePage struct {
	Tweets     []json.RawMessage `json:"tweets"`
	NextCursor string            `json:"next_cursor_str"`
}

// UserTweets walks a user's timeline with cursor pagination. The crawl
// ends when the API stops returning a next cursor, or at maxPages.
// Tweets gathered before a mid-crawl failure are returned with the
// error.
func (c *Client) UserTweets(ctx context.Context, userID string, maxPages int) ([]json.RawMessage, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var tweets []json.RawMessage
	cursor := "null"
	for page := 1; page <= maxPages; page++ {
		res, err := c.fetch.Get(ctx, c.baseURL+"/sapi/UserTweets", map[string]string{
			"user_id": userID,
			"cursor":  cursor,
		})
		if err != nil {
			return tweets, fmt.Errorf("timeline page %d for user %s: %w", page, userID, err)
		}

		var pageData timelinePage
		if err := json.Unmarshal(res.Body, &pageData); err != nil {
			return tweets, fmt.Errorf("timeline page %d for user %s: %w", page, userID, err)
		}
		tweets = append(tweets, pageData.Tweets...)

		slog.InfoContext(
			ctx, "fetched timeline page",
			"user_id", userID, "page", page,
			"tweets", len(pageData.Tweets), "total", len(tweets),
		)

		if pageData.NextCursor == "" {
			break
		}
		cursor = pageData.NextCursor
	}
	return tweets, nil
}

// FileName names a saved timeline: {screen_name}.json.
func FileName(screenName string) string {
	return url.PathEscape(screenName) + ".json"
}
