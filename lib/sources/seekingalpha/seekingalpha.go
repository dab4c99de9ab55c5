// Package seekingalpha crawls the earnings-call transcript listings on
// seekingalpha.com and downloads transcript text. This scrapes public
// pages: keep the rate limiting gentle and revalidate the selectors in
// parse.go whenever the site's markup shifts.
package seekingalpha

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"finfeed/lib/chrono"
	"finfeed/lib/politefetch"
	"finfeed/lib/recordio"
)

const DefaultBaseURL = "https://seekingalpha.com"

// DefaultUserAgents is the identity pool rotated across attempts so a
// single fingerprint is less likely to get blocked.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36",
	"Opera/9.80 (X11; Linux i686; Ubuntu/14.10) Presto/2.12.388 Version/12.16",
	"Mozilla/5.0 (Windows; U; Windows NT 6.1; rv:2.2) Gecko/20110201",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_3) AppleWebKit/537.75.14 (KHTML, like Gecko) Version/7.0.3 Safari/7046A194A",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/42.0.2311.135 Safari/537.36 Edge/12.246",
}

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
			Timeout:    time.Second * 60,
			Limiter:    politefetch.NewLimiter(time.Second * 2),
			Policy:     politefetch.Policy{MaxAttempts: 3, Base: time.Second * 2, Multiplier: 2, MaxWait: time.Second * 30},
			UserAgents: DefaultUserAgents,
			Browser:    true,
			TracerName: "sources/seekingalpha",
		})
	}
	return &Client{fetch: fetch, baseURL: baseURL}
}

// Transcript is one earnings call found in a listing.
type Transcript struct {
	Ticker string
	Title  string
	URL    string
	Date   string
}

var TranscriptColumns = recordio.Columns{"ticker", "title", "url", "date"}

func TranscriptRecords(transcripts []Transcript) []recordio.Record {
	out := make([]recordio.Record, len(transcripts))
	for i, tr := range transcripts {
		out[i] = recordio.Record{"ticker": tr.Ticker, "title": tr.Title, "url": tr.URL, "date": tr.Date}
	}
	return out
}

// FileName names a downloaded transcript: {TICKER}_{DATE}_earnings_call.txt.
func (t Transcript) FileName() string {
	return fmt.Sprintf("%s_%s_earnings_call.txt", t.Ticker, t.Date)
}

// ListTranscripts walks the listing pages for one ticker, keeping
// earnings-call entries dated inside the window. The listing is
// ordered newest first, so the crawl stops early once a page has no
// in-window matches and its oldest entry already precedes the window;
// maxPages bounds the crawl regardless of content.
func (c *Client) ListTranscripts(ctx context.Context, ticker string, w chrono.Window, maxPages int) ([]Transcript, error) {
	if maxPages <= 0 {
		maxPages = 10
	}
	listURL := fmt.Sprintf("%s/symbol/%s/earnings/transcripts", c.baseURL, ticker)

	var transcripts []Transcript
	for page := 1; page <= maxPages; page++ {
		var params map[string]string
		if page > 1 {
			params = map[string]string{"page": strconv.Itoa(page)}
		}

		slog.InfoContext(ctx, "fetching transcript listing", "ticker", ticker, "page", page)
		res, err := c.fetch.Get(ctx, listURL, params)
		if err != nil {
			return transcripts, fmt.Errorf("listing page %d for %s: %w", page, ticker, err)
		}

		cards, err := parseListing(res.Body)
		if err != nil {
			return transcripts, fmt.Errorf("listing page %d for %s: %w", page, ticker, err)
		}
		if len(cards) == 0 {
			break
		}

		var oldest time.Time
		inWindow := 0
		for _, card := range cards {
			date, ok := parseListingDate(card.dateText)
			if !ok {
				slog.WarnContext(ctx, "skipping card with unparsable date", "ticker", ticker, "date_text", card.dateText)
				continue
			}
			if oldest.IsZero() || date.Before(oldest) {
				oldest = date
			}
			if !w.Contains(date) {
				continue
			}
			inWindow++
			transcripts = append(transcripts, Transcript{
				Ticker: ticker,
				Title:  card.title,
				URL:    card.href,
				Date:   date.Format(chrono.DayFormat),
			})
		}

		// monotonic descending listing: everything deeper is older still
		if inWindow == 0 && !oldest.IsZero() && oldest.Before(w.Start) {
			break
		}
	}

	return transcripts, nil
}

// TranscriptText downloads one transcript article and returns its
// text, one paragraph per line.
func (c *Client) TranscriptText(ctx context.Context, relativeURL string) (string, error) {
	res, err := c.fetch.Get(ctx, c.baseURL+relativeURL, nil)
	if err != nil {
		return "", fmt.Errorf("transcript %s: %w", relativeURL, err)
	}
	text, err := parseTranscript(res.Body)
	if err != nil {
		return "", fmt.Errorf("transcript %s: %w", relativeURL, err)
	}
	return text, nil
}
