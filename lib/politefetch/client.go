package politefetch

import (
	"context"
	"log/slog"
	"net/http/cookiejar"
	"time"

	"finfeed/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
)

// ThrottleDetector inspects a 2xx body and returns a human-readable
// throttle message when the API is asking the caller to slow down, or
// "" when the body is fine.
type ThrottleDetector func(body []byte) string

type ClientOptions struct {
	// BaseURL is optional; absolute URLs may be passed to Get instead.
	BaseURL string
	Timeout time.Duration
	// UserAgents is the identity pool; one is drawn uniformly at
	// random per attempt. Empty means resty's default agent.
	UserAgents []string
	// Headers are attached to every request, e.g. API-key headers.
	Headers map[string]string
	// Browser routes requests through the cloudflare bypass transport,
	// needed for scraped HTML hosts.
	Browser bool
	// Throttle detects in-band rate-limit signals on 2xx responses.
	Throttle ThrottleDetector

	Limiter *Limiter
	Policy  Policy
	Clock   Clock

	// TracerName names the otel instrumentation scope for this
	// client's HTTP spans.
	TracerName string
}

// Result is one consumed-once HTTP response.
type Result struct {
	Body    []byte
	Status  int
	Elapsed time.Duration
}

// Client is a rate-limited, retrying HTTP GET client. All requests
// issued through one Client (or several Clients sharing a Limiter) obey
// the same minimum spacing.
type Client struct {
	http    *resty.Client
	limiter *Limiter
	policy  Policy
	clock   Clock
	agents  []string
	detect  ThrottleDetector
}

func NewClient(opts ClientOptions) *Client {
	httpc := resty.New()
	if opts.BaseURL != "" {
		httpc.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		httpc.SetTimeout(opts.Timeout)
	} else {
		httpc.SetTimeout(time.Second * 30)
	}
	if jar, err := cookiejar.New(nil); err == nil {
		httpc.SetCookieJar(jar)
	}
	if len(opts.Headers) > 0 {
		httpc.SetHeaders(opts.Headers)
	}
	if opts.Browser {
		httpc.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpc.GetClient().Transport)
	}

	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "politefetch/http"
	}
	telemetry.InstrumentResty(httpc, tracerName)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	policy := opts.Policy
	if policy.MaxAttempts < 1 {
		policy = DefaultPolicy
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}

	return &Client{
		http:    httpc,
		limiter: limiter,
		policy:  policy,
		clock:   clock,
		agents:  opts.UserAgents,
		detect:  opts.Throttle,
	}
}

func (c *Client) userAgent() string {
	if len(c.agents) == 0 {
		return ""
	}
	idx, err := random.IntRange(0, len(c.agents))
	if err != nil {
		idx = 0
	}
	return c.agents[idx%len(c.agents)]
}

// Get issues a rate-limited GET, retrying transient failures and
// throttle signals per the client's policy. On success the shared
// last-request marker advances; failed attempts leave it untouched.
func (c *Client) Get(ctx context.Context, url string, params map[string]string) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.policy.Delay(attempt - 1)
			slog.WarnContext(
				ctx, "retrying request",
				"url", url,
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"backoff", wait,
				"err", lastErr,
			)
			c.clock.Sleep(wait)
		}

		c.limiter.Wait()

		req := c.http.R().SetContext(ctx)
		if len(params) > 0 {
			req.SetQueryParams(params)
		}
		if ua := c.userAgent(); ua != "" {
			req.SetHeader("User-Agent", ua)
		}

		start := c.clock.Now()
		res, err := req.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if res.IsError() {
			lastErr = &StatusError{Status: res.StatusCode(), URL: url}
			continue
		}
		if c.detect != nil {
			if msg := c.detect(res.Body()); msg != "" {
				lastErr = &ThrottledError{Message: msg}
				continue
			}
		}

		c.limiter.MarkSuccess()
		return &Result{
			Body:    res.Body(),
			Status:  res.StatusCode(),
			Elapsed: c.clock.Now().Sub(start),
		}, nil
	}

	return nil, &ExhaustedError{Attempts: c.policy.MaxAttempts, Err: lastErr}
}
