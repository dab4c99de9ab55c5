package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finfeed/lib/batch"
	"finfeed/lib/chrono"
	"finfeed/lib/configuration"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Config carries the per-source credentials. Values come from
// finfeed.json5 (plus finfeed.local.json5); the tagged environment
// variables override file values.
type Config struct {
	AlphaVantageAPIKey string `json:"alphavantage_api_key" env:"ALPHAVANTAGE_API_KEY"`
	FredAPIKey         string `json:"fred_api_key" env:"FRED_API_KEY"`
	StocknewsToken     string `json:"stocknews_token" env:"STOCKNEWS_TOKEN"`
	ApidanceAPIKey     string `json:"apidance_api_key" env:"APIDANCE_API_KEY"`
}

func loadConfig() (Config, error) {
	cfg, err := configuration.ReadRecursively[Config]("finfeed.json5")
	if err != nil && !os.IsNotExist(err) {
		return Config{}, precondition("failed to read finfeed.json5", err)
	}
	return cfg, nil
}

// exitError carries the process exit code a failed run should end
// with: 1 for partial fetch failures, 2 for violated preconditions.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func precondition(message string, err error) error {
	return &exitError{code: 2, err: fmt.Errorf("%s: %w", message, err)}
}

// requireKey rejects unset and checked-in placeholder values before any
// request is made.
func requireKey(name, value string) (string, error) {
	if value == "" || value == "REPLACE_ME" {
		return "", precondition(
			fmt.Sprintf("%s is not configured", name),
			fmt.Errorf("set it in finfeed.local.json5 or the %s environment variable", name),
		)
	}
	return value, nil
}

func parseWindow() (chrono.Window, error) {
	end := time.Now().UTC().Truncate(time.Hour * 24)
	if flagEnd != "" {
		var err error
		end, err = chrono.ParseDay(flagEnd)
		if err != nil {
			return chrono.Window{}, precondition("invalid --end", err)
		}
	}
	start := end.AddDate(-1, 0, 0)
	if flagStart != "" {
		var err error
		start, err = chrono.ParseDay(flagStart)
		if err != nil {
			return chrono.Window{}, precondition("invalid --start", err)
		}
	}
	if start.After(end) {
		return chrono.Window{}, precondition("invalid window",
			fmt.Errorf("start %s is after end %s", start.Format(chrono.DayFormat), end.Format(chrono.DayFormat)))
	}
	return chrono.Window{Start: start, End: end}, nil
}

func outPath(parts ...string) string {
	return filepath.Join(append([]string{flagOut}, parts...)...)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// summarize renders the per-entity outcome table and returns an exit-1
// error when any entity failed, so telemetry still flushes before the
// process exits.
func summarize[T any](column string, report batch.Report[T], describe func(T) string) error {
	t := newTable()
	t.AppendHeader(table.Row{column, "status", "error"})
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			t.AppendRow(table.Row{describe(outcome.Item), "failed", outcome.Err})
		} else {
			t.AppendRow(table.Row{describe(outcome.Item), "ok", ""})
		}
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d ok", report.Succeeded), fmt.Sprintf("%d failed", report.Failed)})
	t.Render()

	if report.Failed > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d of %d failed", report.Failed, len(report.Outcomes))}
	}
	return nil
}
