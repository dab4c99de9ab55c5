package commands

import (
	"fmt"
	"log/slog"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/alphavantage"

	"github.com/spf13/cobra"
)

var (
	flagEarningsSymbols   []string
	flagEarningsEstimates bool
)

func init() {
	earningsCmd.Flags().StringSliceVar(&flagEarningsSymbols, "symbols", nil, "Equity symbols, e.g. NVDA,KO.")
	earningsCmd.Flags().BoolVar(&flagEarningsEstimates, "estimates", true, "Also fetch analyst EPS/revenue estimates.")
	rootCmd.AddCommand(earningsCmd)
}

var earningsCmd = &cobra.Command{
	Use:   "earnings --symbols NVDA,KO [--estimates=false]",
	Short: "Fetches quarterly earnings (and analyst estimates) from Alpha Vantage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := requireKey("ALPHAVANTAGE_API_KEY", cfg.AlphaVantageAPIKey)
		if err != nil {
			return err
		}
		client, err := alphavantage.NewClient(alphavantage.ClientOptions{APIKey: key})
		if err != nil {
			return precondition("failed to build alphavantage client", err)
		}
		if len(flagEarningsSymbols) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass --symbols"))
		}
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		report := batch.Run(flagEarningsSymbols, 1, func(symbol string) error {
			rows, err := client.QuarterlyEarnings(ctx, symbol, w)
			if err != nil {
				return err
			}
			path := outPath(fmt.Sprintf("%s_quarterly_earnings_%s.csv", symbol, w))
			if err := recordio.WriteCSV(path, alphavantage.EarningsColumns, alphavantage.EarningsRecords(rows)); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote quarterly earnings", "symbol", symbol, "rows", len(rows), "path", path)

			if !flagEarningsEstimates {
				return nil
			}
			estimates, err := client.EarningsEstimates(ctx, symbol, w)
			if err != nil {
				return err
			}
			if len(estimates.EPS) > 0 {
				path := outPath(fmt.Sprintf("%s_eps_estimates_%s.csv", symbol, w))
				if err := recordio.WriteCSV(path, alphavantage.EPSEstimateColumns, alphavantage.EstimateRecords(estimates.EPS, "estimatedEPS")); err != nil {
					return err
				}
			}
			if len(estimates.Revenue) > 0 {
				path := outPath(fmt.Sprintf("%s_revenue_estimates_%s.csv", symbol, w))
				if err := recordio.WriteCSV(path, alphavantage.RevenueEstimateColumns, alphavantage.EstimateRecords(estimates.Revenue, "revenueEstimate")); err != nil {
					return err
				}
			}
			if len(estimates.Trending) > 0 {
				path := outPath(fmt.Sprintf("%s_estimates_trending_%s.csv", symbol, w))
				if err := recordio.WriteCSV(path, alphavantage.TrendingColumns(estimates.Trending), estimates.Trending); err != nil {
					return err
				}
			}
			slog.InfoContext(
				ctx, "wrote earnings estimates",
				"symbol", symbol,
				"eps", len(estimates.EPS), "revenue", len(estimates.Revenue), "trending", len(estimates.Trending),
			)
			return nil
		})
		return summarize("symbol", report, func(symbol string) string { return symbol })
	},
}
