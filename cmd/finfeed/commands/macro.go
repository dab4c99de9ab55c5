package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/alphavantage"

	"github.com/spf13/cobra"
)

var (
	flagMacroIndicators []string
	flagMacroMaturities []string
	flagMacroInterval   string
)

func init() {
	macroCmd.Flags().StringSliceVar(&flagMacroIndicators, "indicators",
		[]string{"INFLATION", "UNEMPLOYMENT", "FEDERAL_FUNDS_RATE"},
		"Alpha Vantage economic indicator functions.")
	macroCmd.Flags().StringSliceVar(&flagMacroMaturities, "maturities",
		[]string{"3month", "2year", "10year"},
		"Treasury yield maturities. Empty skips treasury yields.")
	macroCmd.Flags().StringVar(&flagMacroInterval, "interval", "monthly", "Observation interval where the function supports one.")
	rootCmd.AddCommand(macroCmd)
}

var macroCmd = &cobra.Command{
	Use:   "macro [--indicators INFLATION,UNEMPLOYMENT] [--maturities 3month,10year]",
	Short: "Fetches macro indicators and treasury yields from Alpha Vantage, one CSV per series.",
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
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		// treasury series ride along as TREASURY_YIELD_<maturity>
		series := append([]string{}, flagMacroIndicators...)
		for _, maturity := range flagMacroMaturities {
			series = append(series, "TREASURY_YIELD_"+maturity)
		}

		report := batch.Run(series, 1, func(name string) error {
			var points []alphavantage.Point
			var err error
			if maturity, ok := strings.CutPrefix(name, "TREASURY_YIELD_"); ok {
				points, err = client.TreasuryYield(ctx, maturity, flagMacroInterval, w)
			} else {
				points, err = client.Indicator(ctx, name, name, flagMacroInterval, w)
			}
			if err != nil {
				return err
			}

			path := outPath(fmt.Sprintf("%s_%s.csv", strings.ToLower(name), w))
			if err := recordio.WriteCSV(path, alphavantage.PointColumns, alphavantage.PointRecords(points)); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote macro series", "series", name, "rows", len(points), "path", path)
			return nil
		})
		return summarize("series", report, func(name string) string { return name })
	},
}
