package commands

import (
	"fmt"
	"log/slog"

	"finfeed/lib/recordio"
	"finfeed/lib/sources/yahoo"

	"github.com/spf13/cobra"
)

var flagVixTickers []string

func init() {
	vixCmd.Flags().StringSliceVar(&flagVixTickers, "tickers", yahoo.VIXTickers,
		"Candidate Yahoo tickers, tried in order until one yields data.")
	rootCmd.AddCommand(vixCmd)
}

var vixCmd = &cobra.Command{
	Use:   "vix",
	Short: "Fetches daily VIX bars from Yahoo Finance, falling back across ticker variants.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := yahoo.NewClient(yahoo.ClientOptions{})
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		bars, err := client.DailyWithFallback(ctx, flagVixTickers, "VIX", "index", w)
		if err != nil {
			return fmt.Errorf("fetching vix bars: %w", err)
		}

		path := outPath(fmt.Sprintf("VIX_daily_%s.csv", w))
		if err := recordio.WriteCSV(path, yahoo.BarColumns, yahoo.BarRecords(bars)); err != nil {
			return err
		}
		slog.InfoContext(ctx, "wrote vix bars", "rows", len(bars), "path", path)
		return nil
	},
}
