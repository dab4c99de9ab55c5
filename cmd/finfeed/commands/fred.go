package commands

import (
	"fmt"
	"log/slog"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/fred"

	"github.com/spf13/cobra"
)

var (
	flagFredSeries        []string
	flagFredRealtimeStart string
	flagFredRealtimeEnd   string
)

func init() {
	fredCmd.Flags().StringSliceVar(&flagFredSeries, "series", nil, "FRED series IDs, e.g. VIXCLS,DGS10.")
	fredCmd.Flags().StringVar(&flagFredRealtimeStart, "realtime-start", "", "FRED realtime_start (YYYY-MM-DD).")
	fredCmd.Flags().StringVar(&flagFredRealtimeEnd, "realtime-end", "", "FRED realtime_end (YYYY-MM-DD).")
	rootCmd.AddCommand(fredCmd)
}

var fredCmd = &cobra.Command{
	Use:   "fred --series VIXCLS,DGS10",
	Short: "Fetches FRED series observations; saves the raw payload plus a normalized CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := requireKey("FRED_API_KEY", cfg.FredAPIKey)
		if err != nil {
			return err
		}
		client, err := fred.NewClient(fred.ClientOptions{APIKey: key})
		if err != nil {
			return precondition("failed to build fred client", err)
		}
		if len(flagFredSeries) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass --series"))
		}
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rt := fred.Realtime{Start: flagFredRealtimeStart, End: flagFredRealtimeEnd}

		report := batch.Run(flagFredSeries, 1, func(seriesID string) error {
			raw, observations, err := client.Observations(ctx, seriesID, w, rt)
			if err != nil {
				return err
			}

			rawPath := outPath(fmt.Sprintf("%s_%s.json", seriesID, w))
			if err := recordio.WriteRaw(rawPath, raw); err != nil {
				return err
			}
			csvPath := outPath(fmt.Sprintf("%s_%s.csv", seriesID, w))
			if err := recordio.WriteCSV(csvPath, fred.ObservationColumns, fred.ObservationRecords(observations)); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote fred series", "series", seriesID, "rows", len(observations), "path", csvPath)
			return nil
		})
		return summarize("series", report, func(seriesID string) string { return seriesID })
	},
}
