package commands

import (
	"fmt"
	"log/slog"

	"finfeed/lib/recordio"
	"finfeed/lib/sources/feargreed"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fngCmd)
}

var fngCmd = &cobra.Command{
	Use:   "fng",
	Short: "Fetches the alternative.me crypto Fear & Greed index, one reading per day.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := feargreed.NewClient(feargreed.ClientOptions{})
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		readings, err := client.History(ctx, w)
		if err != nil {
			return fmt.Errorf("fetching fear & greed history: %w", err)
		}

		path := outPath(fmt.Sprintf("fear_greed_%s.csv", w))
		if err := recordio.WriteCSV(path, feargreed.ReadingColumns, feargreed.ReadingRecords(readings)); err != nil {
			return err
		}
		slog.InfoContext(ctx, "wrote fear & greed index", "rows", len(readings), "path", path)
		return nil
	},
}
