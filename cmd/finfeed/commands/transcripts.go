package commands

import (
	"fmt"
	"log/slog"
	"os"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/seekingalpha"

	"github.com/spf13/cobra"
)

var (
	flagTranscriptTickers  []string
	flagTranscriptMaxPages int
)

func init() {
	transcriptsCmd.Flags().StringSliceVar(&flagTranscriptTickers, "tickers", nil, "Tickers to crawl transcripts for, e.g. NVDA,KO.")
	transcriptsCmd.Flags().IntVar(&flagTranscriptMaxPages, "max-pages", 10, "Hard ceiling on listing pages per ticker.")
	rootCmd.AddCommand(transcriptsCmd)
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts --tickers NVDA,KO [--max-pages 10]",
	Short: "Crawls Seeking Alpha earnings-call listings and downloads transcript text files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := seekingalpha.NewClient(seekingalpha.ClientOptions{})
		if len(flagTranscriptTickers) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass --tickers"))
		}
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		report := batch.Run(flagTranscriptTickers, 1, func(ticker string) error {
			transcripts, err := client.ListTranscripts(ctx, ticker, w, flagTranscriptMaxPages)
			if err != nil {
				return err
			}

			metaPath := outPath("transcripts", fmt.Sprintf("%s_transcripts_%s.csv", ticker, w))
			if err := recordio.WriteCSV(metaPath, seekingalpha.TranscriptColumns, seekingalpha.TranscriptRecords(transcripts)); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote transcript index", "ticker", ticker, "calls", len(transcripts), "path", metaPath)

			for _, transcript := range transcripts {
				path := outPath("transcripts", transcript.FileName())
				// already-downloaded calls survive reruns untouched
				if _, err := os.Stat(path); err == nil {
					slog.DebugContext(ctx, "transcript already downloaded", "path", path)
					continue
				}

				text, err := client.TranscriptText(ctx, transcript.URL)
				if err != nil {
					return err
				}
				if err := recordio.WriteRaw(path, []byte(text)); err != nil {
					return err
				}
				slog.InfoContext(ctx, "wrote transcript", "ticker", ticker, "date", transcript.Date, "path", path)
			}
			return nil
		})
		return summarize("ticker", report, func(ticker string) string { return ticker })
	},
}
