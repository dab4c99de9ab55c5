package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/stocknews"

	"github.com/spf13/cobra"
)

var (
	flagNewsTickers []string
	flagNewsItems   int
	flagNewsPages   int
	flagNewsSearch  string
	flagNewsSource  string
)

func init() {
	newsCmd.Flags().StringSliceVar(&flagNewsTickers, "tickers", nil, "Tickers to pull headlines for, e.g. NVDA,KO.")
	newsCmd.Flags().IntVar(&flagNewsItems, "items", 50, "Headlines per page.")
	newsCmd.Flags().IntVar(&flagNewsPages, "pages", 1, "Number of pages to fetch.")
	newsCmd.Flags().StringVar(&flagNewsSearch, "search", "", "Full-text search filter.")
	newsCmd.Flags().StringVar(&flagNewsSource, "source", "", "Restrict to one news source.")
	rootCmd.AddCommand(newsCmd)
}

var newsCmd = &cobra.Command{
	Use:   "news --tickers NVDA,KO [--pages 3]",
	Short: "Fetches headline pages from stocknewsapi.com and saves each page's raw JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := requireKey("STOCKNEWS_TOKEN", cfg.StocknewsToken)
		if err != nil {
			return err
		}
		client, err := stocknews.NewClient(stocknews.ClientOptions{Token: token})
		if err != nil {
			return precondition("failed to build stocknews client", err)
		}
		if len(flagNewsTickers) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass --tickers"))
		}
		w, err := parseWindow()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		tickerTag := strings.Join(flagNewsTickers, "-")

		pages := make([]int, flagNewsPages)
		for i := range pages {
			pages[i] = i + 1
		}

		report := batch.Run(pages, 1, func(page int) error {
			raw, articles, err := client.Page(ctx, stocknews.Query{
				Tickers: flagNewsTickers,
				Items:   flagNewsItems,
				Page:    page,
				Window:  w,
				Search:  flagNewsSearch,
				Source:  flagNewsSource,
			})
			if err != nil {
				return err
			}

			path := outPath("news", fmt.Sprintf("%s_%s_page%d.json", tickerTag, w, page))
			if err := recordio.WriteRaw(path, raw); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote headline page", "page", page, "articles", len(articles), "path", path)
			return nil
		})
		return summarize("page", report, func(page int) string { return fmt.Sprintf("page %d", page) })
	},
}
