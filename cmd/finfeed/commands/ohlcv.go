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
	flagOhlcvSymbols []string
	flagOhlcvCrypto  []string
	flagOhlcvFX      []string
	flagOhlcvMarket  string
)

func init() {
	ohlcvCmd.Flags().StringSliceVar(&flagOhlcvSymbols, "symbols", nil, "Equity symbols, e.g. NVDA,KO.")
	ohlcvCmd.Flags().StringSliceVar(&flagOhlcvCrypto, "crypto", nil, "Crypto symbols, e.g. BTC,ETH.")
	ohlcvCmd.Flags().StringSliceVar(&flagOhlcvFX, "fx", nil, "FX pairs as FROM/TO, e.g. EUR/USD.")
	ohlcvCmd.Flags().StringVar(&flagOhlcvMarket, "market", "USD", "Quote market for crypto symbols.")
	rootCmd.AddCommand(ohlcvCmd)
}

// ohlcvAsset is one bar series to fetch: an equity symbol, a crypto
// symbol, or an FX pair.
type ohlcvAsset struct {
	kind string
	name string
}

func (a ohlcvAsset) String() string { return a.name }

var ohlcvCmd = &cobra.Command{
	Use:   "ohlcv [--symbols NVDA,KO] [--crypto BTC] [--fx EUR/USD]",
	Short: "Fetches daily OHLCV bars from Alpha Vantage and writes one CSV per asset.",
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

		var assets []ohlcvAsset
		for _, s := range flagOhlcvSymbols {
			assets = append(assets, ohlcvAsset{kind: "equity", name: s})
		}
		for _, s := range flagOhlcvCrypto {
			assets = append(assets, ohlcvAsset{kind: "crypto", name: s})
		}
		for _, s := range flagOhlcvFX {
			assets = append(assets, ohlcvAsset{kind: "fx", name: s})
		}
		if len(assets) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass at least one of --symbols, --crypto, --fx"))
		}

		ctx := cmd.Context()
		report := batch.Run(assets, 1, func(asset ohlcvAsset) error {
			var bars []alphavantage.Bar
			var err error
			switch asset.kind {
			case "equity":
				bars, err = client.DailyEquity(ctx, asset.name, w)
			case "crypto":
				bars, err = client.DailyCrypto(ctx, asset.name, flagOhlcvMarket, w)
			case "fx":
				from, to, ok := strings.Cut(asset.name, "/")
				if !ok {
					return fmt.Errorf("fx pair %q is not FROM/TO", asset.name)
				}
				bars, err = client.DailyFX(ctx, from, to, w)
			}
			if err != nil {
				return err
			}

			path := outPath(fmt.Sprintf(
				"%s_daily_%s.csv",
				strings.ReplaceAll(asset.name, "/", "-"), w,
			))
			if err := recordio.WriteCSV(path, alphavantage.BarColumns, alphavantage.BarRecords(bars)); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote daily bars", "asset", asset.name, "rows", len(bars), "path", path)
			return nil
		})
		return summarize("asset", report, ohlcvAsset.String)
	},
}
