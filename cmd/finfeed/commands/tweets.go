package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"finfeed/lib/batch"
	"finfeed/lib/recordio"
	"finfeed/lib/sources/apidance"

	"github.com/spf13/cobra"
)

var (
	flagTweetUsers    []string
	flagTweetMaxPages int
	flagTweetWorkers  int
)

func init() {
	tweetsCmd.Flags().StringSliceVar(&flagTweetUsers, "users", nil, "Screen names to pull timelines for (no leading @).")
	tweetsCmd.Flags().IntVar(&flagTweetMaxPages, "max-pages", apidance.DefaultMaxPages, "Timeline pages per user.")
	tweetsCmd.Flags().IntVar(&flagTweetWorkers, "workers", 1, "Concurrent users; 1 fetches sequentially.")
	rootCmd.AddCommand(tweetsCmd)
}

var tweetsCmd = &cobra.Command{
	Use:   "tweets --users elonmusk,chamath [--workers 3]",
	Short: "Pulls X user timelines through apidance.pro, one JSON file per user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := requireKey("APIDANCE_API_KEY", cfg.ApidanceAPIKey)
		if err != nil {
			return err
		}
		client, err := apidance.NewClient(apidance.ClientOptions{APIKey: key})
		if err != nil {
			return precondition("failed to build apidance client", err)
		}
		if len(flagTweetUsers) == 0 {
			return precondition("nothing to fetch", fmt.Errorf("pass --users"))
		}
		ctx := cmd.Context()

		report := batch.Run(flagTweetUsers, flagTweetWorkers, func(screenName string) error {
			userID, err := client.UserID(ctx, screenName)
			if err != nil {
				return err
			}
			tweets, err := client.UserTweets(ctx, userID, flagTweetMaxPages)
			if err != nil {
				return err
			}
			if len(tweets) == 0 {
				return fmt.Errorf("no tweets returned for @%s", screenName)
			}

			data, err := json.MarshalIndent(tweets, "", "  ")
			if err != nil {
				return err
			}
			path := outPath("tweets", apidance.FileName(screenName))
			if err := recordio.WriteRaw(path, data); err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote timeline", "user", screenName, "tweets", len(tweets), "path", path)
			return nil
		})
		return summarize("user", report, func(screenName string) string { return "@" + screenName })
	},
}
