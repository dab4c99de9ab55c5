package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"finfeed/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	flagStart string
	flagEnd   string
	flagOut   string
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "finfeed",
	Short: "finfeed fetches financial datasets into flat files, one subcommand per source.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(flagDebug)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "First day of the date window (YYYY-MM-DD). Defaults to one year before --end.")
	rootCmd.PersistentFlags().StringVar(&flagEnd, "end", "", "Last day of the date window (YYYY-MM-DD). Defaults to today (UTC).")
	rootCmd.PersistentFlags().StringVar(&flagOut, "out", "data", "Directory to write output files to.")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging.")
}

// ExecuteContext runs the CLI and returns the process exit code
// instead of exiting, so main can flush telemetry first.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		return 1
	}
	return 0
}
