package main

import (
	"context"
	"fmt"
	"os"

	"finfeed/cmd/finfeed/commands"
	"finfeed/lib/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "finfeed")
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry setup:", err)
	}

	code := commands.ExecuteContext(ctx)

	// flush spans before exiting; os.Exit skips deferred calls
	if err := tel.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
	}
	os.Exit(code)
}
