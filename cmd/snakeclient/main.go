// Command snakeclient connects to a snake game server, delivers the session
// configuration and forwards key names read from stdin. Game state is
// logged as it arrives.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "snakeclient",
		Short: "Terminal client for the snake game server",
		Long: `snakeclient connects to a snake game server over WebSocket.

It sends the session configuration, then reads one command per line
from stdin: a key name (up, down, left, right, start, restart, quit)
or one of connect [url], disconnect, config, state, exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
