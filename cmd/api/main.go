package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "counselor-presence",
	Short: "Counselor presence tracking and work reassignment",
	Long: `Tracks counselor presence from login and activity signals, derives
ACTIVE/AWAY/OFFLINE status, raises inactivity alerts and moves leads and
sessions between counselors.

Commands:
  serve  - Run the HTTP API, the activity websocket and the scan worker
  scan   - Run a single inactivity scan and print the alerts
  token  - Mint a bearer token for local testing`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
