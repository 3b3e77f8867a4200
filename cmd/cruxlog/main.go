// Package main provides the cruxlog CLI: an offline-first climbing log.
// Every command works against the local database; changes are queued and
// pushed to the shared remote store by the sync commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFile is set by the --config flag.
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cruxlog",
	Short: "Cruxlog is an offline-first climbing log",
	Long: `Cruxlog tracks climbing sessions, climbs, attempts and photos in a
local database that works without connectivity. Changes are queued as they
happen and synchronized to the shared remote store when a sync runs.`,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (JSON)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(unfollowCmd)
	rootCmd.AddCommand(followingCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(climbCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(photoCmd)
	rootCmd.AddCommand(syncCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cruxlog v0.1.0")
	},
}
