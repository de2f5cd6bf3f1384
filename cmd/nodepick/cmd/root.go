package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	jsonOut  bool
	jsonlOut bool
)

var rootCmd = &cobra.Command{
	Use:   "nodepick",
	Short: "Search and pick a node from structured documents",
	Long: `nodepick opens a set of structured documents (XML topics and source
files), lets you search their addressable nodes and pick one. The picked
target is printed as <document>#<node> on stdout, and the configured
operation is run for it.

Running 'nodepick' without arguments opens the picker with the default
profile.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(os.Stderr)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the picker
		return pickCmd.RunE(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/nodepick/config.{json,yaml})")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&jsonlOut, "jsonl", false, "output in JSON Lines format")
}

func exitWithError(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
