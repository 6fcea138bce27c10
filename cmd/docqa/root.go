package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/logger"
)

// NewRootCmd creates the root command for docqa.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Quality inspection for scanned document images",
		Long: `docqa measures the capture quality of document scans and photos.

Each image is segmented into document and background, eleven quality
categories are measured, and the results are scored as pass, warn or fail
with a 0-4 star rating and a list of recommended actions.

Quality thresholds come from a YAML file (docqa.yaml in the current
directory or .docqa.yaml in your home directory) or a named profile.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if getVerboseFlag(cmd) {
				level = "debug"
			}
			logger.Configure(os.Stderr, level)
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Quality configuration file (default: docqa.yaml in current or .docqa.yaml in home directory)")
	cmd.PersistentFlags().StringP("profile", "p", "",
		"Named quality profile to start from (see 'docqa profiles')")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewProfilesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}
