// Package cmd implements the CLI commands for PageGrep using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/pagegrep/logger"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "pagegrep",
	Short: "PageGrep — fuzzy content search over a web page",
	Long: `PageGrep loads an HTML page from a URL or a local file, indexes its
visible text, and answers fuzzy queries over it with ranked, context-rich
results.

Usage:
  pagegrep search <url|file> <query...> [flags]`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Print pipeline diagnostics to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
