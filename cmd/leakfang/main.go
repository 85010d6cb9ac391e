// Package main provides the entry point for the leakfang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/leakfang/cmd/leakfang/commands"
	"github.com/Sumatoshi-tech/leakfang/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "leakfang",
		Short: "Leakfang - memory leak diagnosis from recorded traces",
		Long: `Leakfang analyzes recorded allocation traces and memory-usage series
to detect leaks, rank the responsible allocation sites, and grade the
severity of observed growth.

Commands:
  analyze   Analyze a recorded trace for memory leaks`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "leakfang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
