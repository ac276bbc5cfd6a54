// Package main provides quotectl, an offline tool that prices quote files,
// previews meal sync against an itinerary file and drafts itineraries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "quotectl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Work with tour quote files",
		Long: `quotectl reads quote and itinerary documents (JSON or YAML, chosen by
file extension) and runs the pricing and itinerary sync logic on them
without a server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&format, "output", "o", "json", "Output format (json, yaml)")

	cmd.AddCommand(
		calcCmd(&format),
		syncPreviewCmd(&format),
		draftCmd(&format),
		versionCmd(&format),
		&cobra.Command{
			Use:   "about",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}
