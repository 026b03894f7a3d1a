// Package cli provides the command-line interface for the summarizer.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "summarizer",
	Short: "Generate AI activity reports from Discord message history",
	Long: "summarizer retrieves a server's message history over a date range, " +
		"summarizes each channel with a text-generation backend, and produces " +
		"a markdown and HTML activity report.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("summarizer %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogger configures and returns a zerolog logger.
func setupLogger(level, environment string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if environment == "development" {
		// Pretty console output for development
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	}
	// JSON output for production
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
