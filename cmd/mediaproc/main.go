package main

import (
	"fmt"
	"os"

	"media-processor/internal/config"
	"media-processor/internal/logging"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "mediaproc",
	Short: "Thumbnail, tag, classify and archive stored media files",
	Long: "mediaproc ingests stored photos and videos: it writes a thumbnail,\n" +
		"extracts dimensions, duration, GPS and capture date, classifies the\n" +
		"event shown and archives a canonically named copy.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: applyLogLevel,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = config.Version
}

// applyLogLevel pins the level before config loading reads LOG_LEVEL.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	if rootFlags.logLevel == "" {
		return nil
	}
	level, ok := logging.ParseLevel(rootFlags.logLevel)
	if !ok {
		return fmt.Errorf("invalid --log-level %q", rootFlags.logLevel)
	}
	logging.SetLevel(level)
	return os.Setenv("LOG_LEVEL", level.String())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
