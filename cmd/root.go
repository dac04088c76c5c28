package main

import (
	"fmt"
	"os"

	"canvas_ai_server/config"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd serves the API when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Live canvas build server",
	Long: `canvas turns natural-language instructions into a three-file static site,
streams the generated text to viewers while it is written and keeps every
result as an immutable page version.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(resetCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}
