package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datapipe",
	Short: "Memory-efficient delimited file analyzer",
	Long: `A streaming analysis pipeline for large delimited text files.
Detects encoding and separator, then computes per-column statistics
in bounded memory using chunked passes.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.datapipe/config.yaml)")
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
