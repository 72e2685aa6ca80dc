package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/gomesh/internal/config"
	"github.com/philipparndt/gomesh/internal/logger"
	"github.com/philipparndt/gomesh/version"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "gomesh",
	Short: "A CLI tool for inspecting, validating and converting STL files",
	Long: `gomesh is a command-line tool for working with STL (Stereolithography) files.
It detects ASCII and binary variants, validates geometry, measures edges and
surfaces, and converts models between the two formats.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}

		// Flags beat file values.
		if flagLogLevel != "" {
			cfg.Logging.Level = flagLogLevel
		}
		if flagLogFile != "" {
			cfg.Logging.LogFile = flagLogFile
		}

		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (rotated)")
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
