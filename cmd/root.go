// Package cmd defines the CLI commands for the licensescan executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/licensewatch/license-scanner/internal/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licensescan",
		Short: "Detects website content licenses",
		Long: `licensescan visits websites, inspects their footers for license
and policy links, and classifies any Creative Commons license it finds.
It can run as a one-shot CLI scan or as a long-running HTTP service.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
