package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/licensewatch/license-scanner/internal/classify"
	"github.com/licensewatch/license-scanner/internal/config"
	"github.com/licensewatch/license-scanner/internal/extract"
	"github.com/licensewatch/license-scanner/internal/fetcher"
	"github.com/licensewatch/license-scanner/internal/logging"
	"github.com/licensewatch/license-scanner/internal/scanner"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan URL [URL...]",
		Short: "Scan one or more websites and print results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScanCommand,
	}
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	detector, err := buildDetector(cfg, logger)
	if err != nil {
		return err
	}

	results := detector.Scan(cmd.Context(), args)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func buildDetector(cfg config.Config, logger *zap.Logger) (*scanner.Detector, error) {
	fetchCfg := fetcher.Config{
		UserAgent: cfg.Scanner.UserAgent,
		Timeout:   cfg.Scanner.RequestTimeout(),
	}
	pageFetcher, err := fetcher.New(fetchCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	robots := fetcher.NewRobotsEnforcer(fetchCfg, logger)
	extractor := extract.New(pageFetcher, cfg.Scanner.SecondaryDelay(), logger)
	classifier := classify.New()

	return scanner.NewDetector(
		robots,
		pageFetcher,
		extractor,
		classifier,
		logger,
		scanner.WithConcurrency(cfg.Scanner.Concurrency),
	), nil
}
