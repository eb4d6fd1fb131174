package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/licensewatch/license-scanner/internal/api"
	"github.com/licensewatch/license-scanner/internal/clock/system"
	"github.com/licensewatch/license-scanner/internal/config"
	"github.com/licensewatch/license-scanner/internal/dispatcher"
	"github.com/licensewatch/license-scanner/internal/id/uuid"
	"github.com/licensewatch/license-scanner/internal/logging"
	"github.com/licensewatch/license-scanner/internal/metrics"
	pubsubpub "github.com/licensewatch/license-scanner/internal/publisher/pubsub"
	"github.com/licensewatch/license-scanner/internal/queue/memory"
	"github.com/licensewatch/license-scanner/internal/scanner"
	memstore "github.com/licensewatch/license-scanner/internal/store/memory"
	"github.com/licensewatch/license-scanner/internal/store/postgres"
	gcsstore "github.com/licensewatch/license-scanner/internal/storage/gcs"
	localstore "github.com/licensewatch/license-scanner/internal/storage/local"
	memblob "github.com/licensewatch/license-scanner/internal/storage/memory"
	"github.com/licensewatch/license-scanner/internal/worker"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scanner as an HTTP service",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	detector, err := buildDetector(cfg, logger)
	if err != nil {
		return err
	}

	jobQueue := memory.NewQueue(cfg.Scanner.QueueDepth)
	defer jobQueue.Close()
	jobStore := memstore.NewJobStore()
	clk := system.New()

	workerOpts, cleanup, err := buildWorkerOptions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	workerCfg := worker.Config{
		ArchivePrefix: cfg.Storage.Prefix,
		Topic:         cfg.PubSub.TopicName,
	}
	disp := dispatcher.New(jobQueue, cfg.Scanner.Workers, func() *worker.Worker {
		return worker.New(jobQueue, jobStore, detector, clk, workerCfg, logger, workerOpts...)
	}, logger)
	disp.Start(ctx)

	server := api.NewServer(jobStore, disp, uuid.NewUUIDGenerator(), clk, cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	disp.Wait()
	logger.Info("service stopped")
	return nil
}

// buildWorkerOptions wires the optional result sink, archive store, and
// event publisher from configuration. The returned cleanup closes any
// clients it opened.
func buildWorkerOptions(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]worker.Option, func(), error) {
	var opts []worker.Option
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.DB.Enabled {
		resultStore, err := postgres.NewResultStore(ctx, postgres.ResultStoreConfig{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init result store: %w", err)
		}
		closers = append(closers, resultStore.Close)
		opts = append(opts, worker.WithResultSink(resultStore))
		logger.Info("postgres result store enabled", zap.String("table", cfg.DB.Table))
	}

	blobStore, closer, err := buildBlobStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	opts = append(opts, worker.WithBlobStore(blobStore))

	if cfg.PubSub.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init pubsub client: %w", err)
		}
		topic := client.Topic(cfg.PubSub.TopicName)
		closers = append(closers, func() {
			topic.Stop()
			_ = client.Close()
		})
		opts = append(opts, worker.WithPublisher(pubsubpub.New(topic)))
		logger.Info("pubsub publisher enabled", zap.String("topic", cfg.PubSub.TopicName))
	}

	return opts, cleanup, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (scanner.BlobStore, func(), error) {
	switch cfg.Storage.Provider {
	case "memory":
		return memblob.NewBlobStore(), nil, nil
	case "local":
		store, err := localstore.New(localstore.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return nil, nil, fmt.Errorf("init local blob store: %w", err)
		}
		return store, nil, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init gcs blob store: %w", err)
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}
