package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
)

var Version = "dev"

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront cart, checkout and catalog service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "optional YAML config file")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))
	rootCmd.AddCommand(seedCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(configFile string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	return nil
}

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return db.RunMigrations(cfg.DatabaseDSN, logger)
		},
	}
}

func seedCmd(configFile *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog products from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			seed, err := catalog.ReadSeedFile(file)
			if err != nil {
				return err
			}
			byCategory, err := seed.Records()
			if err != nil {
				return err
			}

			if cfg.Catalog != config.BackendMongo {
				// the memory catalog reads STOREFRONT_CATALOG_SEED at startup
				logger.Info("seed file is valid", zap.Int("categories", len(byCategory)))
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			client, err := connectMongo(ctx, cfg.MongoURI)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			store := catalog.NewMongo(client.Database(cfg.MongoDatabase))
			for category, records := range byCategory {
				if err := store.Replace(ctx, category, records); err != nil {
					return err
				}
				logger.Info("category seeded", zap.String("category", category), zap.Int("products", len(records)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
