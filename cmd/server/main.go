package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/api"
	"github.com/baxromumarov/job-sentinel/internal/config"
	"github.com/baxromumarov/job-sentinel/internal/core"
	"github.com/baxromumarov/job-sentinel/internal/notify"
	"github.com/baxromumarov/job-sentinel/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "job-sentinel",
		Short:         "Watches company career pages for postings that match a resume",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the monitor loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the stored snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reset(cmd.Context(), cfgFile)
		},
	})
	return root
}

func setup(cfgFile string) (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return config.Config{}, err
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	return cfg, nil
}

func serve(parent context.Context, cfgFile string) error {
	cfg, err := setup(cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		return err
	}
	defer kv.Close()

	aiClient, err := ai.NewClient(ctx, cfg.AIClientConfig())
	if err != nil {
		slog.Error("failed to create classification client", "error", err)
		return err
	}

	notifier, err := notify.New(cfg.NotifierConfig())
	if err != nil {
		slog.Error("failed to set up notifications", "error", err)
		return err
	}
	defer notifier.Close()

	var seed []core.WatchEntry
	if cfg.Watchlist.SeedFile != "" {
		seed, err = core.LoadSeedFile(cfg.Watchlist.SeedFile)
		if err != nil {
			slog.Error("failed to load watchlist seed", "path", cfg.Watchlist.SeedFile, "error", err)
			return err
		}
	}

	sentinel, err := core.New(core.Options{
		Store:      kv,
		StorageKey: cfg.Storage.Key,
		Client:     aiClient,
		Notifier:   notifier,
		Seed:       seed,
		OrgPause:   cfg.Monitor.OrgPause,
		CycleDelay: cfg.Monitor.CycleDelay,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}
	// state must be in place before the first request can change it
	sentinel.Restore(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(sentinel, cfg.Server.WebDir).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sentinel.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("sentinel stopped with error", "error", err)
		return err
	}
	return nil
}

func reset(ctx context.Context, cfgFile string) error {
	cfg, err := setup(cfgFile)
	if err != nil {
		return err
	}

	kv, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		return err
	}
	defer kv.Close()

	if err := core.NewPersister(kv, cfg.Storage.Key).Clear(ctx); err != nil {
		slog.Error("failed to clear snapshot", "error", err)
		return err
	}
	slog.Info("snapshot cleared", "key", cfg.Storage.Key, "backend", cfg.Storage.Backend)
	return nil
}
