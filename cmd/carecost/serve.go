package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/carecost/internal/api"
	"github.com/gyeh/carecost/internal/db"
	"github.com/gyeh/carecost/internal/exitcode"
	"github.com/gyeh/carecost/internal/logging"
	"github.com/gyeh/carecost/internal/pricing"
	"github.com/gyeh/carecost/internal/store"
)

var serveConfigFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cost estimation HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveConfigFile, "config", "", "Path to YAML config file")
	f.StringVar(&cfg.ListenAddr, "listen", "", "Listen address (default :8080)")
	f.IntVar(&cfg.DefaultCY, "default-cy", 0, "Default calendar year for estimates (default: current year)")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origin", nil, "CORS allowed origin (repeatable, default *)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Debug)
	ctx := context.Background()

	if serveConfigFile != "" {
		if err := cfg.LoadFromFile(serveConfigFile); err != nil {
			log.Error().Err(err).Msg("config file load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	cfg.ApplyServeDefaults()
	if err := cfg.ValidateServe(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	st := store.NewPG(pool)
	svc := pricing.NewService(st, log)
	server := api.NewServer(&cfg, svc, st, log)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Int("default_cy", cfg.DefaultCY).Msg("api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
		os.Exit(exitcode.ServerError)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
		os.Exit(exitcode.ServerError)
	}

	log.Info().Msg("server stopped")
	return nil
}
