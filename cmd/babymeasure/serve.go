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
	"golang.org/x/sync/errgroup"

	adapthttp "babymeasure/internal/adapter/http"
	"babymeasure/internal/adapter/telegram"
	"babymeasure/internal/config"
	"babymeasure/internal/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server, the Telegram bot and the chart publisher",
	Long: `Run the web server, the Telegram bot and the chart publisher until
interrupted.

Examples:
  # Serve with an in-memory store
  BABY_STORE_DRIVER=memory babymeasure serve

  # Serve with a config file
  babymeasure serve --config /etc/babymeasure/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := []adapthttp.Option{
		adapthttp.WithLogger(logger.Named("http")),
		adapthttp.WithMetrics(a.registry),
	}
	if loc, err := cfg.Location(); err == nil {
		opts = append(opts, adapthttp.WithLocation(loc))
	}
	if o := cfg.OIDC; o.Enabled {
		oidcCfg, err := adapthttp.NewOIDCConfig(cmd.Context(), o.Issuer, o.ClientID, o.ClientSecret, o.RedirectURL)
		if err != nil {
			return err
		}
		opts = append(opts, adapthttp.WithOIDC(oidcCfg))
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           adapthttp.New(a.services, cfg.HTTP.WebDir, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.queue != nil {
		g.Go(func() error { return a.queue.Run(ctx) })
		a.queue.Enqueue("startup")
	}

	if cfg.Telegram.Enabled {
		bot := telegram.New(telegram.Config{
			Token:         cfg.Telegram.Token,
			PollTimeout:   cfg.Telegram.PollTimeout,
			RatePerSecond: cfg.Telegram.RatePerSecond,
		}, a.chat, a.pairing, logger.Named("telegram"))
		g.Go(func() error { return bot.Run(ctx) })
	}

	g.Go(func() error {
		ticker := time.NewTicker(sessionSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := a.stores.sessions.DeleteExpired(ctx); err != nil {
					logger.Warn("session sweep failed", zap.Error(err))
				}
			}
		}
	})

	err = g.Wait()
	logger.Info("stopped")
	return err
}
