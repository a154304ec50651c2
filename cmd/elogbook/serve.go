package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kou-oishi/Elogbook-Backend/internal/api"
	"github.com/kou-oishi/Elogbook-Backend/internal/attachment"
	"github.com/kou-oishi/Elogbook-Backend/internal/build"
	"github.com/kou-oishi/Elogbook-Backend/internal/config"
	"github.com/kou-oishi/Elogbook-Backend/internal/db"
	"github.com/kou-oishi/Elogbook-Backend/internal/download"
	"github.com/kou-oishi/Elogbook-Backend/internal/handler"
	"github.com/kou-oishi/Elogbook-Backend/internal/logging"
	"github.com/kou-oishi/Elogbook-Backend/internal/session"
	"github.com/kou-oishi/Elogbook-Backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			slog.SetDefault(logger)

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Attachments.Dir, 0o750); err != nil {
				return err
			}

			sessionManager := session.NewManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)
			downloads := download.NewService(download.NewStore(), cfg.Download.Lifetime, cfg.Download.Extension)

			var limiter *rate.Limiter
			if cfg.Download.RateLimit > 0 {
				limiter = rate.NewLimiter(rate.Limit(cfg.Download.RateLimit), max(1, int(cfg.Download.RateLimit)))
			}

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
				API: api.Deps{
					Entries:         store.NewEntryStore(database),
					Downloads:       downloads,
					Saver:           attachment.NewSaver(cfg.Attachments.Dir),
					Logger:          logger,
					MaxUpload:       cfg.Attachments.MaxUpload,
					DownloadLimiter: limiter,
				},
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening",
					"addr", cfg.HTTP.Addr,
					"version", build.Version,
					"download_lifetime", downloads.Lifetime(),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
