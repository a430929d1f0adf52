package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/build"
	"github.com/pinjam-app/pinjam/internal/config"
	"github.com/pinjam-app/pinjam/internal/db"
	"github.com/pinjam-app/pinjam/internal/handler"
	"github.com/pinjam-app/pinjam/internal/live"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			slog.SetDefault(logger)

			database, err := db.Open(cmd.Context(), cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var oidcProvider *auth.Provider
			if cfg.OIDCEnabled() {
				oidcProvider, err = auth.NewProvider(ctx, cfg)
				if err != nil {
					return err
				}
			}

			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			userStore := store.NewUserStore(database)
			itemStore := store.NewItemStore(database)
			loanStore := store.NewLoanStore(database)
			notificationStore := store.NewNotificationStore(database)
			hub := notify.NewHub()

			authHandlers := auth.NewHandlers(oidcProvider, sessionManager, userStore, cfg.AdminEmail, !cfg.InsecureCookies)
			authMiddleware := auth.NewMiddleware(sessionManager, userStore)

			liveServer := live.NewServer(handler.Fragments{}, authMiddleware, hub, notificationStore, cfg.OrgName)

			router := handler.NewRouter(handler.Deps{
				Logger:         logger,
				SessionManager: sessionManager,
				AuthHandlers:   authHandlers,
				AuthMiddleware: authMiddleware,
				UserStore:      userStore,
				ItemStore:      itemStore,
				LoanStore:      loanStore,
				Notifications:  notificationStore,
				Hub:            hub,
				Live:           liveServer,
				OrgName:        cfg.OrgName,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			// Hijacked websocket connections are not tracked by Shutdown.
			srv.RegisterOnShutdown(liveServer.Shutdown)

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening",
					slog.String("addr", cfg.HTTP.Addr),
					slog.String("version", build.Version),
					slog.Bool("sso", cfg.OIDCEnabled()),
				)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

// newLogger builds the process logger from the log.format and log.level
// settings. An unknown level falls back to info.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
