package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/farmacase/farmacase/internal/config"
	"github.com/farmacase/farmacase/internal/database"
	"github.com/farmacase/farmacase/internal/email"
	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/logging"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/notify"
	"github.com/farmacase/farmacase/internal/server"
	"github.com/farmacase/farmacase/internal/store"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Admin.Email != "" {
		if err := bootstrapAdmin(db, cfg.Admin, logger); err != nil {
			logger.Error("bootstrap administrator", "error", err)
			os.Exit(1)
		}
	}

	mailer := email.NewClient(cfg.Postmark.ServerToken, cfg.Alerts.Sender, cfg.Postmark.APIURL)
	if !mailer.Configured() {
		logger.Warn("postmark not configured, alert emails will fail")
	}

	srv := server.New(db, server.Config{
		Inventory: inventory.Config{
			LookaheadDays: cfg.Alerts.ExpirationDays,
			Location:      cfg.Alerts.Location,
		},
		Notify: notify.Config{
			LookaheadDays: cfg.Alerts.ExpirationDays,
			Sender:        cfg.Alerts.Sender,
			AppURL:        cfg.BaseURL + "/",
			Location:      cfg.Alerts.Location,
			Schedule: notify.Schedule{
				Weekday: cfg.Alerts.Weekday,
				Hour:    cfg.Alerts.Hour,
				Minute:  cfg.Alerts.Minute,
			},
		},
		SecureCookie: strings.HasPrefix(cfg.BaseURL, "https://"),
	}, mailer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Scheduler().Start(ctx)
	go cleanup(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("farmacase listening", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	srv.Scheduler().Stop()
}

// bootstrapAdmin makes sure the configured administrator can sign in and
// has an admin app user, so it also receives the weekly digest.
func bootstrapAdmin(db *sql.DB, admin config.AdminConfig, logger *slog.Logger) error {
	identities := store.NewIdentityStore(db)
	users := store.NewUserStore(db)

	identity, err := identities.EnsureAdministrator(admin.Email, admin.Password)
	if err != nil {
		return fmt.Errorf("ensure administrator identity: %w", err)
	}
	existing, err := users.GetByIdentityID(identity.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	u, err := users.Create(store.UserInput{IdentityID: identity.ID, Role: model.RoleAdmin})
	if err != nil {
		return fmt.Errorf("create administrator user: %w", err)
	}
	logger.Info("administrator bootstrapped", "identity_id", identity.ID, "user_id", u.ID)
	return nil
}

func cleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			if n := srv.LoginThrottle().Cleanup(); n > 0 {
				logger.Debug("login throttle keys expired", "count", n)
			}
		}
	}
}
