// Command counselink-server starts the counseling appointment API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/counselink/server/internal/config"
	"github.com/counselink/server/internal/crypto/notecrypto"
	"github.com/counselink/server/internal/migrate"
	"github.com/counselink/server/internal/notify"
	"github.com/counselink/server/internal/repository/postgres"
	httpserver "github.com/counselink/server/internal/server/http"
	"github.com/counselink/server/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves the HTTP API.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	cipher, err := notecrypto.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("encryption key", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	appointmentRepo := postgres.NewAppointmentRepo(db)
	feedbackRepo := postgres.NewFeedbackRepo(db)
	recordRepo := postgres.NewRecordRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)
	reportRepo := postgres.NewReportRepo(db)

	// Push channel: redis when configured, otherwise durable records only.
	var dispatcher notify.Dispatcher = notify.Noop{}
	if cfg.RedisAddr != "" {
		rd := notify.NewRedisDispatcher(cfg.RedisAddr)
		defer func() { _ = rd.Close() }()
		dispatcher = rd
		logger.Info("push channel enabled", zap.String("redis", cfg.RedisAddr))
	}

	// Services
	notifications := service.NewNotifications(notificationRepo, dispatcher, logger)
	authSvc := service.NewAuth(userRepo, notifications, []byte(cfg.JWTSecret), cfg.AccessTTL)
	adminSvc := service.NewAdmin(userRepo, reportRepo)
	appointmentSvc := service.NewAppointments(appointmentRepo, userRepo, notifications)
	feedbackSvc := service.NewFeedback(feedbackRepo, appointmentRepo)
	recordSvc := service.NewRecords(recordRepo, appointmentRepo, cipher, notifications)

	srv := httpserver.New(
		authSvc, adminSvc, appointmentSvc, feedbackSvc, recordSvc, notifications,
		[]byte(cfg.JWTSecret), logger,
	)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
