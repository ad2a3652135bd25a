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

	_ "github.com/lib/pq"

	"github.com/minsu-kang/taskhub-api/internal/config"
	taskhttp "github.com/minsu-kang/taskhub-api/internal/http"
	"github.com/minsu-kang/taskhub-api/internal/middleware"
	"github.com/minsu-kang/taskhub-api/internal/repository"
	"github.com/minsu-kang/taskhub-api/internal/service"
	"github.com/minsu-kang/taskhub-api/internal/storage"
	"github.com/minsu-kang/taskhub-api/internal/token"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
	)

	// Database connection
	db, err := repository.NewDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	// Repositories
	taskRepo := repository.NewPostgresTask(db)
	userRepo := repository.NewPostgresUser(db)

	// Token manager; dev mode runs without one
	var tokens service.TokenIssuer
	var verifier middleware.TokenVerifier
	if cfg.JWT.Secret != "" {
		mgr, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
		if err != nil {
			return fmt.Errorf("failed to create token manager: %w", err)
		}
		tokens = mgr
		verifier = mgr
	}

	// Avatar storage is optional: without a bucket, profile avatars are
	// rejected but everything else works.
	var avatars storage.AvatarStore
	if cfg.S3.Bucket != "" {
		avatars, err = storage.NewS3AvatarStore(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to create avatar store: %w", err)
		}
		logger.Info("avatar store initialized", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
	} else {
		logger.Warn("avatar store not initialized: S3_BUCKET not set")
	}

	// Services
	taskSvc := service.NewTaskService(taskRepo)
	authSvc := service.NewAuthService(userRepo, tokens, avatars)

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		authCfg.Verifier = verifier
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	srv := taskhttp.NewServer(cfg.ServerPort, logger, taskSvc, authSvc, auth)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
