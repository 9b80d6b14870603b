package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/socialnet/backend/internal/router"
	"github.com/anonto42/socialnet/backend/pkg/config"
	"github.com/anonto42/socialnet/backend/pkg/firebase"
	"github.com/anonto42/socialnet/backend/pkg/logger"
	"github.com/anonto42/socialnet/backend/pkg/mailer"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize database connections
	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{
		Config: cfg,
		Logger: zlog,
		DB:     db.SQL,
		Redis:  db.Redis,
		Mailer: mailer.NewLogMailer(zlog),
	}
	if db.Mongo != nil {
		deps.Mongo = db.Mongo.Database(cfg.MongoDatabase)
	}
	if cfg.SMTPHost != "" {
		deps.Mailer = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	}

	// Firebase is optional
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		deps.FirebaseAuth = firebaseApp.AuthClient
		zlog.Info("firebase authentication enabled")
	}

	e := router.NewEcho(zlog)
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	// Setup global middleware
	router.SetupMiddleware(e, cfg, db.Redis, zlog)

	// Setup routes and dependencies
	svc, err := router.SetupRoutes(e, deps)
	if err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	if cfg.ReconcileOnStartup {
		if _, err := svc.Counter.Reconcile(ctx); err != nil {
			zlog.Error("startup like_count reconciliation failed", zap.Error(err))
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
	}
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
