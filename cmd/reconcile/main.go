// Command reconcile recomputes posts.like_count from the likes table for every post.
// It is safe to run while the server is serving traffic.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/internal/services"
	"github.com/anonto42/socialnet/backend/pkg/config"
	"github.com/anonto42/socialnet/backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("reconcile: %v", err)
	}
}

func run() error {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	// only the relational store is needed
	cfg.MongoURI = ""
	cfg.RedisAddr = ""
	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter := services.NewLikeCounter(
		db.SQL,
		repositories.NewPostgresLikeRepository(db.SQL),
		repositories.NewPostgresPostRepository(db.SQL),
		cfg.CounterRetryAttempts,
		cfg.ReconcileBatchSize,
		zlog,
	)

	report, err := counter.Reconcile(ctx)
	if err != nil {
		zlog.Error("reconciliation aborted",
			zap.Int("scanned", report.Scanned),
			zap.Int("corrected", report.Corrected),
			zap.Error(err),
		)
		return err
	}
	zlog.Info("reconciliation complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("corrected", report.Corrected),
	)
	return nil
}
