package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"max.ks1230/bookkeeper/internal/config"
	"max.ks1230/bookkeeper/internal/logger"
	"max.ks1230/bookkeeper/internal/model/budgets"
	"max.ks1230/bookkeeper/internal/model/storage"
)

func main() {
	if err := execute(); err != nil {
		logger.Error("bookkeeper failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// execute keeps the deferred cleanup inside, so main can still exit non-zero.
func execute() error {
	logger.Info("Bookkeeper init - start")

	conf, err := config.New()
	if err != nil {
		return errors.Wrap(err, "init config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stores, err := storage.Open(ctx, conf.Storage())
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	tracker := budgets.NewTracker(conf.App(), stores.Expenses, stores.Budgets)
	logger.Info("Bookkeeper init - end")

	runErr := run(ctx, stores, tracker, time.Now())

	if path := conf.App().MetricsPath(); path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			logger.Error("failed to write metrics", zap.Error(err), zap.String("path", path))
		}
	}
	return errors.Wrap(runErr, "refresh budgets")
}

func run(ctx context.Context, stores *storage.Stores, tracker *budgets.Tracker, asOf time.Time) error {
	cats, err := stores.Categories.Scan(ctx, nil)
	if err != nil {
		return err
	}
	logger.Info("categories loaded", zap.Int("count", len(cats)))

	refreshed, err := tracker.RefreshAll(ctx, asOf)
	if err != nil {
		return err
	}

	for _, b := range refreshed {
		fields := []zap.Field{
			zap.Int64("key", b.Key),
			zap.String("period", string(b.Period)),
			zap.Int64("limitation", b.Limitation),
			zap.Int64("spent", b.Spent),
			zap.Int64("remaining", b.Remaining()),
		}
		if b.Exceeded() {
			logger.Warn("budget exceeded", fields...)
		} else {
			logger.Info("budget", fields...)
		}
	}
	return nil
}
