package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/bootstrap"
	"github.com/carlos-sqds/travel-buddy/internal/kafka"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl := logger.New(cfg.Log.Env).Named("worker")
	defer zl.Sync()
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("init app", zap.Error(err))
	}
	defer app.Close()

	// With Kafka, pushes follow the prices.refreshed events so that refreshes
	// triggered through the API reach the display too.
	pushInline := !cfg.Kafka.Enabled()
	if !pushInline {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PriceTopic, zl)
		defer consumer.Close()

		handler := kafka.PriceEventHandler(zl, func(ctx context.Context, event kafka.PriceEvent) error {
			if err := app.Prices.PushPayload(ctx, event.UserID); err != nil {
				zl.Warn("push payload failed", zap.String("user_id", event.UserID), zap.Error(err))
			}
			return nil
		})
		go func() {
			if err := consumer.Consume(ctx, handler); err != nil {
				zl.Error("consumer stopped", zap.Error(err))
			}
		}()
	}

	refresh(ctx, app.Prices, pushInline, zl)

	ticker := time.NewTicker(time.Duration(cfg.Worker.RefreshIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			refresh(ctx, app.Prices, pushInline, zl)
		case <-ctx.Done():
			zl.Info("shutting down")
			return
		}
	}
}

func refresh(ctx context.Context, svc prices.PriceUseCase, push bool, zl *zap.Logger) {
	refreshed, err := svc.RefreshAll(ctx)
	if err != nil {
		zl.Error("refresh prices", zap.Error(err))
	}
	zl.Info("prices refreshed", zap.Int("users", len(refreshed)))

	if !push {
		return
	}
	for _, userID := range refreshed {
		if err := svc.PushPayload(ctx, userID); err != nil {
			zl.Warn("push payload failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}
