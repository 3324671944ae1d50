package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/bootstrap"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"github.com/gin-gonic/gin"
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

	zl := logger.New(cfg.Log.Env)
	defer zl.Sync()
	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("init app", zap.Error(err))
	}
	defer app.Close()

	router, err := bootstrap.NewRouter(zl, app.Prices, app.Flights)
	if err != nil {
		zl.Fatal("init router", zap.Error(err))
	}

	if err := bootstrap.Run(ctx, cfg, router, zl); err != nil {
		zl.Error("server error", zap.Error(err))
	}
}
