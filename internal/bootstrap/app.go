package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/cache"
	"github.com/carlos-sqds/travel-buddy/internal/kafka"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/quotes"
	"github.com/carlos-sqds/travel-buddy/internal/repository"
	"github.com/carlos-sqds/travel-buddy/internal/service/flights"
	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/carlos-sqds/travel-buddy/internal/trmnl"
	"go.uber.org/zap"
)

const refreshLockTTL = 5 * time.Minute

// App holds the shared dependencies of the server and worker binaries.
type App struct {
	Store    repository.Store
	Cache    cache.Cache
	Producer *kafka.Producer
	Prices   *prices.PriceService
	Flights  *flights.FlightService
}

// NewApp opens storage and cache and assembles the services. Redis and Kafka
// are used only when configured.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var c cache.Cache
	if cfg.Redis.Enabled() {
		rc := cache.NewRedisCache(cfg.Redis)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
			rc.Close()
			c = cache.NewMemoryCache()
		} else {
			c = rc
		}
	} else {
		c = cache.NewMemoryCache()
	}

	quoteClient := quotes.NewClient(cfg.Quotes, c, log)
	opts := []prices.PriceServiceOption{
		prices.WithLogger(log),
		prices.WithQuotes(quoteClient, quoteClient.LeadTime()),
		prices.WithPusher(trmnl.NewPusher(cfg.Trmnl, log)),
		prices.WithRefreshLock(c, refreshLockTTL),
	}

	app := &App{Store: store, Cache: c}
	if cfg.Kafka.Enabled() {
		app.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err := app.Producer.CheckConnection(ctx); err != nil {
			log.Warn("kafka unreachable, refresh events may be lost", zap.Error(err))
		}
		opts = append(opts, prices.WithProducer(app.Producer, cfg.Kafka.PriceTopic))
	}

	app.Prices = prices.NewPriceService(store, opts...)
	app.Flights = flights.NewFlightService(c, time.Duration(cfg.Quotes.CacheTTLSeconds)*time.Second, quoteClient, flights.WithLogger(log))
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Producer != nil {
		errs = append(errs, a.Producer.Close())
	}
	errs = append(errs, a.Cache.Close(), a.Store.Close())
	return errors.Join(errs...)
}
