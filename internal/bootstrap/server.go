package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carlos-sqds/travel-buddy/api"
	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"github.com/carlos-sqds/travel-buddy/internal/service/flights"
	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// NewRouter wires every HTTP route onto a fresh gin engine.
func NewRouter(log *zap.Logger, priceSvc prices.PriceUseCase, flightSvc flights.FlightUseCase) (*gin.Engine, error) {
	log = logger.OrNop(log)
	if err := api.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := router.Group("/api")
	api.NewAirportHandler().Register(group.Group("/airports"))
	api.NewConfigHandler(priceSvc, log).Register(group)
	api.NewTrmnlHandler(priceSvc, log).Register(group.Group("/trmnl"))
	api.NewFlightHandler(flightSvc).Register(group.Group("/flights"))

	return router, nil
}

// Run serves handler on cfg.HTTP.Address and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, log *zap.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("http server stopped")
		return nil
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
