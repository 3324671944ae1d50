package flights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/cache"
	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/pricegen"
	"go.uber.org/zap"
)

var ErrNoLiveQuote = errors.New("no live quote available")

type FlightUseCase interface {
	Quote(from, to string, date time.Time) domain.FlightPrice
	History(ctx context.Context, from, to string, days int) (*RouteHistory, error)
	Live(ctx context.Context, from, to string, date time.Time) (*domain.LiveQuote, error)
}

type QuoteSource interface {
	Enabled() bool
	BestFlight(ctx context.Context, from, to string, date time.Time) *domain.LiveQuote
}

// RouteHistory is a synthetic daily series for a route with its trend.
type RouteHistory struct {
	From    string               `json:"from"`
	To      string               `json:"to"`
	Current domain.FlightPrice   `json:"current"`
	Trend   string               `json:"trend"`
	History []domain.FlightPrice `json:"history"`
}

type FlightService struct {
	cache    cache.Cache
	cacheTTL time.Duration
	quotes   QuoteSource
	log      *zap.Logger
	now      func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithLogger(log *zap.Logger) FlightServiceOption {
	return func(s *FlightService) {
		s.log = logger.OrNop(log)
	}
}

func NewFlightService(c cache.Cache, cacheTTL time.Duration, quotes QuoteSource, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{cache: c, cacheTTL: cacheTTL, quotes: quotes, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Quote(from, to string, date time.Time) domain.FlightPrice {
	return pricegen.GeneratePrice(from, to, date)
}

// History is cached per route and calendar day since the series only changes
// when the day does.
func (s *FlightService) History(ctx context.Context, from, to string, days int) (*RouteHistory, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	now := s.now()
	key := fmt.Sprintf("history:%s-%s:%s:%d", from, to, now.Format("2006-01-02"), days)

	if s.cache != nil {
		var cached RouteHistory
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			return &cached, nil
		}
	}

	series := pricegen.GenerateHistory(from, to, days, now)
	h := &RouteHistory{
		From:    from,
		To:      to,
		Current: series[len(series)-1],
		Trend:   pricegen.Trend(pricegen.Prices(series)),
		History: series,
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, h, s.cacheTTL); err != nil {
			s.log.Warn("history cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return h, nil
}

func (s *FlightService) Live(ctx context.Context, from, to string, date time.Time) (*domain.LiveQuote, error) {
	if s.quotes == nil || !s.quotes.Enabled() {
		return nil, ErrNoLiveQuote
	}
	q := s.quotes.BestFlight(ctx, from, to, date)
	if q == nil {
		return nil, ErrNoLiveQuote
	}
	return q, nil
}

var _ FlightUseCase = (*FlightService)(nil)
