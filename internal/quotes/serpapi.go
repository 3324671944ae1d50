// Package quotes fetches live best-flight quotes from SerpApi's Google Flights engine.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/cache"
	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type searchResponse struct {
	BestFlights []bestFlight `json:"best_flights"`
}

type bestFlight struct {
	Flights []struct {
		DepartureAirport struct {
			Time string `json:"time"`
		} `json:"departure_airport"`
		ArrivalAirport struct {
			Time string `json:"time"`
		} `json:"arrival_airport"`
		Airline      string `json:"airline"`
		Airplane     string `json:"airplane"`
		FlightNumber string `json:"flight_number"`
	} `json:"flights"`
	TotalDuration int     `json:"total_duration"`
	Price         float64 `json:"price"`
}

// cachedSearch is stored even when the search found nothing so empty routes
// are not re-fetched within the TTL.
type cachedSearch struct {
	Quote *domain.LiveQuote `json:"quote"`
}

type Client struct {
	cfg   config.QuotesConfig
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewClient(cfg config.QuotesConfig, c cache.Cache, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		cache: c,
		ttl:   ttl,
		log:   logger.OrNop(log),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// LeadTime is how far ahead of today refreshes search for a departure.
func (c *Client) LeadTime() time.Duration {
	return time.Duration(c.cfg.LeadDays) * 24 * time.Hour
}

// BestFlight returns the first best flight for the route on date, or nil when
// nothing is available. Failures are logged and reported as nil.
func (c *Client) BestFlight(ctx context.Context, from, to string, date time.Time) *domain.LiveQuote {
	day := date.Format(dateLayout)
	key := cacheKey(from, to, day)

	var cached cachedSearch
	err := cache.GetJSON(ctx, c.cache, key, &cached)
	switch {
	case err == nil:
		metrics.QuoteCache.WithLabelValues("hit").Inc()
		c.log.Debug("quote cache hit", zap.String("key", key))
		return cached.Quote
	case !errors.Is(err, cache.ErrNotFound):
		c.log.Warn("quote cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.QuoteCache.WithLabelValues("miss").Inc()

	if !c.Enabled() {
		c.log.Debug("serpapi key not configured")
		return nil
	}

	quote, err := c.search(ctx, from, to, day)
	if err != nil {
		metrics.QuoteErrors.Inc()
		c.log.Error("serpapi search failed",
			zap.String("from", from), zap.String("to", to), zap.String("date", day), zap.Error(err))
		return nil
	}

	if err := cache.SetJSON(ctx, c.cache, key, cachedSearch{Quote: quote}, c.ttl); err != nil {
		c.log.Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
	}
	return quote
}

func (c *Client) search(ctx context.Context, from, to, day string) (*domain.LiveQuote, error) {
	q := url.Values{}
	q.Set("engine", "google_flights")
	q.Set("departure_id", from)
	q.Set("arrival_id", to)
	q.Set("outbound_date", day)
	q.Set("currency", domain.Currency)
	q.Set("type", "2")
	q.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	c.log.Info("fetching flights", zap.String("from", from), zap.String("to", to), zap.String("date", day))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.BestFlights) == 0 {
		return nil, nil
	}
	return toQuote(from, to, day, body.BestFlights[0]), nil
}

func toQuote(from, to, day string, bf bestFlight) *domain.LiveQuote {
	q := &domain.LiveQuote{
		From:         from,
		To:           to,
		Date:         day,
		Price:        bf.Price,
		Currency:     domain.Currency,
		TotalMinutes: bf.TotalDuration,
	}
	if n := len(bf.Flights); n > 0 {
		first, last := bf.Flights[0], bf.Flights[n-1]
		q.Airline = first.Airline
		q.Airplane = first.Airplane
		q.FlightNumber = first.FlightNumber
		q.DepartureTime = first.DepartureAirport.Time
		q.ArrivalTime = last.ArrivalAirport.Time
		q.Stops = n - 1
	}
	return q
}

func cacheKey(from, to, day string) string {
	return "quote:" + from + "-" + to + "-" + day
}
