package prices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/kafka"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"github.com/carlos-sqds/travel-buddy/internal/pricegen"
	"github.com/carlos-sqds/travel-buddy/internal/repository"
	"github.com/carlos-sqds/travel-buddy/internal/trmnl"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	historyWindowDays = 30
	syntheticDays     = 30
	liveBookingSite   = "Google Flights"
)

var ErrUserNotFound = errors.New("user not found")

type PriceUseCase interface {
	CreateUser(ctx context.Context) (string, error)
	Configuration(ctx context.Context, userID string) (*domain.Configuration, error)
	SetHomeAirport(ctx context.Context, userID, code string) (bool, error)
	SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error)
	AddDestination(ctx context.Context, userID, code string) (bool, error)
	RemoveDestination(ctx context.Context, userID, code string) (bool, error)
	ResolveDestination(ctx context.Context, userID, home, code string) (domain.DestinationSnapshot, error)
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
	Refresh(ctx context.Context, userID, home string) (int, error)
	RefreshAll(ctx context.Context) ([]string, error)
	Payload(ctx context.Context, userID string) (trmnl.Payload, trmnl.Result, error)
	PushPayload(ctx context.Context, userID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type QuoteSource interface {
	Enabled() bool
	BestFlight(ctx context.Context, from, to string, date time.Time) *domain.LiveQuote
}

type Pusher interface {
	Push(ctx context.Context, webhookURL string, payload trmnl.Payload) error
}

type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Dashboard is a user's configuration with each destination resolved.
type Dashboard struct {
	HomeAirport     string                       `json:"homeAirport"`
	TrmnlWebhookURL string                       `json:"trmnlWebhookUrl,omitempty"`
	Destinations    []domain.DestinationSnapshot `json:"destinations"`
}

type PriceService struct {
	store      repository.Store
	producer   Producer
	topic      string
	quotes     QuoteSource
	leadTime   time.Duration
	pusher     Pusher
	locker     Locker
	refreshTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

type PriceServiceOption func(*PriceService)

func WithProducer(p Producer, topic string) PriceServiceOption {
	return func(s *PriceService) {
		s.producer = p
		s.topic = topic
	}
}

// WithQuotes makes Refresh prefer live quotes for a departure leadTime ahead.
func WithQuotes(q QuoteSource, leadTime time.Duration) PriceServiceOption {
	return func(s *PriceService) {
		s.quotes = q
		s.leadTime = leadTime
	}
}

func WithPusher(p Pusher) PriceServiceOption {
	return func(s *PriceService) {
		s.pusher = p
	}
}

// WithRefreshLock makes RefreshAll skip users refreshed by another worker within ttl.
func WithRefreshLock(l Locker, ttl time.Duration) PriceServiceOption {
	return func(s *PriceService) {
		s.locker = l
		s.refreshTTL = ttl
	}
}

func WithLogger(log *zap.Logger) PriceServiceOption {
	return func(s *PriceService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) PriceServiceOption {
	return func(s *PriceService) {
		s.now = now
	}
}

func NewPriceService(store repository.Store, opts ...PriceServiceOption) *PriceService {
	s := &PriceService{
		store: store,
		topic: kafka.EventPricesRefreshed,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PriceService) CreateUser(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.store.EnsureUser(ctx, id); err != nil {
		return "", err
	}
	s.log.Info("user created", zap.String("user_id", id))
	return id, nil
}

func (s *PriceService) Configuration(ctx context.Context, userID string) (*domain.Configuration, error) {
	return s.store.GetConfiguration(ctx, userID)
}

func (s *PriceService) SetHomeAirport(ctx context.Context, userID, code string) (bool, error) {
	return s.store.SetHomeAirport(ctx, userID, code)
}

func (s *PriceService) SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error) {
	return s.store.SetWebhookURL(ctx, userID, rawURL)
}

func (s *PriceService) AddDestination(ctx context.Context, userID, code string) (bool, error) {
	return s.store.AddDestination(ctx, userID, code)
}

func (s *PriceService) RemoveDestination(ctx context.Context, userID, code string) (bool, error) {
	return s.store.RemoveDestination(ctx, userID, code)
}

// ResolveDestination derives the current view of code for the user. Without
// recorded prices the view is synthesized from home.
func (s *PriceService) ResolveDestination(ctx context.Context, userID, home, code string) (domain.DestinationSnapshot, error) {
	snap, _, err := s.resolve(ctx, userID, home, code)
	return snap, err
}

// resolve also returns the price series the snapshot was derived from.
func (s *PriceService) resolve(ctx context.Context, userID, home, code string) (domain.DestinationSnapshot, []float64, error) {
	snap := domain.DestinationSnapshot{ID: code, Code: code, Name: code}
	if a, ok := domain.LookupAirport(code); ok {
		snap.Name = a.City
	}

	history, err := s.store.PriceHistory(ctx, userID, code, historyWindowDays)
	if err != nil {
		return snap, nil, fmt.Errorf("failed to load history for %s: %w", code, err)
	}

	var series []float64
	switch h := history.(type) {
	case domain.RecordedHistory:
		series = make([]float64, len(h.Records))
		for i, r := range h.Records {
			series[i] = r.Price
		}
		latest := h.Records[len(h.Records)-1]
		snap.CurrentPrice = latest.Price
		snap.BestAirline = latest.Airline
		snap.BestSite = latest.BookingSite
		snap.LastUpdated = latest.RecordedAt
	case domain.EmptyHistory:
		generated := pricegen.GenerateHistory(home, code, syntheticDays, s.now())
		series = pricegen.Prices(generated)
		latest := generated[len(generated)-1]
		snap.CurrentPrice = latest.Price
		snap.BestAirline = latest.Airline
		snap.BestSite = latest.BookingSite
		snap.LastUpdated = latest.Timestamp
	default:
		return snap, nil, fmt.Errorf("unexpected history type %T", history)
	}

	snap.Trend = pricegen.Trend(series)
	return snap, series, nil
}

func (s *PriceService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	cfg, err := s.store.GetConfiguration(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshots, _, err := s.resolveAll(ctx, userID, cfg)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		HomeAirport:     cfg.HomeAirport,
		TrmnlWebhookURL: cfg.TrmnlWebhookURL,
		Destinations:    snapshots,
	}, nil
}

func (s *PriceService) resolveAll(ctx context.Context, userID string, cfg *domain.Configuration) ([]domain.DestinationSnapshot, map[string][]float64, error) {
	snapshots := make([]domain.DestinationSnapshot, 0, len(cfg.Destinations))
	series := make(map[string][]float64, len(cfg.Destinations))
	for _, code := range cfg.Destinations {
		snap, prices, err := s.resolve(ctx, userID, cfg.HomeAirport, code)
		if err != nil {
			return nil, nil, err
		}
		snapshots = append(snapshots, snap)
		series[code] = prices
	}
	return snapshots, series, nil
}

// Refresh records one fresh price per tracked destination and returns how many
// were recorded.
func (s *PriceService) Refresh(ctx context.Context, userID, home string) (int, error) {
	codes, err := s.store.ListDestinations(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	count := 0
	for _, code := range codes {
		price, airline, site, source := s.quote(ctx, home, code, now)
		if _, err := s.store.RecordPrice(ctx, userID, code, price, domain.Currency, airline, site); err != nil {
			return count, fmt.Errorf("failed to record price for %s: %w", code, err)
		}
		metrics.PricesRecorded.WithLabelValues(source).Inc()
		count++
	}

	s.log.Info("prices refreshed",
		zap.String("user_id", userID),
		zap.String("home_airport", home),
		zap.Int("count", count))

	if s.producer != nil {
		event := kafka.PriceEvent{
			Type:        kafka.EventPricesRefreshed,
			UserID:      userID,
			HomeAirport: home,
			Count:       count,
			RefreshedAt: now.UTC(),
		}
		if err := s.producer.Publish(ctx, s.topic, userID, event); err != nil {
			s.log.Error("failed to publish refresh event", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return count, nil
}

func (s *PriceService) quote(ctx context.Context, home, code string, now time.Time) (price float64, airline, site, source string) {
	if s.quotes != nil && s.quotes.Enabled() {
		if q := s.quotes.BestFlight(ctx, home, code, now.Add(s.leadTime)); q != nil && q.Price > 0 {
			return q.Price, q.Airline, liveBookingSite, metrics.SourceLive
		}
	}
	generated := pricegen.GeneratePrice(home, code, now)
	return generated.Price, generated.Airline, generated.BookingSite, metrics.SourceGenerated
}

// RefreshAll refreshes every known user and returns the ids that were refreshed.
// A failing user does not stop the sweep.
func (s *PriceService) RefreshAll(ctx context.Context) ([]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	refreshed := make([]string, 0, len(users))
	var errs []error
	for _, userID := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if s.locker != nil {
			ok, err := s.locker.AcquireLock(ctx, "lock:refresh:"+userID, s.refreshTTL)
			if err != nil {
				s.log.Warn("refresh lock failed", zap.String("user_id", userID), zap.Error(err))
			} else if !ok {
				continue
			}
		}

		cfg, err := s.store.GetConfiguration(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if _, err := s.Refresh(ctx, userID, cfg.HomeAirport); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		refreshed = append(refreshed, userID)
	}
	return refreshed, errors.Join(errs...)
}

// Payload builds and validates the TRMNL document for a known user.
func (s *PriceService) Payload(ctx context.Context, userID string) (trmnl.Payload, trmnl.Result, error) {
	cfg, err := s.knownConfiguration(ctx, userID)
	if err != nil {
		return trmnl.Payload{}, trmnl.Result{}, err
	}
	return s.payloadFor(ctx, userID, cfg)
}

// PushPayload sends the user's payload to their TRMNL webhook. Users without a
// webhook are skipped.
func (s *PriceService) PushPayload(ctx context.Context, userID string) error {
	if s.pusher == nil {
		return nil
	}

	cfg, err := s.knownConfiguration(ctx, userID)
	if err != nil {
		return err
	}
	if !cfg.HasWebhook() {
		return nil
	}

	payload, result, err := s.payloadFor(ctx, userID, cfg)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("refusing to push invalid payload: %v", result.Errors)
	}
	return s.pusher.Push(ctx, cfg.TrmnlWebhookURL, payload)
}

// knownConfiguration loads the configuration of an existing user without
// creating one.
func (s *PriceService) knownConfiguration(ctx context.Context, userID string) (*domain.Configuration, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.store.GetConfiguration(ctx, userID)
}

func (s *PriceService) payloadFor(ctx context.Context, userID string, cfg *domain.Configuration) (trmnl.Payload, trmnl.Result, error) {
	snapshots, series, err := s.resolveAll(ctx, userID, cfg)
	if err != nil {
		return trmnl.Payload{}, trmnl.Result{}, err
	}

	payload := trmnl.BuildPayload(cfg.HomeAirport, snapshots, series)
	result := trmnl.Validate(payload)
	metrics.PayloadsBuilt.WithLabelValues(strconv.FormatBool(result.Valid)).Inc()
	if !result.Valid {
		s.log.Warn("invalid trmnl payload", zap.String("user_id", userID), zap.Strings("errors", result.Errors))
	}
	return payload, result, nil
}

var _ PriceUseCase = (*PriceService)(nil)
