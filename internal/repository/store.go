package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/domain"
)

const (
	configKeyHomeAirport = "home_airport"
	configKeyWebhookURL  = "trmnl_webhook_url"

	// timeLayout is fixed width so stored timestamps compare lexically.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

var (
	ErrInvalidPrice  = errors.New("price must be positive")
	ErrUnknownDriver = errors.New("unsupported database driver")
)

// Store persists per-user configuration, tracked destinations and the price ledger.
type Store interface {
	EnsureUser(ctx context.Context, userID string) error
	UserExists(ctx context.Context, userID string) (bool, error)
	ListUsers(ctx context.Context) ([]string, error)
	GetConfiguration(ctx context.Context, userID string) (*domain.Configuration, error)
	SetHomeAirport(ctx context.Context, userID, code string) (bool, error)
	SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error)
	AddDestination(ctx context.Context, userID, code string) (bool, error)
	RemoveDestination(ctx context.Context, userID, code string) (bool, error)
	ListDestinations(ctx context.Context, userID string) ([]string, error)
	RecordPrice(ctx context.Context, userID, code string, price float64, currency, airline, site string) (*domain.PriceRecord, error)
	PriceHistory(ctx context.Context, userID, code string, windowDays int) (domain.PriceHistory, error)
	Close() error
}

// Open builds the store selected by cfg.Driver. The caller owns the returned
// store and must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := NewPGStoreFromDSN(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// ValidWebhookURL reports whether raw is an absolute http(s) URL.
func ValidWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func windowStart(now time.Time, windowDays int) time.Time {
	return now.AddDate(0, 0, -windowDays)
}
