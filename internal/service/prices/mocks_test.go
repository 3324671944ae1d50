package prices

import (
	"context"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/trmnl"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) EnsureUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStore) UserExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) GetConfiguration(ctx context.Context, userID string) (*domain.Configuration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Configuration), args.Error(1)
}

func (m *MockStore) SetHomeAirport(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error) {
	args := m.Called(ctx, userID, rawURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) AddDestination(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RemoveDestination(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListDestinations(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) RecordPrice(ctx context.Context, userID, code string, price float64, currency, airline, site string) (*domain.PriceRecord, error) {
	args := m.Called(ctx, userID, code, price, currency, airline, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceRecord), args.Error(1)
}

func (m *MockStore) PriceHistory(ctx context.Context, userID, code string, windowDays int) (domain.PriceHistory, error) {
	args := m.Called(ctx, userID, code, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PriceHistory), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockQuotes struct {
	mock.Mock
}

func (m *MockQuotes) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockQuotes) BestFlight(ctx context.Context, from, to string, date time.Time) *domain.LiveQuote {
	args := m.Called(ctx, from, to, date)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.LiveQuote)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, webhookURL string, payload trmnl.Payload) error {
	args := m.Called(ctx, webhookURL, payload)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}
