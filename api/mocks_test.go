package api

import (
	"context"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/service/flights"
	"github.com/carlos-sqds/travel-buddy/internal/service/prices"
	"github.com/carlos-sqds/travel-buddy/internal/trmnl"
	"github.com/stretchr/testify/mock"
)

// MockPriceUseCase is a mock implementation of prices.PriceUseCase
type MockPriceUseCase struct {
	mock.Mock
}

func (m *MockPriceUseCase) CreateUser(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPriceUseCase) Configuration(ctx context.Context, userID string) (*domain.Configuration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Configuration), args.Error(1)
}

func (m *MockPriceUseCase) SetHomeAirport(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceUseCase) SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error) {
	args := m.Called(ctx, userID, rawURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceUseCase) AddDestination(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceUseCase) RemoveDestination(ctx context.Context, userID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceUseCase) ResolveDestination(ctx context.Context, userID, home, code string) (domain.DestinationSnapshot, error) {
	args := m.Called(ctx, userID, home, code)
	return args.Get(0).(domain.DestinationSnapshot), args.Error(1)
}

func (m *MockPriceUseCase) Dashboard(ctx context.Context, userID string) (*prices.Dashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prices.Dashboard), args.Error(1)
}

func (m *MockPriceUseCase) Refresh(ctx context.Context, userID, home string) (int, error) {
	args := m.Called(ctx, userID, home)
	return args.Int(0), args.Error(1)
}

func (m *MockPriceUseCase) RefreshAll(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPriceUseCase) Payload(ctx context.Context, userID string) (trmnl.Payload, trmnl.Result, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(trmnl.Payload), args.Get(1).(trmnl.Result), args.Error(2)
}

func (m *MockPriceUseCase) PushPayload(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) Quote(from, to string, date time.Time) domain.FlightPrice {
	args := m.Called(from, to, date)
	return args.Get(0).(domain.FlightPrice)
}

func (m *MockFlightUseCase) History(ctx context.Context, from, to string, days int) (*flights.RouteHistory, error) {
	args := m.Called(ctx, from, to, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.RouteHistory), args.Error(1)
}

func (m *MockFlightUseCase) Live(ctx context.Context, from, to string, date time.Time) (*domain.LiveQuote, error) {
	args := m.Called(ctx, from, to, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveQuote), args.Error(1)
}

var (
	_ prices.PriceUseCase   = (*MockPriceUseCase)(nil)
	_ flights.FlightUseCase = (*MockFlightUseCase)(nil)
)
