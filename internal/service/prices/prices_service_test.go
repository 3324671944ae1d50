package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/carlos-sqds/travel-buddy/internal/kafka"
	"github.com/carlos-sqds/travel-buddy/internal/pricegen"
	"github.com/carlos-sqds/travel-buddy/internal/trmnl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *MockStore, opts ...PriceServiceOption) *PriceService {
	opts = append([]PriceServiceOption{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return NewPriceService(store, opts...)
}

func TestPriceService_ResolveDestination_Recorded(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	records := []domain.PriceRecord{
		{DestinationCode: "LIS", Price: 200, Airline: "TAP Portugal", BookingSite: "Kayak", RecordedAt: fixedNow.Add(-48 * time.Hour)},
		{DestinationCode: "LIS", Price: 180, Airline: "Ryanair", BookingSite: "Skyscanner", RecordedAt: fixedNow.Add(-time.Hour)},
	}
	store.On("PriceHistory", ctx, "u1", "LIS", 30).Return(domain.NewPriceHistory(records), nil).Once()

	snap, err := service.ResolveDestination(ctx, "u1", "BER", "LIS")

	require.NoError(t, err)
	assert.Equal(t, "LIS", snap.ID)
	assert.Equal(t, "Lisbon", snap.Name)
	assert.Equal(t, 180.0, snap.CurrentPrice)
	assert.Equal(t, "↓ -10%", snap.Trend)
	assert.Equal(t, "Ryanair", snap.BestAirline)
	assert.Equal(t, "Skyscanner", snap.BestSite)
	assert.Equal(t, fixedNow.Add(-time.Hour), snap.LastUpdated)
	store.AssertExpectations(t)
}

func TestPriceService_ResolveDestination_SingleRecord(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	records := []domain.PriceRecord{{DestinationCode: "JFK", Price: 450, Airline: "Delta", BookingSite: "Expedia", RecordedAt: fixedNow}}
	store.On("PriceHistory", ctx, "u1", "JFK", 30).Return(domain.NewPriceHistory(records), nil).Once()

	snap, err := service.ResolveDestination(ctx, "u1", "BER", "JFK")

	require.NoError(t, err)
	assert.Equal(t, 450.0, snap.CurrentPrice)
	assert.Equal(t, "0%", snap.Trend)
}

func TestPriceService_ResolveDestination_Synthetic(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("PriceHistory", ctx, "u1", "BKK", 30).Return(domain.EmptyHistory{}, nil).Once()

	snap, err := service.ResolveDestination(ctx, "u1", "BER", "BKK")
	require.NoError(t, err)

	expected := pricegen.GeneratePrice("BER", "BKK", fixedNow)
	history := pricegen.GenerateHistory("BER", "BKK", 30, fixedNow)
	assert.Equal(t, "Bangkok", snap.Name)
	assert.Equal(t, expected.Price, snap.CurrentPrice)
	assert.Equal(t, expected.Airline, snap.BestAirline)
	assert.Equal(t, expected.BookingSite, snap.BestSite)
	assert.Equal(t, pricegen.Trend(pricegen.Prices(history)), snap.Trend)
	assert.True(t, snap.LastUpdated.Equal(fixedNow))
}

func TestPriceService_ResolveDestination_UnknownCode(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("PriceHistory", ctx, "u1", "QQQ", 30).Return(domain.EmptyHistory{}, nil).Once()

	snap, err := service.ResolveDestination(ctx, "u1", "BER", "QQQ")
	require.NoError(t, err)
	assert.Equal(t, "QQQ", snap.Name)
	assert.Greater(t, snap.CurrentPrice, 0.0)
}

func TestPriceService_ResolveDestination_StoreError(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("PriceHistory", ctx, "u1", "JFK", 30).Return(nil, errors.New("disk on fire")).Once()

	_, err := service.ResolveDestination(ctx, "u1", "BER", "JFK")
	assert.Error(t, err)
}

func TestPriceService_Refresh_Generated(t *testing.T) {
	store := &MockStore{}
	producer := &MockProducer{}
	service := newTestService(t, store, WithProducer(producer, "prices.refreshed"))
	ctx := context.Background()

	store.On("ListDestinations", ctx, "u1").Return([]string{"JFK", "LIS"}, nil).Once()
	for _, code := range []string{"JFK", "LIS"} {
		p := pricegen.GeneratePrice("BER", code, fixedNow)
		store.On("RecordPrice", ctx, "u1", code, p.Price, "EUR", p.Airline, p.BookingSite).
			Return(&domain.PriceRecord{DestinationCode: code, Price: p.Price}, nil).Once()
	}
	producer.On("Publish", ctx, "prices.refreshed", "u1", kafka.PriceEvent{
		Type:        kafka.EventPricesRefreshed,
		UserID:      "u1",
		HomeAirport: "BER",
		Count:       2,
		RefreshedAt: fixedNow,
	}).Return(nil).Once()

	count, err := service.Refresh(ctx, "u1", "BER")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	store.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestPriceService_Refresh_PrefersLiveQuote(t *testing.T) {
	store := &MockStore{}
	quotes := &MockQuotes{}
	service := newTestService(t, store, WithQuotes(quotes, 30*24*time.Hour))
	ctx := context.Background()

	departure := fixedNow.Add(30 * 24 * time.Hour)
	store.On("ListDestinations", ctx, "u1").Return([]string{"JFK", "LIS"}, nil).Once()
	quotes.On("Enabled").Return(true)
	quotes.On("BestFlight", ctx, "BER", "JFK", departure).Return(&domain.LiveQuote{Price: 399, Airline: "Delta"}).Once()
	quotes.On("BestFlight", ctx, "BER", "LIS", departure).Return(nil).Once()

	store.On("RecordPrice", ctx, "u1", "JFK", 399.0, "EUR", "Delta", "Google Flights").
		Return(&domain.PriceRecord{}, nil).Once()
	generated := pricegen.GeneratePrice("BER", "LIS", fixedNow)
	store.On("RecordPrice", ctx, "u1", "LIS", generated.Price, "EUR", generated.Airline, generated.BookingSite).
		Return(&domain.PriceRecord{}, nil).Once()

	count, err := service.Refresh(ctx, "u1", "BER")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	store.AssertExpectations(t)
	quotes.AssertExpectations(t)
}

func TestPriceService_Refresh_PublishFailureIsNotFatal(t *testing.T) {
	store := &MockStore{}
	producer := &MockProducer{}
	service := newTestService(t, store, WithProducer(producer, "topic"))
	ctx := context.Background()

	store.On("ListDestinations", ctx, "u1").Return([]string{}, nil).Once()
	producer.On("Publish", ctx, "topic", "u1", mock.Anything).Return(errors.New("broker down")).Once()

	count, err := service.Refresh(ctx, "u1", "BER")
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPriceService_Refresh_RecordError(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("ListDestinations", ctx, "u1").Return([]string{"JFK"}, nil).Once()
	store.On("RecordPrice", ctx, "u1", "JFK", mock.Anything, "EUR", mock.Anything, mock.Anything).
		Return(nil, errors.New("locked")).Once()

	count, err := service.Refresh(ctx, "u1", "BER")
	assert.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestPriceService_RefreshAll(t *testing.T) {
	store := &MockStore{}
	locker := &MockLocker{}
	service := newTestService(t, store, WithRefreshLock(locker, time.Minute))
	ctx := context.Background()

	store.On("ListUsers", ctx).Return([]string{"a", "b", "c"}, nil).Once()
	locker.On("AcquireLock", ctx, "lock:refresh:a", time.Minute).Return(true, nil).Once()
	locker.On("AcquireLock", ctx, "lock:refresh:b", time.Minute).Return(false, nil).Once()
	locker.On("AcquireLock", ctx, "lock:refresh:c", time.Minute).Return(true, nil).Once()

	store.On("GetConfiguration", ctx, "a").Return(&domain.Configuration{HomeAirport: "BER"}, nil).Once()
	store.On("ListDestinations", ctx, "a").Return([]string{}, nil).Once()
	store.On("GetConfiguration", ctx, "c").Return(nil, errors.New("boom")).Once()

	refreshed, err := service.RefreshAll(ctx)

	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, refreshed)
	store.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestPriceService_Payload_UnknownUser(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("UserExists", ctx, "ghost").Return(false, nil).Once()

	_, _, err := service.Payload(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	store.AssertNotCalled(t, "GetConfiguration", mock.Anything, mock.Anything)
}

func TestPriceService_Payload(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("UserExists", ctx, "u1").Return(true, nil).Once()
	store.On("GetConfiguration", ctx, "u1").Return(&domain.Configuration{
		HomeAirport:  "BER",
		Destinations: []string{"LIS", "JFK"},
	}, nil).Once()
	store.On("PriceHistory", ctx, "u1", "LIS", 30).Return(domain.NewPriceHistory([]domain.PriceRecord{
		{Price: 150, Airline: "TAP Portugal", BookingSite: "Kayak", RecordedAt: fixedNow},
	}), nil).Once()
	store.On("PriceHistory", ctx, "u1", "JFK", 30).Return(domain.EmptyHistory{}, nil).Once()

	payload, result, err := service.Payload(ctx, "u1")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, payload.MergeVariables)
	assert.Equal(t, "BER (Berlin)", payload.MergeVariables.HomeAirport)
	require.Len(t, payload.MergeVariables.Destinations, 2)
	assert.Equal(t, "LIS", payload.MergeVariables.Destinations[0].Code)
	assert.Equal(t, 150.0, payload.MergeVariables.Destinations[0].CurrentPrice)
	assert.Equal(t, "New York", payload.MergeVariables.Destinations[1].Name)
	assert.NotEmpty(t, payload.MergeVariables.Destinations[1].ChartURL)
}

func TestPriceService_PushPayload(t *testing.T) {
	store := &MockStore{}
	pusher := &MockPusher{}
	service := newTestService(t, store, WithPusher(pusher))
	ctx := context.Background()

	cfg := &domain.Configuration{
		HomeAirport:     "BER",
		Destinations:    []string{},
		TrmnlWebhookURL: "https://usetrmnl.com/api/custom_plugins/abc",
	}
	store.On("UserExists", ctx, "u1").Return(true, nil).Once()
	store.On("GetConfiguration", ctx, "u1").Return(cfg, nil).Once()
	pusher.On("Push", ctx, cfg.TrmnlWebhookURL, mock.AnythingOfType("trmnl.Payload")).Return(nil).Once()

	require.NoError(t, service.PushPayload(ctx, "u1"))
	pusher.AssertExpectations(t)
}

func TestPriceService_PushPayload_NoWebhook(t *testing.T) {
	store := &MockStore{}
	pusher := &MockPusher{}
	service := newTestService(t, store, WithPusher(pusher))
	ctx := context.Background()

	store.On("UserExists", ctx, "u1").Return(true, nil).Once()
	store.On("GetConfiguration", ctx, "u1").Return(&domain.Configuration{HomeAirport: "BER"}, nil).Once()

	require.NoError(t, service.PushPayload(ctx, "u1"))
	pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestPriceService_PushPayload_PropagatesPushError(t *testing.T) {
	store := &MockStore{}
	pusher := &MockPusher{}
	service := newTestService(t, store, WithPusher(pusher))
	ctx := context.Background()

	store.On("UserExists", ctx, "u1").Return(true, nil).Once()
	store.On("GetConfiguration", ctx, "u1").Return(&domain.Configuration{
		HomeAirport:     "BER",
		TrmnlWebhookURL: "https://example.com/hook",
	}, nil).Once()
	pusher.On("Push", ctx, "https://example.com/hook", mock.Anything).Return(errors.New("503")).Once()

	assert.Error(t, service.PushPayload(ctx, "u1"))
}

func TestPriceService_CreateUser(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("EnsureUser", ctx, mock.AnythingOfType("string")).Return(nil).Once()

	id, err := service.CreateUser(ctx)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	store.AssertExpectations(t)
}

func TestPriceService_PassThrough(t *testing.T) {
	store := &MockStore{}
	service := newTestService(t, store)
	ctx := context.Background()

	store.On("SetHomeAirport", ctx, "u1", "XXX").Return(false, nil).Once()
	store.On("AddDestination", ctx, "u1", "NRT").Return(true, nil).Once()

	ok, err := service.SetHomeAirport(ctx, "u1", "XXX")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = service.AddDestination(ctx, "u1", "NRT")
	require.NoError(t, err)
	assert.True(t, ok)
	store.AssertExpectations(t)
}

var _ Pusher = (*trmnl.Pusher)(nil)
