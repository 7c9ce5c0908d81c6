package flights

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, date)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func testFlights() []domain.Flight {
	now := time.Now()
	return []domain.Flight{
		{
			ID: 1, FlightNo: "SF101", Airline: "Skyfare", Origin: "Delhi", Destination: "Mumbai",
			DepartureTime: now.Add(48 * time.Hour), ArrivalTime: now.Add(50 * time.Hour),
			TotalSeats: 100, AvailableSeats: 80, BaseFareCents: 9000_00,
		},
		{
			ID: 2, FlightNo: "SF102", Airline: "Skyfare", Origin: "Delhi", Destination: "Mumbai",
			DepartureTime: now.Add(24 * time.Hour), ArrivalTime: now.Add(29 * time.Hour),
			TotalSeats: 100, AvailableSeats: 80, BaseFareCents: 1000_00,
		},
	}
}

func newQuoter() Quoter {
	return pricing.NewEngine(rand.New(rand.NewSource(1)))
}

func TestFlightService_List_SortByPrice(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, newQuoter())

	ctx := context.Background()
	repo.On("List", ctx).Return(testFlights(), nil).Once()

	quotes, err := service.List(ctx, SortByPrice)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// Base fares are far enough apart that the random factors cannot
	// reorder the quotes.
	assert.Equal(t, int64(2), quotes[0].ID)
	assert.Equal(t, int64(1), quotes[1].ID)
	assert.LessOrEqual(t, quotes[0].DynamicPriceCents, quotes[1].DynamicPriceCents)

	repo.AssertExpectations(t)
}

func TestFlightService_List_SortByDuration(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, newQuoter())

	ctx := context.Background()
	repo.On("List", ctx).Return(testFlights(), nil).Once()

	quotes, err := service.List(ctx, SortByDuration)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, int64(1), quotes[0].ID, "2h flight sorts before the 5h one")
	assert.Equal(t, int64(2), quotes[1].ID)
}

func TestFlightService_List_CacheHitSkipsRepo(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, newQuoter())

	ctx := context.Background()
	cache.On("GetFlights", ctx).Return(testFlights(), nil).Once()

	quotes, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, quotes, 2)

	cache.AssertExpectations(t)
	repo.AssertNotCalled(t, "List")
}

func TestFlightService_List_CacheMissFillsCache(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, newQuoter())

	ctx := context.Background()
	flights := testFlights()
	cache.On("GetFlights", ctx).Return(nil, nil).Once()
	repo.On("List", ctx).Return(flights, nil).Once()
	cache.On("SetFlights", ctx, flights).Return(nil).Once()

	quotes, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, quotes, 2)

	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestFlightService_Search(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, newQuoter())

	ctx := context.Background()
	repo.On("Search", ctx, "Delhi", "Mumbai", (*time.Time)(nil)).Return(testFlights(), nil).Once()

	quotes, err := service.Search(ctx, "Delhi", "Mumbai", nil)
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.Greater(t, q.DynamicPriceCents, int64(0))
	}

	repo.AssertExpectations(t)
}

func TestFlightService_GetByID_QuoteCoversBaseFare(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, newQuoter())

	ctx := context.Background()
	flight := testFlights()[0]
	repo.On("GetByID", ctx, int64(1)).Return(&flight, nil).Once()

	quote, err := service.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, quote.DynamicPriceCents, flight.BaseFareCents)
}

func TestFlightService_GetByID_NotFound(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, newQuoter())

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(404)).Return(nil, domain.ErrFlightNotFound).Once()

	quote, err := service.GetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.Nil(t, quote)
}

func TestFlightService_ExternalSchedule(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil, newQuoter())

	schedule := service.ExternalSchedule()
	require.NotEmpty(t, schedule)
	for _, entry := range schedule {
		assert.NotEmpty(t, entry.FlightNo)
		assert.NotEmpty(t, entry.Origin)
		assert.NotEmpty(t, entry.Destination)
	}
}
