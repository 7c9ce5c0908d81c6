package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context, sortBy string) ([]flights.FlightQuote, error) {
	args := m.Called(ctx, sortBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]flights.FlightQuote), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, origin, destination string, date *time.Time) ([]flights.FlightQuote, error) {
	args := m.Called(ctx, origin, destination, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]flights.FlightQuote), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*flights.FlightQuote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.FlightQuote), args.Error(1)
}

func (m *MockFlightUseCase) ExternalSchedule() []flights.ScheduleEntry {
	args := m.Called()
	return args.Get(0).([]flights.ScheduleEntry)
}

func newFlightRouter(service flights.FlightUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewFlightHandler(service)
	handler.Register(router.Group("/flights"))
	handler.RegisterRoot(router.Group("/"))
	return router
}

func sampleQuote() flights.FlightQuote {
	return flights.FlightQuote{
		Flight: domain.Flight{
			ID: 7, FlightNo: "SF101", Airline: "Skyfare", Origin: "Delhi", Destination: "Mumbai",
			DepartureTime: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
			ArrivalTime:   time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC),
			TotalSeats:    100, AvailableSeats: 40, BaseFareCents: 5000_00,
		},
		DynamicPriceCents: 6450_00,
	}
}

func TestFlightHandler_List(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	service.On("List", mock.Anything, "price").Return([]flights.FlightQuote{sampleQuote()}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/?sort_by=price", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got []flightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "SF101", got[0].FlightNo)
	assert.Equal(t, 5000.0, got[0].BaseFare)
	assert.Equal(t, 6450.0, got[0].DynamicPrice)

	service.AssertExpectations(t)
}

func TestFlightHandler_List_BadSortParam(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/?sort_by=altitude", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "List")
}

func TestFlightHandler_Get(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	quote := sampleQuote()
	service.On("GetByID", mock.Anything, int64(7)).Return(&quote, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got flightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.FlightID)
	assert.Equal(t, 40, got.SeatsAvailable)
}

func TestFlightHandler_Get_NotFound(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	service.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrFlightNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_Get_InvalidID(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetByID")
}

func TestFlightHandler_Search(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	service.On("Search", mock.Anything, "Delhi", "Mumbai", &date).Return([]flights.FlightQuote{sampleQuote()}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search?origin=Delhi&destination=Mumbai&date=2026-09-10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestFlightHandler_Search_ParamValidation(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{name: "missing origin", url: "/search?destination=Mumbai"},
		{name: "missing destination", url: "/search?origin=Delhi"},
		{name: "bad date", url: "/search?origin=Delhi&destination=Mumbai&date=10-09-2026"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := &MockFlightUseCase{}
			router := newFlightRouter(service)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			service.AssertNotCalled(t, "Search")
		})
	}
}

func TestFlightHandler_Search_EmptyResult(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	service.On("Search", mock.Anything, "Delhi", "Pune", (*time.Time)(nil)).Return([]flights.FlightQuote{}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search?origin=Delhi&destination=Pune", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_ExternalSchedule(t *testing.T) {
	service := &MockFlightUseCase{}
	router := newFlightRouter(service)

	service.On("ExternalSchedule").Return([]flights.ScheduleEntry{
		{FlightNo: "QF789", Origin: "Delhi", Destination: "Singapore", Departure: "2025-03-05 09:00:00"},
	}).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/external/schedule", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "QF789")
}
