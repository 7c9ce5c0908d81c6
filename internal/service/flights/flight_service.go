package flights

import (
	"context"
	"sort"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/repository"
)

const (
	SortByPrice    = "price"
	SortByDuration = "duration"
)

type FlightUseCase interface {
	List(ctx context.Context, sortBy string) ([]FlightQuote, error)
	Search(ctx context.Context, origin, destination string, date *time.Time) ([]FlightQuote, error)
	GetByID(ctx context.Context, id int64) (*FlightQuote, error)
	ExternalSchedule() []ScheduleEntry
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type Quoter interface {
	Quote(baseFareCents int64, totalSeats, seatsAvailable int, departure, now time.Time) int64
}

// FlightQuote is a flight with a display price attached. These quotes are
// advisory: the booking workflow recomputes its own quote inside the
// reservation transaction.
type FlightQuote struct {
	domain.Flight
	DynamicPriceCents int64
}

// ScheduleEntry mimics a partner airline's schedule feed.
type ScheduleEntry struct {
	FlightNo    string `json:"flight_no"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
}

type FlightService struct {
	repo   repository.FlightRepository
	cache  Cache
	quoter Quoter
}

func NewFlightService(repo repository.FlightRepository, cache Cache, quoter Quoter) *FlightService {
	return &FlightService{repo: repo, cache: cache, quoter: quoter}
}

func (s *FlightService) List(ctx context.Context, sortBy string) ([]FlightQuote, error) {
	flights, err := s.cachedList(ctx)
	if err != nil {
		return nil, err
	}
	quotes := s.quoteAll(flights)
	switch sortBy {
	case SortByPrice:
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].DynamicPriceCents < quotes[j].DynamicPriceCents })
	case SortByDuration:
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].Duration() < quotes[j].Duration() })
	}
	return quotes, nil
}

func (s *FlightService) Search(ctx context.Context, origin, destination string, date *time.Time) ([]FlightQuote, error) {
	flights, err := s.repo.Search(ctx, origin, destination, date)
	if err != nil {
		return nil, err
	}
	return s.quoteAll(flights), nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*FlightQuote, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	q := s.quote(*flight)
	return &q, nil
}

// ExternalSchedule is a stub for the partner-airline schedule integration.
func (s *FlightService) ExternalSchedule() []ScheduleEntry {
	return []ScheduleEntry{
		{FlightNo: "QF789", Origin: "Delhi", Destination: "Singapore", Departure: "2025-03-05 09:00:00"},
		{FlightNo: "EK555", Origin: "Mumbai", Destination: "Dubai", Departure: "2025-03-06 07:30:00"},
	}
}

func (s *FlightService) cachedList(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) quoteAll(flights []domain.Flight) []FlightQuote {
	quotes := make([]FlightQuote, 0, len(flights))
	for _, f := range flights {
		quotes = append(quotes, s.quote(f))
	}
	return quotes
}

func (s *FlightService) quote(f domain.Flight) FlightQuote {
	return FlightQuote{
		Flight:            f,
		DynamicPriceCents: s.quoter.Quote(f.BaseFareCents, f.TotalSeats, f.AvailableSeats, f.DepartureTime, time.Now()),
	}
}

var _ FlightUseCase = (*FlightService)(nil)
