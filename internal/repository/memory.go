package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
)

// MemStore is an in-memory Store with the same transactional contract as the
// Postgres one. Each flight carries its own lock (a 1-slot channel, so the
// wait can be bounded); writes inside WithFlight are staged on a copy and
// applied only when fn returns nil.
type MemStore struct {
	lockWait time.Duration
	seq      int64

	mu               sync.RWMutex
	flights          map[int64]*memFlight
	passengers       map[int64]domain.Passenger
	bookings         map[int64]domain.Booking
	byCode           map[string]int64
	payments         map[int64]domain.Payment
	paymentByBooking map[int64]int64
}

type memFlight struct {
	lock   chan struct{}
	flight domain.Flight
}

func NewMemStore(lockWait time.Duration) *MemStore {
	return &MemStore{
		lockWait:         lockWait,
		flights:          make(map[int64]*memFlight),
		passengers:       make(map[int64]domain.Passenger),
		bookings:         make(map[int64]domain.Booking),
		byCode:           make(map[string]int64),
		payments:         make(map[int64]domain.Payment),
		paymentByBooking: make(map[int64]int64),
	}
}

func (s *MemStore) nextID() int64 { return atomic.AddInt64(&s.seq, 1) }

// AddFlight seeds a flight and returns its id.
func (s *MemStore) AddFlight(f domain.Flight) int64 {
	if f.ID == 0 {
		f.ID = s.nextID()
	}
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.AvailableSeats > f.TotalSeats {
		f.AvailableSeats = f.TotalSeats
	}
	s.mu.Lock()
	s.flights[f.ID] = &memFlight{lock: make(chan struct{}, 1), flight: f}
	s.mu.Unlock()
	return f.ID
}

func (s *MemStore) Flights() FlightRepository   { return s }
func (s *MemStore) Bookings() BookingRepository { return s }
func (s *MemStore) Payments() PaymentRepository { return s }

func (s *MemStore) WithFlight(ctx context.Context, flightID int64, fn func(ctx context.Context, tx FlightTx) error) error {
	s.mu.RLock()
	mf, ok := s.flights[flightID]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrFlightNotFound
	}

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case mf.lock <- struct{}{}:
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-mf.lock }()

	s.mu.RLock()
	staged := mf.flight
	s.mu.RUnlock()

	tx := &memFlightTx{
		store:         s,
		mf:            mf,
		flight:        staged,
		bookingStatus: make(map[int64]domain.BookingStatus),
		paymentStatus: make(map[int64]domain.PaymentStatus),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// --- FlightRepository ---

func (s *MemStore) List(ctx context.Context) ([]domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flights := make([]domain.Flight, 0, len(s.flights))
	for _, mf := range s.flights {
		flights = append(flights, mf.flight)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].DepartureTime.Before(flights[j].DepartureTime) })
	return flights, nil
}

func (s *MemStore) Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Flight, error) {
	all, _ := s.List(ctx)
	matches := make([]domain.Flight, 0)
	for _, f := range all {
		if f.Origin != origin || f.Destination != destination {
			continue
		}
		if date != nil && f.DepartureTime.Format("2006-01-02") != date.Format("2006-01-02") {
			continue
		}
		matches = append(matches, f)
	}
	return matches, nil
}

func (s *MemStore) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mf, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f := mf.flight
	return &f, nil
}

// --- BookingRepository ---

func (s *MemStore) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b := s.bookings[id]
	return &b, nil
}

func (s *MemStore) DetailsByCode(ctx context.Context, code string) (*domain.BookingDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	d := s.detailsLocked(s.bookings[id])
	return &d, nil
}

func (s *MemStore) ListDetails(ctx context.Context) ([]domain.BookingDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	details := make([]domain.BookingDetails, 0, len(s.bookings))
	for _, b := range s.bookings {
		details = append(details, s.detailsLocked(b))
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Booking.ID < details[j].Booking.ID })
	return details, nil
}

func (s *MemStore) detailsLocked(b domain.Booking) domain.BookingDetails {
	d := domain.BookingDetails{Booking: b}
	if mf, ok := s.flights[b.FlightID]; ok {
		d.Flight = mf.flight
	}
	d.Passenger = s.passengers[b.PassengerID]
	if payID, ok := s.paymentByBooking[b.ID]; ok {
		d.Payment = s.payments[payID]
	}
	return d
}

// --- PaymentRepository ---

func (s *MemStore) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.paymentByBooking[bookingID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	p := s.payments[id]
	return &p, nil
}

func (s *MemStore) UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus, settledAt *time.Time) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	p.Status = status
	p.SettledAt = settledAt
	p.UpdatedAt = time.Now()
	s.payments[paymentID] = p
	return &p, nil
}

// --- FlightTx ---

type memFlightTx struct {
	store         *MemStore
	mf            *memFlight
	flight        domain.Flight
	passengers    []*domain.Passenger
	bookings      []*domain.Booking
	payments      []*domain.Payment
	bookingStatus map[int64]domain.BookingStatus
	paymentStatus map[int64]domain.PaymentStatus
}

func (t *memFlightTx) Flight() *domain.Flight { return &t.flight }

func (t *memFlightTx) ReserveSeat(ctx context.Context) (int, error) {
	if t.flight.AvailableSeats <= 0 {
		return t.flight.AvailableSeats, domain.ErrNoSeats
	}
	t.flight.AvailableSeats--
	return t.flight.AvailableSeats, nil
}

func (t *memFlightTx) ReleaseSeat(ctx context.Context) (int, error) {
	if t.flight.AvailableSeats < t.flight.TotalSeats {
		t.flight.AvailableSeats++
	}
	return t.flight.AvailableSeats, nil
}

func (t *memFlightTx) PerturbSeats(ctx context.Context, delta int) (int, error) {
	seats := t.flight.AvailableSeats + delta
	if seats < 0 {
		seats = 0
	}
	if seats > t.flight.TotalSeats {
		seats = t.flight.TotalSeats
	}
	t.flight.AvailableSeats = seats
	return seats, nil
}

func (t *memFlightTx) InsertPassenger(ctx context.Context, p *domain.Passenger) error {
	p.ID = t.store.nextID()
	p.CreatedAt = time.Now()
	t.passengers = append(t.passengers, p)
	return nil
}

func (t *memFlightTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	b.ID = t.store.nextID()
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	t.bookings = append(t.bookings, b)
	return nil
}

func (t *memFlightTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	p.ID = t.store.nextID()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	t.payments = append(t.payments, p)
	return nil
}

func (t *memFlightTx) BookingByCode(ctx context.Context, code string) (*domain.Booking, error) {
	for _, b := range t.bookings {
		if b.Code == code {
			cp := *b
			return &cp, nil
		}
	}
	b, err := t.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if status, ok := t.bookingStatus[b.ID]; ok {
		b.Status = status
	}
	return b, nil
}

func (t *memFlightTx) UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	t.bookingStatus[bookingID] = status
	return nil
}

func (t *memFlightTx) UpdatePaymentStatus(ctx context.Context, bookingID int64, status domain.PaymentStatus) error {
	t.paymentStatus[bookingID] = status
	return nil
}

func (t *memFlightTx) CodeExists(ctx context.Context, code string) (bool, error) {
	for _, b := range t.bookings {
		if b.Code == code {
			return true, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	_, taken := t.store.byCode[code]
	return taken, nil
}

func (t *memFlightTx) commit() {
	s := t.store
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range t.passengers {
		s.passengers[p.ID] = *p
	}
	for _, b := range t.bookings {
		s.bookings[b.ID] = *b
		s.byCode[b.Code] = b.ID
	}
	for _, p := range t.payments {
		s.payments[p.ID] = *p
		s.paymentByBooking[p.BookingID] = p.ID
	}
	for id, status := range t.bookingStatus {
		if b, ok := s.bookings[id]; ok {
			b.Status = status
			b.UpdatedAt = now
			s.bookings[id] = b
		}
	}
	for bookingID, status := range t.paymentStatus {
		if payID, ok := s.paymentByBooking[bookingID]; ok {
			p := s.payments[payID]
			p.Status = status
			p.UpdatedAt = now
			s.payments[payID] = p
		}
	}
	t.flight.UpdatedAt = now
	t.mf.flight = t.flight
}

var _ Store = (*MemStore)(nil)
var _ FlightTx = (*memFlightTx)(nil)
