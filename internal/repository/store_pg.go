package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pvolkov-dev/skyfare/internal/domain"
)

// pgLockNotAvailable is raised when lock_timeout expires while waiting on
// the FOR UPDATE row lock.
const pgLockNotAvailable = "55P03"

type PGStore struct {
	db       *pgxpool.Pool
	lockWait time.Duration
	flights  *PGFlightRepository
	bookings *PGBookingRepository
	payments *PGPaymentRepository
}

func NewPGStore(db *pgxpool.Pool, lockWait time.Duration) *PGStore {
	return &PGStore{
		db:       db,
		lockWait: lockWait,
		flights:  &PGFlightRepository{db: db},
		bookings: &PGBookingRepository{db: db},
		payments: &PGPaymentRepository{db: db},
	}
}

func (s *PGStore) Flights() FlightRepository   { return s.flights }
func (s *PGStore) Bookings() BookingRepository { return s.bookings }
func (s *PGStore) Payments() PaymentRepository { return s.payments }

func (s *PGStore) WithFlight(ctx context.Context, flightID int64, fn func(ctx context.Context, tx FlightTx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if s.lockWait > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockWait.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `SELECT id, flight_no, airline, origin, destination, departure_time, arrival_time, total_seats, available_seats, base_fare_cents, created_at, updated_at FROM flights WHERE id=$1 FOR UPDATE`, flightID)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNo, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.BaseFareCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return mapFlightLockErr(err)
	}

	if err := fn(ctx, &pgFlightTx{tx: tx, flight: &f}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapFlightLockErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrFlightNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return domain.ErrLockTimeout
	}
	return err
}

type pgFlightTx struct {
	tx     pgx.Tx
	flight *domain.Flight
}

func (t *pgFlightTx) Flight() *domain.Flight { return t.flight }

func (t *pgFlightTx) ReserveSeat(ctx context.Context) (int, error) {
	var available int
	err := t.tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now() WHERE id=$1 AND available_seats > 0 RETURNING available_seats`, t.flight.ID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return t.flight.AvailableSeats, domain.ErrNoSeats
	}
	if err != nil {
		return 0, err
	}
	t.flight.AvailableSeats = available
	return available, nil
}

func (t *pgFlightTx) ReleaseSeat(ctx context.Context) (int, error) {
	var available int
	err := t.tx.QueryRow(ctx, `UPDATE flights SET available_seats = LEAST(available_seats + 1, total_seats), updated_at = now() WHERE id=$1 RETURNING available_seats`, t.flight.ID).Scan(&available)
	if err != nil {
		return 0, err
	}
	t.flight.AvailableSeats = available
	return available, nil
}

func (t *pgFlightTx) PerturbSeats(ctx context.Context, delta int) (int, error) {
	var available int
	err := t.tx.QueryRow(ctx, `UPDATE flights SET available_seats = GREATEST(0, LEAST(total_seats, available_seats + $2)), updated_at = now() WHERE id=$1 RETURNING available_seats`, t.flight.ID, delta).Scan(&available)
	if err != nil {
		return 0, err
	}
	t.flight.AvailableSeats = available
	return available, nil
}

func (t *pgFlightTx) InsertPassenger(ctx context.Context, p *domain.Passenger) error {
	return t.tx.QueryRow(ctx, `INSERT INTO passengers (full_name, contact_no, email, city)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, p.FullName, p.ContactNo, p.Email, p.City).
		Scan(&p.ID, &p.CreatedAt)
}

func (t *pgFlightTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	return t.tx.QueryRow(ctx, `INSERT INTO bookings (flight_id, passenger_id, seat_no, code, status, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`, b.FlightID, b.PassengerID, b.SeatNo, b.Code, b.Status, b.PriceCents).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (t *pgFlightTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return t.tx.QueryRow(ctx, `INSERT INTO payments (booking_id, amount_cents, status, provider_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, p.BookingID, p.AmountCents, p.Status, p.ProviderRef).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (t *pgFlightTx) BookingByCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := t.tx.QueryRow(ctx, `SELECT id, flight_id, passenger_id, seat_no, code, status, price_cents, created_at, updated_at FROM bookings WHERE code=$1`, code)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.PassengerID, &b.SeatNo, &b.Code, &b.Status, &b.PriceCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (t *pgFlightTx) UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2`, status, bookingID)
	return err
}

func (t *pgFlightTx) UpdatePaymentStatus(ctx context.Context, bookingID int64, status domain.PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE booking_id=$2`, status, bookingID)
	return err
}

func (t *pgFlightTx) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE code=$1)`, code).Scan(&exists)
	return exists, err
}

var _ Store = (*PGStore)(nil)
var _ FlightTx = (*pgFlightTx)(nil)
