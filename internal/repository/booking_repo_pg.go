package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pvolkov-dev/skyfare/internal/domain"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, flight_id, passenger_id, seat_no, code, status, price_cents, created_at, updated_at FROM bookings WHERE code=$1`, code)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.PassengerID, &b.SeatNo, &b.Code, &b.Status, &b.PriceCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

const detailsQuery = `
	SELECT b.id, b.flight_id, b.passenger_id, b.seat_no, b.code, b.status, b.price_cents, b.created_at, b.updated_at,
	       f.id, f.flight_no, f.airline, f.origin, f.destination, f.departure_time, f.arrival_time, f.total_seats, f.available_seats, f.base_fare_cents, f.created_at, f.updated_at,
	       p.id, p.full_name, p.contact_no, p.email, p.city, p.created_at,
	       pay.id, pay.booking_id, pay.amount_cents, pay.status, pay.provider_ref, pay.settled_at, pay.created_at, pay.updated_at
	FROM bookings b
	JOIN flights f ON f.id = b.flight_id
	JOIN passengers p ON p.id = b.passenger_id
	JOIN payments pay ON pay.booking_id = b.id`

func (r *PGBookingRepository) DetailsByCode(ctx context.Context, code string) (*domain.BookingDetails, error) {
	row := r.db.QueryRow(ctx, detailsQuery+` WHERE b.code=$1`, code)
	var d domain.BookingDetails
	if err := scanDetails(row, &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PGBookingRepository) ListDetails(ctx context.Context) ([]domain.BookingDetails, error) {
	rows, err := r.db.Query(ctx, detailsQuery+` ORDER BY b.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.BookingDetails, 0)
	for rows.Next() {
		var d domain.BookingDetails
		if err := scanDetails(rows, &d); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanDetails(row pgx.Row, d *domain.BookingDetails) error {
	b, f, p, pay := &d.Booking, &d.Flight, &d.Passenger, &d.Payment
	return row.Scan(
		&b.ID, &b.FlightID, &b.PassengerID, &b.SeatNo, &b.Code, &b.Status, &b.PriceCents, &b.CreatedAt, &b.UpdatedAt,
		&f.ID, &f.FlightNo, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.BaseFareCents, &f.CreatedAt, &f.UpdatedAt,
		&p.ID, &p.FullName, &p.ContactNo, &p.Email, &p.City, &p.CreatedAt,
		&pay.ID, &pay.BookingID, &pay.AmountCents, &pay.Status, &pay.ProviderRef, &pay.SettledAt, &pay.CreatedAt, &pay.UpdatedAt,
	)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
