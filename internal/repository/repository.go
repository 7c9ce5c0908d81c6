package repository

import (
	"context"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

type BookingRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
	DetailsByCode(ctx context.Context, code string) (*domain.BookingDetails, error)
	ListDetails(ctx context.Context) ([]domain.BookingDetails, error)
}

type PaymentRepository interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus, settledAt *time.Time) (*domain.Payment, error)
}

// FlightTx is the view inside an exclusive per-flight section. Everything it
// stages commits together or not at all.
type FlightTx interface {
	// Flight returns the row-locked flight, reflecting mutations staged so
	// far in this transaction.
	Flight() *domain.Flight

	// ReserveSeat decrements availability, failing with ErrNoSeats at zero.
	ReserveSeat(ctx context.Context) (int, error)
	// ReleaseSeat increments availability, clamped at total capacity.
	ReleaseSeat(ctx context.Context) (int, error)
	// PerturbSeats applies a market delta, clamped to [0, total].
	PerturbSeats(ctx context.Context, delta int) (int, error)

	InsertPassenger(ctx context.Context, p *domain.Passenger) error
	InsertBooking(ctx context.Context, b *domain.Booking) error
	InsertPayment(ctx context.Context, p *domain.Payment) error

	BookingByCode(ctx context.Context, code string) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, bookingID int64, status domain.PaymentStatus) error

	CodeExists(ctx context.Context, code string) (bool, error)
}

// Store is the persistence seam injected into the workflows. WithFlight runs
// fn holding the flight's row lock; the lock wait is bounded and exceeding it
// surfaces ErrLockTimeout. A nil return from fn commits, any error rolls
// back every staged write.
type Store interface {
	Flights() FlightRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
	WithFlight(ctx context.Context, flightID int64, fn func(ctx context.Context, tx FlightTx) error) error
}
