package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/kafka"
	"github.com/pvolkov-dev/skyfare/internal/pnr"
	"github.com/pvolkov-dev/skyfare/internal/repository"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.Booking, error)
	Cancel(ctx context.Context, code string) (*domain.Booking, error)
	GetByCode(ctx context.Context, code string) (*domain.BookingDetails, error)
	List(ctx context.Context) ([]domain.BookingDetails, error)
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Quoter prices one seat; the booking workflow always calls it inside the
// flight's exclusive section, on the post-reservation availability.
type Quoter interface {
	Quote(baseFareCents int64, totalSeats, seatsAvailable int, departure, now time.Time) int64
}

// CodeIssuer issues a reservation code unique against the probe.
type CodeIssuer interface {
	IssueUnique(ctx context.Context, exists pnr.ExistsFunc) (string, error)
}

type BookingService struct {
	store              repository.Store
	quoter             Quoter
	codes              CodeIssuer
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
}

type PassengerInput struct {
	FullName  string `json:"full_name"`
	ContactNo string `json:"contact_no"`
	Email     string `json:"email"`
	City      string `json:"city"`
}

type BookInput struct {
	FlightID  int64          `json:"flight_id"`
	Passenger PassengerInput `json:"passenger"`
	SeatNo    string         `json:"seat_no"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	store repository.Store,
	quoter Quoter,
	codes CodeIssuer,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		quoter:       quoter,
		codes:        codes,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book runs the all-or-nothing booking transaction: inside the flight's
// exclusive section it re-checks availability, persists the passenger,
// reserves the seat, prices the post-reservation snapshot, issues a unique
// reservation code and creates the booking with its pending payment. Any
// failure rolls the whole unit back, leaving inventory untouched.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.Booking, error) {
	fullName := strings.TrimSpace(input.Passenger.FullName)
	if fullName == "" {
		return nil, domain.Validationf("passenger full name is required")
	}
	if input.Passenger.Email != "" && !strings.Contains(input.Passenger.Email, "@") {
		return nil, domain.Validationf("passenger email is invalid")
	}

	var booked *domain.Booking
	err := s.store.WithFlight(ctx, input.FlightID, func(ctx context.Context, tx repository.FlightTx) error {
		flight := tx.Flight()
		if flight.AvailableSeats <= 0 {
			return domain.ErrNoSeats
		}

		passenger := &domain.Passenger{
			FullName:  fullName,
			ContactNo: input.Passenger.ContactNo,
			Email:     input.Passenger.Email,
			City:      input.Passenger.City,
		}
		if err := tx.InsertPassenger(ctx, passenger); err != nil {
			return fmt.Errorf("insert passenger: %w", err)
		}

		available, err := tx.ReserveSeat(ctx)
		if err != nil {
			return err
		}

		price := s.quoter.Quote(flight.BaseFareCents, flight.TotalSeats, available, flight.DepartureTime, time.Now())

		code, err := s.codes.IssueUnique(ctx, tx.CodeExists)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			FlightID:    flight.ID,
			PassengerID: passenger.ID,
			SeatNo:      input.SeatNo,
			Code:        code,
			Status:      domain.BookingStatusConfirmed,
			PriceCents:  price,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		payment := &domain.Payment{
			BookingID:   b.ID,
			AmountCents: price,
			Status:      domain.PaymentStatusPending,
			ProviderRef: uuid.NewString(),
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		booked = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateFlights(ctx)
	s.publish(ctx, kafka.EventBookingCreated, booked, input.Passenger.Email, domain.PaymentStatusPending)
	return booked, nil
}

// Cancel reverses a confirmed booking: status flip, seat release and payment
// cancellation commit together. Cancelling twice is a conflict, not a no-op.
func (s *BookingService) Cancel(ctx context.Context, code string) (*domain.Booking, error) {
	current, err := s.store.Bookings().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	var updated *domain.Booking
	err = s.store.WithFlight(ctx, current.FlightID, func(ctx context.Context, tx repository.FlightTx) error {
		// Re-read under the flight lock so two racing cancels cannot both
		// release the seat.
		b, err := tx.BookingByCode(ctx, code)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingStatusCancelled {
			return domain.ErrAlreadyCancelled
		}

		if err := tx.UpdateBookingStatus(ctx, b.ID, domain.BookingStatusCancelled); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if _, err := tx.ReleaseSeat(ctx); err != nil {
			return fmt.Errorf("release seat: %w", err)
		}
		if err := tx.UpdatePaymentStatus(ctx, b.ID, domain.PaymentStatusCancelled); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}

		b.Status = domain.BookingStatusCancelled
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateFlights(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, updated, "", domain.PaymentStatusCancelled)
	return updated, nil
}

func (s *BookingService) GetByCode(ctx context.Context, code string) (*domain.BookingDetails, error) {
	return s.store.Bookings().DetailsByCode(ctx, code)
}

func (s *BookingService) List(ctx context.Context) ([]domain.BookingDetails, error) {
	return s.store.Bookings().ListDetails(ctx)
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		log.Printf("WARNING: failed to invalidate flights cache: %v", err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, email string, payment domain.PaymentStatus) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		Code:          b.Code,
		FlightID:      b.FlightID,
		SeatNo:        b.SeatNo,
		Email:         email,
		BookingStatus: string(b.Status),
		PaymentStatus: string(payment),
		PriceCents:    b.PriceCents,
		OccurredAt:    time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Code, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, b.Code, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Code, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for booking %s: %v", eventType, b.Code, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
