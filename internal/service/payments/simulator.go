package payments

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/kafka"
	"github.com/pvolkov-dev/skyfare/internal/repository"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Simulator resolves pending payments to a terminal outcome with a weighted
// random draw, standing in for a payment gateway. Settlement is
// fire-and-resolve: once initiated it is not cancellable, and a failed
// payment does not release the reserved seat.
type Simulator struct {
	store       repository.Store
	producer    Producer
	topic       string
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(store repository.Store, producer Producer, topic string, successRate float64, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		store:       store,
		producer:    producer,
		topic:       topic,
		successRate: successRate,
		rng:         rng,
	}
}

// Settle resolves the payment behind the booking code. Terminal states are
// sticky: settling an already-settled or cancelled payment returns the
// record unchanged rather than re-drawing the outcome.
func (s *Simulator) Settle(ctx context.Context, code string) (*domain.Payment, error) {
	details, err := s.store.Bookings().DetailsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	payment := details.Payment
	if payment.Status.Terminal() {
		return &payment, nil
	}

	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	status := domain.PaymentStatusFailed
	if draw < s.successRate {
		status = domain.PaymentStatusSuccess
	}

	now := time.Now()
	updated, err := s.store.Payments().UpdateStatus(ctx, payment.ID, status, &now)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, details, updated)
	return updated, nil
}

func (s *Simulator) publish(ctx context.Context, details *domain.BookingDetails, payment *domain.Payment) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          kafka.EventPaymentSettled,
		Code:          details.Booking.Code,
		FlightID:      details.Flight.ID,
		FlightNo:      details.Flight.FlightNo,
		SeatNo:        details.Booking.SeatNo,
		Email:         details.Passenger.Email,
		BookingStatus: string(details.Booking.Status),
		PaymentStatus: string(payment.Status),
		PriceCents:    payment.AmountCents,
		OccurredAt:    time.Now(),
	}
	if err := s.producer.Publish(ctx, s.topic, details.Booking.Code, event); err != nil {
		log.Printf("WARNING: failed to publish settlement event for booking %s: %v", details.Booking.Code, err)
	}
}
