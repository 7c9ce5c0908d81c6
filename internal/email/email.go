package email

import (
	"context"
	"fmt"

	"github.com/pvolkov-dev/skyfare/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// Send prints the receipt instead of talking to a mail provider.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	fmt.Printf("send email to %s: %s, reservation %s flight %s seat %s, payment %s, amount %.2f\n",
		event.Email, event.Type, event.Code, event.FlightNo, event.SeatNo, event.PaymentStatus, float64(event.PriceCents)/100)
	return nil
}
