package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the payment has reached a state settlement
// must not overwrite.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

type Payment struct {
	ID          int64
	BookingID   int64
	AmountCents int64
	Status      PaymentStatus
	ProviderRef string
	SettledAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
