package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID          int64
	FlightID    int64
	PassengerID int64
	SeatNo      string
	Code        string
	Status      BookingStatus
	PriceCents  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Passenger struct {
	ID        int64
	FullName  string
	ContactNo string
	Email     string
	City      string
	CreatedAt time.Time
}

// BookingDetails is the receipt projection: booking joined with its flight,
// passenger and payment.
type BookingDetails struct {
	Booking   Booking
	Flight    Flight
	Passenger Passenger
	Payment   Payment
}
