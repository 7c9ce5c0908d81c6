package domain

import "time"

type Flight struct {
	ID             int64
	FlightNo       string
	Airline        string
	Origin         string
	Destination    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	TotalSeats     int
	AvailableSeats int
	BaseFareCents  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Duration is the scheduled time in the air, used by duration-sorted listings.
func (f *Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}
