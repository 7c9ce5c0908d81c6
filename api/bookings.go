package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/service/booking"
)

// Settler resolves a booking's payment; backed by the payment simulator.
type Settler interface {
	Settle(ctx context.Context, code string) (*domain.Payment, error)
}

type BookingHandler struct {
	service booking.BookingUseCase
	settler Settler
}

type createBookingRequest struct {
	FlightID  int64 `json:"flight_id"`
	Passenger struct {
		FullName  string `json:"full_name"`
		ContactNo string `json:"contact_no"`
		Email     string `json:"email"`
		City      string `json:"city"`
	} `json:"passenger"`
	SeatNo string `json:"seat_no"`
}

type bookingResponse struct {
	Code     string  `json:"code"`
	Status   string  `json:"status"`
	FlightID int64   `json:"flight_id"`
	SeatNo   string  `json:"seat_no"`
	Price    float64 `json:"price"`
}

type receiptResponse struct {
	Code          string  `json:"code"`
	Status        string  `json:"status"`
	FlightNo      string  `json:"flight_no"`
	Airline       string  `json:"airline_name"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Departure     string  `json:"departure"`
	Arrival       string  `json:"arrival"`
	SeatNo        string  `json:"seat_no"`
	FullName      string  `json:"full_name"`
	ContactNo     string  `json:"contact_no"`
	Email         string  `json:"email"`
	City          string  `json:"city"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
}

type paymentResponse struct {
	Code      string  `json:"code"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	SettledAt string  `json:"settled_at,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase, settler Settler) *BookingHandler {
	return &BookingHandler{service: service, settler: settler}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:code", h.get)
	router.DELETE("/:code", h.cancel)
	router.POST("/:code/pay", h.pay)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booked, err := h.service.Book(c.Request.Context(), booking.BookInput{
		FlightID: req.FlightID,
		Passenger: booking.PassengerInput{
			FullName:  req.Passenger.FullName,
			ContactNo: req.Passenger.ContactNo,
			Email:     req.Passenger.Email,
			City:      req.Passenger.City,
		},
		SeatNo: req.SeatNo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booked))
}

func (h *BookingHandler) list(c *gin.Context) {
	details, err := h.service.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	receipts := make([]receiptResponse, 0, len(details))
	for _, d := range details {
		receipts = append(receipts, toReceiptResponse(&d))
	}
	c.JSON(http.StatusOK, receipts)
}

func (h *BookingHandler) get(c *gin.Context) {
	details, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptResponse(details))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.Cancel(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func (h *BookingHandler) pay(c *gin.Context) {
	code := c.Param("code")
	payment, err := h.settler.Settle(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return
	}

	resp := paymentResponse{
		Code:   code,
		Status: string(payment.Status),
		Amount: centsToAmount(payment.AmountCents),
	}
	if payment.SettledAt != nil {
		resp.SettledAt = payment.SettledAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Code:     b.Code,
		Status:   string(b.Status),
		FlightID: b.FlightID,
		SeatNo:   b.SeatNo,
		Price:    centsToAmount(b.PriceCents),
	}
}

func toReceiptResponse(d *domain.BookingDetails) receiptResponse {
	return receiptResponse{
		Code:          d.Booking.Code,
		Status:        string(d.Booking.Status),
		FlightNo:      d.Flight.FlightNo,
		Airline:       d.Flight.Airline,
		Origin:        d.Flight.Origin,
		Destination:   d.Flight.Destination,
		Departure:     d.Flight.DepartureTime.Format(time.RFC3339),
		Arrival:       d.Flight.ArrivalTime.Format(time.RFC3339),
		SeatNo:        d.Booking.SeatNo,
		FullName:      d.Passenger.FullName,
		ContactNo:     d.Passenger.ContactNo,
		Email:         d.Passenger.Email,
		City:          d.Passenger.City,
		Amount:        centsToAmount(d.Payment.AmountCents),
		PaymentStatus: string(d.Payment.Status),
	}
}
