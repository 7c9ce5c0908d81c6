package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pvolkov-dev/skyfare/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightResponse struct {
	FlightID       int64   `json:"flight_id"`
	FlightNo       string  `json:"flight_no"`
	Airline        string  `json:"airline_name"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Departure      string  `json:"departure"`
	Arrival        string  `json:"arrival"`
	BaseFare       float64 `json:"base_fare"`
	DynamicPrice   float64 `json:"dynamic_price"`
	TotalSeats     int     `json:"total_seats"`
	SeatsAvailable int     `json:"seats_available"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

// RegisterRoot mounts the endpoints that live outside the /flights group.
func (h *FlightHandler) RegisterRoot(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.GET("/external/schedule", h.externalSchedule)
}

func (h *FlightHandler) list(c *gin.Context) {
	sortBy := c.Query("sort_by")
	if sortBy != "" && sortBy != flights.SortByPrice && sortBy != flights.SortByDuration {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort_by must be price or duration"})
		return
	}

	quotes, err := h.service.List(c.Request.Context(), sortBy)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponses(quotes))
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	quote, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*quote))
}

func (h *FlightHandler) search(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	quotes, err := h.service.Search(c.Request.Context(), origin, destination, date)
	if err != nil {
		fail(c, err)
		return
	}
	if len(quotes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no flights found"})
		return
	}
	c.JSON(http.StatusOK, toFlightResponses(quotes))
}

func (h *FlightHandler) externalSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"external_flights": h.service.ExternalSchedule()})
}

func toFlightResponses(quotes []flights.FlightQuote) []flightResponse {
	out := make([]flightResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, toFlightResponse(q))
	}
	return out
}

func toFlightResponse(q flights.FlightQuote) flightResponse {
	return flightResponse{
		FlightID:       q.ID,
		FlightNo:       q.FlightNo,
		Airline:        q.Airline,
		Origin:         q.Origin,
		Destination:    q.Destination,
		Departure:      q.DepartureTime.Format(time.RFC3339),
		Arrival:        q.ArrivalTime.Format(time.RFC3339),
		BaseFare:       centsToAmount(q.BaseFareCents),
		DynamicPrice:   centsToAmount(q.DynamicPriceCents),
		TotalSeats:     q.TotalSeats,
		SeatsAvailable: q.AvailableSeats,
	}
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}
