package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pvolkov-dev/skyfare/api"
	"github.com/pvolkov-dev/skyfare/config"
	"github.com/pvolkov-dev/skyfare/internal/service/booking"
	"github.com/pvolkov-dev/skyfare/internal/service/flights"
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, settler api.Settler) error {
	router := NewRouter(flightSvc, bookingSvc, settler)
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// NewRouter wires the handlers onto a gin engine; split out so tests can
// drive the full route table without a listener.
func NewRouter(flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, settler api.Settler) *gin.Engine {
	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "flight booking simulator running"})
	})

	flightHandler := api.NewFlightHandler(flightSvc)
	flightHandler.Register(router.Group("/flights"))
	flightHandler.RegisterRoot(router.Group("/"))

	bookingHandler := api.NewBookingHandler(bookingSvc, settler)
	bookingHandler.Register(router.Group("/bookings"))

	return router
}
