package market

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFlights(store *repository.MemStore, n int) []int64 {
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, store.AddFlight(domain.Flight{
			FlightNo:       "SF40" + string(rune('0'+i)),
			Airline:        "Skyfare",
			Origin:         "Delhi",
			Destination:    "Mumbai",
			DepartureTime:  time.Now().Add(48 * time.Hour),
			ArrivalTime:    time.Now().Add(50 * time.Hour),
			TotalSeats:     10,
			AvailableSeats: 5,
			BaseFareCents:  4000_00,
		}))
	}
	return ids
}

func TestSimulator_Tick_HoldsInvariant(t *testing.T) {
	store := repository.NewMemStore(time.Second)
	ids := seedFlights(store, 4)

	sim := NewSimulator(store, nil, time.Minute, 3, rand.New(rand.NewSource(1)))
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, sim.Tick(ctx))
		for _, id := range ids {
			f, err := store.Flights().GetByID(ctx, id)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, f.AvailableSeats, 0)
			assert.LessOrEqual(t, f.AvailableSeats, f.TotalSeats)
		}
	}
}

func TestSimulator_Tick_BoundedStep(t *testing.T) {
	store := repository.NewMemStore(time.Second)
	ids := seedFlights(store, 1)

	sim := NewSimulator(store, nil, time.Minute, 3, rand.New(rand.NewSource(2)))
	ctx := context.Background()

	before, _ := store.Flights().GetByID(ctx, ids[0])
	require.NoError(t, sim.Tick(ctx))
	after, _ := store.Flights().GetByID(ctx, ids[0])

	diff := after.AvailableSeats - before.AvailableSeats
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 3)
}

func TestSimulator_Run_Cancellable(t *testing.T) {
	store := repository.NewMemStore(time.Second)
	seedFlights(store, 1)

	sim := NewSimulator(store, nil, 10*time.Millisecond, 3, rand.New(rand.NewSource(3)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop after cancellation")
	}
}

func TestSimulator_ConcurrentWithBookingTraffic(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	ids := seedFlights(store, 1)
	id := ids[0]

	sim := NewSimulator(store, nil, time.Minute, 3, rand.New(rand.NewSource(4)))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = sim.Tick(ctx)
		}
	}()

	// Reservations and releases racing the market ticks.
	for i := 0; i < 50; i++ {
		_ = store.WithFlight(ctx, id, func(ctx context.Context, tx repository.FlightTx) error {
			if i%2 == 0 {
				_, err := tx.ReserveSeat(ctx)
				if errors.Is(err, domain.ErrNoSeats) {
					return nil
				}
				return err
			}
			_, err := tx.ReleaseSeat(ctx)
			return err
		})
	}
	<-done

	f, err := store.Flights().GetByID(ctx, id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.AvailableSeats, 0)
	assert.LessOrEqual(t, f.AvailableSeats, f.TotalSeats)
}
