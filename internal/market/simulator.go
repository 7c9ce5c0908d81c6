package market

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
	"github.com/pvolkov-dev/skyfare/internal/repository"
)

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

// Simulator emulates third-party demand by nudging seat availability up or
// down within capacity. It goes through the same per-flight exclusive
// section as real bookings, so the inventory invariant holds no matter how
// ticks interleave with the request path.
type Simulator struct {
	store    repository.Store
	cache    Cache
	interval time.Duration
	maxDelta int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(store repository.Store, cache Cache, interval time.Duration, maxDelta int, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxDelta <= 0 {
		maxDelta = 3
	}
	return &Simulator{
		store:    store,
		cache:    cache,
		interval: interval,
		maxDelta: maxDelta,
		rng:      rng,
	}
}

// Run ticks until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("market tick error: %v", err)
			}
		}
	}
}

// Tick applies one perturbation pass over every flight. Exported so tests
// can step the simulator deterministically.
func (s *Simulator) Tick(ctx context.Context) error {
	flights, err := s.store.Flights().List(ctx)
	if err != nil {
		return err
	}

	touched := false
	for _, f := range flights {
		s.mu.Lock()
		delta := s.rng.Intn(2*s.maxDelta+1) - s.maxDelta
		s.mu.Unlock()
		if delta == 0 {
			continue
		}

		err := s.store.WithFlight(ctx, f.ID, func(ctx context.Context, tx repository.FlightTx) error {
			_, err := tx.PerturbSeats(ctx, delta)
			return err
		})
		if err != nil {
			// A busy flight row just skips this tick; bookings win.
			if errors.Is(err, domain.ErrLockTimeout) {
				continue
			}
			return err
		}
		touched = true
	}

	if touched && s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("WARNING: failed to invalidate flights cache: %v", err)
		}
	}
	return nil
}
