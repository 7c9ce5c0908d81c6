package pricing

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Fare model factors. Occupancy, urgency and cabin tier push the multiplier
// up deterministically; demand and volatility are drawn per quote.
const (
	seatFactorWeight   = 0.25
	urgentWindow       = 24 * time.Hour
	urgentTimeFactor   = 0.4
	relaxedTimeFactor  = 0.2
	demandFactorWeight = 0.3

	premiumTierFareCents = 8000_00
	midTierFareCents     = 5000_00
	premiumTierFactor    = 0.15
	midTierFactor        = 0.08
	baseTierFactor       = 0.03

	volatilityMin = -0.02
	volatilityMax = 0.05
)

// Engine computes display and booking quotes. It holds no flight state;
// the rng is the only mutable part and is guarded because quotes are
// requested from concurrent handlers.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Quote prices one seat at the given occupancy and lead time. Two calls with
// identical inputs may differ: the demand and volatility draws are fresh each
// time. The result is rounded to whole cents and under normal inputs is at
// least the base fare.
func (e *Engine) Quote(baseFareCents int64, totalSeats, seatsAvailable int, departure, now time.Time) int64 {
	occupancy := float64(totalSeats-seatsAvailable) / float64(totalSeats)
	seatFactor := seatFactorWeight * occupancy

	hours := departure.Sub(now).Hours()
	if hours <= 0 {
		hours = 1
	}
	timeFactor := urgentTimeFactor
	if hours > urgentWindow.Hours() {
		timeFactor = math.Min(relaxedTimeFactor, relaxedTimeFactor*(urgentWindow.Hours()/hours))
	}

	tierFactor := baseTierFactor
	switch {
	case baseFareCents >= premiumTierFareCents:
		tierFactor = premiumTierFactor
	case baseFareCents >= midTierFareCents:
		tierFactor = midTierFactor
	}

	e.mu.Lock()
	demandFactor := demandFactorWeight * e.rng.Float64()
	volatility := volatilityMin + (volatilityMax-volatilityMin)*e.rng.Float64()
	e.mu.Unlock()

	multiplier := 1 + seatFactor + timeFactor + demandFactor + tierFactor + volatility
	return int64(math.Round(float64(baseFareCents) * multiplier))
}
