package pnr

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pvolkov-dev/skyfare/internal/domain"
)

const (
	alphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	defaultAttempts = 5
)

// ExistsFunc reports whether a code is already taken. During a booking it
// runs inside the booking transaction so the check and the insert see the
// same state.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator issues fixed-length alphanumeric reservation codes.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	attempts int
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng, attempts: defaultAttempts}
}

func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(buf)
}

// IssueUnique generates codes until one passes the uniqueness probe, up to
// the attempt budget. Exhaustion returns ErrCodesExhausted and the caller
// must abort its transaction.
func (g *Generator) IssueUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code := g.Generate()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", domain.ErrCodesExhausted
}
