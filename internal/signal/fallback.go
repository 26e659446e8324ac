package signal

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"otc-signal/internal/domain"
)

const (
	fallbackMinConfidence = 70.0
	fallbackMaxConfidence = 95.0
)

// FallbackGenerator produces a simulated decision when indicators cannot be
// computed. It is safe for concurrent use.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator uses src for every draw. A nil src is seeded from the clock.
func NewFallbackGenerator(src rand.Source) *FallbackGenerator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &FallbackGenerator{rng: rand.New(src)}
}

func NewSeededFallback(seed int64) *FallbackGenerator {
	return NewFallbackGenerator(rand.NewSource(seed))
}

// Draw returns a random Up/Down direction and a confidence in [70, 95]
// rounded to two decimals.
func (g *FallbackGenerator) Draw() (domain.Direction, float64) {
	g.mu.Lock()
	up := g.rng.Intn(2) == 0
	u := g.rng.Float64()
	g.mu.Unlock()

	direction := domain.DirectionDown
	if up {
		direction = domain.DirectionUp
	}
	confidence := fallbackMinConfidence + u*(fallbackMaxConfidence-fallbackMinConfidence)
	return direction, math.Round(confidence*100) / 100
}
