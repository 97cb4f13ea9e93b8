/*
oracle.go - Verification confidence source

PURPOSE:
  The real system runs uploaded pickup photos through an external AI
  verification service and gets back a confidence score. That service is
  out of scope here, so the engine accepts any Oracle implementation.

  RandomOracle stands in for the external call: it draws uniformly from
  [0.6, 1.0], matching the stub the production deployment shipped with.
  Tests use FixedOracle so the scoring path stays deterministic.
*/
package scoring

import (
	"context"
	"math/rand"
	"sync"

	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// ORACLE INTERFACE
// =============================================================================

// Oracle produces a verification confidence in [0, 1] for a new pickup.
type Oracle interface {
	Score(ctx context.Context, pickup *waste.Pickup) (float64, error)
}

// =============================================================================
// RANDOM ORACLE - External-AI stand-in
// =============================================================================

// RandomOracle draws a confidence uniformly from [0.6, 1.0].
type RandomOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOracle creates a RandomOracle with the given seed source.
func NewRandomOracle(seed int64) *RandomOracle {
	return &RandomOracle{rng: rand.New(rand.NewSource(seed))}
}

func (o *RandomOracle) Score(_ context.Context, _ *waste.Pickup) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return 0.6 + o.rng.Float64()*0.4, nil
}

// =============================================================================
// FIXED ORACLE - Deterministic, for tests
// =============================================================================

// FixedOracle always returns the same confidence.
type FixedOracle struct {
	Confidence float64
}

func (o FixedOracle) Score(_ context.Context, _ *waste.Pickup) (float64, error) {
	return o.Confidence, nil
}

var (
	_ Oracle = (*RandomOracle)(nil)
	_ Oracle = FixedOracle{}
)
