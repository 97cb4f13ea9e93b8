package waste_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// STATE MACHINE TESTS
// =============================================================================

func TestCanTransition_ForwardChain(t *testing.T) {
	chain := []waste.Status{
		waste.StatusPending,
		waste.StatusAssigned,
		waste.StatusInProgress,
		waste.StatusCollected,
		waste.StatusProcessed,
		waste.StatusCompleted,
	}

	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, waste.CanTransition(chain[i], chain[i+1]),
			"%s -> %s should be allowed", chain[i], chain[i+1])
	}
}

func TestCanTransition_NoSkipping(t *testing.T) {
	// GIVEN: a pickup still pending
	// WHEN: jumping straight to completed
	// THEN: transition is rejected

	assert.False(t, waste.CanTransition(waste.StatusPending, waste.StatusCompleted))
	assert.False(t, waste.CanTransition(waste.StatusAssigned, waste.StatusCollected))
}

func TestCanTransition_NoBackwards(t *testing.T) {
	assert.False(t, waste.CanTransition(waste.StatusCollected, waste.StatusInProgress))
	assert.False(t, waste.CanTransition(waste.StatusCompleted, waste.StatusProcessed))
}

func TestCanTransition_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []waste.Status{
		waste.StatusPending,
		waste.StatusAssigned,
		waste.StatusInProgress,
		waste.StatusCollected,
		waste.StatusProcessed,
	} {
		assert.True(t, waste.CanTransition(from, waste.StatusCancelled),
			"%s -> cancelled should be allowed", from)
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, to := range []waste.Status{
		waste.StatusPending, waste.StatusAssigned, waste.StatusCancelled,
	} {
		assert.False(t, waste.CanTransition(waste.StatusCompleted, to))
		assert.False(t, waste.CanTransition(waste.StatusCancelled, to))
	}
}

func TestStatus_WeighedAt(t *testing.T) {
	assert.False(t, waste.StatusPending.WeighedAt())
	assert.False(t, waste.StatusInProgress.WeighedAt())
	assert.True(t, waste.StatusCollected.WeighedAt())
	assert.True(t, waste.StatusProcessed.WeighedAt())
	assert.True(t, waste.StatusCompleted.WeighedAt())
	assert.False(t, waste.StatusCancelled.WeighedAt())
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range waste.Categories {
		assert.True(t, c.Valid())
	}
	assert.False(t, waste.Category("uranium").Valid())
	assert.False(t, waste.Category("").Valid())
}
