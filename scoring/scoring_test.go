package scoring_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastechain/green-ledger/scoring"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// INITIAL POINTS
// =============================================================================

func TestInitialPoints(t *testing.T) {
	tests := []struct {
		name       string
		category   waste.Category
		confidence float64
		want       int
	}{
		{"hazardous at full confidence", waste.CategoryHazardous, 1.0, 30},
		{"organic at floor confidence", waste.CategoryOrganic, 0.6, 6},
		{"plastic at 0.8", waste.CategoryPlastic, 0.8, 12},
		{"paper rounds half up", waste.CategoryPaper, 0.875, 11}, // 10.5 -> 11
		{"electronic at 0.72", waste.CategoryElectronic, 0.72, 18},
		{"glass at floor", waste.CategoryGlass, 0.6, 9},
		{"textile at 0.9", waste.CategoryTextile, 0.9, 16}, // 16.2 -> 16
		{"metal at 0.95", waste.CategoryMetal, 0.95, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scoring.InitialPoints(tt.category, tt.confidence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitialPoints_UnknownCategory(t *testing.T) {
	_, err := scoring.InitialPoints(waste.Category("styrofoam"), 0.8)
	assert.Error(t, err)
}

func TestInitialPoints_ClampedToBase(t *testing.T) {
	// Confidence above 1.0 should never pay more than the base points.
	got, err := scoring.InitialPoints(waste.CategoryOrganic, 1.4)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	// Negative confidence should never pay negative points.
	got, err = scoring.InitialPoints(waste.CategoryOrganic, -0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

// =============================================================================
// WEIGHT BONUS
// =============================================================================

func TestWeightBonus(t *testing.T) {
	tests := []struct {
		kg   string
		want int
	}{
		{"12.3", 25}, // round(24.6)
		{"0", 0},
		{"20", 40},
		{"0.2", 0},  // round(0.4)
		{"0.25", 1}, // round(0.5) half away from zero
		{"-3", 0},   // bad input pays nothing
	}

	for _, tt := range tests {
		t.Run(tt.kg+"kg", func(t *testing.T) {
			kg, err := decimal.NewFromString(tt.kg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, scoring.WeightBonus(kg))
		})
	}
}

// =============================================================================
// BADGE BONUS & ORACLES
// =============================================================================

func TestBadgeBonus(t *testing.T) {
	assert.Equal(t, 50, scoring.BadgeBonus())
}

func TestRandomOracle_StaysInRange(t *testing.T) {
	oracle := scoring.NewRandomOracle(42)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		score, err := oracle.Score(ctx, &waste.Pickup{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.6)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestFixedOracle(t *testing.T) {
	oracle := scoring.FixedOracle{Confidence: 0.8}
	score, err := oracle.Score(context.Background(), &waste.Pickup{})
	require.NoError(t, err)
	assert.Equal(t, 0.8, score)
}
