package vitality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/civicpulse/internal/domain"
)

func TestTierForThresholds(t *testing.T) {
	thresholds := DefaultThresholds()

	cases := []struct {
		support float64
		want    domain.EscalationTier
	}{
		{0, domain.TierNone},
		{9.99, domain.TierNone},
		{10, domain.TierLocal},
		{10.5, domain.TierLocal},
		{24.99, domain.TierLocal},
		{25, domain.TierState},
		{26, domain.TierState},
		{49.99, domain.TierState},
		{50, domain.TierNational},
		{120, domain.TierNational},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, thresholds.TierFor(tc.support), "support %.2f", tc.support)
	}
}

func TestShouldFireOnlyUpward(t *testing.T) {
	assert.True(t, ShouldFire(domain.TierNone, domain.TierLocal))
	assert.True(t, ShouldFire(domain.TierLocal, domain.TierNational))

	// equal or lower candidates never fire, including after support drops
	assert.False(t, ShouldFire(domain.TierState, domain.TierState))
	assert.False(t, ShouldFire(domain.TierState, domain.TierLocal))
	assert.False(t, ShouldFire(domain.TierNational, domain.TierNone))
}

func TestTierRankTotalOrder(t *testing.T) {
	order := []domain.EscalationTier{domain.TierNone, domain.TierLocal, domain.TierState, domain.TierNational}
	for i := 1; i < len(order); i++ {
		assert.True(t, order[i].Above(order[i-1]))
		assert.False(t, order[i-1].Above(order[i]))
	}
}
