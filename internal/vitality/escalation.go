package vitality

import "github.com/spec-kit/civicpulse/internal/domain"

// Thresholds are the support percentages at which each tier is reached.
// Supplied by configuration; the defaults match the portal's launch policy.
type Thresholds struct {
	Local    float64
	State    float64
	National float64
}

// DefaultThresholds returns the 10/25/50 escalation table.
func DefaultThresholds() Thresholds {
	return Thresholds{Local: 10, State: 25, National: 50}
}

// TierFor returns the highest tier whose threshold the support percentage
// meets. Pure decision function; it knows nothing about the issue's current
// tier.
func (t Thresholds) TierFor(supportPercentage float64) domain.EscalationTier {
	switch {
	case supportPercentage >= t.National:
		return domain.TierNational
	case supportPercentage >= t.State:
		return domain.TierState
	case supportPercentage >= t.Local:
		return domain.TierLocal
	default:
		return domain.TierNone
	}
}

// ShouldFire reports whether moving from current to candidate is a firing
// transition. Tiers only ever move up; a candidate at or below the stored
// tier (including after support has dropped) is an idempotent no-op.
func ShouldFire(current, candidate domain.EscalationTier) bool {
	return candidate.Above(current)
}
