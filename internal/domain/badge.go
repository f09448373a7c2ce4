package domain

import "time"

// Badge types granted by the portal.
const (
	BadgeVoiceHero = "voice_hero"
)

// UserBadge is granted at most once per (user, badge type) pair.
type UserBadge struct {
	ID          string
	UserID      string
	BadgeType   string
	BadgeName   string
	Description string
	EarnedAt    time.Time
}
