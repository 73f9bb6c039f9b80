package models

import "time"

// Celebration event kinds.
const (
	CelebrationPointsAwarded = "points_awarded"
	CelebrationBadgeUnlocked = "badge_unlocked"
	CelebrationLevelUp       = "level_up"
)

// CelebrationEvent is a durable UI trigger ("points awarded", "badge unlocked",
// "level up") streamed to the client over SSE. DedupKey carries a unique
// constraint so a retried aggregator call cannot enqueue the same badge or
// level celebration twice.
type CelebrationEvent struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID  string `gorm:"index;not null" json:"owner_id"`
	Kind     string `gorm:"not null" json:"kind"`
	DedupKey string `gorm:"uniqueIndex;not null" json:"-"`

	// Minimal render payload per kind
	Points      int64  `json:"points,omitempty"`       // points_awarded
	ActionLabel string `json:"action_label,omitempty"` // points_awarded
	BadgeCode   string `json:"badge_code,omitempty"`   // badge_unlocked
	BadgeName   string `json:"badge_name,omitempty"`   // badge_unlocked
	BadgeIcon   string `json:"badge_icon,omitempty"`   // badge_unlocked
	NewLevel    int    `json:"new_level,omitempty"`    // level_up

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
