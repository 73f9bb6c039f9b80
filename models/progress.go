package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressRecord tracks gamified progression for each user (one row per user,
// created lazily on first activity).
type ProgressRecord struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID string `gorm:"uniqueIndex;not null" json:"owner_id"` // links to profile service

	// Core progression
	TotalPoints int64 `json:"total_points" gorm:"default:0"`
	Level       int   `json:"level" gorm:"default:1"` // always TotalPoints/500 + 1 after a successful update

	// Daily activity streak
	CurrentStreak  int        `json:"current_streak" gorm:"default:0"`
	LongestStreak  int        `json:"longest_streak" gorm:"default:0"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"` // UTC calendar date, midnight

	// Activity counters (updated directly by recorded activities)
	PlansCompleted       int64 `json:"plans_completed" gorm:"default:0"`
	WorkoutsCompleted    int64 `json:"workouts_completed" gorm:"default:0"`
	MeditationsCompleted int64 `json:"meditations_completed" gorm:"default:0"`
	RecipesCooked        int64 `json:"recipes_cooked" gorm:"default:0"`
	SelfCareCompleted    int64 `json:"self_care_completed" gorm:"default:0"`

	// Social counters (derived from mirrored community collections)
	FriendCount  int64 `json:"friend_count" gorm:"default:0"`
	CommentCount int64 `json:"comment_count" gorm:"default:0"`
	MessageCount int64 `json:"message_count" gorm:"default:0"`
	PhotoCount   int64 `json:"photo_count" gorm:"default:0"`

	// Earned badge codes in award order. Append-only.
	Badges StringList `json:"badges" gorm:"type:jsonb;serializer:json"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	// Optimistic concurrency guard: bumped on every write
	Version int64 `json:"-" gorm:"default:0"`

	Timestamps
}

// StringList is a JSONB-serialized ordered list of strings.
type StringList []string

// Contains reports whether code is already in the list.
func (l StringList) Contains(code string) bool {
	for _, c := range l {
		if c == code {
			return true
		}
	}
	return false
}

// Local counter names. Badge requirements and counter updates address
// ProgressRecord fields through these.
const (
	CounterPlansCompleted       = "plans_completed"
	CounterWorkoutsCompleted    = "workouts_completed"
	CounterMeditationsCompleted = "meditations_completed"
	CounterRecipesCooked        = "recipes_cooked"
	CounterSelfCareCompleted    = "self_care_completed"
	CounterCurrentStreak        = "current_streak"
	CounterLongestStreak        = "longest_streak"
	CounterLevel                = "level"

	CounterFriends  = "friends"
	CounterComments = "comments"
	CounterMessages = "messages"
	CounterPhotos   = "photos"
)

// Counter returns the named counter's value, zero if the name is unknown.
func (p *ProgressRecord) Counter(name string) int64 {
	switch name {
	case CounterPlansCompleted:
		return p.PlansCompleted
	case CounterWorkoutsCompleted:
		return p.WorkoutsCompleted
	case CounterMeditationsCompleted:
		return p.MeditationsCompleted
	case CounterRecipesCooked:
		return p.RecipesCooked
	case CounterSelfCareCompleted:
		return p.SelfCareCompleted
	case CounterCurrentStreak:
		return int64(p.CurrentStreak)
	case CounterLongestStreak:
		return int64(p.LongestStreak)
	case CounterLevel:
		return int64(p.Level)
	case CounterFriends:
		return p.FriendCount
	case CounterComments:
		return p.CommentCount
	case CounterMessages:
		return p.MessageCount
	case CounterPhotos:
		return p.PhotoCount
	}
	return 0
}

// SetCounter overwrites the named counter. Unknown names are ignored.
// Callers guard monotonicity; SetCounter itself is a plain assignment.
func (p *ProgressRecord) SetCounter(name string, value int64) {
	switch name {
	case CounterPlansCompleted:
		p.PlansCompleted = value
	case CounterWorkoutsCompleted:
		p.WorkoutsCompleted = value
	case CounterMeditationsCompleted:
		p.MeditationsCompleted = value
	case CounterRecipesCooked:
		p.RecipesCooked = value
	case CounterSelfCareCompleted:
		p.SelfCareCompleted = value
	case CounterFriends:
		p.FriendCount = value
	case CounterComments:
		p.CommentCount = value
	case CounterMessages:
		p.MessageCount = value
	case CounterPhotos:
		p.PhotoCount = value
	}
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
