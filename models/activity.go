package models

import "time"

// Activity kinds accepted by the aggregator. Each maps to a base point value
// and (usually) a counter increment.
const (
	ActivityReadingPlan = "reading_plan_completed"
	ActivityWorkout     = "workout_completed"
	ActivityMeditation  = "meditation_completed"
	ActivityRecipe      = "recipe_cooked"
	ActivitySelfCare    = "self_care_completed"
	ActivityCommunity   = "community_activity"
	ActivityAdminGrant  = "admin_grant"
)

// ActivityEntry is one row per recorded activity — the user-facing history and
// the audit trail behind the denormalized ProgressRecord counters.
type ActivityEntry struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID     string    `gorm:"index;not null" json:"owner_id"`
	Kind        string    `gorm:"index;not null" json:"kind"`
	Points      int64     `json:"points"`
	StreakAfter int       `json:"streak_after"`
	OccurredAt  time.Time `gorm:"autoCreateTime;index" json:"occurred_at"`
}

// Social artifact mirrors. The community service owns these collections; the
// social sync worker copies author + timestamp locally so derived counters are
// indexed COUNT queries instead of remote full scans.

type CommunityComment struct {
	ID        string    `gorm:"primaryKey" json:"id"` // remote id
	AuthorID  string    `gorm:"index;not null" json:"author_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CommunityPhoto struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AuthorID  string    `gorm:"index;not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DirectMessage struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	AuthorID    string    `gorm:"index;not null" json:"author_id"`
	RecipientID string    `gorm:"index" json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Friendship struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AuthorID  string    `gorm:"index;not null" json:"author_id"` // the side whose friend count this row feeds
	FriendID  string    `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MirrorCollections maps external counter names to the mirrored model counted
// to produce them. The store's CountByAuthor takes these names.
var MirrorCollections = map[string]interface{}{
	CounterComments: &CommunityComment{},
	CounterPhotos:   &CommunityPhoto{},
	CounterMessages: &DirectMessage{},
	CounterFriends:  &Friendship{},
}
