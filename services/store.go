package services

import (
	"errors"
	"time"

	"wellness-progress-system/models"
)

// Store errors. The aggregator branches on these; everything else is passed
// through wrapped.
var (
	// ErrNotFound: no progress record for the owner yet.
	ErrNotFound = errors.New("progress record not found")
	// ErrVersionConflict: compare-and-write lost a race; reload and retry.
	ErrVersionConflict = errors.New("progress record changed since read")
)

// ProgressStore is the entity-store contract the progression core is written
// against. Production uses the gorm/Postgres implementation; tests use the
// in-memory one.
type ProgressStore interface {
	// GetByOwner returns the owner's record or ErrNotFound.
	GetByOwner(ownerID string) (*models.ProgressRecord, error)
	// Create inserts a fresh record. Fails if the owner already has one.
	Create(record *models.ProgressRecord) error
	// Update persists the record only if its Version still matches the loaded
	// value, then bumps Version. Returns ErrVersionConflict on a lost race.
	Update(record *models.ProgressRecord) error

	// AppendActivity writes one history ledger row.
	AppendActivity(entry *models.ActivityEntry) error
	// ListActivities returns the owner's ledger, newest first, paginated.
	ListActivities(ownerID string, limit, offset int) ([]models.ActivityEntry, int64, error)

	// CountByAuthor counts rows in the named mirrored collection
	// (models.MirrorCollections key) authored by ownerID.
	CountByAuthor(collection, ownerID string) (int64, error)

	// RecentlyActiveOwners lists owners whose records were touched in the last
	// `withinHours` hours. Feeds the scheduled badge catch-up pass.
	RecentlyActiveOwners(withinHours int) ([]string, error)
}

// CelebrationStore persists celebration events for the SSE stream.
type CelebrationStore interface {
	// AppendCelebration inserts the event unless its DedupKey already exists;
	// returns true when a new row was written.
	AppendCelebration(event *models.CelebrationEvent) (bool, error)
	// CelebrationsSince lists the owner's events created after the cursor,
	// oldest first.
	CelebrationsSince(ownerID string, since time.Time) ([]models.CelebrationEvent, error)
}
