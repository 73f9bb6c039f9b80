package services

import (
	"fmt"
	"sync"

	"wellness-progress-system/models"

	log "github.com/sirupsen/logrus"
)

// OptimisticProgressCache wraps progression calls for a UI that must update
// before the network round trip finishes. It keeps the last authoritative
// record per user plus, while a call is in flight, a predicted copy with the
// expected delta already applied. On success the prediction is replaced by
// the authoritative result; on failure it is discarded and the previous
// authoritative value shows again.
type OptimisticProgressCache struct {
	mu            sync.RWMutex
	authoritative map[string]*models.ProgressRecord
	pending       map[string]*models.ProgressRecord
}

func NewOptimisticProgressCache() *OptimisticProgressCache {
	return &OptimisticProgressCache{
		authoritative: make(map[string]*models.ProgressRecord),
		pending:       make(map[string]*models.ProgressRecord),
	}
}

// Prime seeds the cache with a server-fetched record (screen load).
func (c *OptimisticProgressCache) Prime(record *models.ProgressRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative[record.OwnerID] = cloneRecord(record)
}

// Snapshot returns what the UI should render right now: the in-flight
// prediction if one exists, otherwise the last authoritative record.
func (c *OptimisticProgressCache) Snapshot(ownerID string) (*models.ProgressRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rec, ok := c.pending[ownerID]; ok {
		return cloneRecord(rec), true
	}
	if rec, ok := c.authoritative[ownerID]; ok {
		return cloneRecord(rec), true
	}
	return nil, false
}

// Do performs one "award points for action X" request optimistically:
// the prediction (current + delta, level recomputed) is visible via Snapshot
// immediately, then call runs the real request. Celebration callbacks fire
// exactly once, driven solely by the authoritative outcome — never by the
// prediction.
func (c *OptimisticProgressCache) Do(
	ownerID string,
	predictedDelta int64,
	call func() (*ActivityOutcome, error),
	onCelebrate CelebrationSink,
) (*ActivityOutcome, error) {
	c.predict(ownerID, predictedDelta)

	outcome, err := call()
	if err != nil {
		c.rollback(ownerID)
		log.Printf("↩️ Optimistic update for %s rolled back: %v", ownerID, err)
		return nil, fmt.Errorf("progress update failed, local value restored: %w", err)
	}

	c.commit(ownerID, outcome.Record)

	if onCelebrate != nil {
		for _, badge := range outcome.NewBadges {
			onCelebrate.BadgeUnlocked(ownerID, badge)
		}
		if outcome.LeveledUp {
			onCelebrate.LevelUp(ownerID, outcome.Level)
		}
	}
	return outcome, nil
}

// predict writes the expected post-call record into the pending slot.
func (c *OptimisticProgressCache) predict(ownerID string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, ok := c.authoritative[ownerID]
	var predicted *models.ProgressRecord
	if ok {
		predicted = cloneRecord(base)
	} else {
		predicted = &models.ProgressRecord{OwnerID: ownerID, Level: 1}
	}
	predicted.TotalPoints += delta
	predicted.Level = LevelForPoints(predicted.TotalPoints)
	c.pending[ownerID] = predicted
}

func (c *OptimisticProgressCache) commit(ownerID string, authoritative *models.ProgressRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, ownerID)
	c.authoritative[ownerID] = cloneRecord(authoritative)
}

func (c *OptimisticProgressCache) rollback(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, ownerID)
}

func cloneRecord(rec *models.ProgressRecord) *models.ProgressRecord {
	cp := *rec
	cp.Badges = append(models.StringList(nil), rec.Badges...)
	return &cp
}
