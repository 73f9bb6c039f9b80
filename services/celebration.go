package services

import (
	"fmt"

	"wellness-progress-system/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CelebrationSink fires the three UI celebration triggers. Consumed as an
// opaque callback set by the aggregator; failures never propagate into the
// progression flow.
type CelebrationSink interface {
	PointsAwarded(ownerID string, points int64, actionLabel string)
	BadgeUnlocked(ownerID string, badge models.BadgeDefinition)
	LevelUp(ownerID string, newLevel int)
}

// StoredCelebrationSink persists celebration events; clients pick them up over
// the SSE stream. Badge and level events carry deterministic dedup keys so a
// retried aggregator call cannot enqueue the same celebration twice.
type StoredCelebrationSink struct {
	Store CelebrationStore
}

func NewStoredCelebrationSink(store CelebrationStore) *StoredCelebrationSink {
	return &StoredCelebrationSink{Store: store}
}

func (s *StoredCelebrationSink) PointsAwarded(ownerID string, points int64, actionLabel string) {
	s.append(&models.CelebrationEvent{
		OwnerID:     ownerID,
		Kind:        models.CelebrationPointsAwarded,
		DedupKey:    fmt.Sprintf("points:%s:%s", ownerID, uuid.NewString()),
		Points:      points,
		ActionLabel: actionLabel,
	})
}

func (s *StoredCelebrationSink) BadgeUnlocked(ownerID string, badge models.BadgeDefinition) {
	s.append(&models.CelebrationEvent{
		OwnerID:   ownerID,
		Kind:      models.CelebrationBadgeUnlocked,
		DedupKey:  fmt.Sprintf("badge:%s:%s", ownerID, badge.Code),
		BadgeCode: badge.Code,
		BadgeName: badge.Name,
		BadgeIcon: badge.IconURL,
	})
}

func (s *StoredCelebrationSink) LevelUp(ownerID string, newLevel int) {
	s.append(&models.CelebrationEvent{
		OwnerID:  ownerID,
		Kind:     models.CelebrationLevelUp,
		DedupKey: fmt.Sprintf("level:%s:%d", ownerID, newLevel),
		NewLevel: newLevel,
	})
}

func (s *StoredCelebrationSink) append(event *models.CelebrationEvent) {
	if _, err := s.Store.AppendCelebration(event); err != nil {
		log.Printf("⚠️ Failed to enqueue %s celebration for %s: %v", event.Kind, event.OwnerID, err)
	}
}

// NopCelebrationSink discards celebration triggers.
type NopCelebrationSink struct{}

func (NopCelebrationSink) PointsAwarded(string, int64, string)          {}
func (NopCelebrationSink) BadgeUnlocked(string, models.BadgeDefinition) {}
func (NopCelebrationSink) LevelUp(string, int)                          {}
