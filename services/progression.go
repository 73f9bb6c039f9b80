package services

import (
	"errors"
	"fmt"
	"time"

	"wellness-progress-system/models"

	log "github.com/sirupsen/logrus"
)

// maxUpdateAttempts bounds compare-and-write retries before the call fails.
const maxUpdateAttempts = 3

// CounterUpdate merges one counter change into the record: an increment by
// Amount, or (Absolute) an overwrite with a freshly recomputed value. Counters
// never decrease — negative increments are dropped and absolute values below
// the current one are ignored.
type CounterUpdate struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Absolute bool   `json:"absolute"`
}

// ActivityInput describes one user action for RecordActivity.
type ActivityInput struct {
	Kind     string          `json:"kind"`
	Points   int64           `json:"points"`
	Counters []CounterUpdate `json:"counters"`
}

// ActivityOutcome is what the caller (and the optimistic cache) sees after a
// successful call. NewBadges is the sole source of truth for "what is new" —
// celebration/notification side effects have already been emitted for them.
type ActivityOutcome struct {
	Record      *models.ProgressRecord   `json:"record"`
	TotalPoints int64                    `json:"total_points"`
	Level       int                      `json:"level"`
	LeveledUp   bool                     `json:"leveled_up"`
	NewBadges   []models.BadgeDefinition `json:"new_badges"`
}

// ProgressionService orchestrates the whole engine: load/create the record,
// merge counters, advance the streak, apply points, persist, evaluate badges,
// emit side effects.
type ProgressionService struct {
	store     ProgressStore
	engine    *BadgeEngine
	notifier  NotificationSink
	celebrate CelebrationSink

	// Now is the clock for streak dates; tests pin it.
	Now func() time.Time
}

func NewProgressionService(store ProgressStore, engine *BadgeEngine, notifier NotificationSink, celebrate CelebrationSink) *ProgressionService {
	return &ProgressionService{
		store:     store,
		engine:    engine,
		notifier:  notifier,
		celebrate: celebrate,
		Now:       time.Now,
	}
}

// Engine exposes the badge engine (handlers render catalog metadata from it).
func (s *ProgressionService) Engine() *BadgeEngine {
	return s.engine
}

// RecordActivity applies one user action: counter updates and a point delta,
// then a badge pass over the persisted counters.
//
// The base update is retried on compare-and-write conflicts; a retried call
// that already ran today is safe because the streak advance is a same-day
// no-op. A persistence failure aborts the remaining steps without rolling
// back what was already written — the next successful call catches up.
func (s *ProgressionService) RecordActivity(ownerID string, input ActivityInput) (*ActivityOutcome, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if input.Points < 0 {
		return nil, fmt.Errorf("negative point deltas are not allowed for activity recording")
	}

	rec, leveledUp, err := s.applyBaseUpdate(ownerID, input)
	if err != nil {
		return nil, err
	}

	if input.Points > 0 {
		s.celebrate.PointsAwarded(ownerID, input.Points, input.Kind)
	}
	if leveledUp {
		s.celebrate.LevelUp(ownerID, rec.Level)
	}

	newBadges, badgeLeveledUp, err := s.awardNewBadges(rec)
	if err != nil {
		return nil, err
	}

	outcome := &ActivityOutcome{
		Record:      rec,
		TotalPoints: rec.TotalPoints,
		Level:       rec.Level,
		LeveledUp:   leveledUp || badgeLeveledUp,
		NewBadges:   newBadges,
	}

	log.Printf("🎯 Activity recorded: %s → %s, points=%d, streak=%d, level=%d, new badges=%d",
		ownerID, input.Kind, outcome.TotalPoints, rec.CurrentStreak, outcome.Level, len(newBadges))

	return outcome, nil
}

// applyBaseUpdate runs steps 1–5 of the logical unit as one compare-and-write
// cycle, retried from a fresh load on conflict. Nothing is persisted until the
// single Create/Update at the end, so retrying re-runs a pure computation.
func (s *ProgressionService) applyBaseUpdate(ownerID string, input ActivityInput) (*models.ProgressRecord, bool, error) {
	today := DateOf(s.Now())

	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		rec, err := s.store.GetByOwner(ownerID)
		created := false
		if errors.Is(err, ErrNotFound) {
			rec = &models.ProgressRecord{OwnerID: ownerID, Level: 1}
			created = true
		} else if err != nil {
			return nil, false, err
		}

		firstActivity := rec.LastActiveDate == nil

		for _, cu := range input.Counters {
			mergeCounter(rec, cu)
		}
		s.refreshExternalCounters(rec)

		AdvanceStreak(rec, today)

		delta := input.Points
		if firstActivity {
			delta += DailyActivityBonus
		}
		leveledUp := ApplyPoints(rec, delta)
		if leveledUp {
			now := s.Now()
			rec.LastLevelUpAt = &now
		}

		if created {
			err = s.store.Create(rec)
		} else {
			err = s.store.Update(rec)
		}
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			if created {
				// Likely a concurrent first-activity create racing on the
				// owner's unique index; reload and go again.
				lastErr = err
				continue
			}
			return nil, false, err
		}

		// History row is best-effort: the record is already authoritative.
		if err := s.store.AppendActivity(&models.ActivityEntry{
			OwnerID:     ownerID,
			Kind:        input.Kind,
			Points:      delta,
			StreakAfter: rec.CurrentStreak,
		}); err != nil {
			log.Printf("⚠️ Failed to append activity history for %s: %v", ownerID, err)
		}

		return rec, leveledUp, nil
	}
	return nil, false, fmt.Errorf("progress update for %s kept losing races: %w", ownerID, lastErr)
}

// awardNewBadges runs the badge pass: evaluate against the persisted record,
// append one badge at a time, pay its reward, persist, then emit side effects.
// One badge per write keeps each award atomic under compare-and-write; a
// conflict reloads and re-evaluates, and badges already on the reloaded record
// are skipped, so awards stay at-most-once.
func (s *ProgressionService) awardNewBadges(rec *models.ProgressRecord) ([]models.BadgeDefinition, bool, error) {
	var awarded []models.BadgeDefinition
	leveledUp := false
	reloads := 0

	for {
		earned := s.engine.Evaluate(rec, s.engine.CounterSnapshot(rec))
		if len(earned) == 0 {
			break
		}
		badge := earned[0]

		rec.Badges = append(rec.Badges, badge.Code)
		badgeLevelUp := ApplyPoints(rec, badge.RewardPoints)
		if badgeLevelUp {
			now := s.Now()
			rec.LastLevelUpAt = &now
		}

		if err := s.store.Update(rec); err != nil {
			if errors.Is(err, ErrVersionConflict) && reloads < maxUpdateAttempts {
				fresh, lerr := s.store.GetByOwner(rec.OwnerID)
				if lerr != nil {
					return awarded, leveledUp, lerr
				}
				rec = fresh
				reloads++
				continue
			}
			// No partial award surfaced: the badge that failed to persist is
			// not in the outcome; the catch-up pass converges it later.
			return awarded, leveledUp, err
		}

		awarded = append(awarded, badge)
		if badgeLevelUp {
			leveledUp = true
			s.celebrate.LevelUp(rec.OwnerID, rec.Level)
		}
		s.notifier.NotifyAchievement(rec.OwnerID, badge.Name)
		s.celebrate.BadgeUnlocked(rec.OwnerID, badge)
		log.Printf("🎖️ Badge awarded: %s → %s (+%d points)", badge.Name, rec.OwnerID, badge.RewardPoints)
	}

	return awarded, leveledUp, nil
}

// refreshExternalCounters recomputes the cached social counters the badge
// catalog depends on from the mirrored collections. Lookup failures are
// logged only — stale cached values never block the point/streak update.
func (s *ProgressionService) refreshExternalCounters(rec *models.ProgressRecord) {
	for _, name := range s.engine.ExternalCounters() {
		count, err := s.store.CountByAuthor(name, rec.OwnerID)
		if err != nil {
			log.Printf("⚠️ Failed to recount %s for %s: %v", name, rec.OwnerID, err)
			continue
		}
		if count > rec.Counter(name) {
			rec.SetCounter(name, count)
		}
	}
}

// mergeCounter applies one update, guarding monotonicity: increments must be
// positive, overwrites must not lower the stored value.
func mergeCounter(rec *models.ProgressRecord, cu CounterUpdate) {
	current := rec.Counter(cu.Name)
	if cu.Absolute {
		if cu.Amount > current {
			rec.SetCounter(cu.Name, cu.Amount)
		}
		return
	}
	if cu.Amount > 0 {
		rec.SetCounter(cu.Name, current+cu.Amount)
	}
}

// GetProgress returns the owner's record, creating an empty one on first read
// so the profile screen always has something to render.
func (s *ProgressionService) GetProgress(ownerID string) (*models.ProgressRecord, error) {
	rec, err := s.store.GetByOwner(ownerID)
	if errors.Is(err, ErrNotFound) {
		rec = &models.ProgressRecord{OwnerID: ownerID, Level: 1}
		if err := s.store.Create(rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// OwnedBadge pairs an earned badge code with its catalog metadata.
type OwnedBadge struct {
	models.BadgeDefinition
	Position int `json:"position"` // award order, 0-based
}

// BadgesFor lists the owner's earned badges in award order. Codes missing
// from the catalog (a badge retired from the table) are logged and skipped;
// they stay on the record untouched.
func (s *ProgressionService) BadgesFor(ownerID string) ([]OwnedBadge, error) {
	rec, err := s.GetProgress(ownerID)
	if err != nil {
		return nil, err
	}
	var owned []OwnedBadge
	for i, code := range rec.Badges {
		def := models.BadgeByCode(s.engine.Catalog(), code)
		if def == nil {
			log.Printf("⚠️ Badge %s on record %s is not in the catalog", code, rec.ID)
			continue
		}
		owned = append(owned, OwnedBadge{BadgeDefinition: *def, Position: i})
	}
	return owned, nil
}

// GetHistory returns the paginated activity ledger.
func (s *ProgressionService) GetHistory(ownerID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	entries, total, err := s.store.ListActivities(ownerID, size, offset)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(size) - 1) / int64(size))

	return map[string]interface{}{
		"entries":     entries,
		"page":        page,
		"size":        size,
		"total_items": total,
		"total_pages": totalPages,
	}, nil
}

// CatchUpBadges re-runs the external recount and badge pass for one user
// without recording an activity. The scheduler uses it to converge badges
// whose earlier award or side effect failed mid-call.
func (s *ProgressionService) CatchUpBadges(ownerID string) error {
	rec, err := s.store.GetByOwner(ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	before := s.engine.CounterSnapshot(rec)
	s.refreshExternalCounters(rec)
	after := s.engine.CounterSnapshot(rec)
	changed := false
	for name, v := range after {
		if before[name] != v {
			changed = true
			break
		}
	}
	if changed {
		if err := s.store.Update(rec); err != nil {
			return err
		}
	}

	_, _, err = s.awardNewBadges(rec)
	return err
}

// GrantPoints is the administrative correction path: any delta, level always
// recomputed from the new total, badge pass included.
func (s *ProgressionService) GrantPoints(ownerID string, points int64, reason string) (*ActivityOutcome, error) {
	if points >= 0 {
		return s.RecordActivity(ownerID, ActivityInput{Kind: models.ActivityAdminGrant, Points: points})
	}

	// Negative corrections bypass RecordActivity's guard but still go through
	// the same compare-and-write cycle.
	rec, err := s.store.GetByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	leveledUp := ApplyPoints(rec, points)
	if err := s.store.Update(rec); err != nil {
		return nil, err
	}
	log.Printf("🛠️ Admin correction: %s %+d points (%s) → total=%d", ownerID, points, reason, rec.TotalPoints)
	return &ActivityOutcome{
		Record:      rec,
		TotalPoints: rec.TotalPoints,
		Level:       rec.Level,
		LeveledUp:   leveledUp,
	}, nil
}
