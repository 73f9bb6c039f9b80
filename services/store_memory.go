package services

import (
	"sort"
	"sync"
	"time"

	"wellness-progress-system/models"

	"github.com/google/uuid"
)

// MemoryProgressStore is the in-memory ProgressStore/CelebrationStore used by
// unit tests. Same compare-and-write semantics as the Postgres store.
type MemoryProgressStore struct {
	mu           sync.Mutex
	records      map[string]*models.ProgressRecord // keyed by owner
	activities   []models.ActivityEntry
	celebrations []models.CelebrationEvent
	dedupKeys    map[string]bool
	authorCounts map[string]map[string]int64 // collection → owner → count

	// FailNextUpdate makes the next Update return ErrVersionConflict once,
	// for exercising the aggregator's retry path.
	FailNextUpdate bool
	// UpdateErr, when set, is returned by every Update (persistence outage).
	UpdateErr error
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{
		records:      make(map[string]*models.ProgressRecord),
		dedupKeys:    make(map[string]bool),
		authorCounts: make(map[string]map[string]int64),
	}
}

func (s *MemoryProgressStore) GetByOwner(ownerID string) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.Badges = append(models.StringList(nil), rec.Badges...)
	return &cp, nil
}

func (s *MemoryProgressStore) Create(record *models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now()
	cp := *record
	s.records[record.OwnerID] = &cp
	return nil
}

func (s *MemoryProgressStore) Update(record *models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if s.FailNextUpdate {
		s.FailNextUpdate = false
		return ErrVersionConflict
	}
	current, ok := s.records[record.OwnerID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != record.Version {
		return ErrVersionConflict
	}
	record.Version++
	record.UpdatedAt = time.Now()
	cp := *record
	cp.Badges = append(models.StringList(nil), record.Badges...)
	s.records[record.OwnerID] = &cp
	return nil
}

func (s *MemoryProgressStore) AppendActivity(entry *models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	s.activities = append(s.activities, *entry)
	return nil
}

func (s *MemoryProgressStore) ListActivities(ownerID string, limit, offset int) ([]models.ActivityEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.ActivityEntry
	for _, e := range s.activities {
		if e.OwnerID == ownerID {
			owned = append(owned, e)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].OccurredAt.After(owned[j].OccurredAt) })
	total := int64(len(owned))
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

// SetAuthorCount seeds a mirrored-collection count for tests.
func (s *MemoryProgressStore) SetAuthorCount(collection, ownerID string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authorCounts[collection] == nil {
		s.authorCounts[collection] = make(map[string]int64)
	}
	s.authorCounts[collection][ownerID] = count
}

func (s *MemoryProgressStore) CountByAuthor(collection, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorCounts[collection][ownerID], nil
}

func (s *MemoryProgressStore) RecentlyActiveOwners(withinHours int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := time.Now().Add(-time.Duration(withinHours) * time.Hour)
	var owners []string
	for owner, rec := range s.records {
		if rec.UpdatedAt.After(since) {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *MemoryProgressStore) AppendCelebration(event *models.CelebrationEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dedupKeys[event.DedupKey] {
		return false, nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.dedupKeys[event.DedupKey] = true
	s.celebrations = append(s.celebrations, *event)
	return true, nil
}

func (s *MemoryProgressStore) CelebrationsSince(ownerID string, since time.Time) ([]models.CelebrationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []models.CelebrationEvent
	for _, e := range s.celebrations {
		if e.OwnerID == ownerID && e.CreatedAt.After(since) {
			events = append(events, e)
		}
	}
	return events, nil
}

// Celebrations returns everything enqueued for an owner (test helper).
func (s *MemoryProgressStore) Celebrations(ownerID string) []models.CelebrationEvent {
	events, _ := s.CelebrationsSince(ownerID, time.Time{})
	return events
}
