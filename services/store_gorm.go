package services

import (
	"errors"
	"fmt"
	"time"

	"wellness-progress-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProgressStore backs ProgressStore and CelebrationStore with Postgres.
type GormProgressStore struct {
	DB *gorm.DB
}

func NewGormProgressStore(db *gorm.DB) *GormProgressStore {
	return &GormProgressStore{DB: db}
}

func (s *GormProgressStore) GetByOwner(ownerID string) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := s.DB.Where("owner_id = ?", ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for %s: %w", ownerID, err)
	}
	return &rec, nil
}

func (s *GormProgressStore) Create(record *models.ProgressRecord) error {
	if err := s.DB.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create progress for %s: %w", record.OwnerID, err)
	}
	return nil
}

// Update is the compare-and-write: the row is only written when the version
// column still matches the value the caller loaded. RowsAffected == 0 means a
// concurrent writer got there first.
func (s *GormProgressStore) Update(record *models.ProgressRecord) error {
	loadedVersion := record.Version
	record.Version++

	res := s.DB.Model(&models.ProgressRecord{}).
		Where("id = ? AND version = ?", record.ID, loadedVersion).
		Select("*").
		Omit("id", "owner_id", "created_at", "deleted_at").
		Updates(record)
	if res.Error != nil {
		record.Version = loadedVersion
		return fmt.Errorf("failed to update progress %s: %w", record.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		record.Version = loadedVersion
		return ErrVersionConflict
	}
	return nil
}

func (s *GormProgressStore) AppendActivity(entry *models.ActivityEntry) error {
	if err := s.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append activity for %s: %w", entry.OwnerID, err)
	}
	return nil
}

func (s *GormProgressStore) ListActivities(ownerID string, limit, offset int) ([]models.ActivityEntry, int64, error) {
	var total int64
	if err := s.DB.Model(&models.ActivityEntry{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityEntry
	err := s.DB.Where("owner_id = ?", ownerID).
		Order("occurred_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

func (s *GormProgressStore) CountByAuthor(collection, ownerID string) (int64, error) {
	model, ok := models.MirrorCollections[collection]
	if !ok {
		return 0, fmt.Errorf("unknown mirrored collection %q", collection)
	}
	var count int64
	err := s.DB.Model(model).Where("author_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (s *GormProgressStore) RecentlyActiveOwners(withinHours int) ([]string, error) {
	since := time.Now().Add(-time.Duration(withinHours) * time.Hour)
	var owners []string
	err := s.DB.Model(&models.ProgressRecord{}).
		Where("updated_at >= ?", since).
		Pluck("owner_id", &owners).Error
	return owners, err
}

// AppendCelebration relies on the unique index on dedup_key: a conflicting
// insert is a no-op, which is how retried badge awards stay single-fire.
func (s *GormProgressStore) AppendCelebration(event *models.CelebrationEvent) (bool, error) {
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("failed to append celebration %s: %w", event.DedupKey, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormProgressStore) CelebrationsSince(ownerID string, since time.Time) ([]models.CelebrationEvent, error) {
	var events []models.CelebrationEvent
	err := s.DB.Where("owner_id = ? AND created_at > ?", ownerID, since).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
