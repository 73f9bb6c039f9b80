package services

import (
	"errors"
	"testing"

	"wellness-progress-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCelebrationSink struct {
	badges []string
	levels []int
}

func (s *recordingCelebrationSink) PointsAwarded(string, int64, string) {}

func (s *recordingCelebrationSink) BadgeUnlocked(_ string, badge models.BadgeDefinition) {
	s.badges = append(s.badges, badge.Code)
}

func (s *recordingCelebrationSink) LevelUp(_ string, newLevel int) {
	s.levels = append(s.levels, newLevel)
}

func TestSnapshotShowsPredictionWhileCallInFlight(t *testing.T) {
	cache := NewOptimisticProgressCache()
	cache.Prime(&models.ProgressRecord{OwnerID: "u1", TotalPoints: 490, Level: 1})

	_, err := cache.Do("u1", 15, func() (*ActivityOutcome, error) {
		// The prediction must already be visible before the call returns,
		// with the level recomputed from the predicted total.
		snap, ok := cache.Snapshot("u1")
		require.True(t, ok)
		assert.Equal(t, int64(505), snap.TotalPoints)
		assert.Equal(t, 2, snap.Level)

		rec := &models.ProgressRecord{OwnerID: "u1", TotalPoints: 505, Level: 2}
		return &ActivityOutcome{Record: rec, TotalPoints: 505, Level: 2, LeveledUp: true}, nil
	}, nil)
	require.NoError(t, err)
}

func TestFailedCallRestoresAuthoritativeValue(t *testing.T) {
	cache := NewOptimisticProgressCache()
	cache.Prime(&models.ProgressRecord{OwnerID: "u1", TotalPoints: 100, Level: 1})

	callErr := errors.New("service unavailable")
	outcome, err := cache.Do("u1", 30, func() (*ActivityOutcome, error) {
		return nil, callErr
	}, nil)

	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, callErr)

	snap, ok := cache.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, int64(100), snap.TotalPoints)
	assert.Equal(t, 1, snap.Level)
}

func TestSuccessfulCallReplacesPredictionWithAuthoritative(t *testing.T) {
	cache := NewOptimisticProgressCache()
	cache.Prime(&models.ProgressRecord{OwnerID: "u1", TotalPoints: 100, Level: 1})

	// The server applied a badge reward the client did not predict.
	authoritative := &models.ProgressRecord{
		OwnerID:     "u1",
		TotalPoints: 155,
		Level:       1,
		Badges:      models.StringList{"FIRST_PLAN"},
	}
	outcome, err := cache.Do("u1", 30, func() (*ActivityOutcome, error) {
		return &ActivityOutcome{
			Record:      authoritative,
			TotalPoints: 155,
			Level:       1,
			NewBadges:   []models.BadgeDefinition{{Code: "FIRST_PLAN", Name: "First Plan"}},
		}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(155), outcome.TotalPoints)

	snap, ok := cache.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, int64(155), snap.TotalPoints)
	assert.True(t, snap.Badges.Contains("FIRST_PLAN"))
}

func TestCelebrationsFireOnlyFromAuthoritativeOutcome(t *testing.T) {
	cache := NewOptimisticProgressCache()
	cache.Prime(&models.ProgressRecord{OwnerID: "u1", TotalPoints: 480, Level: 1})
	sink := &recordingCelebrationSink{}

	// Failure: nothing fires even though the prediction crossed a level.
	_, err := cache.Do("u1", 30, func() (*ActivityOutcome, error) {
		return nil, errors.New("timeout")
	}, sink)
	require.Error(t, err)
	assert.Empty(t, sink.badges)
	assert.Empty(t, sink.levels)

	// Success: one callback per new badge, one for the level.
	rec := &models.ProgressRecord{OwnerID: "u1", TotalPoints: 535, Level: 2, Badges: models.StringList{"FIRST_PLAN"}}
	_, err = cache.Do("u1", 30, func() (*ActivityOutcome, error) {
		return &ActivityOutcome{
			Record:      rec,
			TotalPoints: 535,
			Level:       2,
			LeveledUp:   true,
			NewBadges:   []models.BadgeDefinition{{Code: "FIRST_PLAN", Name: "First Plan"}},
		}, nil
	}, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"FIRST_PLAN"}, sink.badges)
	assert.Equal(t, []int{2}, sink.levels)
}

func TestSnapshotForUnknownOwner(t *testing.T) {
	cache := NewOptimisticProgressCache()

	_, ok := cache.Snapshot("nobody")
	assert.False(t, ok)
}

func TestSnapshotReturnsCopies(t *testing.T) {
	cache := NewOptimisticProgressCache()
	cache.Prime(&models.ProgressRecord{OwnerID: "u1", TotalPoints: 100, Level: 1, Badges: models.StringList{"A"}})

	snap, ok := cache.Snapshot("u1")
	require.True(t, ok)
	snap.TotalPoints = 999
	snap.Badges[0] = "MUTATED"

	again, _ := cache.Snapshot("u1")
	assert.Equal(t, int64(100), again.TotalPoints)
	assert.Equal(t, models.StringList{"A"}, again.Badges)
}
