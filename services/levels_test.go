package services

import (
	"testing"

	"wellness-progress-system/models"

	"github.com/stretchr/testify/assert"
)

func TestLevelForPoints(t *testing.T) {
	assert.Equal(t, 1, LevelForPoints(0))
	assert.Equal(t, 1, LevelForPoints(499))
	assert.Equal(t, 2, LevelForPoints(500))
	assert.Equal(t, 2, LevelForPoints(999))
	assert.Equal(t, 3, LevelForPoints(1000))
	assert.Equal(t, 21, LevelForPoints(10000))
}

func TestApplyPointsLevelBoundary(t *testing.T) {
	rec := &models.ProgressRecord{OwnerID: "u1", TotalPoints: 499, Level: 1}

	leveledUp := ApplyPoints(rec, 1)

	assert.True(t, leveledUp)
	assert.Equal(t, int64(500), rec.TotalPoints)
	assert.Equal(t, 2, rec.Level)
}

func TestApplyPointsNoLevelChange(t *testing.T) {
	rec := &models.ProgressRecord{OwnerID: "u1", TotalPoints: 100, Level: 1}

	leveledUp := ApplyPoints(rec, 50)

	assert.False(t, leveledUp)
	assert.Equal(t, int64(150), rec.TotalPoints)
	assert.Equal(t, 1, rec.Level)
}

func TestApplyPointsIsDeterministic(t *testing.T) {
	a := &models.ProgressRecord{OwnerID: "u1", TotalPoints: 740, Level: 2}
	b := &models.ProgressRecord{OwnerID: "u2", TotalPoints: 740, Level: 2}

	upA := ApplyPoints(a, 300)
	upB := ApplyPoints(b, 300)

	assert.Equal(t, upA, upB)
	assert.Equal(t, a.TotalPoints, b.TotalPoints)
	assert.Equal(t, a.Level, b.Level)
}

// Level is always derived from the total, never carried independently.
func TestApplyPointsMaintainsLevelInvariant(t *testing.T) {
	rec := &models.ProgressRecord{OwnerID: "u1", Level: 1}
	for _, delta := range []int64{0, 5, 120, 499, 500, 1234} {
		ApplyPoints(rec, delta)
		assert.Equal(t, int(rec.TotalPoints/PointsPerLevel)+1, rec.Level)
	}
}
