package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"wellness-progress-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (n *recordingNotifier) NotifyAchievement(ownerID, badgeName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, badgeName)
}

func newTestService(catalog []models.BadgeDefinition) (*ProgressionService, *MemoryProgressStore, *recordingNotifier) {
	store := NewMemoryProgressStore()
	notifier := &recordingNotifier{}
	svc := NewProgressionService(store, NewBadgeEngine(catalog), notifier, NewStoredCelebrationSink(store))
	svc.Now = func() time.Time { return date(2025, time.March, 10).Add(9 * time.Hour) }
	return svc, store, notifier
}

func seedRecord(t *testing.T, store *MemoryProgressStore, rec *models.ProgressRecord) {
	t.Helper()
	require.NoError(t, store.Create(rec))
}

func TestRecordActivityFreshUserFirstReadingPlan(t *testing.T) {
	svc, store, notifier := newTestService(models.DefaultBadgeCatalog)

	outcome, err := svc.RecordActivity("user-1", ActivityInput{
		Kind:     models.ActivityReadingPlan,
		Points:   50,
		Counters: []CounterUpdate{{Name: models.CounterPlansCompleted, Amount: 1}},
	})
	require.NoError(t, err)

	// Base 50 + first-activity bonus 5 + "First Steps" reward 25
	assert.Equal(t, int64(80), outcome.TotalPoints)
	assert.Equal(t, 1, outcome.Level)
	assert.False(t, outcome.LeveledUp)
	require.Len(t, outcome.NewBadges, 1)
	assert.Equal(t, "FIRST_STEPS", outcome.NewBadges[0].Code)

	rec, err := store.GetByOwner("user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 1, rec.LongestStreak)
	assert.Equal(t, int64(1), rec.PlansCompleted)
	assert.True(t, rec.Badges.Contains("FIRST_STEPS"))
	assert.Equal(t, []string{"First Steps"}, notifier.notified)

	kinds := make(map[string]int)
	for _, ev := range store.Celebrations("user-1") {
		kinds[ev.Kind]++
	}
	assert.Equal(t, 1, kinds[models.CelebrationPointsAwarded])
	assert.Equal(t, 1, kinds[models.CelebrationBadgeUnlocked])
}

func TestRecordActivitySevenDayStreakBadge(t *testing.T) {
	weekBadge := models.BadgeDefinition{
		Code:         "WEEK_STREAK",
		Name:         "Week Streak",
		RewardPoints: 70,
		Requirement:  models.Requirement{Source: models.SourceLocal, Counter: models.CounterCurrentStreak, Threshold: 7},
	}
	svc, store, _ := newTestService([]models.BadgeDefinition{weekBadge})

	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-2",
		TotalPoints:    300,
		Level:          1,
		CurrentStreak:  6,
		LongestStreak:  6,
		LastActiveDate: &yesterday,
	})

	outcome, err := svc.RecordActivity("user-2", ActivityInput{
		Kind:   models.ActivityMeditation,
		Points: 20,
	})
	require.NoError(t, err)

	rec, err := store.GetByOwner("user-2")
	require.NoError(t, err)
	assert.Equal(t, 7, rec.CurrentStreak)
	require.Len(t, outcome.NewBadges, 1)
	assert.Equal(t, "WEEK_STREAK", outcome.NewBadges[0].Code)
	assert.Equal(t, int64(300+20+70), outcome.TotalPoints)
}

func TestRecordActivityGapResetsStreakKeepsLongest(t *testing.T) {
	svc, store, _ := newTestService(nil)

	threeDaysAgo := date(2025, time.March, 7)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-3",
		TotalPoints:    100,
		Level:          1,
		CurrentStreak:  10,
		LongestStreak:  10,
		LastActiveDate: &threeDaysAgo,
	})

	_, err := svc.RecordActivity("user-3", ActivityInput{Kind: models.ActivityWorkout, Points: 30})
	require.NoError(t, err)

	rec, err := store.GetByOwner("user-3")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 10, rec.LongestStreak)
}

func TestRecordActivityTwiceSameDayKeepsStreak(t *testing.T) {
	svc, store, _ := newTestService(nil)

	_, err := svc.RecordActivity("user-4", ActivityInput{Kind: models.ActivityWorkout, Points: 30})
	require.NoError(t, err)
	outcome, err := svc.RecordActivity("user-4", ActivityInput{Kind: models.ActivityRecipe, Points: 25})
	require.NoError(t, err)

	rec, err := store.GetByOwner("user-4")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 1, rec.LongestStreak)
	// Points still accrue per activity; only the streak is same-day idempotent.
	assert.Equal(t, int64(30+5+25), outcome.TotalPoints)
}

func TestRecordActivityLevelBoundary(t *testing.T) {
	svc, store, _ := newTestService(nil)

	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-5",
		TotalPoints:    499,
		Level:          1,
		CurrentStreak:  1,
		LongestStreak:  1,
		LastActiveDate: &yesterday,
	})

	outcome, err := svc.RecordActivity("user-5", ActivityInput{Kind: models.ActivityCommunity, Points: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(500), outcome.TotalPoints)
	assert.Equal(t, 2, outcome.Level)
	assert.True(t, outcome.LeveledUp)

	rec, err := store.GetByOwner("user-5")
	require.NoError(t, err)
	assert.NotNil(t, rec.LastLevelUpAt)

	var levelUps int
	for _, ev := range store.Celebrations("user-5") {
		if ev.Kind == models.CelebrationLevelUp {
			levelUps++
			assert.Equal(t, 2, ev.NewLevel)
		}
	}
	assert.Equal(t, 1, levelUps)
}

func TestRecordActivityRetriesOnVersionConflict(t *testing.T) {
	svc, store, _ := newTestService(nil)

	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-6",
		TotalPoints:    100,
		Level:          1,
		CurrentStreak:  2,
		LongestStreak:  2,
		LastActiveDate: &yesterday,
	})
	store.FailNextUpdate = true

	outcome, err := svc.RecordActivity("user-6", ActivityInput{Kind: models.ActivityWorkout, Points: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(130), outcome.TotalPoints)
	assert.Equal(t, 3, outcome.Record.CurrentStreak)
}

func TestRecordActivityPersistFailureAbortsCall(t *testing.T) {
	svc, store, _ := newTestService(models.DefaultBadgeCatalog)

	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-7",
		TotalPoints:    100,
		Level:          1,
		CurrentStreak:  1,
		LongestStreak:  1,
		LastActiveDate: &yesterday,
	})
	store.UpdateErr = errors.New("db down")

	outcome, err := svc.RecordActivity("user-7", ActivityInput{Kind: models.ActivityWorkout, Points: 30})
	assert.Error(t, err)
	assert.Nil(t, outcome)

	// Nothing was persisted, no badge state leaked.
	rec, err := store.GetByOwner("user-7")
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.TotalPoints)
	assert.Empty(t, rec.Badges)
}

func TestBadgeAwardedAtMostOnceAcrossCalls(t *testing.T) {
	firstPlan := models.BadgeDefinition{
		Code:         "FIRST_PLAN",
		Name:         "First Plan",
		RewardPoints: 25,
		Requirement:  models.Requirement{Source: models.SourceLocal, Counter: models.CounterPlansCompleted, Threshold: 1},
	}
	svc, store, notifier := newTestService([]models.BadgeDefinition{firstPlan})

	first, err := svc.RecordActivity("user-8", ActivityInput{
		Kind:     models.ActivityReadingPlan,
		Points:   50,
		Counters: []CounterUpdate{{Name: models.CounterPlansCompleted, Amount: 1}},
	})
	require.NoError(t, err)
	require.Len(t, first.NewBadges, 1)

	second, err := svc.RecordActivity("user-8", ActivityInput{
		Kind:     models.ActivityReadingPlan,
		Points:   50,
		Counters: []CounterUpdate{{Name: models.CounterPlansCompleted, Amount: 1}},
	})
	require.NoError(t, err)
	assert.Empty(t, second.NewBadges)

	rec, err := store.GetByOwner("user-8")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"FIRST_PLAN"}, rec.Badges)
	assert.Equal(t, []string{"First Plan"}, notifier.notified)
}

func TestCounterMergeGuardsMonotonicity(t *testing.T) {
	svc, store, _ := newTestService(nil)

	_, err := svc.RecordActivity("user-9", ActivityInput{
		Kind:     models.ActivityWorkout,
		Points:   30,
		Counters: []CounterUpdate{{Name: models.CounterWorkoutsCompleted, Amount: 5, Absolute: true}},
	})
	require.NoError(t, err)

	_, err = svc.RecordActivity("user-9", ActivityInput{
		Kind:   models.ActivityWorkout,
		Points: 30,
		Counters: []CounterUpdate{
			{Name: models.CounterWorkoutsCompleted, Amount: 3, Absolute: true}, // stale recount: ignored
			{Name: models.CounterRecipesCooked, Amount: -2},                    // negative increment: dropped
			{Name: models.CounterRecipesCooked, Amount: 1},
		},
	})
	require.NoError(t, err)

	rec, err := store.GetByOwner("user-9")
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.WorkoutsCompleted)
	assert.Equal(t, int64(1), rec.RecipesCooked)
}

func TestExternalCounterRefreshFeedsBadges(t *testing.T) {
	tenComments := models.BadgeDefinition{
		Code:         "TEN_COMMENTS",
		Name:         "Ten Comments",
		RewardPoints: 50,
		Requirement:  models.Requirement{Source: models.SourceExternal, Counter: models.CounterComments, Threshold: 10},
	}
	svc, store, _ := newTestService([]models.BadgeDefinition{tenComments})
	store.SetAuthorCount(models.CounterComments, "user-10", 10)

	outcome, err := svc.RecordActivity("user-10", ActivityInput{Kind: models.ActivityCommunity, Points: 10})
	require.NoError(t, err)

	require.Len(t, outcome.NewBadges, 1)
	assert.Equal(t, "TEN_COMMENTS", outcome.NewBadges[0].Code)

	rec, err := store.GetByOwner("user-10")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.CommentCount)
}

func TestBadgeRewardCanTriggerLevelUp(t *testing.T) {
	firstPlan := models.BadgeDefinition{
		Code:         "FIRST_PLAN",
		Name:         "First Plan",
		RewardPoints: 25,
		Requirement:  models.Requirement{Source: models.SourceLocal, Counter: models.CounterPlansCompleted, Threshold: 1},
	}
	svc, store, _ := newTestService([]models.BadgeDefinition{firstPlan})

	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-11",
		TotalPoints:    480,
		Level:          1,
		CurrentStreak:  1,
		LongestStreak:  1,
		LastActiveDate: &yesterday,
	})

	outcome, err := svc.RecordActivity("user-11", ActivityInput{
		Kind:     models.ActivityReadingPlan,
		Points:   10,
		Counters: []CounterUpdate{{Name: models.CounterPlansCompleted, Amount: 1}},
	})
	require.NoError(t, err)

	// 480 + 10 = 490 (level 1), badge reward 25 → 515 (level 2)
	assert.Equal(t, int64(515), outcome.TotalPoints)
	assert.Equal(t, 2, outcome.Level)
	assert.True(t, outcome.LeveledUp)
}

func TestCatchUpBadgesConvergesMissedAwards(t *testing.T) {
	fivePlans := models.BadgeDefinition{
		Code:         "FIVE_PLANS",
		Name:         "Five Plans",
		RewardPoints: 75,
		Requirement:  models.Requirement{Source: models.SourceLocal, Counter: models.CounterPlansCompleted, Threshold: 5},
	}
	svc, store, notifier := newTestService([]models.BadgeDefinition{fivePlans})

	// A record whose counters already satisfy the rule but whose award was
	// lost mid-call earlier.
	yesterday := date(2025, time.March, 9)
	seedRecord(t, store, &models.ProgressRecord{
		OwnerID:        "user-12",
		TotalPoints:    200,
		Level:          1,
		CurrentStreak:  1,
		LongestStreak:  1,
		LastActiveDate: &yesterday,
		PlansCompleted: 5,
	})

	require.NoError(t, svc.CatchUpBadges("user-12"))

	rec, err := store.GetByOwner("user-12")
	require.NoError(t, err)
	assert.True(t, rec.Badges.Contains("FIVE_PLANS"))
	assert.Equal(t, int64(275), rec.TotalPoints)
	assert.Equal(t, []string{"Five Plans"}, notifier.notified)

	// Running again changes nothing.
	require.NoError(t, svc.CatchUpBadges("user-12"))
	rec, _ = store.GetByOwner("user-12")
	assert.Equal(t, models.StringList{"FIVE_PLANS"}, rec.Badges)
	assert.Equal(t, int64(275), rec.TotalPoints)
}

func TestGetProgressLazilyCreatesRecord(t *testing.T) {
	svc, store, _ := newTestService(nil)

	rec, err := svc.GetProgress("user-13")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.TotalPoints)
	assert.Equal(t, 1, rec.Level)
	assert.Equal(t, 0, rec.CurrentStreak)

	// Second read returns the same persisted record.
	again, err := svc.GetProgress("user-13")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	stored, err := store.GetByOwner("user-13")
	require.NoError(t, err)
	assert.Nil(t, stored.LastActiveDate)
}

func TestCelebrationSinkDeduplicatesBadgeEvents(t *testing.T) {
	store := NewMemoryProgressStore()
	sink := NewStoredCelebrationSink(store)
	badge := models.BadgeDefinition{Code: "FIRST_PLAN", Name: "First Plan"}

	sink.BadgeUnlocked("user-14", badge)
	sink.BadgeUnlocked("user-14", badge) // retried side effect
	sink.LevelUp("user-14", 2)
	sink.LevelUp("user-14", 2)

	events := store.Celebrations("user-14")
	assert.Len(t, events, 2)
}
