package services

import (
	"time"

	"wellness-progress-system/models"
)

// DailyActivityBonus seeds a brand-new progress record's point total on the
// user's first-ever activity.
const DailyActivityBonus = 5

// Today returns the current UTC calendar date at midnight. All streak
// comparisons run on UTC dates; clients in any zone converge because the
// server clock is the only one consulted.
func Today() time.Time {
	return DateOf(time.Now())
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak applies one day of activity to the record's streak fields.
//
//   - already active today       → no-op (idempotent across same-day calls)
//   - last active yesterday      → extend the streak
//   - gap of 2+ days / no prior  → reset to 1
//
// LongestStreak and LastActiveDate only ever move forward.
func AdvanceStreak(record *models.ProgressRecord, today time.Time) {
	today = DateOf(today)

	if record.LastActiveDate != nil {
		last := DateOf(*record.LastActiveDate)
		if last.Equal(today) {
			return
		}
		yesterday := today.AddDate(0, 0, -1)
		if last.Equal(yesterday) {
			record.CurrentStreak++
		} else {
			record.CurrentStreak = 1
		}
	} else {
		record.CurrentStreak = 1
	}

	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.LastActiveDate = &today
}
