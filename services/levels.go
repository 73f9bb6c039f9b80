package services

import "wellness-progress-system/models"

// PointsPerLevel: every 500 points is one level.
const PointsPerLevel = 500

// LevelForPoints derives the level from an accumulated point total.
// Level 1 covers 0–499, level 2 covers 500–999, and so on.
func LevelForPoints(points int64) int {
	if points < 0 {
		points = 0
	}
	return int(points/PointsPerLevel) + 1
}

// ApplyPoints adds delta to the record's total and recomputes the level.
// Pure over the record it is handed; reports whether the level increased.
func ApplyPoints(record *models.ProgressRecord, delta int64) (leveledUp bool) {
	record.TotalPoints += delta
	if record.TotalPoints < 0 {
		record.TotalPoints = 0
	}
	newLevel := LevelForPoints(record.TotalPoints)
	leveledUp = newLevel > record.Level
	record.Level = newLevel
	return leveledUp
}
