package services

import (
	"wellness-progress-system/models"
)

// BadgeEngine evaluates a fixed badge catalog against a user's counters.
// The catalog is injected so tests can run small ones; evaluation always
// follows catalog definition order, which makes award order deterministic.
type BadgeEngine struct {
	catalog []models.BadgeDefinition
}

func NewBadgeEngine(catalog []models.BadgeDefinition) *BadgeEngine {
	return &BadgeEngine{catalog: catalog}
}

// Catalog returns the engine's badge table.
func (e *BadgeEngine) Catalog() []models.BadgeDefinition {
	return e.catalog
}

// Evaluate returns the badges newly satisfied by the counter snapshot and not
// yet present on the record, in catalog order. It never mutates the record —
// appending to Badges (and paying the reward) is the aggregator's job, after
// which re-evaluation converges on an empty result.
//
// The snapshot is flat: the aggregator has already resolved each
// requirement's local/external source into a plain integer. Absent counters
// read as zero.
func (e *BadgeEngine) Evaluate(record *models.ProgressRecord, counters map[string]int64) []models.BadgeDefinition {
	var earned []models.BadgeDefinition
	for _, badge := range e.catalog {
		if record.Badges.Contains(badge.Code) {
			continue
		}
		if counters[badge.Requirement.Counter] >= badge.Requirement.Threshold {
			earned = append(earned, badge)
		}
	}
	return earned
}

// CounterSnapshot flattens the record's counters into the map Evaluate reads.
// External counters use the values cached on the record; the aggregator
// refreshes those from the mirrored collections before the badge pass.
func (e *BadgeEngine) CounterSnapshot(record *models.ProgressRecord) map[string]int64 {
	counters := make(map[string]int64, len(e.catalog))
	for _, badge := range e.catalog {
		name := badge.Requirement.Counter
		if _, seen := counters[name]; !seen {
			counters[name] = record.Counter(name)
		}
	}
	return counters
}

// ExternalCounters lists the distinct external counter names the catalog
// depends on, in catalog order.
func (e *BadgeEngine) ExternalCounters() []string {
	seen := make(map[string]bool)
	var names []string
	for _, badge := range e.catalog {
		if badge.Requirement.Source != models.SourceExternal {
			continue
		}
		if !seen[badge.Requirement.Counter] {
			seen[badge.Requirement.Counter] = true
			names = append(names, badge.Requirement.Counter)
		}
	}
	return names
}
