// services/scheduler.go
package services

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// StartBadgeCatchUpScheduler runs an hourly convergence pass: for every user
// active in the last day, refresh mirrored social counts and re-evaluate the
// badge catalog. Badges whose earlier award or side effect failed mid-call
// get picked up here, per the at-least-once design of RecordActivity.
func (s *ProgressionService) StartBadgeCatchUpScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			owners, err := s.store.RecentlyActiveOwners(24)
			if err != nil {
				log.Printf("[Scheduler] Failed to list active users: %v", err)
				return
			}

			converged := 0
			for _, owner := range owners {
				if err := s.CatchUpBadges(owner); err != nil {
					log.Printf("[Scheduler] Badge catch-up failed for %s: %v", owner, err)
					continue
				}
				converged++
			}
			if len(owners) > 0 {
				log.Printf("✅ Badge catch-up pass: %d/%d users converged", converged, len(owners))
			}
		}),
	)
}
