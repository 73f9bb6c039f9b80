// workers/social_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wellness-progress-system/models"
	"wellness-progress-system/services"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SocialChangesResponse matches the community service's change feed: every
// social artifact created since the cursor, grouped by collection.
type SocialChangesResponse struct {
	Comments    []models.CommunityComment `json:"comments"`
	Photos      []models.CommunityPhoto   `json:"photos"`
	Messages    []models.DirectMessage    `json:"messages"`
	Friendships []models.Friendship       `json:"friendships"`
}

// SocialSyncWorker polls the community service and mirrors social artifacts
// locally so the progression engine can derive comment/photo/message/friend
// counters from indexed queries instead of scanning remote collections. After
// each batch it re-runs the badge pass for the affected users.
type SocialSyncWorker struct {
	db           *gorm.DB
	progression  *services.ProgressionService
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8700"
	serviceToken string
	httpClient   *http.Client

	lastSync time.Time
}

func NewSocialSyncWorker(db *gorm.DB, progression *services.ProgressionService, communityServiceURL, serviceToken string, interval time.Duration) *SocialSyncWorker {
	return &SocialSyncWorker{
		db:           db,
		progression:  progression,
		interval:     interval,
		baseURL:      communityServiceURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *SocialSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Social Sync Worker (community service → local mirrors)…")
	go w.run(ctx)
}

func (w *SocialSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx); err != nil {
		log.Printf("⚠️ Initial social sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx); err != nil {
				log.Printf("❌ Social sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Social Sync Worker stopped")
			return
		}
	}
}

// syncBatch fetches artifact changes since the last cursor and upserts them
// into the mirror tables. Mirrored rows are immutable, so conflicts on the
// remote id are simply skipped.
func (w *SocialSyncWorker) syncBatch(ctx context.Context) error {
	since := w.lastSync.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid community service URL '%s': %w", w.baseURL, err)
	}
	base.Path = "/api/v1/internal/social/changes"
	q := base.Query()
	q.Set("since", since)
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", base.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.serviceToken)

	started := time.Now()
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("community service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("community service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes SocialChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("failed to decode social changes: %w", err)
	}

	affected := make(map[string]bool)

	for _, c := range changes.Comments {
		if err := w.upsert(&c); err != nil {
			return err
		}
		affected[c.AuthorID] = true
	}
	for _, p := range changes.Photos {
		if err := w.upsert(&p); err != nil {
			return err
		}
		affected[p.AuthorID] = true
	}
	for _, m := range changes.Messages {
		if err := w.upsert(&m); err != nil {
			return err
		}
		affected[m.AuthorID] = true
	}
	for _, f := range changes.Friendships {
		if err := w.upsert(&f); err != nil {
			return err
		}
		affected[f.AuthorID] = true
	}

	w.lastSync = started

	if len(affected) == 0 {
		return nil
	}

	// Refresh derived counters + badge pass for everyone with new artifacts.
	for owner := range affected {
		if err := w.progression.CatchUpBadges(owner); err != nil {
			log.Printf("⚠️ Post-sync badge pass failed for %s: %v", owner, err)
		}
	}
	log.Printf("✅ Social sync: %d comments, %d photos, %d messages, %d friendships (%d users refreshed)",
		len(changes.Comments), len(changes.Photos), len(changes.Messages), len(changes.Friendships), len(affected))
	return nil
}

func (w *SocialSyncWorker) upsert(row interface{}) error {
	return w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
