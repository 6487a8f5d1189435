package googlecal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MaxKoenig/ClubSync/app/models"
	"github.com/MaxKoenig/ClubSync/app/repository"
)

// DefaultRenewalWindow is how far ahead of expiration a channel is renewed.
const DefaultRenewalWindow = 24 * time.Hour

// BatchSummary aggregates one renewal run. It is returned and logged, never
// persisted.
type BatchSummary struct {
	Renewed int `json:"renewed"`
	Failed  int `json:"failed"`
}

// Total returns the number of organizations the run attempted.
func (s BatchSummary) Total() int {
	return s.Renewed + s.Failed
}

// WatchLifecycle is the WatchManager surface the scheduler depends on.
type WatchLifecycle interface {
	CreateWatch(ctx context.Context, orgID uint) (*models.CalendarWatch, error)
	StopWatch(ctx context.Context, orgID uint, exceptChannelID string) error
}

// RenewalScheduler renews channels that are about to expire. Every
// organization is renewed in its own goroutine and every outcome is
// collected; one organization's failure never short-circuits the batch.
type RenewalScheduler struct {
	watches repository.WatchRepository
	manager WatchLifecycle
	now     func() time.Time

	// OnReauthRequired is called once per run for every organization whose
	// renewal failed because the credential needs a fresh consent. Optional.
	OnReauthRequired func(orgID uint)
}

// NewRenewalScheduler creates a scheduler over the watch registry.
func NewRenewalScheduler(watches repository.WatchRepository, manager WatchLifecycle) *RenewalScheduler {
	return &RenewalScheduler{
		watches: watches,
		manager: manager,
		now:     time.Now,
	}
}

// RenewExpiring renews every channel expiring within the given window. An
// empty result is a normal outcome, not an error. When the context deadline
// is hit mid-run, in-flight renewals finish but no new ones are started; the
// summary covers completed outcomes only.
func (s *RenewalScheduler) RenewExpiring(ctx context.Context, within time.Duration) (BatchSummary, error) {
	if within <= 0 {
		within = DefaultRenewalWindow
	}

	expiring, err := s.watches.FindExpiringBefore(s.now().Add(within))
	if err != nil {
		return BatchSummary{}, fmt.Errorf("query expiring watches: %w", err)
	}
	if len(expiring) == 0 {
		return BatchSummary{}, nil
	}

	// One renewal per organization: rows overlapping from a previous
	// renewal would otherwise be renewed twice in the same run.
	orgIDs := make([]uint, 0, len(expiring))
	seen := make(map[uint]struct{}, len(expiring))
	for _, w := range expiring {
		if _, ok := seen[w.OrganizationID]; ok {
			continue
		}
		seen[w.OrganizationID] = struct{}{}
		orgIDs = append(orgIDs, w.OrganizationID)
	}

	results := make(chan error, len(orgIDs))
	var wg sync.WaitGroup
	started := 0
	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			log.Printf("[googlecal] renewal deadline reached, %d of %d organizations not started", len(orgIDs)-started, len(orgIDs))
			break
		}
		started++
		wg.Add(1)
		go func(orgID uint) {
			defer wg.Done()
			results <- s.renewOne(ctx, orgID)
		}(orgID)
	}
	wg.Wait()
	close(results)

	var summary BatchSummary
	for err := range results {
		if err != nil {
			summary.Failed++
		} else {
			summary.Renewed++
		}
	}
	return summary, nil
}

// renewOne replaces an organization's channel: register the new channel
// first, then tear down the superseded ones, so calendar coverage never has
// a gap. Failures are not retried here; the next scheduled run picks the
// organization up again as long as its row still reports an imminent expiry.
func (s *RenewalScheduler) renewOne(ctx context.Context, orgID uint) error {
	created, err := s.manager.CreateWatch(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrReauthRequired) {
			log.Printf("[googlecal] renewal for organization %d requires re-authorization", orgID)
			if s.OnReauthRequired != nil {
				s.OnReauthRequired(orgID)
			}
		} else {
			log.Printf("[googlecal] renewal for organization %d failed: %v", orgID, err)
		}
		return err
	}

	// The replacement exists, so a failed teardown only orphans the old
	// channel until it expires; the renewal itself counts as successful.
	if err := s.manager.StopWatch(ctx, orgID, created.ChannelID); err != nil {
		log.Printf("[googlecal] teardown of superseded channels for organization %d failed: %v", orgID, err)
	}
	return nil
}
