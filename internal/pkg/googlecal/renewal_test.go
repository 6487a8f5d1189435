package googlecal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxKoenig/ClubSync/app/models"
)

func expiringWatch(orgID uint, channelID string, in time.Duration) *models.CalendarWatch {
	return &models.CalendarWatch{
		ChannelID:      channelID,
		OrganizationID: orgID,
		ExpiresAt:      time.Now().Add(in),
	}
}

func TestRenewExpiringNoExpiries(t *testing.T) {
	watches := newMemWatches(expiringWatch(1, "far-out", 72*time.Hour))
	lifecycle := &scriptedLifecycle{}
	s := NewRenewalScheduler(watches, lifecycle)

	summary, err := s.RenewExpiring(context.Background(), DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total())
	assert.Empty(t, lifecycle.createdOrgs())
}

func TestRenewExpiringIsolatesFailures(t *testing.T) {
	watches := newMemWatches(
		expiringWatch(1, "c1", time.Hour),
		expiringWatch(2, "c2", time.Hour),
		expiringWatch(3, "c3", time.Hour),
		expiringWatch(4, "c4", time.Hour),
		expiringWatch(5, "c5", time.Hour),
	)
	lifecycle := &scriptedLifecycle{
		createFn: func(ctx context.Context, orgID uint) (*models.CalendarWatch, error) {
			if orgID == 2 || orgID == 4 {
				return nil, assert.AnError
			}
			return &models.CalendarWatch{ChannelID: "new", OrganizationID: orgID}, nil
		},
	}
	s := NewRenewalScheduler(watches, lifecycle)

	summary, err := s.RenewExpiring(context.Background(), DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Renewed)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, lifecycle.createdOrgs(), 5, "a failing organization must not keep others from renewing")
}

func TestRenewExpiringDedupesPerOrganization(t *testing.T) {
	// Overlap rows from a previous renewal: two channels, one organization.
	watches := newMemWatches(
		expiringWatch(1, "old", time.Hour),
		expiringWatch(1, "older", 30*time.Minute),
	)
	lifecycle := &scriptedLifecycle{}
	s := NewRenewalScheduler(watches, lifecycle)

	summary, err := s.RenewExpiring(context.Background(), DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Renewed)
	assert.Equal(t, []uint{1}, lifecycle.createdOrgs())
}

func TestRenewExpiringCountsTeardownFailureAsRenewed(t *testing.T) {
	watches := newMemWatches(expiringWatch(1, "old", time.Hour))
	lifecycle := &scriptedLifecycle{
		stopFn: func(ctx context.Context, orgID uint, exceptChannelID string) error {
			return assert.AnError
		},
	}
	s := NewRenewalScheduler(watches, lifecycle)

	summary, err := s.RenewExpiring(context.Background(), DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Renewed)
	assert.Equal(t, 0, summary.Failed)
}

func TestRenewExpiringReauthHook(t *testing.T) {
	watches := newMemWatches(
		expiringWatch(1, "c1", time.Hour),
		expiringWatch(2, "c2", time.Hour),
	)
	lifecycle := &scriptedLifecycle{
		createFn: func(ctx context.Context, orgID uint) (*models.CalendarWatch, error) {
			if orgID == 2 {
				return nil, ErrReauthRequired
			}
			return &models.CalendarWatch{ChannelID: "new", OrganizationID: orgID}, nil
		},
	}
	s := NewRenewalScheduler(watches, lifecycle)

	var mu sync.Mutex
	var notified []uint
	s.OnReauthRequired = func(orgID uint) {
		mu.Lock()
		notified = append(notified, orgID)
		mu.Unlock()
	}

	summary, err := s.RenewExpiring(context.Background(), DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Renewed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []uint{2}, notified)
}

func TestRenewExpiringCancelledContextStartsNothing(t *testing.T) {
	watches := newMemWatches(
		expiringWatch(1, "c1", time.Hour),
		expiringWatch(2, "c2", time.Hour),
	)
	lifecycle := &scriptedLifecycle{}
	s := NewRenewalScheduler(watches, lifecycle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.RenewExpiring(ctx, DefaultRenewalWindow)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total())
	assert.Empty(t, lifecycle.createdOrgs())
}

func TestBatchSummaryTotal(t *testing.T) {
	assert.Equal(t, 0, BatchSummary{}.Total())
	assert.Equal(t, 5, BatchSummary{Renewed: 3, Failed: 2}.Total())
}
