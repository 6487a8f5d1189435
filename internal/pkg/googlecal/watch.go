package googlecal

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/MaxKoenig/ClubSync/app/models"
	"github.com/MaxKoenig/ClubSync/app/repository"
	"github.com/MaxKoenig/ClubSync/internal/pkg/security"
)

// WatchManager registers and tears down push notification channels.
//
// Call order contract for renewal: CreateWatch first, then StopWatch with the
// fresh channel id excluded. CreateWatch never removes or modifies existing
// rows, so an organization's calendar stays covered through the overlap
// window and never drops to zero active channels.
type WatchManager struct {
	orgs     repository.OrganizationRepository
	watches  repository.WatchRepository
	tokens   AccessTokenSource
	provider Provider
	address  string
}

// NewWatchManager creates a watch manager. address is the public webhook URL
// handed to Google at channel registration.
func NewWatchManager(
	orgs repository.OrganizationRepository,
	watches repository.WatchRepository,
	tokens AccessTokenSource,
	provider Provider,
	address string,
) *WatchManager {
	return &WatchManager{
		orgs:     orgs,
		watches:  watches,
		tokens:   tokens,
		provider: provider,
		address:  address,
	}
}

// CreateWatch registers a brand-new channel for the organization's calendar
// and persists it with a fresh verification secret. Existing channels are
// left alone; teardown is StopWatch's job.
func (m *WatchManager) CreateWatch(ctx context.Context, orgID uint) (*models.CalendarWatch, error) {
	org, err := m.orgs.GetByID(orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization %d: %w", orgID, err)
	}
	if org.CalendarID == "" {
		return nil, fmt.Errorf("organization %d has no calendar configured", orgID)
	}

	token, err := m.tokens.AccessToken(ctx, orgID, false)
	if err != nil {
		return nil, err
	}

	secret, err := security.NewChannelSecret()
	if err != nil {
		return nil, fmt.Errorf("generate channel secret: %w", err)
	}

	channel := &calendar.Channel{
		Id:      uuid.NewString(),
		Type:    "web_hook",
		Address: m.address,
		Token:   secret,
	}
	created, err := m.provider.Watch(ctx, token, org.CalendarID, channel)
	if err != nil {
		return nil, fmt.Errorf("register watch channel for organization %d: %w", orgID, err)
	}

	watch := &models.CalendarWatch{
		ChannelID:      created.Id,
		OrganizationID: orgID,
		ResourceID:     created.ResourceId,
		Secret:         secret,
		ExpiresAt:      time.UnixMilli(created.Expiration),
	}
	if err := m.watches.Create(watch); err != nil {
		return nil, fmt.Errorf("persist watch %s: %w", watch.ChannelID, err)
	}

	return watch, nil
}

// StopWatch cancels and deletes every channel of the organization except
// exceptChannelID. The row is deleted even when the provider-side stop
// fails: an orphaned channel stops mattering once its row is gone and
// expires on its own, a bounded cost rather than a correctness problem.
func (m *WatchManager) StopWatch(ctx context.Context, orgID uint, exceptChannelID string) error {
	token, err := m.tokens.AccessToken(ctx, orgID, false)
	if err != nil {
		return err
	}

	watches, err := m.watches.GetByOrganizationID(orgID)
	if err != nil {
		return fmt.Errorf("list watches for organization %d: %w", orgID, err)
	}

	for _, w := range watches {
		if w.ChannelID == exceptChannelID {
			continue
		}
		if err := m.provider.StopChannel(ctx, token, w.ChannelID, w.ResourceID); err != nil {
			log.Printf("[googlecal] stop channel %s for organization %d failed, channel will expire on its own: %v", w.ChannelID, orgID, err)
		}
		if err := m.watches.DeleteByChannelID(w.ChannelID); err != nil {
			return fmt.Errorf("delete watch %s: %w", w.ChannelID, err)
		}
	}

	return nil
}
