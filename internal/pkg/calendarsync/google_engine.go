package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/MaxKoenig/ClubSync/app/models"
	"github.com/MaxKoenig/ClubSync/app/repository"
)

type eventsAPI interface {
	ListEvents(ctx context.Context, accessToken, calendarID, syncToken, pageToken string) (*calendar.Events, error)
}

type googleEventsAPI struct{}

func (googleEventsAPI) ListEvents(ctx context.Context, accessToken, calendarID, syncToken, pageToken string) (*calendar.Events, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	call := svc.Events.List(calendarID).SingleEvents(true).ShowDeleted(true).Context(ctx)
	if syncToken != "" {
		call = call.SyncToken(syncToken)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

// GoogleEngine is a straightforward reference reconciliation: list changed
// events (full listing when no sync token is stored or a full run is
// requested), upsert by provider event id, drop cancelled events, remember
// the next sync token on the organization.
type GoogleEngine struct {
	orgs   repository.OrganizationRepository
	events repository.EventRepository
	api    eventsAPI
	now    func() time.Time
}

// NewGoogleEngine creates the production engine over the Google Calendar API.
func NewGoogleEngine(orgs repository.OrganizationRepository, events repository.EventRepository) *GoogleEngine {
	return &GoogleEngine{
		orgs:   orgs,
		events: events,
		api:    googleEventsAPI{},
		now:    time.Now,
	}
}

func (e *GoogleEngine) SyncCalendar(ctx context.Context, orgID uint, fullSync bool, accessToken string) error {
	org, err := e.orgs.GetByID(orgID)
	if err != nil {
		return fmt.Errorf("load organization %d: %w", orgID, err)
	}
	if org.CalendarID == "" {
		return fmt.Errorf("organization %d has no calendar configured", orgID)
	}

	syncToken := org.SyncToken
	if fullSync {
		syncToken = ""
	}

	pageToken := ""
	for {
		res, err := e.api.ListEvents(ctx, accessToken, org.CalendarID, syncToken, pageToken)
		if err != nil {
			// A stale sync token is answered with 410 Gone; restart the run
			// as a full listing.
			if syncToken != "" && isGone(err) {
				syncToken = ""
				pageToken = ""
				continue
			}
			return fmt.Errorf("list events for organization %d: %w", orgID, err)
		}

		for _, item := range res.Items {
			if err := e.applyEvent(orgID, item); err != nil {
				return fmt.Errorf("apply event %s for organization %d: %w", item.Id, orgID, err)
			}
		}

		if res.NextPageToken != "" {
			pageToken = res.NextPageToken
			continue
		}
		if res.NextSyncToken != "" {
			if err := e.orgs.UpdateSyncToken(orgID, res.NextSyncToken, e.now()); err != nil {
				return fmt.Errorf("store sync token for organization %d: %w", orgID, err)
			}
		}
		return nil
	}
}

func (e *GoogleEngine) applyEvent(orgID uint, item *calendar.Event) error {
	if item.Status == "cancelled" {
		return e.events.DeleteByProviderEventID(orgID, item.Id)
	}

	return e.events.Upsert(&models.CalendarEvent{
		OrganizationID:  orgID,
		ProviderEventID: item.Id,
		Title:           item.Summary,
		Description:     item.Description,
		Location:        item.Location,
		Status:          item.Status,
		StartAt:         eventTime(item.Start),
		EndAt:           eventTime(item.End),
	})
}

func eventTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	// All-day events carry only a date.
	if dt.Date != "" {
		if t, err := time.Parse("2006-01-02", dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusGone
}
