package googlecal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Provider is the slice of the Google Calendar API that watch management
// needs. It is an interface so tests run without network access.
type Provider interface {
	// Watch registers a push notification channel against a calendar and
	// returns the provider-completed channel (resource id, expiration).
	Watch(ctx context.Context, accessToken, calendarID string, channel *calendar.Channel) (*calendar.Channel, error)
	// StopChannel cancels a channel. Stopping an already-dead channel is
	// not an error on the provider side.
	StopChannel(ctx context.Context, accessToken, channelID, resourceID string) error
}

// Provider calls are bounded; a hanging call counts as a failure for that
// organization instead of stalling a renewal batch.
const providerTimeout = 30 * time.Second

type googleProvider struct{}

// NewProvider returns the production Google Calendar API provider.
func NewProvider() Provider {
	return googleProvider{}
}

func (googleProvider) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}

func (p googleProvider) Watch(ctx context.Context, accessToken, calendarID string, channel *calendar.Channel) (*calendar.Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return svc.Events.Watch(calendarID, channel).Context(ctx).Do()
}

func (p googleProvider) StopChannel(ctx context.Context, accessToken, channelID, resourceID string) error {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	return svc.Channels.Stop(&calendar.Channel{Id: channelID, ResourceId: resourceID}).Context(ctx).Do()
}
