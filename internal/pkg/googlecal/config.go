package googlecal

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/MaxKoenig/ClubSync/internal/pkg/env"
)

// Config carries the Google OAuth client used for calendar access plus the
// public address Google delivers push notifications to.
type Config struct {
	ClientID       string `validate:"required"`
	ClientSecret   string `validate:"required"`
	WebhookAddress string `validate:"required,url"`
}

// ConfigFromEnv builds and validates the calendar configuration from
// environment variables. Validation failures are configuration bugs and are
// surfaced at startup, not at first use.
func ConfigFromEnv() (*Config, error) {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	cfg := &Config{
		ClientID:       env.GetEnv("GOOGLE_KEY", ""),
		ClientSecret:   env.GetEnv("GOOGLE_SECRET", ""),
		WebhookAddress: base + "/api/calendar/webhook",
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("calendar configuration invalid: %w", err)
	}
	return cfg, nil
}

// OAuth returns the oauth2 client configuration used by the token refresh
// path. The consent flow itself runs through goth; both share the same
// Google client id and secret.
func (c *Config) OAuth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/calendar.readonly",
		},
	}
}
