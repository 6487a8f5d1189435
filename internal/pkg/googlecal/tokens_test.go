package googlecal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/MaxKoenig/ClubSync/app/models"
)

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenURL + "/auth",
			TokenURL: tokenURL + "/token",
		},
	}
}

func TestAccessTokenReturnsStoredTokenInsideMargin(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 1,
		AccessToken:    "stored-token",
		RefreshToken:   "refresh",
		ExpiresAt:      &expiry,
	})

	// No token endpoint configured: any refresh attempt would fail loudly.
	tm := NewTokenManager(creds, testOAuthConfig("http://127.0.0.1:0"))

	got, err := tm.AccessToken(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, "stored-token", got)
}

func TestAccessTokenRefreshesExpiringToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	expiry := time.Now().Add(time.Minute) // inside the 10 minute margin
	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 1,
		AccessToken:    "stale-token",
		RefreshToken:   "refresh",
		ExpiresAt:      &expiry,
	})

	tm := NewTokenManager(creds, testOAuthConfig(srv.URL))

	got, err := tm.AccessToken(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", got)

	stored, err := creds.GetByOrganizationID(1)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken, "refresh token must survive when the endpoint does not rotate it")
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.ExpiresAt, time.Minute)
}

func TestAccessTokenForceRefreshIgnoresValidToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"forced-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	expiry := time.Now().Add(time.Hour)
	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 1,
		AccessToken:    "still-valid",
		RefreshToken:   "refresh",
		ExpiresAt:      &expiry,
	})

	tm := NewTokenManager(creds, testOAuthConfig(srv.URL))

	got, err := tm.AccessToken(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, "forced-token", got)
	assert.Equal(t, 1, calls)
}

func TestAccessTokenInvalidGrantDegradesCredential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer srv.Close()

	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 1,
		AccessToken:    "stale-token",
		RefreshToken:   "revoked-refresh",
	})

	tm := NewTokenManager(creds, testOAuthConfig(srv.URL))

	_, err := tm.AccessToken(context.Background(), 1, false)
	require.ErrorIs(t, err, ErrReauthRequired)
	assert.Equal(t, 1, calls)

	stored, err := creds.GetByOrganizationID(1)
	require.NoError(t, err)
	assert.True(t, stored.NeedsReauth())

	// The degraded credential must fail fast without another endpoint call.
	_, err = tm.AccessToken(context.Background(), 1, false)
	require.ErrorIs(t, err, ErrReauthRequired)
	assert.Equal(t, 1, calls)
}

func TestAccessTokenMissingRefreshTokenFailsWithoutNetwork(t *testing.T) {
	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 7,
		AccessToken:    "expired",
	})

	tm := NewTokenManager(creds, testOAuthConfig("http://127.0.0.1:0"))

	_, err := tm.AccessToken(context.Background(), 7, false)
	require.ErrorIs(t, err, ErrReauthRequired)
}

func TestAccessTokenUnknownOrganizationRequiresReauth(t *testing.T) {
	tm := NewTokenManager(newMemCredentials(), testOAuthConfig("http://127.0.0.1:0"))

	_, err := tm.AccessToken(context.Background(), 99, false)
	require.ErrorIs(t, err, ErrReauthRequired)
}

func TestAccessTokenStoresRotatedRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600,"refresh_token":"rotated-refresh"}`))
	}))
	defer srv.Close()

	creds := newMemCredentials(&models.CalendarCredential{
		OrganizationID: 1,
		RefreshToken:   "old-refresh",
	})

	tm := NewTokenManager(creds, testOAuthConfig(srv.URL))

	_, err := tm.AccessToken(context.Background(), 1, false)
	require.NoError(t, err)

	stored, err := creds.GetByOrganizationID(1)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", stored.RefreshToken)
}

func TestIsInvalidGrant(t *testing.T) {
	assert.False(t, isInvalidGrant(assert.AnError))

	rerr := &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
	assert.True(t, isInvalidGrant(rerr))

	rerr = &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Body:     []byte(`{"error":"invalid_grant"}`),
	}
	assert.True(t, isInvalidGrant(rerr))

	rerr = &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusInternalServerError},
		Body:     []byte("upstream hiccup"),
	}
	assert.False(t, isInvalidGrant(rerr))
}
