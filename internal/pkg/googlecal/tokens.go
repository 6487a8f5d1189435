package googlecal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/MaxKoenig/ClubSync/app/repository"
)

// ErrReauthRequired signals that the stored refresh token is missing or was
// revoked by Google. The condition is not transient; callers must route the
// organization through the forced-consent flow instead of retrying.
var ErrReauthRequired = errors.New("googlecal: re-authorization required")

const (
	// Tokens expiring within this margin are refreshed proactively so a
	// token handed to a caller stays valid for the duration of its use.
	refreshMargin  = 10 * time.Minute
	refreshTimeout = 15 * time.Second
)

// AccessTokenSource hands out valid access tokens per organization.
type AccessTokenSource interface {
	AccessToken(ctx context.Context, orgID uint, forceRefresh bool) (string, error)
}

// TokenManager refreshes stored credentials against the Google token
// endpoint. Refresh-and-persist for one organization runs under a keyed
// mutex; concurrent refreshes across processes are not locked and resolve
// last-write-wins, at worst costing a redundant token endpoint call.
type TokenManager struct {
	creds repository.CredentialRepository
	oauth *oauth2.Config
	now   func() time.Time

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewTokenManager creates a token manager over the credential store.
func NewTokenManager(creds repository.CredentialRepository, oauthCfg *oauth2.Config) *TokenManager {
	return &TokenManager{
		creds: creds,
		oauth: oauthCfg,
		now:   time.Now,
		locks: make(map[uint]*sync.Mutex),
	}
}

func (m *TokenManager) orgLock(orgID uint) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[orgID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[orgID] = lock
	}
	return lock
}

// AccessToken returns a valid access token for the organization, refreshing
// it when forced or when the stored token expires within the safety margin.
// A degraded credential (no refresh token) fails with ErrReauthRequired
// without any network call.
func (m *TokenManager) AccessToken(ctx context.Context, orgID uint, forceRefresh bool) (string, error) {
	lock := m.orgLock(orgID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := m.creds.GetByOrganizationID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrReauthRequired
		}
		return "", fmt.Errorf("load credential for organization %d: %w", orgID, err)
	}

	if !forceRefresh && cred.AccessToken != "" && cred.ExpiresAt != nil && cred.ExpiresAt.Sub(m.now()) > refreshMargin {
		return cred.AccessToken, nil
	}

	if cred.NeedsReauth() {
		return "", ErrReauthRequired
	}

	rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	tok, err := m.oauth.TokenSource(rctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		if isInvalidGrant(err) {
			// Google revoked the grant. Persist the degraded state so later
			// calls fail fast without hitting the token endpoint again.
			if clearErr := m.creds.ClearRefreshToken(orgID); clearErr != nil {
				log.Printf("[googlecal] failed to mark credential for organization %d as degraded: %v", orgID, clearErr)
			}
			return "", ErrReauthRequired
		}
		return "", fmt.Errorf("refresh access token for organization %d: %w", orgID, err)
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		expiresAt = &expiry
	}
	rotated := ""
	if tok.RefreshToken != "" && tok.RefreshToken != cred.RefreshToken {
		rotated = tok.RefreshToken
	}
	if err := m.creds.UpdateTokens(orgID, tok.AccessToken, expiresAt, rotated); err != nil {
		return "", fmt.Errorf("persist refreshed token for organization %d: %w", orgID, err)
	}

	return tok.AccessToken, nil
}

// isInvalidGrant reports whether the token endpoint rejected the refresh
// token itself (revoked or expired grant) rather than failing transiently.
func isInvalidGrant(err error) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.ErrorCode == "invalid_grant" {
		return true
	}
	return rerr.Response != nil &&
		rerr.Response.StatusCode == http.StatusBadRequest &&
		strings.Contains(string(rerr.Body), "invalid_grant")
}
