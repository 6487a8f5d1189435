package repository

import (
	"time"

	"github.com/MaxKoenig/ClubSync/app/models"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization-related database operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id uint) (*models.Organization, error)
	GetBySlug(slug string) (*models.Organization, error)
	List(offset, limit int) ([]models.Organization, error)
	Update(org *models.Organization) error
	UpdateSyncToken(id uint, token string, syncedAt time.Time) error
}

// CredentialRepository defines the interface for calendar credential operations
type CredentialRepository interface {
	GetByOrganizationID(orgID uint) (*models.CalendarCredential, error)
	Upsert(cred *models.CalendarCredential) error
	// UpdateTokens persists a refreshed access token. An empty refreshToken
	// leaves the stored refresh token untouched.
	UpdateTokens(orgID uint, accessToken string, expiresAt *time.Time, refreshToken string) error
	// ClearRefreshToken marks the credential as degraded after Google
	// reported the stored grant invalid.
	ClearRefreshToken(orgID uint) error
}

// WatchRepository defines the interface for push notification channel rows
type WatchRepository interface {
	Create(watch *models.CalendarWatch) error
	GetByChannelID(channelID string) (*models.CalendarWatch, error)
	GetByOrganizationID(orgID uint) ([]models.CalendarWatch, error)
	FindExpiringBefore(t time.Time) ([]models.CalendarWatch, error)
	DeleteByChannelID(channelID string) error
}

// EventRepository defines the interface for synced calendar events
type EventRepository interface {
	Upsert(event *models.CalendarEvent) error
	DeleteByProviderEventID(orgID uint, providerEventID string) error
	GetByOrganizationID(orgID uint, offset, limit int) ([]models.CalendarEvent, error)
	CountByOrganizationID(orgID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Organization OrganizationRepository
	Credential   CredentialRepository
	Watch        WatchRepository
	Event        EventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		Credential:   NewCredentialRepository(db),
		Watch:        NewWatchRepository(db),
		Event:        NewEventRepository(db),
	}
}
