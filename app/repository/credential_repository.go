package repository

import (
	"errors"
	"time"

	"github.com/MaxKoenig/ClubSync/app/models"
	"gorm.io/gorm"
)

// credentialRepository implements the CredentialRepository interface
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository instance
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByOrganizationID(orgID uint) (*models.CalendarCredential, error) {
	var cred models.CalendarCredential
	err := r.db.Where("organization_id = ?", orgID).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Upsert creates the credential row for an organization or updates the
// existing one in place. A credential is never deleted here; it belongs to
// the broader account system.
func (r *credentialRepository) Upsert(cred *models.CalendarCredential) error {
	var existing models.CalendarCredential
	err := r.db.Where("organization_id = ?", cred.OrganizationID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(cred).Error
	}
	if err != nil {
		return err
	}
	cred.ID = existing.ID
	cred.CreatedAt = existing.CreatedAt
	return r.db.Save(cred).Error
}

func (r *credentialRepository) UpdateTokens(orgID uint, accessToken string, expiresAt *time.Time, refreshToken string) error {
	updates := map[string]any{
		"access_token": accessToken,
		"expires_at":   expiresAt,
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&models.CalendarCredential{}).
		Where("organization_id = ?", orgID).
		Updates(updates).Error
}

func (r *credentialRepository) ClearRefreshToken(orgID uint) error {
	return r.db.Model(&models.CalendarCredential{}).
		Where("organization_id = ?", orgID).
		Updates(map[string]any{"refresh_token": "", "access_token": "", "expires_at": nil}).Error
}
