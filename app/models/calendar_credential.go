package models

import "time"

// CalendarCredential stores the Google OAuth credential used to manage an
// organization's calendar. The refresh token is cleared only when Google
// reports the grant invalid; the credential is then degraded and cannot be
// refreshed silently until the consent flow is re-run.
type CalendarCredential struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OrganizationID    uint       `gorm:"uniqueIndex" json:"organization_id"`
	ProviderAccountID string     `gorm:"type:varchar(191);index" json:"provider_account_id"`
	AccessToken       string     `gorm:"type:text" json:"-"`
	RefreshToken      string     `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NeedsReauth reports whether the credential can no longer be refreshed
// without sending the user through the forced-consent flow again.
func (c *CalendarCredential) NeedsReauth() bool {
	return c.RefreshToken == ""
}
