package models

import "time"

// CalendarWatch is one push notification channel registered with Google for
// an organization's calendar. Channels cannot be extended, only replaced, so
// renewal creates the replacement before the old channel is stopped; two rows
// per organization may coexist during that overlap window.
//
// Secret is the shared verification token handed to Google at creation and
// echoed back on every notification. It is never logged.
type CalendarWatch struct {
	ChannelID      string    `gorm:"primaryKey;type:varchar(64)" json:"channel_id"`
	OrganizationID uint      `gorm:"index" json:"organization_id"`
	ResourceID     string    `gorm:"type:varchar(191);not null" json:"resource_id"`
	Secret         string    `gorm:"type:varchar(128);not null" json:"-"`
	ExpiresAt      time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
