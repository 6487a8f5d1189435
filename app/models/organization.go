package models

import "time"

// Organization is a club or student group whose Google Calendar is mirrored
// into the app. CalendarID names the provider-side calendar resource that gets
// watched. SyncToken is the incremental sync cursor; it stays empty until the
// first full sync completed and is cleared to force a full listing.
type Organization struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	CalendarID   string     `gorm:"type:varchar(255)" json:"calendar_id"`
	SyncToken    string     `gorm:"type:varchar(255)" json:"-"`
	LastSyncedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
