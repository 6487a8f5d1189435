package models

import "time"

// CalendarEvent is the internal copy of one provider calendar event, written
// by the sync engine and read by the public API.
type CalendarEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrganizationID  uint      `gorm:"index:org_event,unique,priority:1;index" json:"organization_id"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;index:org_event,unique,priority:2" json:"provider_event_id"`
	Title           string    `gorm:"type:varchar(255)" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Location        string    `gorm:"type:varchar(255)" json:"location"`
	Status          string    `gorm:"type:varchar(50)" json:"status"`
	StartAt         time.Time `gorm:"index" json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
