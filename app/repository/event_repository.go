package repository

import (
	"errors"

	"github.com/MaxKoenig/ClubSync/app/models"
	"gorm.io/gorm"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Upsert writes an event keyed by (organization, provider event id).
func (r *eventRepository) Upsert(event *models.CalendarEvent) error {
	var existing models.CalendarEvent
	err := r.db.Where("organization_id = ? AND provider_event_id = ?", event.OrganizationID, event.ProviderEventID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(event).Error
	}
	if err != nil {
		return err
	}
	event.ID = existing.ID
	event.CreatedAt = existing.CreatedAt
	return r.db.Save(event).Error
}

func (r *eventRepository) DeleteByProviderEventID(orgID uint, providerEventID string) error {
	return r.db.Where("organization_id = ? AND provider_event_id = ?", orgID, providerEventID).
		Delete(&models.CalendarEvent{}).Error
}

func (r *eventRepository) GetByOrganizationID(orgID uint, offset, limit int) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := r.db.Where("organization_id = ?", orgID).
		Order("start_at ASC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

func (r *eventRepository) CountByOrganizationID(orgID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CalendarEvent{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}
