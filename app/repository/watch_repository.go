package repository

import (
	"time"

	"github.com/MaxKoenig/ClubSync/app/models"
	"gorm.io/gorm"
)

// watchRepository implements the WatchRepository interface
type watchRepository struct {
	db *gorm.DB
}

// NewWatchRepository creates a new watch repository instance
func NewWatchRepository(db *gorm.DB) WatchRepository {
	return &watchRepository{db: db}
}

func (r *watchRepository) Create(watch *models.CalendarWatch) error {
	return r.db.Create(watch).Error
}

func (r *watchRepository) GetByChannelID(channelID string) (*models.CalendarWatch, error) {
	var watch models.CalendarWatch
	err := r.db.Where("channel_id = ?", channelID).First(&watch).Error
	if err != nil {
		return nil, err
	}
	return &watch, nil
}

func (r *watchRepository) GetByOrganizationID(orgID uint) ([]models.CalendarWatch, error) {
	var watches []models.CalendarWatch
	err := r.db.Where("organization_id = ?", orgID).Order("created_at ASC").Find(&watches).Error
	return watches, err
}

// FindExpiringBefore returns every channel whose expiration falls before t,
// including channels that already expired.
func (r *watchRepository) FindExpiringBefore(t time.Time) ([]models.CalendarWatch, error) {
	var watches []models.CalendarWatch
	err := r.db.Where("expires_at < ?", t).Order("expires_at ASC").Find(&watches).Error
	return watches, err
}

func (r *watchRepository) DeleteByChannelID(channelID string) error {
	return r.db.Where("channel_id = ?", channelID).Delete(&models.CalendarWatch{}).Error
}
