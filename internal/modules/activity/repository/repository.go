package repository

import (
	"context"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	CreateIfAbsent(ctx context.Context, event *model.ActivityEvent) (bool, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.ActivityEvent, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// CreateIfAbsent inserts the event unless its event_id already exists.
// Returns false when the event was already stored (upstream retry).
func (r *activityRepository) CreateIfAbsent(ctx context.Context, event *model.ActivityEvent) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *activityRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.ActivityEvent, error) {
	var event model.ActivityEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
