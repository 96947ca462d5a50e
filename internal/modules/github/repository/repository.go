package repository

import (
	"context"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository interface {
	GetLast(ctx context.Context, userID uuid.UUID) (*model.GitHubSnapshot, error)
	Upsert(ctx context.Context, snapshot *model.GitHubSnapshot) error
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetLast(ctx context.Context, userID uuid.UUID) (*model.GitHubSnapshot, error) {
	var snapshot model.GitHubSnapshot
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&snapshot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// First sync: all metrics start at zero.
			return &model.GitHubSnapshot{UserID: userID}, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *model.GitHubSnapshot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(snapshot).Error
}
