package repository

import (
	"context"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.StreakState, error)
	// GetForUpdate reads with a row lock so concurrent completions for the
	// same user serialize inside Transaction.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.StreakState, error)
	Upsert(ctx context.Context, state *model.StreakState) error
	Transaction(ctx context.Context, fn func(repo StreakRepository) error) error
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(ctx context.Context, userID uuid.UUID) (*model.StreakState, error) {
	var state model.StreakState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.StreakState{UserID: userID}, nil
		}
		return nil, err
	}
	return &state, nil
}

// The sqlite driver drops the locking clause; postgres takes FOR UPDATE.
func (r *streakRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.StreakState, error) {
	var state model.StreakState
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.StreakState{UserID: userID}, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *streakRepository) Upsert(ctx context.Context, state *model.StreakState) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(state).Error
}

// Transaction runs fn against a repository bound to one DB transaction, so
// the read-modify-write of a user's streak row is atomic.
func (r *streakRepository) Transaction(ctx context.Context, fn func(repo StreakRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&streakRepository{db: tx})
	})
}
