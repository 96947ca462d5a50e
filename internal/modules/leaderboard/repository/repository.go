package repository

import (
	"context"
	"time"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScoreRow is one aggregated (user, score) pair from the ledger.
type ScoreRow struct {
	UserID uuid.UUID
	Score  int
}

// LeaderboardRepository serves authoritative ranking queries straight from
// the grant table. The redis index is only ever a cache of these results.
type LeaderboardRepository interface {
	TopScores(ctx context.Context, kinds []string, start, end time.Time, limit int) ([]ScoreRow, error)
	UserScore(ctx context.Context, userID uuid.UUID, kinds []string, start, end time.Time) (int, error)
	CountRankedAbove(ctx context.Context, userID uuid.UUID, score int, kinds []string, start, end time.Time) (int64, error)
	HasGrants(ctx context.Context, userID uuid.UUID, kinds []string, start, end time.Time) (bool, error)
	ScanAllGrants(ctx context.Context, batchSize int, fn func([]model.Grant) error) error
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) scoped(ctx context.Context, kinds []string, start, end time.Time) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Grant{}).
		Where("granted_at >= ? AND granted_at < ?", start, end)
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}
	return query
}

// TopScores orders by score descending with ascending user_id breaking
// ties, the total order every ranked read must agree with.
func (r *leaderboardRepository) TopScores(ctx context.Context, kinds []string, start, end time.Time, limit int) ([]ScoreRow, error) {
	var rows []ScoreRow
	err := r.scoped(ctx, kinds, start, end).
		Select("user_id, SUM(xp_delta) as score").
		Group("user_id").
		Order("score DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *leaderboardRepository) UserScore(ctx context.Context, userID uuid.UUID, kinds []string, start, end time.Time) (int, error) {
	var score int
	err := r.scoped(ctx, kinds, start, end).
		Select("COALESCE(SUM(xp_delta), 0)").
		Where("user_id = ?", userID).
		Scan(&score).Error
	return score, err
}

// CountRankedAbove counts users strictly ahead of (score, userID) in the
// total order. Rank is that count plus one.
func (r *leaderboardRepository) CountRankedAbove(ctx context.Context, userID uuid.UUID, score int, kinds []string, start, end time.Time) (int64, error) {
	sub := r.scoped(ctx, kinds, start, end).
		Select("user_id, SUM(xp_delta) as score").
		Group("user_id")

	var count int64
	err := r.db.WithContext(ctx).
		Table("(?) as ranked", sub).
		Where("ranked.score > ? OR (ranked.score = ? AND ranked.user_id < ?)", score, score, userID).
		Count(&count).Error
	return count, err
}

func (r *leaderboardRepository) HasGrants(ctx context.Context, userID uuid.UUID, kinds []string, start, end time.Time) (bool, error) {
	var count int64
	err := r.scoped(ctx, kinds, start, end).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// ScanAllGrants streams the whole ledger for index rebuilds. The scan
// orders by primary key because batches paginate on it; ZINCRBY folds are
// commutative, so replay order does not matter.
func (r *leaderboardRepository) ScanAllGrants(ctx context.Context, batchSize int, fn func([]model.Grant) error) error {
	var batch []model.Grant
	return r.db.WithContext(ctx).
		Order("id ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
