package repository

import (
	"context"
	"time"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository interface {
	AppendGrants(ctx context.Context, grants []model.Grant) ([]model.Grant, error)
	AddToStats(ctx context.Context, userID uuid.UUID, xpDelta, level, badgeDelta int) error
	SetLevel(ctx context.Context, userID uuid.UUID, level int) error
	UpsertStats(ctx context.Context, stats *model.UserStats) error
	GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)
	GetBadges(ctx context.Context, userID uuid.UUID) ([]string, error)
	FindGrant(ctx context.Context, grantID uuid.UUID) (*model.Grant, error)
	ScanGrants(ctx context.Context, userID uuid.UUID, batchSize int, fn func([]model.Grant) error) error
	DistinctUserIDs(ctx context.Context) ([]uuid.UUID, error)
	SumXP(ctx context.Context, userID uuid.UUID) (int, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// AppendGrants inserts grants inside one transaction. The unique index on
// (source_event_id, rule_id) rejects replays: a conflicting row is skipped
// with DoNothing and only newly committed grants are returned. Either all
// returned grants are durable or none are.
func (r *ledgerRepository) AppendGrants(ctx context.Context, grants []model.Grant) ([]model.Grant, error) {
	var committed []model.Grant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range grants {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "source_event_id"}, {Name: "rule_id"}},
				DoNothing: true,
			}).Create(&grants[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				committed = append(committed, grants[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return committed, nil
}

// AddToStats applies a delta to the cached totals with an arithmetic upsert,
// so concurrent appends for the same user never lose increments.
func (r *ledgerRepository) AddToStats(ctx context.Context, userID uuid.UUID, xpDelta, level, badgeDelta int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_xp":        gorm.Expr("user_stats.total_xp + ?", xpDelta),
			"badge_count":     gorm.Expr("user_stats.badge_count + ?", badgeDelta),
			"last_updated_at": time.Now().UTC(),
		}),
	}).Create(&model.UserStats{
		UserID:     userID,
		TotalXP:    xpDelta,
		Level:      level,
		BadgeCount: badgeDelta,
	}).Error
}

func (r *ledgerRepository) SetLevel(ctx context.Context, userID uuid.UUID, level int) error {
	return r.db.WithContext(ctx).Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("level", level).Error
}

func (r *ledgerRepository) UpsertStats(ctx context.Context, stats *model.UserStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(stats).Error
}

func (r *ledgerRepository) GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Zero stats for users with no grants yet
			return &model.UserStats{UserID: userID, Level: 1}, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (r *ledgerRepository) GetBadges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var badges []string
	err := r.db.WithContext(ctx).Model(&model.Grant{}).
		Distinct("badge_id").
		Where("user_id = ? AND badge_id IS NOT NULL", userID).
		Order("badge_id ASC").
		Pluck("badge_id", &badges).Error
	return badges, err
}

func (r *ledgerRepository) FindGrant(ctx context.Context, grantID uuid.UUID) (*model.Grant, error) {
	var grant model.Grant
	err := r.db.WithContext(ctx).Where("grant_id = ?", grantID).First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// ScanGrants streams a user's full grant history. Batches paginate on the
// primary key, so the scan must also order by it: any other order lets rows
// slip past the batch boundary. Folds over grants are order-independent
// (XP is a sum, badges a set union), so insertion order is fine.
// The callback may return an error to stop the scan early.
func (r *ledgerRepository) ScanGrants(ctx context.Context, userID uuid.UUID, batchSize int, fn func([]model.Grant) error) error {
	var batch []model.Grant
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func (r *ledgerRepository) DistinctUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Grant{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ledgerRepository) SumXP(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.Grant{}).
		Select("COALESCE(SUM(xp_delta), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}
