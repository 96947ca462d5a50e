package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clubdev.app/gamify/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (*gorm.DB, LedgerRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Grant{}, &model.UserStats{}))
	return db, NewLedgerRepository(db)
}

func insertGrant(t *testing.T, db *gorm.DB, userID uuid.UUID, xp int, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Grant{
		GrantID:       uuid.New(),
		UserID:        userID,
		SourceEventID: uuid.New(),
		RuleID:        fmt.Sprintf("rule_%s", uuid.NewString()[:8]),
		RuleVersion:   1,
		Kind:          model.KindCodeUpload,
		XPDelta:       xp,
		GrantedAt:     at,
	}).Error)
}

func TestScanGrants(t *testing.T) {
	ctx := context.Background()

	t.Run("visits every row across batch boundaries", func(t *testing.T) {
		db, repo := setupRepo(t)
		userID := uuid.New()
		now := time.Now().UTC()

		// Insertion order deliberately disagrees with granted_at order:
		// under concurrent appends an earlier timestamp can land a later id.
		insertGrant(t, db, userID, 1, now.Add(2*time.Second))
		insertGrant(t, db, userID, 2, now)
		insertGrant(t, db, userID, 4, now.Add(1*time.Second))

		visited := 0
		total := 0
		err := repo.ScanGrants(ctx, userID, 2, func(batch []model.Grant) error {
			for _, grant := range batch {
				visited++
				total += grant.XPDelta
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, visited)
		assert.Equal(t, 7, total)
	})

	t.Run("scan total always matches the summed ledger", func(t *testing.T) {
		db, repo := setupRepo(t)
		userID := uuid.New()
		now := time.Now().UTC()

		// Timestamps shuffled relative to ids.
		for i, offset := range []int{5, 1, 4, 0, 3, 2, 6} {
			insertGrant(t, db, userID, 1<<i, now.Add(time.Duration(offset)*time.Second))
		}

		scanned := 0
		err := repo.ScanGrants(ctx, userID, 3, func(batch []model.Grant) error {
			for _, grant := range batch {
				scanned += grant.XPDelta
			}
			return nil
		})
		require.NoError(t, err)

		summed, err := repo.SumXP(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, summed, scanned)
	})
}
