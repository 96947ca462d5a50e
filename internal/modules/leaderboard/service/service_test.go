package leaderboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clubdev.app/gamify/internal/model"
	leaderboardRepo "clubdev.app/gamify/internal/modules/leaderboard/repository"
	"clubdev.app/gamify/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*gorm.DB, LeaderboardService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Grant{}))
	// nil redis: reads come straight from the ledger aggregation
	return db, NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), nil)
}

func seedGrant(t *testing.T, db *gorm.DB, userID uuid.UUID, kind string, xp int, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Grant{
		GrantID:       uuid.New(),
		UserID:        userID,
		SourceEventID: uuid.New(),
		RuleID:        fmt.Sprintf("rule_%s", uuid.NewString()[:8]),
		RuleVersion:   1,
		Kind:          kind,
		XPDelta:       xp,
		GrantedAt:     at,
	}).Error)
}

func TestTopK(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("orders by score descending", func(t *testing.T) {
		db, svc := setupService(t)
		low, mid, high := uuid.New(), uuid.New(), uuid.New()
		seedGrant(t, db, low, model.KindCodeUpload, 10, now)
		seedGrant(t, db, high, model.KindCodeUpload, 50, now)
		seedGrant(t, db, mid, model.KindCodeUpload, 30, now)

		entries, err := svc.TopK(ctx, CategoryGlobal, WindowAllTime, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, high, entries[0].UserID)
		assert.Equal(t, mid, entries[1].UserID)
		assert.Equal(t, low, entries[2].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 3, entries[2].Rank)
	})

	t.Run("ties break by ascending user id", func(t *testing.T) {
		db, svc := setupService(t)
		a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
		b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
		seedGrant(t, db, b, model.KindCodeUpload, 20, now)
		seedGrant(t, db, a, model.KindCodeUpload, 20, now)

		entries, err := svc.TopK(ctx, CategoryGlobal, WindowAllTime, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, a, entries[0].UserID)
		assert.Equal(t, b, entries[1].UserID)
	})

	t.Run("sums every grant of a user inside the window", func(t *testing.T) {
		db, svc := setupService(t)
		userID := uuid.New()
		seedGrant(t, db, userID, model.KindCodeUpload, 10, now)
		seedGrant(t, db, userID, model.KindBlogPublish, 15, now)

		entries, err := svc.TopK(ctx, CategoryGlobal, WindowAllTime, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 25, entries[0].Score)
	})

	t.Run("category boards only count their own kinds", func(t *testing.T) {
		db, svc := setupService(t)
		coder, blogger := uuid.New(), uuid.New()
		seedGrant(t, db, coder, model.KindCodeUpload, 10, now)
		seedGrant(t, db, blogger, model.KindBlogPublish, 99, now)

		entries, err := svc.TopK(ctx, CategoryCode, WindowAllTime, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, coder, entries[0].UserID)
	})

	t.Run("weekly board excludes grants from other weeks", func(t *testing.T) {
		db, svc := setupService(t)
		recent, old := uuid.New(), uuid.New()
		seedGrant(t, db, recent, model.KindCodeUpload, 10, now)
		seedGrant(t, db, old, model.KindCodeUpload, 500, now.AddDate(0, 0, -21))

		entries, err := svc.TopK(ctx, CategoryGlobal, WindowWeekly, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, recent, entries[0].UserID)
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		_, svc := setupService(t)

		_, err := svc.TopK(ctx, "bowling", WindowAllTime, 10)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("unknown window is rejected", func(t *testing.T) {
		_, svc := setupService(t)

		_, err := svc.TopK(ctx, CategoryGlobal, "fortnightly", 10)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}

func TestRankOf(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("rank is one plus users strictly ahead", func(t *testing.T) {
		db, svc := setupService(t)
		first, second, third := uuid.New(), uuid.New(), uuid.New()
		seedGrant(t, db, first, model.KindCodeUpload, 50, now)
		seedGrant(t, db, second, model.KindCodeUpload, 30, now)
		seedGrant(t, db, third, model.KindCodeUpload, 10, now)

		resp, err := svc.RankOf(ctx, second, CategoryGlobal, WindowAllTime)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Rank)
		assert.Equal(t, 30, resp.Score)
	})

	t.Run("tied users get distinct consecutive ranks", func(t *testing.T) {
		db, svc := setupService(t)
		a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
		b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
		seedGrant(t, db, a, model.KindCodeUpload, 20, now)
		seedGrant(t, db, b, model.KindCodeUpload, 20, now)

		respA, err := svc.RankOf(ctx, a, CategoryGlobal, WindowAllTime)
		require.NoError(t, err)
		respB, err := svc.RankOf(ctx, b, CategoryGlobal, WindowAllTime)
		require.NoError(t, err)

		assert.Equal(t, 1, respA.Rank)
		assert.Equal(t, 2, respB.Rank)
	})

	t.Run("user with no grants in the window is not ranked", func(t *testing.T) {
		_, svc := setupService(t)

		_, err := svc.RankOf(ctx, uuid.New(), CategoryGlobal, WindowAllTime)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("user whose grants net to zero is still ranked", func(t *testing.T) {
		db, svc := setupService(t)
		userID := uuid.New()
		seedGrant(t, db, userID, model.KindCodeUpload, 10, now)
		seedGrant(t, db, userID, model.KindCodeUpload, -10, now)

		resp, err := svc.RankOf(ctx, userID, CategoryGlobal, WindowAllTime)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Score)
		assert.Equal(t, 1, resp.Rank)
	})
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	setupIndexed := func(t *testing.T) (*gorm.DB, *redis.Client, LeaderboardService) {
		t.Helper()
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(&model.Grant{}))
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return db, client, NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), client)
	}

	t.Run("replays the ledger into the index", func(t *testing.T) {
		db, client, svc := setupIndexed(t)
		userID := uuid.New()
		seedGrant(t, db, userID, model.KindCodeUpload, 10, now)
		seedGrant(t, db, userID, model.KindCodeUpload, 5, now)

		require.NoError(t, svc.Rebuild(ctx))

		score, err := client.ZScore(ctx, "lb:global:all", userID.String()).Result()
		require.NoError(t, err)
		assert.Equal(t, float64(15), score)
	})

	t.Run("a leftover working key does not leak into the result", func(t *testing.T) {
		db, client, svc := setupIndexed(t)
		userID := uuid.New()
		seedGrant(t, db, userID, model.KindCodeUpload, 10, now)

		// Working keys from a run that died mid-replay.
		require.NoError(t, client.ZIncrBy(ctx, "lb:global:all:rebuild", 999, userID.String()).Err())
		require.NoError(t, client.ZIncrBy(ctx, "lb:global:all:rebuild", 42, uuid.NewString()).Err())

		require.NoError(t, svc.Rebuild(ctx))

		score, err := client.ZScore(ctx, "lb:global:all", userID.String()).Result()
		require.NoError(t, err)
		assert.Equal(t, float64(10), score)

		count, err := client.ZCard(ctx, "lb:global:all").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("working keys are gone after the swap", func(t *testing.T) {
		db, client, svc := setupIndexed(t)
		seedGrant(t, db, uuid.New(), model.KindCodeUpload, 10, now)

		require.NoError(t, svc.Rebuild(ctx))

		keys, err := client.Keys(ctx, "lb:*:rebuild").Result()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("stale live keys from past windows are dropped", func(t *testing.T) {
		db, client, svc := setupIndexed(t)
		seedGrant(t, db, uuid.New(), model.KindCodeUpload, 10, now)
		require.NoError(t, client.ZIncrBy(ctx, "lb:global:1999-W01", 7, uuid.NewString()).Err())

		require.NoError(t, svc.Rebuild(ctx))

		exists, err := client.Exists(ctx, "lb:global:1999-W01").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), exists)
	})
}

func TestWindows(t *testing.T) {
	t.Run("weekly windows are ISO weeks starting Monday", func(t *testing.T) {
		// 2024-01-03 is a Wednesday in ISO week 2024-W01.
		w := WeekWindowAt(time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))

		assert.Equal(t, "2024-W01", w.Key)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), w.End)
	})

	t.Run("late December can fall into the next ISO year", func(t *testing.T) {
		// 2024-12-30 is a Monday in ISO week 2025-W01.
		w := WeekWindowAt(time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC))

		assert.Equal(t, "2025-W01", w.Key)
		assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), w.Start)
	})

	t.Run("monthly windows are calendar months", func(t *testing.T) {
		w := MonthWindowAt(time.Date(2024, 2, 15, 8, 0, 0, 0, time.UTC))

		assert.Equal(t, "2024-02", w.Key)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.End)
	})

	t.Run("adjacent windows do not overlap", func(t *testing.T) {
		thisWeek := WeekWindowAt(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
		nextWeek := WeekWindowAt(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

		assert.Equal(t, thisWeek.End, nextWeek.Start)
	})

	t.Run("a timestamp falls into exactly one window per kind", func(t *testing.T) {
		windows := WindowsAt(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))

		require.Len(t, windows, 3)
		names := []string{windows[0].Name, windows[1].Name, windows[2].Name}
		assert.Equal(t, []string{WindowAllTime, WindowWeekly, WindowMonthly}, names)
	})
}

func TestCategories(t *testing.T) {
	t.Run("every kind contributes to global", func(t *testing.T) {
		for _, kind := range []string{
			model.KindCodeUpload, model.KindBlogPublish, model.KindAnswerAccepted,
			model.KindChallengeSolved, model.KindGitHubStatSync,
			model.KindCommentReceived, model.KindLikeReceived,
		} {
			assert.Contains(t, CategoriesForKind(kind), CategoryGlobal, kind)
		}
	})

	t.Run("community collects comments and likes", func(t *testing.T) {
		kinds, err := KindsForCategory(CategoryCommunity)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{model.KindCommentReceived, model.KindLikeReceived}, kinds)
	})

	t.Run("global has no kind filter", func(t *testing.T) {
		kinds, err := KindsForCategory(CategoryGlobal)
		require.NoError(t, err)
		assert.Nil(t, kinds)
	})
}
