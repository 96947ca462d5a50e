package streak

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clubdev.app/gamify/internal/model"
	streakRepo "clubdev.app/gamify/internal/modules/streak/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) StreakService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.StreakState{}))
	return NewStreakService(streakRepo.NewStreakRepository(db))
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func TestRecordCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("three consecutive days build a streak of three", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()

		for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			_, err := svc.RecordCompletion(ctx, userID, day(t, d))
			require.NoError(t, err)
		}

		state, err := svc.GetStreak(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 3, state.CurrentStreak)
		assert.Equal(t, 3, state.LongestStreak)
	})

	t.Run("second completion on the same day does not increment", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()

		_, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-01").Add(8*time.Hour))
		require.NoError(t, err)
		state, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-01").Add(20*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, state.CurrentStreak)
	})

	t.Run("a gap of two or more days resets to one", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()

		for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			_, err := svc.RecordCompletion(ctx, userID, day(t, d))
			require.NoError(t, err)
		}
		state, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-05"))
		require.NoError(t, err)

		assert.Equal(t, 1, state.CurrentStreak)
		assert.Equal(t, 3, state.LongestStreak, "longest streak is a high-water mark")
	})

	t.Run("late completion for an older day is a no-op", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()

		_, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-02"))
		require.NoError(t, err)
		state, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-01"))
		require.NoError(t, err)

		assert.Equal(t, 1, state.CurrentStreak)
		require.NotNil(t, state.LastChallengeDate)
		assert.True(t, state.LastChallengeDate.Equal(day(t, "2024-01-02")))
	})

	t.Run("completions either side of midnight count as consecutive", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()

		_, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-01").Add(23*time.Hour+59*time.Minute))
		require.NoError(t, err)
		state, err := svc.RecordCompletion(ctx, userID, day(t, "2024-01-02").Add(1*time.Minute))
		require.NoError(t, err)

		assert.Equal(t, 2, state.CurrentStreak)
	})

	t.Run("non-UTC timestamps are bucketed by their UTC day", func(t *testing.T) {
		svc := setupService(t)
		userID := uuid.New()
		jakarta := time.FixedZone("WIB", 7*3600)

		// 2024-01-02 05:00 WIB is still 2024-01-01 UTC.
		_, err := svc.RecordCompletion(ctx, userID, time.Date(2024, 1, 2, 5, 0, 0, 0, jakarta))
		require.NoError(t, err)

		state, err := svc.GetStreak(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, state.LastChallengeDate)
		assert.True(t, state.LastChallengeDate.Equal(day(t, "2024-01-01")))
	})
}

func TestGetStreak(t *testing.T) {
	t.Run("unknown user has a zero streak", func(t *testing.T) {
		svc := setupService(t)

		state, err := svc.GetStreak(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 0, state.CurrentStreak)
		assert.Equal(t, 0, state.LongestStreak)
		assert.Nil(t, state.LastChallengeDate)
	})
}
