package streak

import (
	"context"
	"fmt"
	"time"

	"clubdev.app/gamify/internal/model"
	streakRepo "clubdev.app/gamify/internal/modules/streak/repository"
	"clubdev.app/gamify/pkg/apperror"
	"github.com/google/uuid"
)

// Day boundaries are UTC calendar days. A completion at 23:59 UTC and one
// at 00:01 UTC the next day count as consecutive days.

type StreakService interface {
	// RecordCompletion applies one challenge completion. At most one streak
	// increment happens per UTC day, so replays are no-ops.
	RecordCompletion(ctx context.Context, userID uuid.UUID, at time.Time) (*model.StreakState, error)
	GetStreak(ctx context.Context, userID uuid.UUID) (*model.StreakState, error)
}

type streakService struct {
	repo streakRepo.StreakRepository
}

func NewStreakService(repo streakRepo.StreakRepository) StreakService {
	return &streakService{repo: repo}
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *streakService) RecordCompletion(ctx context.Context, userID uuid.UUID, at time.Time) (*model.StreakState, error) {
	day := utcDay(at)
	var updated *model.StreakState

	err := s.repo.Transaction(ctx, func(repo streakRepo.StreakRepository) error {
		state, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		switch {
		case state.LastChallengeDate == nil:
			state.CurrentStreak = 1
			state.LastChallengeDate = &day

		case day.Equal(*state.LastChallengeDate):
			// Same day: no-op, replay or second completion.

		case day.Before(*state.LastChallengeDate):
			// Out-of-order delivery of an older completion; the state
			// already reflects a later day.

		case day.Sub(*state.LastChallengeDate) == 24*time.Hour:
			state.CurrentStreak++
			state.LastChallengeDate = &day

		default:
			// Gap of two or more days: streak restarts at one.
			state.CurrentStreak = 1
			state.LastChallengeDate = &day
		}

		if state.CurrentStreak > state.LongestStreak {
			state.LongestStreak = state.CurrentStreak
		}

		updated = state
		return repo.Upsert(ctx, state)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: recording completion for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	return updated, nil
}

func (s *streakService) GetStreak(ctx context.Context, userID uuid.UUID) (*model.StreakState, error) {
	state, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading streak for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}
	return state, nil
}
