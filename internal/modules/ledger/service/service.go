package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clubdev.app/gamify/internal/model"
	leaderboard "clubdev.app/gamify/internal/modules/leaderboard/service"
	ledgerRepo "clubdev.app/gamify/internal/modules/ledger/repository"
	notification "clubdev.app/gamify/internal/modules/notification/service"
	rules "clubdev.app/gamify/internal/modules/rules/service"
	"clubdev.app/gamify/pkg/apperror"
	"clubdev.app/gamify/pkg/dto"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const recomputeBatchSize = 500

// recomputeParallelism bounds concurrent per-user folds during RecomputeAll.
const recomputeParallelism = 8

type LedgerService interface {
	// Append commits at most one grant per (event, rule) pair and returns
	// only the newly committed ones. Replaying the same event is a no-op.
	Append(ctx context.Context, event model.ActivityEvent, matches []rules.Match) ([]model.Grant, error)
	GetScore(ctx context.Context, userID uuid.UUID) (*model.UserStats, dto.LevelStatus, []string, error)
	GetBadges(ctx context.Context, userID uuid.UUID) ([]string, error)
	Recompute(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)
	RecomputeAll(ctx context.Context) error
	Reverse(ctx context.Context, grantID uuid.UUID) (*model.Grant, error)
}

type ledgerService struct {
	repo      ledgerRepo.LedgerRepository
	index     leaderboard.LeaderboardService
	publisher notification.GrantPublisher
}

func NewLedgerService(repo ledgerRepo.LedgerRepository, index leaderboard.LeaderboardService, publisher notification.GrantPublisher) LedgerService {
	return &ledgerService{
		repo:      repo,
		index:     index,
		publisher: publisher,
	}
}

// fanOut pushes committed grants into the leaderboard index and emits one
// GrantCreated signal per grant. Every commit path goes through here, so
// corrections reach the index the same way event grants do. Both sides are
// best-effort: the index is a rebuildable cache and reads fall back to the
// ledger until the consistency sweep repairs it.
func (s *ledgerService) fanOut(ctx context.Context, committed []model.Grant) {
	for _, grant := range committed {
		if err := s.index.Apply(ctx, grant); err != nil {
			log.Printf("⚠️ Failed to index grant %s: %v", grant.GrantID, err)
		}
		s.publisher.PublishGrantCreated(ctx, grant)
	}
}

func (s *ledgerService) Append(ctx context.Context, event model.ActivityEvent, matches []rules.Match) ([]model.Grant, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	grants := make([]model.Grant, 0, len(matches))
	for _, match := range matches {
		grants = append(grants, model.Grant{
			GrantID:       uuid.New(),
			UserID:        event.UserID,
			SourceEventID: event.EventID,
			RuleID:        match.Rule.RuleID,
			RuleVersion:   match.Rule.Version,
			Kind:          event.Kind,
			XPDelta:       match.XPDelta,
			BadgeID:       match.BadgeID,
			GrantedAt:     now,
		})
	}

	committed, err := s.repo.AppendGrants(ctx, grants)
	if err != nil {
		return nil, fmt.Errorf("%w: appending grants for event %s: %v", apperror.ErrStorageUnavailable, event.EventID, err)
	}
	if len(committed) == 0 {
		// Every pair already granted; replay detected.
		log.Printf("Duplicate grants skipped for event %s (user %s)", event.EventID, event.UserID)
		return nil, nil
	}

	if err := s.applyToStats(ctx, event.UserID, committed); err != nil {
		// Grants are durable; the cache catches up on the next recompute.
		log.Printf("⚠️ Failed to update stats cache for user %s: %v", event.UserID, err)
	}
	s.fanOut(ctx, committed)

	return committed, nil
}

func (s *ledgerService) applyToStats(ctx context.Context, userID uuid.UUID, committed []model.Grant) error {
	xpDelta := 0
	// Two rules can award the same badge for one event; the badge is still
	// one badge.
	badges := make(map[string]bool)
	for _, grant := range committed {
		xpDelta += grant.XPDelta
		if grant.BadgeID != nil {
			badges[*grant.BadgeID] = true
		}
	}

	if err := s.repo.AddToStats(ctx, userID, xpDelta, 1, len(badges)); err != nil {
		return err
	}

	// Level is a step function of the new total; read back and set it.
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return err
	}
	level := dto.ComputeLevelStatus(stats.TotalXP).Level
	if level != stats.Level {
		return s.repo.SetLevel(ctx, userID, level)
	}
	return nil
}

func (s *ledgerService) GetScore(ctx context.Context, userID uuid.UUID) (*model.UserStats, dto.LevelStatus, []string, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, dto.LevelStatus{}, nil, fmt.Errorf("%w: reading stats for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	badges, err := s.repo.GetBadges(ctx, userID)
	if err != nil {
		return nil, dto.LevelStatus{}, nil, fmt.Errorf("%w: reading badges for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	return stats, dto.ComputeLevelStatus(stats.TotalXP), badges, nil
}

func (s *ledgerService) GetBadges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	badges, err := s.repo.GetBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading badges for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}
	return badges, nil
}

// Recompute folds the full grant history for a user and rebuilds the
// cached stats. The fold is order-independent and cancellable; the cached
// row is only replaced once the fold completes.
func (s *ledgerService) Recompute(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	totalXP := 0
	badges := make(map[string]bool)

	err := s.repo.ScanGrants(ctx, userID, recomputeBatchSize, func(batch []model.Grant) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, grant := range batch {
			totalXP += grant.XPDelta
			if grant.BadgeID != nil {
				badges[*grant.BadgeID] = true
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: recomputing user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	stats := &model.UserStats{
		UserID:        userID,
		TotalXP:       totalXP,
		Level:         dto.ComputeLevelStatus(totalXP).Level,
		BadgeCount:    len(badges),
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.UpsertStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("%w: publishing recomputed stats for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	return stats, nil
}

// RecomputeAll rebuilds every user's cached stats from the ledger. Users
// are independent, so folds run in parallel.
func (s *ledgerService) RecomputeAll(ctx context.Context) error {
	userIDs, err := s.repo.DistinctUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("%w: listing users for recompute: %v", apperror.ErrStorageUnavailable, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeParallelism)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			_, err := s.Recompute(gctx, userID)
			return err
		})
	}
	return g.Wait()
}

// Reverse records a correction: a new negative-delta grant under the
// reserved correction rule. History is never edited. The correction's
// source event is the grant being reversed, so a grant can only be
// reversed once.
func (s *ledgerService) Reverse(ctx context.Context, grantID uuid.UUID) (*model.Grant, error) {
	original, err := s.repo.FindGrant(ctx, grantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("%w: loading grant %s: %v", apperror.ErrStorageUnavailable, grantID, err)
	}
	if original.RuleID == model.CorrectionRuleID {
		return nil, fmt.Errorf("%w: corrections cannot be reversed", apperror.ErrBadRequest)
	}

	correction := model.Grant{
		GrantID:       uuid.New(),
		UserID:        original.UserID,
		SourceEventID: original.GrantID,
		RuleID:        model.CorrectionRuleID,
		RuleVersion:   1,
		Kind:          original.Kind,
		XPDelta:       -original.XPDelta,
		GrantedAt:     time.Now().UTC(),
	}

	committed, err := s.repo.AppendGrants(ctx, []model.Grant{correction})
	if err != nil {
		return nil, fmt.Errorf("%w: appending correction for grant %s: %v", apperror.ErrStorageUnavailable, grantID, err)
	}
	if len(committed) == 0 {
		return nil, apperror.ErrDuplicateGrant
	}

	if err := s.applyToStats(ctx, original.UserID, committed); err != nil {
		log.Printf("⚠️ Failed to update stats cache after reversal for user %s: %v", original.UserID, err)
	}
	s.fanOut(ctx, committed)

	return &committed[0], nil
}
