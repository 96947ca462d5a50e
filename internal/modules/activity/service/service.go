package activity

import (
	"context"
	"fmt"
	"log"

	"clubdev.app/gamify/internal/model"
	activityDto "clubdev.app/gamify/internal/modules/activity/dto"
	activityRepo "clubdev.app/gamify/internal/modules/activity/repository"
	ledgerDto "clubdev.app/gamify/internal/modules/ledger/dto"
	ledger "clubdev.app/gamify/internal/modules/ledger/service"
	rules "clubdev.app/gamify/internal/modules/rules/service"
	streak "clubdev.app/gamify/internal/modules/streak/service"
	"clubdev.app/gamify/pkg/apperror"
	"github.com/google/uuid"
)

type ActivityService interface {
	// Submit processes one activity event end to end: persist, evaluate,
	// append grants, update the derived views. Safe under at-least-once
	// delivery; re-submitting an event commits nothing new.
	Submit(ctx context.Context, req activityDto.SubmitEventRequest) (*activityDto.SubmitEventResponse, error)
}

type activityService struct {
	repo          activityRepo.ActivityRepository
	ruleService   rules.RuleService
	ledgerService ledger.LedgerService
	streakService streak.StreakService
}

func NewActivityService(
	repo activityRepo.ActivityRepository,
	ruleService rules.RuleService,
	ledgerService ledger.LedgerService,
	streakService streak.StreakService,
) ActivityService {
	return &activityService{
		repo:          repo,
		ruleService:   ruleService,
		ledgerService: ledgerService,
		streakService: streakService,
	}
}

func (s *activityService) Submit(ctx context.Context, req activityDto.SubmitEventRequest) (*activityDto.SubmitEventResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperror.ErrInvalidInput
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.ErrInvalidInput
	}

	event := model.ActivityEvent{
		EventID:    eventID,
		UserID:     userID,
		Kind:       req.Kind,
		OccurredAt: req.OccurredAt.UTC(),
		Payload:    req.Payload,
	}

	stored, err := s.repo.CreateIfAbsent(ctx, &event)
	if err != nil {
		return nil, fmt.Errorf("%w: storing event %s: %v", apperror.ErrStorageUnavailable, eventID, err)
	}
	if !stored {
		// Retry of an event we already kept. Events are immutable: ignore
		// the resubmitted fields and re-run evaluation against the stored
		// row; the ledger's uniqueness makes re-granting a no-op.
		kept, err := s.repo.FindByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("%w: loading stored event %s: %v", apperror.ErrStorageUnavailable, eventID, err)
		}
		event = *kept
		log.Printf("Replay of event %s (user %s, kind %s)", eventID, event.UserID, event.Kind)
	}

	committed, err := s.evaluateAndCommit(ctx, event)
	if err != nil {
		return nil, err
	}

	if event.Kind == model.KindChallengeSolved {
		if _, err := s.streakService.RecordCompletion(ctx, event.UserID, event.OccurredAt); err != nil {
			// Streak state is rebuildable; the grant commit stands.
			log.Printf("⚠️ Failed to update streak for user %s: %v", event.UserID, err)
		}
	}

	results := make([]ledgerDto.GrantResult, 0, len(committed))
	for _, grant := range committed {
		results = append(results, ledgerDto.GrantResult{
			GrantID:     grant.GrantID,
			RuleID:      grant.RuleID,
			RuleVersion: grant.RuleVersion,
			XPDelta:     grant.XPDelta,
			BadgeID:     grant.BadgeID,
			GrantedAt:   grant.GrantedAt,
		})
	}

	return &activityDto.SubmitEventResponse{
		EventID:   req.EventID,
		Duplicate: !stored,
		Grants:    results,
	}, nil
}

func (s *activityService) evaluateAndCommit(ctx context.Context, event model.ActivityEvent) ([]model.Grant, error) {
	ruleSet, err := s.ruleService.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshotFor(ctx, event.UserID)
	if err != nil {
		return nil, err
	}

	matches := rules.Evaluate(event, ruleSet, snapshot)
	if len(matches) == 0 {
		// Not an error: the kind simply maps to no active rule.
		log.Printf("Event %s (kind %s) matched no rules", event.EventID, event.Kind)
		return nil, nil
	}

	// The ledger fans committed grants out to the leaderboard index and the
	// GrantCreated channel itself.
	return s.ledgerService.Append(ctx, event, matches)
}

func (s *activityService) snapshotFor(ctx context.Context, userID uuid.UUID) (rules.Snapshot, error) {
	stats, _, badges, err := s.ledgerService.GetScore(ctx, userID)
	if err != nil {
		return rules.Snapshot{}, err
	}

	state, err := s.streakService.GetStreak(ctx, userID)
	if err != nil {
		return rules.Snapshot{}, err
	}

	badgeSet := make(map[string]bool, len(badges))
	for _, badge := range badges {
		badgeSet[badge] = true
	}

	return rules.Snapshot{
		TotalXP:       stats.TotalXP,
		Badges:        badgeSet,
		CurrentStreak: state.CurrentStreak,
	}, nil
}
