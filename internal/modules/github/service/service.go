package github

import (
	"context"
	"fmt"
	"time"

	"clubdev.app/gamify/internal/model"
	activityDto "clubdev.app/gamify/internal/modules/activity/dto"
	activity "clubdev.app/gamify/internal/modules/activity/service"
	githubDto "clubdev.app/gamify/internal/modules/github/dto"
	githubRepo "clubdev.app/gamify/internal/modules/github/repository"
	"clubdev.app/gamify/pkg/apperror"
	"github.com/google/uuid"
)

// milestoneNamespace seeds the deterministic event IDs. Re-ingesting the
// same snapshot yields the same IDs, so the ledger's uniqueness constraint
// absorbs repeated polls.
var milestoneNamespace = uuid.MustParse("7a8b1c6e-52d4-4f7e-9a3d-0c1e2f3a4b5c")

const (
	MetricStars   = "stars"
	MetricForks   = "forks"
	MetricCommits = "commits"
)

var milestones = map[string][]int64{
	MetricStars:   {10, 50, 100, 500, 1000},
	MetricForks:   {10, 50, 100, 500, 1000},
	MetricCommits: {100, 500, 1000, 5000},
}

type GitHubService interface {
	// Ingest diffs a snapshot against the last recorded one and routes a
	// synthetic event through the activity pipeline for every milestone
	// crossed.
	Ingest(ctx context.Context, userID uuid.UUID, req githubDto.SnapshotRequest) (*githubDto.IngestResponse, error)
}

type githubService struct {
	repo            githubRepo.SnapshotRepository
	activityService activity.ActivityService
}

func NewGitHubService(repo githubRepo.SnapshotRepository, activityService activity.ActivityService) GitHubService {
	return &githubService{
		repo:            repo,
		activityService: activityService,
	}
}

// MilestoneEventID derives the idempotent event ID for one crossing.
func MilestoneEventID(userID uuid.UUID, metric string, threshold int64) uuid.UUID {
	name := fmt.Sprintf("%s|%s|%d", userID, metric, threshold)
	return uuid.NewSHA1(milestoneNamespace, []byte(name))
}

func (s *githubService) Ingest(ctx context.Context, userID uuid.UUID, req githubDto.SnapshotRequest) (*githubDto.IngestResponse, error) {
	last, err := s.repo.GetLast(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading snapshot for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	current := map[string]int64{
		MetricStars:   req.Stars,
		MetricForks:   req.Forks,
		MetricCommits: req.Commits,
	}
	previous := map[string]int64{
		MetricStars:   last.Stars,
		MetricForks:   last.Forks,
		MetricCommits: last.Commits,
	}

	resp := &githubDto.IngestResponse{}
	now := time.Now().UTC()

	for _, metric := range []string{MetricStars, MetricForks, MetricCommits} {
		for _, threshold := range milestones[metric] {
			if previous[metric] >= threshold || current[metric] < threshold {
				continue
			}

			eventID := MilestoneEventID(userID, metric, threshold)
			milestone := githubDto.MilestoneEvent{
				EventID:   eventID.String(),
				Metric:    metric,
				Threshold: threshold,
				Value:     current[metric],
			}

			result, err := s.activityService.Submit(ctx, activityDto.SubmitEventRequest{
				EventID:    eventID.String(),
				UserID:     userID.String(),
				Kind:       model.KindGitHubStatSync,
				OccurredAt: now,
				Payload: map[string]interface{}{
					"metric":    metric,
					"threshold": threshold,
					"value":     current[metric],
				},
			})
			if err != nil {
				// Snapshot row stays untouched: the next poll re-synthesizes
				// the same event IDs and the ledger dedupes whatever landed.
				return nil, err
			}

			resp.Synthesized = append(resp.Synthesized, milestone)
			resp.Grants = append(resp.Grants, result.Grants...)
		}
	}

	if err := s.repo.Upsert(ctx, &model.GitHubSnapshot{
		UserID:     userID,
		Stars:      req.Stars,
		Forks:      req.Forks,
		Commits:    req.Commits,
		RecordedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("%w: recording snapshot for user %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	return resp, nil
}
