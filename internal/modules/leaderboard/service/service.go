package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"clubdev.app/gamify/internal/model"
	leaderboardDto "clubdev.app/gamify/internal/modules/leaderboard/dto"
	leaderboardRepo "clubdev.app/gamify/internal/modules/leaderboard/repository"
	"clubdev.app/gamify/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	rebuildBatchSize = 1000

	// consistencyDepth is how far down the sweep compares the redis index
	// against the ledger before declaring the index corrupt.
	consistencyDepth = 10
)

type LeaderboardService interface {
	// Apply folds one committed grant into every (category, window) pair it
	// falls into. O(log n) per affected entry via ZINCRBY.
	Apply(ctx context.Context, grant model.Grant) error
	TopK(ctx context.Context, category, window string, k int) ([]leaderboardDto.Entry, error)
	RankOf(ctx context.Context, userID uuid.UUID, category, window string) (*leaderboardDto.RankResponse, error)
	// Rebuild discards the redis index and replays the whole ledger into
	// fresh keys. The live index keeps serving until the swap.
	Rebuild(ctx context.Context) error
	CheckConsistency(ctx context.Context) error
}

type leaderboardService struct {
	repo        leaderboardRepo.LeaderboardRepository
	redisClient *redis.Client
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, redisClient *redis.Client) LeaderboardService {
	return &leaderboardService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func keyFor(category, windowKey string) string {
	return fmt.Sprintf("lb:%s:%s", category, windowKey)
}

func (s *leaderboardService) Apply(ctx context.Context, grant model.Grant) error {
	if s.redisClient == nil {
		// SQL aggregation serves reads directly; nothing to maintain.
		return nil
	}

	pipe := s.redisClient.Pipeline()
	for _, category := range CategoriesForKind(grant.Kind) {
		for _, window := range WindowsAt(grant.GrantedAt) {
			pipe.ZIncrBy(ctx, keyFor(category, window.Key), float64(grant.XPDelta), grant.UserID.String())
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("applying grant %s to index: %w", grant.GrantID, err)
	}
	return nil
}

func (s *leaderboardService) TopK(ctx context.Context, category, windowName string, k int) ([]leaderboardDto.Entry, error) {
	kinds, err := KindsForCategory(category)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryGlobal
	}
	window, err := ResolveWindow(windowName, time.Now())
	if err != nil {
		return nil, err
	}

	var rows []leaderboardRepo.ScoreRow
	if s.redisClient != nil {
		rows, err = s.topKFromIndex(ctx, category, window, k)
		if err != nil {
			log.Printf("⚠️ Leaderboard index read failed for %s/%s, falling back to ledger: %v", category, window.Key, err)
			rows = nil
		}
	}
	if rows == nil {
		rows, err = s.repo.TopScores(ctx, kinds, window.Start, window.End, k)
		if err != nil {
			return nil, fmt.Errorf("%w: ranking %s/%s: %v", apperror.ErrStorageUnavailable, category, window.Key, err)
		}
	}

	entries := make([]leaderboardDto.Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, leaderboardDto.Entry{
			UserID:      row.UserID,
			Rank:        i + 1,
			Score:       row.Score,
			Category:    category,
			Window:      window.Name,
			WindowStart: window.Start,
			WindowEnd:   window.End,
		})
	}
	return entries, nil
}

// topKFromIndex reads the cached ZSET. Redis breaks score ties by member in
// the opposite direction of our total order, so the page is re-sorted here,
// and boundary ties are pulled in before the cut so no equal-score user
// with a smaller ID is left out.
func (s *leaderboardService) topKFromIndex(ctx context.Context, category string, window Window, k int) ([]leaderboardRepo.ScoreRow, error) {
	key := keyFor(category, window.Key)

	members, err := s.redisClient.ZRevRangeWithScores(ctx, key, 0, int64(k-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		// Empty or missing key: defer to the ledger.
		return nil, nil
	}

	seen := make(map[string]float64, len(members))
	for _, member := range members {
		seen[member.Member.(string)] = member.Score
	}

	if len(members) == k {
		boundary := strconv.FormatFloat(members[len(members)-1].Score, 'f', -1, 64)
		tied, err := s.redisClient.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min: boundary,
			Max: boundary,
		}).Result()
		if err != nil {
			return nil, err
		}
		for _, member := range tied {
			seen[member.Member.(string)] = member.Score
		}
	}

	rows := make([]leaderboardRepo.ScoreRow, 0, len(seen))
	for member, score := range seen {
		userID, err := uuid.Parse(member)
		if err != nil {
			return nil, fmt.Errorf("%w: non-uuid member %q in %s", apperror.ErrCorruptIndex, member, key)
		}
		rows = append(rows, leaderboardRepo.ScoreRow{UserID: userID, Score: int(score)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	if len(rows) > k {
		rows = rows[:k]
	}
	return rows, nil
}

func (s *leaderboardService) RankOf(ctx context.Context, userID uuid.UUID, category, windowName string) (*leaderboardDto.RankResponse, error) {
	kinds, err := KindsForCategory(category)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryGlobal
	}
	window, err := ResolveWindow(windowName, time.Now())
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		resp, err := s.rankFromIndex(ctx, userID, category, window)
		if err == nil && resp != nil {
			return resp, nil
		}
		if err != nil {
			log.Printf("⚠️ Leaderboard rank read failed for %s in %s/%s, falling back to ledger: %v", userID, category, window.Key, err)
		}
	}

	present, err := s.repo.HasGrants(ctx, userID, kinds, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: rank lookup for %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}
	if !present {
		return nil, apperror.ErrNotFound
	}

	score, err := s.repo.UserScore(ctx, userID, kinds, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: rank lookup for %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}
	above, err := s.repo.CountRankedAbove(ctx, userID, score, kinds, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: rank lookup for %s: %v", apperror.ErrStorageUnavailable, userID, err)
	}

	return &leaderboardDto.RankResponse{
		UserID:   userID,
		Rank:     int(above) + 1,
		Score:    score,
		Category: category,
		Window:   window.Name,
	}, nil
}

func (s *leaderboardService) rankFromIndex(ctx context.Context, userID uuid.UUID, category string, window Window) (*leaderboardDto.RankResponse, error) {
	key := keyFor(category, window.Key)
	member := userID.String()

	score, err := s.redisClient.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		// Not in the index; let the ledger decide.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	scoreRepr := strconv.FormatFloat(score, 'f', -1, 64)
	higher, err := s.redisClient.ZCount(ctx, key, "("+scoreRepr, "+inf").Result()
	if err != nil {
		return nil, err
	}

	// Members tied on score come back in ascending member order, which is
	// exactly the tie-break order.
	tied, err := s.redisClient.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: scoreRepr,
		Max: scoreRepr,
	}).Result()
	if err != nil {
		return nil, err
	}
	offset := 0
	for i, m := range tied {
		if m == member {
			offset = i
			break
		}
	}

	return &leaderboardDto.RankResponse{
		UserID:   userID,
		Rank:     int(higher) + offset + 1,
		Score:    int(score),
		Category: category,
		Window:   window.Name,
	}, nil
}

func (s *leaderboardService) Rebuild(ctx context.Context) error {
	if s.redisClient == nil {
		// Reads already come straight from the ledger.
		return nil
	}

	log.Println("🔄 Rebuilding leaderboard index from ledger...")

	// Snapshot the keys currently serving so stale ones can be dropped
	// after the swap.
	stale := make(map[string]bool)
	iter := s.redisClient.Scan(ctx, 0, "lb:*", 0).Iterator()
	for iter.Next(ctx) {
		stale[iter.Val()] = true
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning index keys: %w", err)
	}

	built := make(map[string]string) // temp key -> final key
	err := s.repo.ScanAllGrants(ctx, rebuildBatchSize, func(batch []model.Grant) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pipe := s.redisClient.Pipeline()
		for _, grant := range batch {
			for _, category := range CategoriesForKind(grant.Kind) {
				for _, window := range WindowsAt(grant.GrantedAt) {
					final := keyFor(category, window.Key)
					temp := final + ":rebuild"
					if _, ok := built[temp]; !ok {
						// A crashed earlier rebuild can leave this temp key
						// behind; start it from empty.
						built[temp] = final
						pipe.Del(ctx, temp)
					}
					pipe.ZIncrBy(ctx, temp, float64(grant.XPDelta), grant.UserID.String())
				}
			}
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		// Leave the live index untouched; drop any temp keys.
		for temp := range built {
			s.redisClient.Del(context.WithoutCancel(ctx), temp)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: replaying ledger: %v", apperror.ErrStorageUnavailable, err)
	}

	// Swap: RENAME each rebuilt key over the live one, then drop live keys
	// nothing was rebuilt for.
	for temp, final := range built {
		if err := s.redisClient.Rename(ctx, temp, final).Err(); err != nil {
			return fmt.Errorf("swapping index key %s: %w", final, err)
		}
		delete(stale, final)
	}
	for key := range stale {
		s.redisClient.Del(ctx, key)
	}

	log.Printf("✅ Leaderboard index rebuilt (%d keys)", len(built))
	return nil
}

// CheckConsistency compares the cached index against the ledger for the
// global all-time board. Any divergence marks the index corrupt and
// triggers a rebuild rather than a crash.
func (s *leaderboardService) CheckConsistency(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}

	window := AllTimeWindow()
	cached, err := s.topKFromIndex(ctx, CategoryGlobal, window, consistencyDepth)
	if err != nil {
		log.Printf("⚠️ Consistency sweep could not read index: %v", err)
		return s.Rebuild(ctx)
	}
	if cached == nil {
		// Index empty; nothing to verify.
		return nil
	}

	authoritative, err := s.repo.TopScores(ctx, nil, window.Start, window.End, consistencyDepth)
	if err != nil {
		return fmt.Errorf("%w: consistency sweep: %v", apperror.ErrStorageUnavailable, err)
	}

	if !sameRanking(cached, authoritative) {
		log.Printf("⚠️ %v: index disagrees with ledger, rebuilding", apperror.ErrCorruptIndex)
		return s.Rebuild(ctx)
	}
	return nil
}

func sameRanking(a, b []leaderboardRepo.ScoreRow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].UserID != b[i].UserID || a[i].Score != b[i].Score {
			return false
		}
	}
	return true
}
