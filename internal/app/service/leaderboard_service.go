package service

import (
	"context"
	"sort"
	"time"

	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/metrics"
	"chimu/internal/platform/logger"

	"github.com/shopspring/decimal"
)

// LeaderboardService aggregates ratings into a ranked leaderboard. The
// computation is read-only and recomputed on demand; the redis cache in front
// of it is invalidated on every rating and project write.
type LeaderboardService struct {
	jamRepo      repository.JamRepository
	projectRepo  repository.ProjectRepository
	ratingRepo   repository.RatingRepository
	criteriaRepo repository.CriteriaRepository
	judgeRepo    repository.JudgeRepository
	cache        *LeaderboardCache
	log          *logger.Logger
}

func NewLeaderboardService(
	jamRepo repository.JamRepository,
	projectRepo repository.ProjectRepository,
	ratingRepo repository.RatingRepository,
	criteriaRepo repository.CriteriaRepository,
	judgeRepo repository.JudgeRepository,
	cache *LeaderboardCache,
	log *logger.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		jamRepo:      jamRepo,
		projectRepo:  projectRepo,
		ratingRepo:   ratingRepo,
		criteriaRepo: criteriaRepo,
		judgeRepo:    judgeRepo,
		cache:        cache,
		log:          log,
	}
}

func (s *LeaderboardService) ComputeLeaderboard(ctx context.Context, jamID string) (*model.Leaderboard, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, jamID)
		if err != nil {
			s.log.Warn("leaderboard cache read failed", "jam_id", jamID, "error", err)
		} else if cached != nil {
			metrics.LeaderboardCacheHits.Inc()
			return cached, nil
		}
		metrics.LeaderboardCacheMisses.Inc()
	}

	started := time.Now()
	defer func() {
		metrics.LeaderboardComputeDuration.Observe(time.Since(started).Seconds())
	}()

	if _, err := s.jamRepo.FindJamByID(ctx, jamID); err != nil {
		return nil, err
	}
	criteria, err := s.criteriaRepo.ListCriteriaByJam(ctx, jamID)
	if err != nil {
		return nil, err
	}
	totalJudges, err := s.judgeRepo.CountJudgesByJam(ctx, jamID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.ListEligibleProjects(ctx, jamID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratingRepo.ListRatingsByJam(ctx, jamID)
	if err != nil {
		return nil, err
	}

	lb := buildLeaderboard(jamID, criteria, totalJudges, projects, ratings)

	if s.cache != nil {
		if err := s.cache.Set(ctx, lb); err != nil {
			s.log.Warn("leaderboard cache write failed", "jam_id", jamID, "error", err)
		}
	}
	return lb, nil
}

// buildLeaderboard is the pure aggregation core. All arithmetic is decimal;
// an average over judge scores and a multiplication by a criteria weight never
// pass through binary floating point.
func buildLeaderboard(
	jamID string,
	criteria []model.RatingCriteria,
	totalJudges int,
	projects []model.Project,
	ratings []model.Rating,
) *model.Leaderboard {
	// (projectID, criteriaID) -> ratings
	type cellKey struct{ projectID, criteriaID string }
	cells := make(map[cellKey][]model.Rating)
	for _, r := range ratings {
		k := cellKey{r.ProjectID, r.CriteriaID}
		cells[k] = append(cells[k], r)
	}

	entries := make([]model.LeaderboardEntry, 0, len(projects))
	for _, p := range projects {
		entry := model.LeaderboardEntry{
			ProjectID:        p.ID,
			ProjectName:      p.Name,
			TeamID:           p.TeamID,
			TeamName:         p.TeamName,
			SubmittedAt:      p.SubmittedAt,
			TotalScore:       decimal.Zero,
			AllCriteriaRated: len(criteria) > 0 && totalJudges > 0,
		}

		for _, c := range criteria {
			cell := cells[cellKey{p.ID, c.ID}]

			avg := decimal.Zero
			judges := map[string]bool{}
			if len(cell) > 0 {
				sum := decimal.Zero
				for _, r := range cell {
					sum = sum.Add(r.Score)
					judges[r.JudgeID] = true
				}
				avg = sum.Div(decimal.NewFromInt(int64(len(cell))))
			}
			weighted := avg.Mul(c.Weight)
			entry.TotalScore = entry.TotalScore.Add(weighted)

			// Completeness is judge-level: a criteria with some ratings but a
			// missing judge still leaves the project unqualified.
			if len(cell) == 0 || len(judges) != totalJudges {
				entry.AllCriteriaRated = false
			}

			entry.CriteriaScores = append(entry.CriteriaScores, model.CriteriaScore{
				CriteriaID:    c.ID,
				CriteriaName:  c.Name,
				AverageScore:  avg,
				WeightedScore: weighted,
				RatingCount:   len(cell),
				JudgesRated:   len(judges),
			})
		}
		entries = append(entries, entry)
	}

	// Total desc, then earliest submission first. The ordering is total and
	// deterministic; nothing is left to map iteration or input order.
	sort.SliceStable(entries, func(i, j int) bool {
		cmp := entries[i].TotalScore.Cmp(entries[j].TotalScore)
		if cmp != 0 {
			return cmp > 0
		}
		a, b := entries[i].SubmittedAt, entries[j].SubmittedAt
		switch {
		case a == nil && b == nil:
			return entries[i].ProjectID < entries[j].ProjectID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return entries[i].ProjectID < entries[j].ProjectID
	})

	qualified := 0
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].AllCriteriaRated {
			qualified++
		}
	}

	return &model.Leaderboard{
		JamID:             jamID,
		GeneratedAt:       time.Now().UTC(),
		TotalJudges:       totalJudges,
		QualifiedProjects: qualified,
		Entries:           entries,
	}
}
