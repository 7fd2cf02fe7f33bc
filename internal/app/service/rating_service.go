package service

import (
	"context"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RatingService struct {
	ratingRepo   repository.RatingRepository
	criteriaRepo repository.CriteriaRepository
	projectRepo  repository.ProjectRepository
	jamRepo      repository.JamRepository
	judgeRepo    repository.JudgeRepository
	cache        *LeaderboardCache
	log          *logger.Logger
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	criteriaRepo repository.CriteriaRepository,
	projectRepo repository.ProjectRepository,
	jamRepo repository.JamRepository,
	judgeRepo repository.JudgeRepository,
	cache *LeaderboardCache,
	log *logger.Logger,
) *RatingService {
	return &RatingService{
		ratingRepo:   ratingRepo,
		criteriaRepo: criteriaRepo,
		projectRepo:  projectRepo,
		jamRepo:      jamRepo,
		judgeRepo:    judgeRepo,
		cache:        cache,
		log:          log,
	}
}

type RateRequest struct {
	ProjectID  string          `json:"project_id"`
	CriteriaID string          `json:"criteria_id"`
	Score      decimal.Decimal `json:"score"`
	Comment    *string         `json:"comment,omitempty"`
}

// Rate records a judge's score for one (project, criteria) pair. The first
// call creates the row; repeat calls for the same triple update it in place.
// The judge must be assigned to the project's jam, the criteria must belong to
// that jam, the jam must be in JUDGING, and the score must sit within
// [0, maxScore].
func (s *RatingService) Rate(ctx context.Context, judgeID string, req RateRequest) (*model.Rating, error) {
	project, err := s.projectRepo.FindProjectByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	criteria, err := s.criteriaRepo.FindCriteriaByID(ctx, req.CriteriaID)
	if err != nil {
		return nil, err
	}
	if criteria.JamID != project.JamID {
		return nil, common.ErrCriteriaJamMismatch
	}

	assigned, err := s.judgeRepo.IsAssignedJudge(ctx, project.JamID, judgeID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, common.ErrNotAssignedJudge
	}

	jam, err := s.jamRepo.FindJamByID(ctx, project.JamID)
	if err != nil {
		return nil, err
	}
	if jam.Status != model.JamJudging {
		return nil, common.Errorf("ratings are only accepted while judging is open: %w", common.ErrInvalidJamState)
	}

	if err := validateScore(req.Score, criteria); err != nil {
		return nil, err
	}

	rating := &model.Rating{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		JudgeID:    judgeID,
		CriteriaID: req.CriteriaID,
		Score:      req.Score,
		Comment:    req.Comment,
	}
	if err := s.ratingRepo.UpsertRating(ctx, rating); err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx, project.JamID)
	s.log.Info("rating recorded",
		"project_id", req.ProjectID, "judge_id", judgeID, "criteria_id", req.CriteriaID)
	return rating, nil
}

type UpdateRatingRequest struct {
	Score   decimal.Decimal `json:"score"`
	Comment *string         `json:"comment,omitempty"`
}

// UpdateRating lets the recording judge revise their own score any time before
// the jam completes.
func (s *RatingService) UpdateRating(ctx context.Context, ratingID, judgeID string, req UpdateRatingRequest) (*model.Rating, error) {
	rating, err := s.ratingRepo.FindRatingByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.JudgeID != judgeID {
		return nil, common.Errorf("ratings can only be revised by their judge: %w", common.ErrForbidden)
	}

	criteria, err := s.criteriaRepo.FindCriteriaByID(ctx, rating.CriteriaID)
	if err != nil {
		return nil, err
	}
	jam, err := s.jamRepo.FindJamByID(ctx, criteria.JamID)
	if err != nil {
		return nil, err
	}
	if jam.IsTerminal() {
		return nil, common.Errorf("ratings are frozen once the jam has finished: %w", common.ErrInvalidJamState)
	}

	if err := validateScore(req.Score, criteria); err != nil {
		return nil, err
	}
	if err := s.ratingRepo.UpdateRating(ctx, ratingID, req.Score, req.Comment); err != nil {
		return nil, err
	}
	rating.Score = req.Score
	rating.Comment = req.Comment
	s.invalidateLeaderboard(ctx, criteria.JamID)
	return rating, nil
}

func (s *RatingService) ListByProject(ctx context.Context, projectID string) ([]model.Rating, error) {
	return s.ratingRepo.ListRatingsByProject(ctx, projectID)
}

func validateScore(score decimal.Decimal, criteria *model.RatingCriteria) error {
	if score.IsNegative() || score.GreaterThan(decimal.NewFromInt(int64(criteria.MaxScore))) {
		return common.Errorf("score %s outside [0, %d] for criteria %q: %w",
			score.String(), criteria.MaxScore, criteria.Name, common.ErrScoreOutOfRange)
	}
	return nil
}

func (s *RatingService) invalidateLeaderboard(ctx context.Context, jamID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, jamID); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", "jam_id", jamID, "error", err)
	}
}
