package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

type JamService struct {
	jamRepo      repository.JamRepository
	criteriaRepo repository.CriteriaRepository
	judgeRepo    repository.JudgeRepository
	userRepo     repository.UserRepository
	db           *sql.DB // For transactions
	cache        *LeaderboardCache
	log          *logger.Logger
}

func NewJamService(
	jamRepo repository.JamRepository,
	criteriaRepo repository.CriteriaRepository,
	judgeRepo repository.JudgeRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
	cache *LeaderboardCache,
	log *logger.Logger,
) *JamService {
	return &JamService{
		jamRepo:      jamRepo,
		criteriaRepo: criteriaRepo,
		judgeRepo:    judgeRepo,
		userRepo:     userRepo,
		db:           db,
		cache:        cache,
		log:          log,
	}
}

type CriteriaInput struct {
	Name     string          `json:"name"`
	MaxScore int             `json:"max_score"`
	Weight   decimal.Decimal `json:"weight"`
}

type CreateJamRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	MinTeamSize       int             `json:"min_team_size"`
	MaxTeamSize       int             `json:"max_team_size"`
	RegistrationStart time.Time       `json:"registration_start"`
	RegistrationEnd   time.Time       `json:"registration_end"`
	JamStart          time.Time       `json:"jam_start"`
	JamEnd            time.Time       `json:"jam_end"`
	JudgingStart      time.Time       `json:"judging_start"`
	JudgingEnd        time.Time       `json:"judging_end"`
	Criteria          []CriteriaInput `json:"criteria"`
}

func (s *JamService) CreateJam(ctx context.Context, organizerID string, req CreateJamRequest) (*model.Jam, error) {
	if req.Name == "" {
		return nil, common.Errorf("jam name is required: %w", common.ErrBadRequest)
	}

	jam := &model.Jam{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Slug:              slug.Make(req.Name),
		Description:       req.Description,
		OrganizerID:       organizerID,
		MinTeamSize:       req.MinTeamSize,
		MaxTeamSize:       req.MaxTeamSize,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		JamStart:          req.JamStart,
		JamEnd:            req.JamEnd,
		JudgingStart:      req.JudgingStart,
		JudgingEnd:        req.JudgingEnd,
		Status:            model.JamRegistrationOpen,
	}
	if jam.MinTeamSize == 0 {
		jam.MinTeamSize = 1
	}
	if jam.MaxTeamSize == 0 {
		jam.MaxTeamSize = jam.MinTeamSize
	}
	if err := jam.ValidateSchedule(); err != nil {
		return nil, err
	}
	criteria, err := buildCriteria(jam.ID, req.Criteria)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.jamRepo.CreateJam(ctx, tx, jam); err != nil {
		return nil, err
	}
	for i := range criteria {
		if err := s.criteriaRepo.CreateCriteria(ctx, tx, &criteria[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	jam.Criteria = criteria
	s.log.Info("jam created", "jam_id", jam.ID, "organizer_id", organizerID)
	return jam, nil
}

func buildCriteria(jamID string, inputs []CriteriaInput) ([]model.RatingCriteria, error) {
	seen := map[string]bool{}
	criteria := make([]model.RatingCriteria, 0, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			return nil, common.Errorf("criteria name is required: %w", common.ErrValidation)
		}
		if seen[in.Name] {
			return nil, common.Errorf("duplicate criteria name %q: %w", in.Name, common.ErrValidation)
		}
		seen[in.Name] = true
		if in.MaxScore <= 0 {
			return nil, common.Errorf("criteria %q max_score must be positive: %w", in.Name, common.ErrValidation)
		}
		if in.Weight.IsNegative() {
			return nil, common.Errorf("criteria %q weight must not be negative: %w", in.Name, common.ErrValidation)
		}
		criteria = append(criteria, model.RatingCriteria{
			ID:         uuid.NewString(),
			JamID:      jamID,
			Name:       in.Name,
			MaxScore:   in.MaxScore,
			Weight:     in.Weight,
			OrderIndex: i + 1,
		})
	}
	return criteria, nil
}

type UpdateJamRequest struct {
	Name              *string    `json:"name,omitempty"`
	Description       *string    `json:"description,omitempty"`
	MinTeamSize       *int       `json:"min_team_size,omitempty"`
	MaxTeamSize       *int       `json:"max_team_size,omitempty"`
	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`
	JamStart          *time.Time `json:"jam_start,omitempty"`
	JamEnd            *time.Time `json:"jam_end,omitempty"`
	JudgingStart      *time.Time `json:"judging_start,omitempty"`
	JudgingEnd        *time.Time `json:"judging_end,omitempty"`
}

// UpdateJam applies organizer edits. Edits are only accepted while the jam is
// still in REGISTRATION_OPEN; the repository pins that status in the UPDATE so
// a sweep that closes registration mid-request wins the race.
func (s *JamService) UpdateJam(ctx context.Context, jamID, requesterID, requesterRole string, req UpdateJamRequest) (*model.Jam, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}
	if jam.Status != model.JamRegistrationOpen {
		return nil, common.Errorf("jam can only be edited while registration is open: %w", common.ErrInvalidJamState)
	}

	if req.Name != nil {
		jam.Name = *req.Name
		jam.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		jam.Description = *req.Description
	}
	if req.MinTeamSize != nil {
		jam.MinTeamSize = *req.MinTeamSize
	}
	if req.MaxTeamSize != nil {
		jam.MaxTeamSize = *req.MaxTeamSize
	}
	if req.RegistrationStart != nil {
		jam.RegistrationStart = *req.RegistrationStart
	}
	if req.RegistrationEnd != nil {
		jam.RegistrationEnd = *req.RegistrationEnd
	}
	if req.JamStart != nil {
		jam.JamStart = *req.JamStart
	}
	if req.JamEnd != nil {
		jam.JamEnd = *req.JamEnd
	}
	if req.JudgingStart != nil {
		jam.JudgingStart = *req.JudgingStart
	}
	if req.JudgingEnd != nil {
		jam.JudgingEnd = *req.JudgingEnd
	}
	if err := jam.ValidateSchedule(); err != nil {
		return nil, err
	}

	if err := s.jamRepo.UpdateJam(ctx, jam, model.JamRegistrationOpen); err != nil {
		return nil, err
	}
	return jam, nil
}

// CancelJam moves the jam to CANCELLED. Cancellation is always manual: only
// the organizer or an admin can do it, and only from a non-terminal status.
func (s *JamService) CancelJam(ctx context.Context, jamID, requesterID, requesterRole string) (*model.Jam, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}
	if !model.ValidTransition(jam.Status, model.JamCancelled) {
		return nil, common.Errorf("jam in status %s cannot be cancelled: %w", jam.Status, common.ErrInvalidJamState)
	}

	if err := s.jamRepo.UpdateJamStatus(ctx, jamID, jam.Status, model.JamCancelled); err != nil {
		return nil, err
	}
	s.log.Info("jam cancelled", "jam_id", jamID, "from", string(jam.Status), "by", requesterID)
	jam.Status = model.JamCancelled
	return jam, nil
}

func (s *JamService) GetJam(ctx context.Context, idOrSlug string) (*model.Jam, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, idOrSlug)
	if err == nil {
		return s.withCriteria(ctx, jam)
	}
	jam, err = s.jamRepo.FindJamBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	return s.withCriteria(ctx, jam)
}

func (s *JamService) withCriteria(ctx context.Context, jam *model.Jam) (*model.Jam, error) {
	criteria, err := s.criteriaRepo.ListCriteriaByJam(ctx, jam.ID)
	if err != nil {
		return nil, err
	}
	jam.Criteria = criteria
	return jam, nil
}

func (s *JamService) ListJams(ctx context.Context, limit, offset int, status model.JamStatus) ([]model.Jam, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jamRepo.ListJams(ctx, limit, offset, status)
}

func (s *JamService) AddCriteria(ctx context.Context, jamID, requesterID, requesterRole string, in CriteriaInput) (*model.RatingCriteria, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}
	if jam.IsTerminal() {
		return nil, common.Errorf("criteria cannot be changed on a finished jam: %w", common.ErrInvalidJamState)
	}
	built, err := buildCriteria(jamID, []CriteriaInput{in})
	if err != nil {
		return nil, err
	}
	exists, err := s.criteriaRepo.ExistsByJamAndName(ctx, jamID, in.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Errorf("criteria %q already exists for this jam: %w", in.Name, common.ErrConflict)
	}
	existing, err := s.criteriaRepo.ListCriteriaByJam(ctx, jamID)
	if err != nil {
		return nil, err
	}
	c := built[0]
	c.OrderIndex = len(existing) + 1
	if err := s.criteriaRepo.CreateCriteria(ctx, nil, &c); err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx, jamID)
	return &c, nil
}

func (s *JamService) UpdateCriteria(ctx context.Context, criteriaID, requesterID, requesterRole string, in CriteriaInput) (*model.RatingCriteria, error) {
	c, err := s.criteriaRepo.FindCriteriaByID(ctx, criteriaID)
	if err != nil {
		return nil, err
	}
	jam, err := s.jamRepo.FindJamByID(ctx, c.JamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}
	if jam.IsTerminal() {
		return nil, common.Errorf("criteria cannot be changed on a finished jam: %w", common.ErrInvalidJamState)
	}
	if in.MaxScore <= 0 {
		return nil, common.Errorf("max_score must be positive: %w", common.ErrValidation)
	}
	if in.Weight.IsNegative() {
		return nil, common.Errorf("weight must not be negative: %w", common.ErrValidation)
	}
	if in.Name != "" && in.Name != c.Name {
		exists, err := s.criteriaRepo.ExistsByJamAndName(ctx, c.JamID, in.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, common.Errorf("criteria %q already exists for this jam: %w", in.Name, common.ErrConflict)
		}
		c.Name = in.Name
	}
	c.MaxScore = in.MaxScore
	c.Weight = in.Weight
	if err := s.criteriaRepo.UpdateCriteria(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx, c.JamID)
	return c, nil
}

// DeleteCriteria refuses to delete once ratings reference the criteria;
// deleting would silently reshape already-recorded scores.
func (s *JamService) DeleteCriteria(ctx context.Context, criteriaID, requesterID, requesterRole string) error {
	c, err := s.criteriaRepo.FindCriteriaByID(ctx, criteriaID)
	if err != nil {
		return err
	}
	jam, err := s.jamRepo.FindJamByID(ctx, c.JamID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return err
	}
	if jam.IsTerminal() {
		return common.Errorf("criteria cannot be changed on a finished jam: %w", common.ErrInvalidJamState)
	}
	rated, err := s.criteriaRepo.HasRatings(ctx, criteriaID)
	if err != nil {
		return err
	}
	if rated {
		return common.Errorf("criteria has recorded ratings and cannot be deleted: %w", common.ErrConflict)
	}
	if err := s.criteriaRepo.DeleteCriteria(ctx, criteriaID); err != nil {
		return err
	}
	s.invalidateLeaderboard(ctx, c.JamID)
	return nil
}

func (s *JamService) AssignJudge(ctx context.Context, jamID, judgeID, requesterID, requesterRole string) (*model.JamJudge, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}
	if jam.IsTerminal() {
		return nil, common.Errorf("judges cannot be assigned to a finished jam: %w", common.ErrInvalidJamState)
	}
	if _, err := s.userRepo.FindByID(ctx, judgeID); err != nil {
		return nil, fmt.Errorf("judge user not found: %w", err)
	}

	jj := &model.JamJudge{
		ID:         uuid.NewString(),
		JamID:      jamID,
		JudgeID:    judgeID,
		AssignedBy: requesterID,
	}
	if err := s.judgeRepo.AssignJudge(ctx, jj); err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx, jamID)
	return jj, nil
}

func (s *JamService) RemoveJudge(ctx context.Context, jamID, judgeID, requesterID, requesterRole string) error {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return err
	}
	if jam.IsTerminal() {
		return common.Errorf("judges cannot be removed from a finished jam: %w", common.ErrInvalidJamState)
	}
	if err := s.judgeRepo.RemoveJudge(ctx, jamID, judgeID); err != nil {
		return err
	}
	s.invalidateLeaderboard(ctx, jamID)
	return nil
}

func (s *JamService) ListJudges(ctx context.Context, jamID string) ([]model.JamJudge, error) {
	return s.judgeRepo.ListJudgesByJam(ctx, jamID)
}

// Criteria and judge changes reshape standings, so any cached
// leaderboard for the jam must go.
func (s *JamService) invalidateLeaderboard(ctx context.Context, jamID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, jamID); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", "jam_id", jamID, "error", err)
	}
}

// requireOrganizer allows the jam's organizer and admins through.
func requireOrganizer(jam *model.Jam, requesterID, requesterRole string) error {
	if requesterRole == model.RoleAdmin || jam.OrganizerID == requesterID {
		return nil
	}
	return common.Errorf("only the jam organizer or an admin may do this: %w", common.ErrForbidden)
}
