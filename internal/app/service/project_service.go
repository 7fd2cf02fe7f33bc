package service

import (
	"context"
	"database/sql"
	"time"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/platform/logger"

	"github.com/google/uuid"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	jamRepo     repository.JamRepository
	teamRepo    repository.TeamRepository
	regRepo     repository.RegistrationRepository
	cache       *LeaderboardCache
	log         *logger.Logger
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	jamRepo repository.JamRepository,
	teamRepo repository.TeamRepository,
	regRepo repository.RegistrationRepository,
	cache *LeaderboardCache,
	log *logger.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		jamRepo:     jamRepo,
		teamRepo:    teamRepo,
		regRepo:     regRepo,
		cache:       cache,
		log:         log,
	}
}

type CreateProjectRequest struct {
	JamID       string  `json:"jam_id"`
	TeamID      string  `json:"team_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	RepoURL     *string `json:"repo_url,omitempty"`
}

// CreateProject opens a DRAFT for an approved team while the jam runs. One
// project per (team, jam); the unique constraint catches races.
func (s *ProjectService) CreateProject(ctx context.Context, requesterID string, req CreateProjectRequest) (*model.Project, error) {
	if req.Name == "" {
		return nil, common.Errorf("project name is required: %w", common.ErrBadRequest)
	}

	jam, err := s.jamRepo.FindJamByID(ctx, req.JamID)
	if err != nil {
		return nil, err
	}
	if jam.Status != model.JamInProgress {
		return nil, common.Errorf("projects can only be created while the jam is running: %w", common.ErrInvalidJamState)
	}

	isMember, err := s.teamRepo.IsMember(ctx, req.TeamID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, common.Errorf("only team members may create the team's project: %w", common.ErrForbidden)
	}

	reg, err := s.regRepo.FindActiveRegistration(ctx, req.JamID, req.TeamID)
	if err != nil {
		return nil, common.Errorf("team is not registered for this jam: %w", common.ErrForbidden)
	}
	if reg.Status != model.RegistrationApproved {
		return nil, common.Errorf("team registration is not approved: %w", common.ErrForbidden)
	}

	teamID := req.TeamID
	project := &model.Project{
		ID:          uuid.NewString(),
		TeamID:      &teamID,
		JamID:       req.JamID,
		Name:        req.Name,
		Description: req.Description,
		RepoURL:     req.RepoURL,
		Status:      model.ProjectDraft,
		Version:     1,
	}
	if err := s.projectRepo.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Submit turns a DRAFT into SUBMITTED and stamps SubmittedAt. Submission is
// only open while the jam is IN_PROGRESS and only to members of the owning
// team. The caller's version must match; otherwise another transition landed
// first and the request fails with a conflict.
func (s *ProjectService) Submit(ctx context.Context, projectID string, version int, requesterID string, now time.Time) (*model.Project, error) {
	project, err := s.projectRepo.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.TeamID == nil {
		return nil, common.Errorf("project has no team: %w", common.ErrConflict)
	}

	jam, err := s.jamRepo.FindJamByID(ctx, project.JamID)
	if err != nil {
		return nil, err
	}
	if jam.Status != model.JamInProgress {
		return nil, common.Errorf("submissions are closed for this jam: %w", common.ErrInvalidJamState)
	}

	isMember, err := s.teamRepo.IsMember(ctx, *project.TeamID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, common.Errorf("only team members may submit: %w", common.ErrForbidden)
	}

	if project.Status != model.ProjectDraft {
		return nil, common.Errorf("only drafts can be submitted: %w", common.ErrConflict)
	}

	submittedAt := sql.NullTime{Time: now, Valid: true}
	if err := s.projectRepo.UpdateProjectStatus(ctx, projectID, version, model.ProjectSubmitted, submittedAt); err != nil {
		return nil, err
	}
	project.Status = model.ProjectSubmitted
	project.SubmittedAt = &now
	project.Version = version + 1
	s.invalidateLeaderboard(ctx, project.JamID)
	s.log.Info("project submitted", "project_id", projectID, "jam_id", project.JamID)
	return project, nil
}

// ReturnToDraft reverses a SUBMITTED or UNDER_REVIEW project back to DRAFT,
// clearing SubmittedAt. Organizer/admin only.
func (s *ProjectService) ReturnToDraft(ctx context.Context, projectID string, version int, requesterID, requesterRole string) (*model.Project, error) {
	return s.adminTransition(ctx, projectID, version, requesterID, requesterRole, model.ProjectDraft,
		model.ProjectSubmitted, model.ProjectUnderReview)
}

// StartReview marks a SUBMITTED project as UNDER_REVIEW. Organizer/admin only.
func (s *ProjectService) StartReview(ctx context.Context, projectID string, version int, requesterID, requesterRole string) (*model.Project, error) {
	return s.adminTransition(ctx, projectID, version, requesterID, requesterRole, model.ProjectUnderReview,
		model.ProjectSubmitted)
}

// Publish marks a project PUBLISHED. Organizer/admin only; intended once
// judging coverage is acceptable, though that is not strictly enforced.
func (s *ProjectService) Publish(ctx context.Context, projectID string, version int, requesterID, requesterRole string) (*model.Project, error) {
	return s.adminTransition(ctx, projectID, version, requesterID, requesterRole, model.ProjectPublished,
		model.ProjectSubmitted, model.ProjectUnderReview)
}

// Disqualify is terminal and reachable from any other status. The project
// drops off the leaderboard; its ratings stay for audit.
func (s *ProjectService) Disqualify(ctx context.Context, projectID string, version int, requesterID, requesterRole string) (*model.Project, error) {
	return s.adminTransition(ctx, projectID, version, requesterID, requesterRole, model.ProjectDisqualified,
		model.ProjectDraft, model.ProjectSubmitted, model.ProjectUnderReview, model.ProjectPublished)
}

func (s *ProjectService) adminTransition(
	ctx context.Context,
	projectID string,
	version int,
	requesterID, requesterRole string,
	to model.ProjectStatus,
	allowedFrom ...model.ProjectStatus,
) (*model.Project, error) {
	project, err := s.projectRepo.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	jam, err := s.jamRepo.FindJamByID(ctx, project.JamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}

	allowed := false
	for _, from := range allowedFrom {
		if project.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, common.Errorf("project in status %s cannot move to %s: %w", project.Status, to, common.ErrConflict)
	}

	submittedAt := sql.NullTime{}
	if project.SubmittedAt != nil && to != model.ProjectDraft {
		submittedAt = sql.NullTime{Time: *project.SubmittedAt, Valid: true}
	}
	if err := s.projectRepo.UpdateProjectStatus(ctx, projectID, version, to, submittedAt); err != nil {
		return nil, err
	}
	project.Status = to
	project.Version = version + 1
	if !submittedAt.Valid {
		project.SubmittedAt = nil
	}
	s.invalidateLeaderboard(ctx, project.JamID)
	s.log.Info("project status changed", "project_id", projectID, "to", string(to), "by", requesterID)
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	return s.projectRepo.FindProjectByID(ctx, projectID)
}

func (s *ProjectService) ListByJam(ctx context.Context, jamID string) ([]model.Project, error) {
	return s.projectRepo.ListProjectsByJam(ctx, jamID)
}

func (s *ProjectService) invalidateLeaderboard(ctx context.Context, jamID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, jamID); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", "jam_id", jamID, "error", err)
	}
}
