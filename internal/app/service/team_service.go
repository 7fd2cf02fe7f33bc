package service

import (
	"context"
	"database/sql"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"

	"github.com/google/uuid"
)

type TeamService struct {
	teamRepo repository.TeamRepository
	db       *sql.DB // For transactions
}

func NewTeamService(teamRepo repository.TeamRepository, db *sql.DB) *TeamService {
	return &TeamService{teamRepo: teamRepo, db: db}
}

type CreateTeamRequest struct {
	Name string `json:"name"`
}

// CreateTeam creates the team and enrolls the creator as leader and first
// member in one transaction.
func (s *TeamService) CreateTeam(ctx context.Context, creatorID string, req CreateTeamRequest) (*model.Team, error) {
	if req.Name == "" {
		return nil, common.Errorf("team name is required: %w", common.ErrBadRequest)
	}

	team := &model.Team{
		ID:          uuid.NewString(),
		Name:        req.Name,
		LeaderID:    creatorID,
		InviteToken: uuid.NewString(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.teamRepo.CreateTeam(ctx, tx, team); err != nil {
		return nil, err
	}
	leader := &model.TeamMember{
		ID:     uuid.NewString(),
		TeamID: team.ID,
		UserID: creatorID,
	}
	if err := s.teamRepo.AddMember(ctx, tx, leader); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return team, nil
}

// JoinTeam adds the user to the team behind the invite token. The unique
// (team, user) constraint turns a double join into ErrConflict.
func (s *TeamService) JoinTeam(ctx context.Context, inviteToken, userID string) (*model.Team, error) {
	team, err := s.teamRepo.FindTeamByInviteToken(ctx, inviteToken)
	if err != nil {
		return nil, err
	}
	member := &model.TeamMember{
		ID:     uuid.NewString(),
		TeamID: team.ID,
		UserID: userID,
	}
	if err := s.teamRepo.AddMember(ctx, nil, member); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID, requesterID string) (*model.Team, error) {
	team, err := s.teamRepo.FindTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Members = members

	// The invite token is only for members to share.
	isMember, err := s.teamRepo.IsMember(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		team.InviteToken = ""
	}
	return team, nil
}
