package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type TeamRepository interface {
	CreateTeam(ctx context.Context, tx *sql.Tx, team *model.Team) error
	AddMember(ctx context.Context, tx *sql.Tx, member *model.TeamMember) error
	FindTeamByID(ctx context.Context, id string) (*model.Team, error)
	FindTeamByInviteToken(ctx context.Context, token string) (*model.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]model.TeamMember, error)
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
	CountMembers(ctx context.Context, teamID string) (int, error)
}

type pgTeamRepository struct {
	db *sql.DB
}

func NewPgTeamRepository(db *sql.DB) TeamRepository {
	return &pgTeamRepository{db: db}
}

func (r *pgTeamRepository) CreateTeam(ctx context.Context, tx *sql.Tx, t *model.Team) error {
	query := `INSERT INTO teams (id, name, leader_id, invite_token)
	          VALUES ($1, $2, $3, $4)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, t.ID, t.Name, t.LeaderID, t.InviteToken)
	} else {
		_, err = r.db.ExecContext(ctx, query, t.ID, t.Name, t.LeaderID, t.InviteToken)
	}
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("team name or invite token already taken: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgTeamRepository.CreateTeam: %w", err)
	}
	return nil
}

func (r *pgTeamRepository) AddMember(ctx context.Context, tx *sql.Tx, m *model.TeamMember) error {
	query := `INSERT INTO team_members (id, team_id, user_id) VALUES ($1, $2, $3)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, m.ID, m.TeamID, m.UserID)
	} else {
		_, err = r.db.ExecContext(ctx, query, m.ID, m.TeamID, m.UserID)
	}
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user is already a member of this team: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgTeamRepository.AddMember: %w", err)
	}
	return nil
}

func (r *pgTeamRepository) FindTeamByID(ctx context.Context, id string) (*model.Team, error) {
	return r.findTeamBy(ctx, "id", id)
}

func (r *pgTeamRepository) FindTeamByInviteToken(ctx context.Context, token string) (*model.Team, error) {
	return r.findTeamBy(ctx, "invite_token", token)
}

func (r *pgTeamRepository) findTeamBy(ctx context.Context, column, value string) (*model.Team, error) {
	query := `SELECT id, name, leader_id, invite_token, created_at, updated_at
	          FROM teams WHERE ` + column + ` = $1`
	team := &model.Team{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&team.ID, &team.Name, &team.LeaderID, &team.InviteToken, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTeamRepository.findTeamBy %s: %w", column, err)
	}
	return team, nil
}

func (r *pgTeamRepository) ListMembers(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	query := `SELECT tm.id, tm.team_id, tm.user_id, tm.joined_at, u.username
	          FROM team_members tm
	          JOIN users u ON tm.user_id = u.id
	          WHERE tm.team_id = $1 ORDER BY tm.joined_at ASC`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("pgTeamRepository.ListMembers query: %w", err)
	}
	defer rows.Close()

	var members []model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.JoinedAt, &m.Username); err != nil {
			return nil, fmt.Errorf("pgTeamRepository.ListMembers scan: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTeamRepository.ListMembers rows.Err: %w", err)
	}
	return members, nil
}

func (r *pgTeamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgTeamRepository.IsMember: %w", err)
	}
	return exists, nil
}

func (r *pgTeamRepository) CountMembers(ctx context.Context, teamID string) (int, error) {
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, teamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgTeamRepository.CountMembers: %w", err)
	}
	return count, nil
}
