package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type ProjectRepository interface {
	CreateProject(ctx context.Context, p *model.Project) error
	FindProjectByID(ctx context.Context, id string) (*model.Project, error)
	FindProjectByTeamAndJam(ctx context.Context, teamID, jamID string) (*model.Project, error)
	ListProjectsByJam(ctx context.Context, jamID string) ([]model.Project, error)
	// ListEligibleProjects returns the jam's projects that participate in
	// ranking (SUBMITTED, UNDER_REVIEW, PUBLISHED).
	ListEligibleProjects(ctx context.Context, jamID string) ([]model.Project, error)
	// UpdateProjectStatus bumps the version counter; a caller holding a stale
	// version gets common.ErrConflict back instead of overwriting.
	UpdateProjectStatus(ctx context.Context, projectID string, expectedVersion int, status model.ProjectStatus, submittedAt sql.NullTime) error
}

type pgProjectRepository struct {
	db *sql.DB
}

func NewPgProjectRepository(db *sql.DB) ProjectRepository {
	return &pgProjectRepository{db: db}
}

const projectColumns = `id, team_id, jam_id, name, description, repo_url, status, submitted_at, version, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }, p *model.Project) error {
	return row.Scan(
		&p.ID, &p.TeamID, &p.JamID, &p.Name, &p.Description, &p.RepoURL,
		&p.Status, &p.SubmittedAt, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *pgProjectRepository) CreateProject(ctx context.Context, p *model.Project) error {
	query := `INSERT INTO projects (id, team_id, jam_id, name, description, repo_url, status, version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.TeamID, p.JamID, p.Name, p.Description, p.RepoURL, p.Status, p.Version)
	if err != nil {
		if common.IsUniqueViolation(err) { // (team_id, jam_id) unique
			return fmt.Errorf("team already has a project for this jam: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProjectRepository.CreateProject: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) FindProjectByID(ctx context.Context, id string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p := &model.Project{}
	if err := scanProject(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProjectRepository.FindProjectByID: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) FindProjectByTeamAndJam(ctx context.Context, teamID, jamID string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE team_id = $1 AND jam_id = $2`
	p := &model.Project{}
	if err := scanProject(r.db.QueryRowContext(ctx, query, teamID, jamID), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProjectRepository.FindProjectByTeamAndJam: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) ListProjectsByJam(ctx context.Context, jamID string) ([]model.Project, error) {
	return r.listByJam(ctx, jamID, false)
}

func (r *pgProjectRepository) ListEligibleProjects(ctx context.Context, jamID string) ([]model.Project, error) {
	return r.listByJam(ctx, jamID, true)
}

func (r *pgProjectRepository) listByJam(ctx context.Context, jamID string, eligibleOnly bool) ([]model.Project, error) {
	query := `SELECT p.id, p.team_id, p.jam_id, p.name, p.description, p.repo_url,
	                 p.status, p.submitted_at, p.version, p.created_at, p.updated_at, t.name
	          FROM projects p
	          LEFT JOIN teams t ON p.team_id = t.id
	          WHERE p.jam_id = $1`
	if eligibleOnly {
		query += ` AND p.status IN ('SUBMITTED', 'UNDER_REVIEW', 'PUBLISHED')`
	}
	query += ` ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, jamID)
	if err != nil {
		return nil, fmt.Errorf("pgProjectRepository.listByJam query: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.TeamID, &p.JamID, &p.Name, &p.Description, &p.RepoURL,
			&p.Status, &p.SubmittedAt, &p.Version, &p.CreatedAt, &p.UpdatedAt, &p.TeamName); err != nil {
			return nil, fmt.Errorf("pgProjectRepository.listByJam scan: %w", err)
		}
		projects = append(projects, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProjectRepository.listByJam rows.Err: %w", err)
	}
	return projects, nil
}

func (r *pgProjectRepository) UpdateProjectStatus(ctx context.Context, projectID string, expectedVersion int, status model.ProjectStatus, submittedAt sql.NullTime) error {
	query := `UPDATE projects SET status = $1, submitted_at = $2, version = version + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3 AND version = $4`
	res, err := r.db.ExecContext(ctx, query, status, submittedAt, projectID, expectedVersion)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.UpdateProjectStatus: %w", err)
	}
	return requireRowAffected(res, "pgProjectRepository.UpdateProjectStatus")
}
