package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type RegistrationRepository interface {
	// CreateRegistration inserts a new row. A partial unique index on
	// (jam_id, team_id) WHERE status IN ('PENDING','APPROVED') backs the
	// one-active-registration rule; a violation comes back as
	// common.ErrDuplicateRegistration.
	CreateRegistration(ctx context.Context, reg *model.JamTeamRegistration) error
	FindRegistrationByID(ctx context.Context, id string) (*model.JamTeamRegistration, error)
	// FindActiveRegistration returns the PENDING or APPROVED registration for
	// (jam, team), or common.ErrNotFound.
	FindActiveRegistration(ctx context.Context, jamID, teamID string) (*model.JamTeamRegistration, error)
	ListRegistrationsByJam(ctx context.Context, jamID string) ([]model.JamTeamRegistration, error)
	// UpdateRegistrationStatus is a compare-and-swap on status.
	UpdateRegistrationStatus(ctx context.Context, regID string, from, to model.RegistrationStatus) error
	// CountApprovedByJam supports organizer dashboards.
	CountApprovedByJam(ctx context.Context, jamID string) (int, error)
}

type pgRegistrationRepository struct {
	db *sql.DB
}

func NewPgRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &pgRegistrationRepository{db: db}
}

const registrationColumns = `id, jam_id, team_id, status, registered_by, created_at, updated_at`

func (r *pgRegistrationRepository) CreateRegistration(ctx context.Context, reg *model.JamTeamRegistration) error {
	query := `INSERT INTO jam_team_registrations (id, jam_id, team_id, status, registered_by)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, reg.ID, reg.JamID, reg.TeamID, reg.Status, reg.RegisteredBy)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrDuplicateRegistration
		}
		return fmt.Errorf("pgRegistrationRepository.CreateRegistration: %w", err)
	}
	return nil
}

func (r *pgRegistrationRepository) FindRegistrationByID(ctx context.Context, id string) (*model.JamTeamRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM jam_team_registrations WHERE id = $1`
	reg := &model.JamTeamRegistration{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.JamID, &reg.TeamID, &reg.Status, &reg.RegisteredBy, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRegistrationRepository.FindRegistrationByID: %w", err)
	}
	return reg, nil
}

func (r *pgRegistrationRepository) FindActiveRegistration(ctx context.Context, jamID, teamID string) (*model.JamTeamRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM jam_team_registrations
	          WHERE jam_id = $1 AND team_id = $2 AND status IN ('PENDING', 'APPROVED')`
	reg := &model.JamTeamRegistration{}
	err := r.db.QueryRowContext(ctx, query, jamID, teamID).Scan(
		&reg.ID, &reg.JamID, &reg.TeamID, &reg.Status, &reg.RegisteredBy, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRegistrationRepository.FindActiveRegistration: %w", err)
	}
	return reg, nil
}

func (r *pgRegistrationRepository) ListRegistrationsByJam(ctx context.Context, jamID string) ([]model.JamTeamRegistration, error) {
	query := `SELECT r.id, r.jam_id, r.team_id, r.status, r.registered_by, r.created_at, r.updated_at, t.name
	          FROM jam_team_registrations r
	          JOIN teams t ON r.team_id = t.id
	          WHERE r.jam_id = $1 ORDER BY r.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, jamID)
	if err != nil {
		return nil, fmt.Errorf("pgRegistrationRepository.ListRegistrationsByJam query: %w", err)
	}
	defer rows.Close()

	var regs []model.JamTeamRegistration
	for rows.Next() {
		var reg model.JamTeamRegistration
		if err := rows.Scan(&reg.ID, &reg.JamID, &reg.TeamID, &reg.Status, &reg.RegisteredBy,
			&reg.CreatedAt, &reg.UpdatedAt, &reg.TeamName); err != nil {
			return nil, fmt.Errorf("pgRegistrationRepository.ListRegistrationsByJam scan: %w", err)
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRegistrationRepository.ListRegistrationsByJam rows.Err: %w", err)
	}
	return regs, nil
}

func (r *pgRegistrationRepository) UpdateRegistrationStatus(ctx context.Context, regID string, from, to model.RegistrationStatus) error {
	query := `UPDATE jam_team_registrations SET status = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, regID, from)
	if err != nil {
		return fmt.Errorf("pgRegistrationRepository.UpdateRegistrationStatus: %w", err)
	}
	return requireRowAffected(res, "pgRegistrationRepository.UpdateRegistrationStatus")
}

func (r *pgRegistrationRepository) CountApprovedByJam(ctx context.Context, jamID string) (int, error) {
	query := `SELECT COUNT(*) FROM jam_team_registrations WHERE jam_id = $1 AND status = 'APPROVED'`
	var count int
	if err := r.db.QueryRowContext(ctx, query, jamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgRegistrationRepository.CountApprovedByJam: %w", err)
	}
	return count, nil
}
