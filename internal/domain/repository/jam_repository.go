package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type JamRepository interface {
	CreateJam(ctx context.Context, tx *sql.Tx, jam *model.Jam) error
	// UpdateJam persists organizer edits; the WHERE clause pins the status the
	// caller observed so an edit racing the lifecycle sweep loses cleanly.
	UpdateJam(ctx context.Context, jam *model.Jam, expectedStatus model.JamStatus) error
	FindJamByID(ctx context.Context, id string) (*model.Jam, error)
	FindJamBySlug(ctx context.Context, slug string) (*model.Jam, error)
	ListJams(ctx context.Context, limit, offset int, status model.JamStatus) ([]model.Jam, int, error)
	// ListActiveJams returns every jam the lifecycle sweep still has to watch.
	ListActiveJams(ctx context.Context) ([]model.Jam, error)
	// UpdateJamStatus is a compare-and-swap on status; it returns
	// common.ErrConflict when the jam is no longer in `from`.
	UpdateJamStatus(ctx context.Context, jamID string, from, to model.JamStatus) error
}

type pgJamRepository struct {
	db *sql.DB
}

func NewPgJamRepository(db *sql.DB) JamRepository {
	return &pgJamRepository{db: db}
}

const jamColumns = `id, name, slug, description, organizer_id, min_team_size, max_team_size,
	registration_start, registration_end, jam_start, jam_end, judging_start, judging_end,
	status, created_at, updated_at`

func scanJam(row interface{ Scan(...interface{}) error }, j *model.Jam) error {
	return row.Scan(
		&j.ID, &j.Name, &j.Slug, &j.Description, &j.OrganizerID, &j.MinTeamSize, &j.MaxTeamSize,
		&j.RegistrationStart, &j.RegistrationEnd, &j.JamStart, &j.JamEnd, &j.JudgingStart, &j.JudgingEnd,
		&j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
}

func (r *pgJamRepository) CreateJam(ctx context.Context, tx *sql.Tx, j *model.Jam) error {
	query := `INSERT INTO jams (id, name, slug, description, organizer_id, min_team_size, max_team_size,
	            registration_start, registration_end, jam_start, jam_end, judging_start, judging_end, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	var err error
	args := []interface{}{
		j.ID, j.Name, j.Slug, j.Description, j.OrganizerID, j.MinTeamSize, j.MaxTeamSize,
		j.RegistrationStart, j.RegistrationEnd, j.JamStart, j.JamEnd, j.JudgingStart, j.JudgingEnd, j.Status,
	}
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("jam with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgJamRepository.CreateJam: %w", err)
	}
	return nil
}

func (r *pgJamRepository) UpdateJam(ctx context.Context, j *model.Jam, expectedStatus model.JamStatus) error {
	query := `UPDATE jams SET
	            name = $1, slug = $2, description = $3, min_team_size = $4, max_team_size = $5,
	            registration_start = $6, registration_end = $7, jam_start = $8, jam_end = $9,
	            judging_start = $10, judging_end = $11, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $12 AND status = $13`

	res, err := r.db.ExecContext(ctx, query,
		j.Name, j.Slug, j.Description, j.MinTeamSize, j.MaxTeamSize,
		j.RegistrationStart, j.RegistrationEnd, j.JamStart, j.JamEnd,
		j.JudgingStart, j.JudgingEnd, j.ID, expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("pgJamRepository.UpdateJam: %w", err)
	}
	return requireRowAffected(res, "pgJamRepository.UpdateJam")
}

func (r *pgJamRepository) FindJamByID(ctx context.Context, id string) (*model.Jam, error) {
	query := `SELECT ` + jamColumns + ` FROM jams WHERE id = $1`
	jam := &model.Jam{}
	if err := scanJam(r.db.QueryRowContext(ctx, query, id), jam); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgJamRepository.FindJamByID: %w", err)
	}
	return jam, nil
}

func (r *pgJamRepository) FindJamBySlug(ctx context.Context, slug string) (*model.Jam, error) {
	query := `SELECT ` + jamColumns + ` FROM jams WHERE slug = $1`
	jam := &model.Jam{}
	if err := scanJam(r.db.QueryRowContext(ctx, query, slug), jam); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgJamRepository.FindJamBySlug: %w", err)
	}
	return jam, nil
}

func (r *pgJamRepository) ListJams(ctx context.Context, limit, offset int, status model.JamStatus) ([]model.Jam, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, status)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jams`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgJamRepository.ListJams count: %w", err)
	}

	query := `SELECT ` + jamColumns + ` FROM jams` + where +
		fmt.Sprintf(" ORDER BY jam_start DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgJamRepository.ListJams query: %w", err)
	}
	defer rows.Close()

	jams := []model.Jam{}
	for rows.Next() {
		var j model.Jam
		if err := scanJam(rows, &j); err != nil {
			return nil, 0, fmt.Errorf("pgJamRepository.ListJams scan: %w", err)
		}
		jams = append(jams, j)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgJamRepository.ListJams rows.Err: %w", err)
	}
	return jams, total, nil
}

func (r *pgJamRepository) ListActiveJams(ctx context.Context) ([]model.Jam, error) {
	query := `SELECT ` + jamColumns + ` FROM jams
	          WHERE status = ANY($1) ORDER BY created_at ASC`

	statuses := make([]string, len(model.ActiveJamStatuses))
	for i, s := range model.ActiveJamStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("pgJamRepository.ListActiveJams query: %w", err)
	}
	defer rows.Close()

	var jams []model.Jam
	for rows.Next() {
		var j model.Jam
		if err := scanJam(rows, &j); err != nil {
			return nil, fmt.Errorf("pgJamRepository.ListActiveJams scan: %w", err)
		}
		jams = append(jams, j)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgJamRepository.ListActiveJams rows.Err: %w", err)
	}
	return jams, nil
}

func (r *pgJamRepository) UpdateJamStatus(ctx context.Context, jamID string, from, to model.JamStatus) error {
	query := `UPDATE jams SET status = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, jamID, from)
	if err != nil {
		return fmt.Errorf("pgJamRepository.UpdateJamStatus: %w", err)
	}
	return requireRowAffected(res, "pgJamRepository.UpdateJamStatus")
}

// requireRowAffected turns a zero-row conditional update into ErrConflict.
func requireRowAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return common.ErrConflict
	}
	return nil
}
