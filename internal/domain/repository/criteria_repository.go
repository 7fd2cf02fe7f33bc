package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type CriteriaRepository interface {
	CreateCriteria(ctx context.Context, tx *sql.Tx, c *model.RatingCriteria) error
	UpdateCriteria(ctx context.Context, c *model.RatingCriteria) error
	// DeleteCriteria removes a criteria; callers must first check HasRatings.
	DeleteCriteria(ctx context.Context, id string) error
	FindCriteriaByID(ctx context.Context, id string) (*model.RatingCriteria, error)
	ListCriteriaByJam(ctx context.Context, jamID string) ([]model.RatingCriteria, error)
	ExistsByJamAndName(ctx context.Context, jamID, name string) (bool, error)
	HasRatings(ctx context.Context, criteriaID string) (bool, error)
}

type pgCriteriaRepository struct {
	db *sql.DB
}

func NewPgCriteriaRepository(db *sql.DB) CriteriaRepository {
	return &pgCriteriaRepository{db: db}
}

const criteriaColumns = `id, jam_id, name, max_score, weight, order_index, created_at, updated_at`

func (r *pgCriteriaRepository) CreateCriteria(ctx context.Context, tx *sql.Tx, c *model.RatingCriteria) error {
	query := `INSERT INTO rating_criteria (id, jam_id, name, max_score, weight, order_index)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, c.ID, c.JamID, c.Name, c.MaxScore, c.Weight, c.OrderIndex)
	} else {
		_, err = r.db.ExecContext(ctx, query, c.ID, c.JamID, c.Name, c.MaxScore, c.Weight, c.OrderIndex)
	}
	if err != nil {
		return fmt.Errorf("pgCriteriaRepository.CreateCriteria: %w", err)
	}
	return nil
}

func (r *pgCriteriaRepository) UpdateCriteria(ctx context.Context, c *model.RatingCriteria) error {
	query := `UPDATE rating_criteria SET name = $1, max_score = $2, weight = $3, order_index = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.MaxScore, c.Weight, c.OrderIndex, c.ID)
	if err != nil {
		return fmt.Errorf("pgCriteriaRepository.UpdateCriteria: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCriteriaRepository.UpdateCriteria rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCriteriaRepository) DeleteCriteria(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rating_criteria WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCriteriaRepository.DeleteCriteria: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCriteriaRepository.DeleteCriteria rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCriteriaRepository) FindCriteriaByID(ctx context.Context, id string) (*model.RatingCriteria, error) {
	query := `SELECT ` + criteriaColumns + ` FROM rating_criteria WHERE id = $1`
	c := &model.RatingCriteria{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.JamID, &c.Name, &c.MaxScore, &c.Weight, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCriteriaRepository.FindCriteriaByID: %w", err)
	}
	return c, nil
}

func (r *pgCriteriaRepository) ListCriteriaByJam(ctx context.Context, jamID string) ([]model.RatingCriteria, error) {
	query := `SELECT ` + criteriaColumns + ` FROM rating_criteria WHERE jam_id = $1 ORDER BY order_index ASC`
	rows, err := r.db.QueryContext(ctx, query, jamID)
	if err != nil {
		return nil, fmt.Errorf("pgCriteriaRepository.ListCriteriaByJam query: %w", err)
	}
	defer rows.Close()

	var criteria []model.RatingCriteria
	for rows.Next() {
		var c model.RatingCriteria
		if err := rows.Scan(&c.ID, &c.JamID, &c.Name, &c.MaxScore, &c.Weight, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgCriteriaRepository.ListCriteriaByJam scan: %w", err)
		}
		criteria = append(criteria, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCriteriaRepository.ListCriteriaByJam rows.Err: %w", err)
	}
	return criteria, nil
}

func (r *pgCriteriaRepository) ExistsByJamAndName(ctx context.Context, jamID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rating_criteria WHERE jam_id = $1 AND name = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, jamID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgCriteriaRepository.ExistsByJamAndName: %w", err)
	}
	return exists, nil
}

func (r *pgCriteriaRepository) HasRatings(ctx context.Context, criteriaID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM ratings WHERE criteria_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, criteriaID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgCriteriaRepository.HasRatings: %w", err)
	}
	return exists, nil
}
