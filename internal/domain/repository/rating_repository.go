package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"

	"github.com/shopspring/decimal"
)

type RatingRepository interface {
	// UpsertRating creates the (project, judge, criteria) row on first call and
	// updates score/comment in place afterwards; the unique constraint on the
	// triple guarantees a single row.
	UpsertRating(ctx context.Context, rating *model.Rating) error
	FindRatingByID(ctx context.Context, id string) (*model.Rating, error)
	UpdateRating(ctx context.Context, ratingID string, score decimal.Decimal, comment *string) error
	ListRatingsByProject(ctx context.Context, projectID string) ([]model.Rating, error)
	// ListRatingsByJam returns every rating against the jam's projects,
	// feeding the leaderboard aggregation in one round trip.
	ListRatingsByJam(ctx context.Context, jamID string) ([]model.Rating, error)
}

type pgRatingRepository struct {
	db *sql.DB
}

func NewPgRatingRepository(db *sql.DB) RatingRepository {
	return &pgRatingRepository{db: db}
}

const ratingColumns = `id, project_id, judge_id, criteria_id, score, comment, created_at, updated_at`

func (r *pgRatingRepository) UpsertRating(ctx context.Context, rating *model.Rating) error {
	query := `INSERT INTO ratings (id, project_id, judge_id, criteria_id, score, comment)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (project_id, judge_id, criteria_id)
	          DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = CURRENT_TIMESTAMP
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rating.ID, rating.ProjectID, rating.JudgeID, rating.CriteriaID, rating.Score, rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgRatingRepository.UpsertRating: %w", err)
	}
	return nil
}

func (r *pgRatingRepository) FindRatingByID(ctx context.Context, id string) (*model.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`
	rating := &model.Rating{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rating.ID, &rating.ProjectID, &rating.JudgeID, &rating.CriteriaID,
		&rating.Score, &rating.Comment, &rating.CreatedAt, &rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRatingRepository.FindRatingByID: %w", err)
	}
	return rating, nil
}

func (r *pgRatingRepository) UpdateRating(ctx context.Context, ratingID string, score decimal.Decimal, comment *string) error {
	query := `UPDATE ratings SET score = $1, comment = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, score, comment, ratingID)
	if err != nil {
		return fmt.Errorf("pgRatingRepository.UpdateRating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgRatingRepository.UpdateRating rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgRatingRepository) ListRatingsByProject(ctx context.Context, projectID string) ([]model.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE project_id = $1 ORDER BY created_at ASC`
	return r.queryRatings(ctx, query, projectID)
}

func (r *pgRatingRepository) ListRatingsByJam(ctx context.Context, jamID string) ([]model.Rating, error) {
	query := `SELECT r.id, r.project_id, r.judge_id, r.criteria_id, r.score, r.comment, r.created_at, r.updated_at
	          FROM ratings r
	          JOIN projects p ON r.project_id = p.id
	          WHERE p.jam_id = $1`
	return r.queryRatings(ctx, query, jamID)
}

func (r *pgRatingRepository) queryRatings(ctx context.Context, query string, args ...interface{}) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgRatingRepository query: %w", err)
	}
	defer rows.Close()

	var ratings []model.Rating
	for rows.Next() {
		var rating model.Rating
		if err := rows.Scan(&rating.ID, &rating.ProjectID, &rating.JudgeID, &rating.CriteriaID,
			&rating.Score, &rating.Comment, &rating.CreatedAt, &rating.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgRatingRepository scan: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRatingRepository rows.Err: %w", err)
	}
	return ratings, nil
}
