package repository

import (
	"context"
	"database/sql"
	"fmt"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

type JudgeRepository interface {
	AssignJudge(ctx context.Context, jj *model.JamJudge) error
	RemoveJudge(ctx context.Context, jamID, judgeID string) error
	IsAssignedJudge(ctx context.Context, jamID, judgeID string) (bool, error)
	ListJudgesByJam(ctx context.Context, jamID string) ([]model.JamJudge, error)
	CountJudgesByJam(ctx context.Context, jamID string) (int, error)
}

type pgJudgeRepository struct {
	db *sql.DB
}

func NewPgJudgeRepository(db *sql.DB) JudgeRepository {
	return &pgJudgeRepository{db: db}
}

func (r *pgJudgeRepository) AssignJudge(ctx context.Context, jj *model.JamJudge) error {
	query := `INSERT INTO jam_judges (id, jam_id, judge_id, assigned_by) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, jj.ID, jj.JamID, jj.JudgeID, jj.AssignedBy)
	if err != nil {
		if common.IsUniqueViolation(err) { // (jam_id, judge_id) unique
			return fmt.Errorf("judge already assigned to this jam: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgJudgeRepository.AssignJudge: %w", err)
	}
	return nil
}

func (r *pgJudgeRepository) RemoveJudge(ctx context.Context, jamID, judgeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jam_judges WHERE jam_id = $1 AND judge_id = $2`, jamID, judgeID)
	if err != nil {
		return fmt.Errorf("pgJudgeRepository.RemoveJudge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgJudgeRepository.RemoveJudge rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgJudgeRepository) IsAssignedJudge(ctx context.Context, jamID, judgeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM jam_judges WHERE jam_id = $1 AND judge_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, jamID, judgeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgJudgeRepository.IsAssignedJudge: %w", err)
	}
	return exists, nil
}

func (r *pgJudgeRepository) ListJudgesByJam(ctx context.Context, jamID string) ([]model.JamJudge, error) {
	query := `SELECT jj.id, jj.jam_id, jj.judge_id, jj.assigned_by, jj.created_at, u.username
	          FROM jam_judges jj
	          JOIN users u ON jj.judge_id = u.id
	          WHERE jj.jam_id = $1 ORDER BY jj.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, jamID)
	if err != nil {
		return nil, fmt.Errorf("pgJudgeRepository.ListJudgesByJam query: %w", err)
	}
	defer rows.Close()

	var judges []model.JamJudge
	for rows.Next() {
		var jj model.JamJudge
		if err := rows.Scan(&jj.ID, &jj.JamID, &jj.JudgeID, &jj.AssignedBy, &jj.CreatedAt, &jj.JudgeUsername); err != nil {
			return nil, fmt.Errorf("pgJudgeRepository.ListJudgesByJam scan: %w", err)
		}
		judges = append(judges, jj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgJudgeRepository.ListJudgesByJam rows.Err: %w", err)
	}
	return judges, nil
}

func (r *pgJudgeRepository) CountJudgesByJam(ctx context.Context, jamID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jam_judges WHERE jam_id = $1`, jamID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgJudgeRepository.CountJudgesByJam: %w", err)
	}
	return count, nil
}
