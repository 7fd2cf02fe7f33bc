package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatingCriteria is one weighted scoring dimension of a jam (e.g. "Fun",
// weight 0.50, max score 10). Weights are free-form non-negative decimals and
// are not required to sum to 1 across a jam.
type RatingCriteria struct {
	ID         string          `json:"id"`
	JamID      string          `json:"jam_id"`
	Name       string          `json:"name"` // Unique per jam
	MaxScore   int             `json:"max_score"`
	Weight     decimal.Decimal `json:"weight"`
	OrderIndex int             `json:"order_index"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Rating is one judge's score for one project on one criteria. At most one row
// exists per (project, judge, criteria); repeat scoring updates in place.
type Rating struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	JudgeID    string          `json:"judge_id"`
	CriteriaID string          `json:"criteria_id"`
	Score      decimal.Decimal `json:"score"` // 0 <= score <= criteria.MaxScore
	Comment    *string         `json:"comment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type JamJudge struct {
	ID         string    `json:"id"`
	JamID      string    `json:"jam_id"`
	JudgeID    string    `json:"judge_id"`
	AssignedBy string    `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`

	JudgeUsername *string `json:"judge_username,omitempty"` // For display
}
