package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CriteriaScore is the per-criteria aggregate feeding one leaderboard entry.
type CriteriaScore struct {
	CriteriaID    string          `json:"criteria_id"`
	CriteriaName  string          `json:"criteria_name"`
	AverageScore  decimal.Decimal `json:"average_score"`
	WeightedScore decimal.Decimal `json:"weighted_score"`
	RatingCount   int             `json:"rating_count"`
	JudgesRated   int             `json:"judges_rated"`
}

type LeaderboardEntry struct {
	Rank             int             `json:"rank"`
	ProjectID        string          `json:"project_id"`
	ProjectName      string          `json:"project_name"`
	TeamID           *string         `json:"team_id,omitempty"`
	TeamName         *string         `json:"team_name,omitempty"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty"`
	TotalScore       decimal.Decimal `json:"total_score"`
	AllCriteriaRated bool            `json:"all_criteria_rated"`
	CriteriaScores   []CriteriaScore `json:"criteria_scores"`
}

type Leaderboard struct {
	JamID             string             `json:"jam_id"`
	GeneratedAt       time.Time          `json:"generated_at"`
	TotalJudges       int                `json:"total_judges"`
	QualifiedProjects int                `json:"qualified_projects"` // Entries with AllCriteriaRated
	Entries           []LeaderboardEntry `json:"entries"`
}
