package model

import "time"

type ProjectStatus string

const (
	ProjectDraft        ProjectStatus = "DRAFT"
	ProjectSubmitted    ProjectStatus = "SUBMITTED"
	ProjectUnderReview  ProjectStatus = "UNDER_REVIEW"
	ProjectPublished    ProjectStatus = "PUBLISHED"
	ProjectDisqualified ProjectStatus = "DISQUALIFIED"
)

type Project struct {
	ID          string        `json:"id"`
	TeamID      *string       `json:"team_id,omitempty"` // Nullable in schema; always set by the service flow
	JamID       string        `json:"jam_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	RepoURL     *string       `json:"repo_url,omitempty"`
	Status      ProjectStatus `json:"status"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	Version     int           `json:"version"` // Optimistic concurrency counter
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	TeamName *string `json:"team_name,omitempty"` // For display
}

// EligibleForLeaderboard reports whether the project participates in ranking.
// Disqualified projects are excluded; their ratings are kept for audit.
func (p *Project) EligibleForLeaderboard() bool {
	switch p.Status {
	case ProjectSubmitted, ProjectUnderReview, ProjectPublished:
		return true
	}
	return false
}
