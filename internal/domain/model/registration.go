package model

import "time"

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationApproved  RegistrationStatus = "APPROVED"
	RegistrationRejected  RegistrationStatus = "REJECTED"
	RegistrationWithdrawn RegistrationStatus = "WITHDRAWN"
)

// IsActive reports whether the registration still occupies the team's single
// slot for the jam. WITHDRAWN and REJECTED rows stay behind as history and a
// team may register again after either.
func (s RegistrationStatus) IsActive() bool {
	return s == RegistrationPending || s == RegistrationApproved
}

type JamTeamRegistration struct {
	ID           string             `json:"id"`
	JamID        string             `json:"jam_id"`
	TeamID       string             `json:"team_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredBy string             `json:"registered_by"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	TeamName *string `json:"team_name,omitempty"` // For display
}
