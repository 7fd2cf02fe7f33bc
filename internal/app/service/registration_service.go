package service

import (
	"context"
	"errors"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/platform/logger"

	"github.com/google/uuid"
)

type RegistrationService struct {
	regRepo  repository.RegistrationRepository
	jamRepo  repository.JamRepository
	teamRepo repository.TeamRepository
	log      *logger.Logger
}

func NewRegistrationService(
	regRepo repository.RegistrationRepository,
	jamRepo repository.JamRepository,
	teamRepo repository.TeamRepository,
	log *logger.Logger,
) *RegistrationService {
	return &RegistrationService{regRepo: regRepo, jamRepo: jamRepo, teamRepo: teamRepo, log: log}
}

// Register creates a PENDING registration for (jam, team). The jam must be in
// REGISTRATION_OPEN and the team must not already hold a PENDING or APPROVED
// registration; a team that previously withdrew or was rejected registers
// again with a fresh row.
func (s *RegistrationService) Register(ctx context.Context, jamID, teamID, requesterID, requesterRole string) (*model.JamTeamRegistration, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if jam.Status != model.JamRegistrationOpen {
		return nil, common.Errorf("registration is not open for this jam: %w", common.ErrInvalidJamState)
	}

	team, err := s.teamRepo.FindTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireLeader(team, requesterID, requesterRole); err != nil {
		return nil, err
	}

	if _, err := s.regRepo.FindActiveRegistration(ctx, jamID, teamID); err == nil {
		return nil, common.ErrDuplicateRegistration
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	reg := &model.JamTeamRegistration{
		ID:           uuid.NewString(),
		JamID:        jamID,
		TeamID:       teamID,
		Status:       model.RegistrationPending,
		RegisteredBy: requesterID,
	}
	// The partial unique index still backs us up if two requests race past
	// the existence check.
	if err := s.regRepo.CreateRegistration(ctx, reg); err != nil {
		return nil, err
	}
	s.log.Info("team registered for jam", "jam_id", jamID, "team_id", teamID, "registration_id", reg.ID)
	return reg, nil
}

// Withdraw moves the team's active registration to WITHDRAWN. Teams may back
// out while registration is open or closed, but not once the jam has started.
func (s *RegistrationService) Withdraw(ctx context.Context, jamID, teamID, requesterID, requesterRole string) (*model.JamTeamRegistration, error) {
	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if jam.Status != model.JamRegistrationOpen && jam.Status != model.JamRegistrationClosed {
		return nil, common.Errorf("registrations can no longer be withdrawn: %w", common.ErrInvalidJamState)
	}

	team, err := s.teamRepo.FindTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireLeader(team, requesterID, requesterRole); err != nil {
		return nil, err
	}

	reg, err := s.regRepo.FindActiveRegistration(ctx, jamID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.regRepo.UpdateRegistrationStatus(ctx, reg.ID, reg.Status, model.RegistrationWithdrawn); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationWithdrawn
	s.log.Info("registration withdrawn", "jam_id", jamID, "team_id", teamID, "registration_id", reg.ID)
	return reg, nil
}

// UpdateStatus lets the organizer or an admin decide a PENDING registration:
// PENDING -> APPROVED or PENDING -> REJECTED, nothing else. Approval verifies
// the team size against the jam's bounds at decision time.
func (s *RegistrationService) UpdateStatus(ctx context.Context, jamID, teamID string, newStatus model.RegistrationStatus, requesterID, requesterRole string) (*model.JamTeamRegistration, error) {
	if newStatus != model.RegistrationApproved && newStatus != model.RegistrationRejected {
		return nil, common.Errorf("registration status can only be set to APPROVED or REJECTED: %w", common.ErrBadRequest)
	}

	jam, err := s.jamRepo.FindJamByID(ctx, jamID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(jam, requesterID, requesterRole); err != nil {
		return nil, err
	}

	reg, err := s.regRepo.FindActiveRegistration(ctx, jamID, teamID)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationPending {
		return nil, common.Errorf("only pending registrations can be decided: %w", common.ErrConflict)
	}

	if newStatus == model.RegistrationApproved {
		size, err := s.teamRepo.CountMembers(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if size < jam.MinTeamSize || size > jam.MaxTeamSize {
			return nil, common.Errorf("team size %d outside jam bounds [%d, %d]: %w",
				size, jam.MinTeamSize, jam.MaxTeamSize, common.ErrValidation)
		}
	}

	if err := s.regRepo.UpdateRegistrationStatus(ctx, reg.ID, model.RegistrationPending, newStatus); err != nil {
		return nil, err
	}
	reg.Status = newStatus
	s.log.Info("registration decided",
		"jam_id", jamID, "team_id", teamID, "registration_id", reg.ID, "status", string(newStatus))
	return reg, nil
}

func (s *RegistrationService) ListByJam(ctx context.Context, jamID string) ([]model.JamTeamRegistration, error) {
	return s.regRepo.ListRegistrationsByJam(ctx, jamID)
}

// requireLeader allows the team leader and admins through.
func requireLeader(team *model.Team, requesterID, requesterRole string) error {
	if requesterRole == model.RoleAdmin || team.LeaderID == requesterID {
		return nil
	}
	return common.Errorf("only the team leader or an admin may do this: %w", common.ErrForbidden)
}
