package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chimu/internal/domain/model"
	"chimu/internal/platform/logger"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testJam(id string, status model.JamStatus) *model.Jam {
	return &model.Jam{
		ID:                id,
		OrganizerID:       "organizer-1",
		MinTeamSize:       1,
		MaxTeamSize:       4,
		RegistrationStart: testBase,
		RegistrationEnd:   testBase.Add(24 * time.Hour),
		JamStart:          testBase.Add(48 * time.Hour),
		JamEnd:            testBase.Add(96 * time.Hour),
		JudgingStart:      testBase.Add(96 * time.Hour),
		JudgingEnd:        testBase.Add(120 * time.Hour),
		Status:            status,
	}
}

func TestLifecycleSweepAdvancesPastBoundary(t *testing.T) {
	jamRepo := newFakeJamRepo(testJam("jam-1", model.JamRegistrationOpen))
	svc := NewLifecycleService(jamRepo, logger.NewNop())

	if err := svc.RunLifecycleSweep(context.Background(), testBase.Add(25*time.Hour)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := jamRepo.jams["jam-1"].Status; got != model.JamRegistrationClosed {
		t.Fatalf("status = %q, want REGISTRATION_CLOSED", got)
	}
}

func TestLifecycleSweepIsIdempotent(t *testing.T) {
	jamRepo := newFakeJamRepo(testJam("jam-1", model.JamRegistrationOpen))
	svc := NewLifecycleService(jamRepo, logger.NewNop())

	now := testBase.Add(25 * time.Hour)
	for i := 0; i < 3; i++ {
		if err := svc.RunLifecycleSweep(context.Background(), now); err != nil {
			t.Fatalf("sweep %d failed: %v", i, err)
		}
	}
	if got := jamRepo.jams["jam-1"].Status; got != model.JamRegistrationClosed {
		t.Fatalf("status = %q, want REGISTRATION_CLOSED", got)
	}
	if jamRepo.statusUpdates != 1 {
		t.Fatalf("status writes = %d, want exactly 1", jamRepo.statusUpdates)
	}
}

func TestLifecycleSweepCatchesUpAfterDowntime(t *testing.T) {
	jamRepo := newFakeJamRepo(testJam("jam-1", model.JamRegistrationOpen))
	svc := NewLifecycleService(jamRepo, logger.NewNop())

	// Worker was down past judging_start: one sweep must walk the jam through
	// every intermediate status, one write per edge.
	if err := svc.RunLifecycleSweep(context.Background(), testBase.Add(100*time.Hour)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := jamRepo.jams["jam-1"].Status; got != model.JamJudging {
		t.Fatalf("status = %q, want JUDGING", got)
	}
	if jamRepo.statusUpdates != 3 {
		t.Fatalf("status writes = %d, want 3 (one per edge)", jamRepo.statusUpdates)
	}
}

func TestLifecycleSweepJamFailuresAreIsolated(t *testing.T) {
	jamRepo := newFakeJamRepo(
		testJam("jam-1", model.JamRegistrationOpen),
		testJam("jam-2", model.JamRegistrationOpen),
	)
	jamRepo.failStatusUpdate["jam-1"] = errors.New("connection reset")
	svc := NewLifecycleService(jamRepo, logger.NewNop())

	now := testBase.Add(25 * time.Hour)
	if err := svc.RunLifecycleSweep(context.Background(), now); err != nil {
		t.Fatalf("sweep returned error for a per-jam failure: %v", err)
	}
	if got := jamRepo.jams["jam-1"].Status; got != model.JamRegistrationOpen {
		t.Fatalf("failed jam moved to %q", got)
	}
	if got := jamRepo.jams["jam-2"].Status; got != model.JamRegistrationClosed {
		t.Fatalf("healthy jam stuck at %q", got)
	}

	// The boundary condition still holds on the next tick, so the failed jam
	// catches up then.
	if err := svc.RunLifecycleSweep(context.Background(), now); err != nil {
		t.Fatalf("retry sweep failed: %v", err)
	}
	if got := jamRepo.jams["jam-1"].Status; got != model.JamRegistrationClosed {
		t.Fatalf("failed jam did not recover, status = %q", got)
	}
}

func TestLifecycleSweepIgnoresTerminalAndEarlyJams(t *testing.T) {
	cancelled := testJam("jam-cancelled", model.JamCancelled)
	completed := testJam("jam-completed", model.JamCompleted)
	early := testJam("jam-early", model.JamRegistrationOpen)
	jamRepo := newFakeJamRepo(cancelled, completed, early)
	svc := NewLifecycleService(jamRepo, logger.NewNop())

	// Before any boundary: nothing moves.
	if err := svc.RunLifecycleSweep(context.Background(), testBase.Add(time.Hour)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if jamRepo.statusUpdates != 0 {
		t.Fatalf("status writes = %d, want 0", jamRepo.statusUpdates)
	}
	if cancelled.Status != model.JamCancelled || completed.Status != model.JamCompleted {
		t.Fatal("terminal jam status changed")
	}
}
