package service

import (
	"context"
	"fmt"
	"time"

	"chimu/internal/domain/model"
	"chimu/internal/domain/repository"
	"chimu/internal/metrics"
	"chimu/internal/platform/logger"
)

// LifecycleService advances jam statuses past their boundary timestamps. It is
// driven by the worker's timer; `now` is always injected so sweeps are
// deterministic under test.
type LifecycleService struct {
	jamRepo repository.JamRepository
	log     *logger.Logger
}

func NewLifecycleService(jamRepo repository.JamRepository, log *logger.Logger) *LifecycleService {
	return &LifecycleService{jamRepo: jamRepo, log: log}
}

// RunLifecycleSweep walks every non-terminal jam and applies each transition
// whose boundary `now` has crossed. A late sweep re-applies transitions until
// the jam catches up, one compare-and-swap per step, so no edge of the table
// is ever skipped.
//
// Jams fail independently: a persistence error on one jam is logged and the
// sweep moves on, relying on the next tick to retry (the boundary condition
// still holds). Only a sweep-wide infrastructure failure, like not being able
// to list jams at all, is returned to the caller.
func (s *LifecycleService) RunLifecycleSweep(ctx context.Context, now time.Time) error {
	started := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	jams, err := s.jamRepo.ListActiveJams(ctx)
	if err != nil {
		return fmt.Errorf("lifecycle sweep: listing active jams: %w", err)
	}

	transitions := 0
	for i := range jams {
		transitions += s.advanceJam(ctx, &jams[i], now)
	}

	if transitions > 0 {
		s.log.Info("lifecycle sweep finished",
			"jams_checked", len(jams),
			"transitions", transitions,
		)
	}
	return nil
}

func (s *LifecycleService) advanceJam(ctx context.Context, jam *model.Jam, now time.Time) int {
	applied := 0
	for _, next := range jam.AdvanceStatus(now) {
		if err := s.jamRepo.UpdateJamStatus(ctx, jam.ID, jam.Status, next); err != nil {
			// Status moved underneath us (organizer cancel, concurrent sweep)
			// or the write failed; either way the next tick re-evaluates.
			metrics.SweepFailures.Inc()
			s.log.Error("lifecycle transition failed",
				"jam_id", jam.ID,
				"from", string(jam.Status),
				"to", string(next),
				"error", err,
			)
			return applied
		}
		metrics.JamTransitions.WithLabelValues(string(jam.Status), string(next)).Inc()
		s.log.Info("jam status advanced",
			"jam_id", jam.ID,
			"from", string(jam.Status),
			"to", string(next),
		)
		jam.Status = next
		applied++
	}
	return applied
}
