package worker

import (
	"context"
	"time"

	"chimu/internal/app/service"
	"chimu/internal/platform/config"
	"chimu/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LifecycleWorker ticks on a fixed interval and runs the lifecycle sweep. A
// redis lock keeps a single sweeper active across replicas; a replica that
// loses the lock just waits for its next tick, since any sweep covers all due
// transitions.
type LifecycleWorker struct {
	rdb      *redis.Client
	svc      *service.LifecycleService
	interval time.Duration
	log      *logger.Logger
}

func NewLifecycleWorker(rdb *redis.Client, svc *service.LifecycleService, interval time.Duration, log *logger.Logger) *LifecycleWorker {
	return &LifecycleWorker{rdb: rdb, svc: svc, interval: interval, log: log}
}

func (w *LifecycleWorker) Start(ctx context.Context) {
	w.log.Info("lifecycle worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once on startup so a fresh deploy catches up on overdue boundaries
	// without waiting a full interval.
	w.sweepWithLock(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("lifecycle worker stopping")
			return
		case <-ticker.C:
			w.sweepWithLock(ctx)
		}
	}
}

func (w *LifecycleWorker) sweepWithLock(ctx context.Context) {
	lockKey := config.AppConfig.LifecycleLockKey
	lockValue := uuid.NewString()
	lockTTL := config.AppConfig.LifecycleLockTTL

	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, lockTTL).Result()
	if err != nil {
		w.log.Error("failed to attempt sweep lock acquisition", "error", err)
		return
	}
	if !ok {
		w.log.Debug("sweep lock held elsewhere, skipping tick")
		return
	}

	defer func() {
		// Release only if we still hold it: compare-and-delete via Lua, so an
		// expired lock taken over by another replica is left alone.
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		if _, err := script.Run(ctx, w.rdb, []string{lockKey}, lockValue).Result(); err != nil {
			w.log.Error("failed to release sweep lock", "error", err)
		}
	}()

	if err := w.svc.RunLifecycleSweep(ctx, time.Now().UTC()); err != nil {
		// Sweep-wide infrastructure failure; the next tick retries.
		w.log.Error("lifecycle sweep aborted", "error", err)
	}
}
