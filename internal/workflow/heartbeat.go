package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"custody/internal/jobs"
	"custody/internal/logging"
)

// HeartbeatMonitor keeps liveness timestamps fresh for jobs this process is
// working on and reclaims jobs whose owner stopped heartbeating.
type HeartbeatMonitor struct {
	store    *jobs.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	tracked map[int64]struct{}
}

// NewHeartbeatMonitor constructs a monitor over the given store.
func NewHeartbeatMonitor(store *jobs.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "heartbeat"),
		interval: interval,
		timeout:  timeout,
		tracked:  make(map[int64]struct{}),
	}
}

// Track registers a job for heartbeat updates.
func (h *HeartbeatMonitor) Track(id int64) {
	h.mu.Lock()
	h.tracked[id] = struct{}{}
	h.mu.Unlock()
}

// Untrack stops heartbeat updates for a job.
func (h *HeartbeatMonitor) Untrack(id int64) {
	h.mu.Lock()
	delete(h.tracked, id)
	h.mu.Unlock()
}

// Run beats until ctx is canceled.
func (h *HeartbeatMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.beat(ctx)
		}
	}
}

func (h *HeartbeatMonitor) beat(ctx context.Context) {
	h.mu.Lock()
	ids := make([]int64, 0, len(h.tracked))
	for id := range h.tracked {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		if err := h.store.UpdateHeartbeat(ctx, id); err != nil {
			h.logger.Warn("heartbeat update failed",
				logging.Int64("job_id", id),
				logging.Error(err),
			)
		}
	}
}

// ReclaimStale flips jobs back to pending when their heartbeat is older than
// the timeout, so another worker can pick them up.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-h.timeout)
	reclaimed, err := h.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		h.logger.Warn("stale reclaim failed", logging.Error(err))
		return
	}
	if reclaimed > 0 {
		h.logger.Info("reclaimed stale jobs", logging.Int64("count", reclaimed))
	}
}
