package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// StateJanitor periodically removes expired OAuth states.
type StateJanitor struct {
	states   driven.OAuthStateStore
	interval time.Duration
	now      func() time.Time
}

// NewStateJanitor creates a new StateJanitor sweeping every interval.
func NewStateJanitor(states driven.OAuthStateStore, interval time.Duration) *StateJanitor {
	return &StateJanitor{
		states:   states,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs an immediate sweep, then sweeps on the configured interval.
// Start blocks until the context is canceled.
func (j *StateJanitor) Start(ctx context.Context) {
	j.Sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("state janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes every state expired at the current time and returns how many
// were removed. Failures are logged, not returned.
func (j *StateJanitor) Sweep(ctx context.Context) int64 {
	n, err := j.states.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("state sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		slog.Info("expired oauth states removed", "count", n)
	}
	return n
}
