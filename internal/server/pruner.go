package server

import (
	"context"
	"time"

	"github.com/dmitrijs2005/classroom/internal/logging"
)

type pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// runPruner removes expired access tokens every interval until ctx is done.
// A non-positive interval disables pruning.
func runPruner(ctx context.Context, interval time.Duration, p pruner, logger logging.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Prune(ctx); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "prune failed", "error", err)
			}
		}
	}
}
