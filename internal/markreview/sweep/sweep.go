package sweep

import (
	"context"
	"time"

	"github.com/colonyops/markreview/internal/core/logging"
)

// Sweeper removes expired entries.
type Sweeper interface {
	SweepExpired(ctx context.Context) error
}

// Start periodically sweeps expired KV entries, such as saved server
// sessions past their TTL. It blocks until the context is cancelled.
func Start(ctx context.Context, s Sweeper, interval time.Duration) {
	log := logging.Component("sweep")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepExpired(ctx); err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
			}
		}
	}
}
