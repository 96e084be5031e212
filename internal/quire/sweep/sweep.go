package sweep

import (
	"context"
	"time"

	"github.com/hay-kot/quire/internal/core/logging"
)

// Sweeper deletes expired entries and reports how many it removed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Start periodically sweeps expired KV entries, once right away and then
// every interval. It blocks until the context is cancelled.
func Start(ctx context.Context, s Sweeper, interval time.Duration) {
	log := logging.Component("sweep")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := s.SweepExpired(ctx)
		switch {
		case err != nil:
			log.Debug().Err(err).Msg("kv sweep failed")
		case n > 0:
			log.Debug().Int64("removed", n).Msg("kv sweep")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
