package jobs

import (
	"context"
	"fmt"
	"time"
)

// Watch polls the job status every interval and calls onChange each time it
// differs from the last one seen, starting from initial. An empty initial
// reports the first status read. Polling stops on the first error or when
// ctx is done.
func (s *Service) Watch(ctx context.Context, id ID, interval time.Duration, initial string, onChange func(status string)) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := initial
	for {
		status, err := s.client.Status(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("job %d status: %w", id, err)
		}

		if status != last {
			s.log.Debug().Int64("job_id", int64(id)).Str("from", last).Str("to", status).Msg("job status changed")
			last = status
			onChange(status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
