// Package jobs observes the long-running task a paid request unlocks. The
// remote service owns the job lifecycle; this side only polls its status
// with bounded exponential backoff.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/types"
)

// Backoff parameters: delays grow by 1.2x from the initial delay and never
// exceed the ceiling. Early polls stay responsive; long-running generation
// tasks stop getting hammered.
const (
	backoffFactor = 1.2
	backoffCap    = 30 * time.Second
)

// StatusFetcher reads the current state of a remote job.
type StatusFetcher interface {
	FetchJob(ctx context.Context, jobID string) (*types.Job, error)
}

// Poller polls a job until it completes, fails, or the attempt budget runs
// out. The poller bounds its own retries; it does not rely on caller
// cancellation, though the context is honored between attempts.
type Poller struct {
	fetcher      StatusFetcher
	maxAttempts  int
	initialDelay time.Duration
	log          logger.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller builds a poller over the given fetcher.
func NewPoller(fetcher StatusFetcher, maxAttempts int, initialDelay time.Duration, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Noop{}
	}
	return &Poller{
		fetcher:      fetcher,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		log:          log,
		sleep:        sleepContext,
	}
}

// Poll fetches the job until a terminal status or exhaustion. A failed
// status short-circuits immediately with the remote error text; only the
// "still pending" condition is ever retried.
func (p *Poller) Poll(ctx context.Context, jobID string) (*types.Job, error) {
	schedule := newSchedule(p.initialDelay)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		job, err := p.fetcher.FetchJob(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case types.JobCompleted:
			p.log.Info("job completed",
				zap.String("job", jobID),
				zap.Int("attempts", attempt))
			return job, nil
		case types.JobFailed:
			reason := job.Error
			if reason == "" {
				reason = "unknown"
			}
			return nil, types.NewError(types.ErrJobFailed, reason)
		case types.JobPending:
			// Keep waiting.
		default:
			return nil, types.NewError(types.ErrJobFailed,
				fmt.Sprintf("job %s reported unknown status %q", jobID, job.Status))
		}

		if attempt == p.maxAttempts {
			break
		}

		delay := schedule.NextBackOff()
		p.log.Debug("job still pending",
			zap.String("job", jobID),
			zap.Int("attempt", attempt),
			zap.Duration("next_delay", delay))
		if err := p.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, types.NewError(types.ErrJobTimeout,
		fmt.Sprintf("job %s still pending after %d attempts", jobID, p.maxAttempts))
}

// newSchedule builds the multiplicative backoff schedule. Randomization is
// off so the cap behavior is exact.
func newSchedule(initial time.Duration) *backoff.ExponentialBackOff {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = initial
	schedule.Multiplier = backoffFactor
	schedule.MaxInterval = backoffCap
	schedule.RandomizationFactor = 0
	schedule.MaxElapsedTime = 0
	schedule.Reset()
	return schedule
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
