package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// OTPPurger deletes one-time codes that expired before now.
type OTPPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper drops idle in-memory state such as per-IP rate limiters.
type Sweeper interface {
	Sweep()
}

// CleanupWorker periodically removes expired OTP rows and idle limiter state.
type CleanupWorker struct {
	otps     OTPPurger
	sweepers []Sweeper
	interval time.Duration
	now      func() time.Time
}

// NewCleanupWorker constructs a CleanupWorker.
func NewCleanupWorker(otps OTPPurger, interval time.Duration, sweepers ...Sweeper) *CleanupWorker {
	return &CleanupWorker{
		otps:     otps,
		sweepers: sweepers,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the cleanup loop until context is canceled.
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting cleanup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cleanup worker stopped")
			return
		}
	}
}

func (w *CleanupWorker) run(ctx context.Context) {
	n, err := w.otps.PurgeExpired(ctx, w.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge expired OTPs")
	} else if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged expired OTPs")
	}
	for _, s := range w.sweepers {
		s.Sweep()
	}
}
