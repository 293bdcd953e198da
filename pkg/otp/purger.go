package otp

import (
	"context"
	"time"

	"ourskilllab/pkg/logger"
)

// RunPurger calls PurgeExpired on every tick until ctx is done.
func RunPurger(ctx context.Context, store Store, interval time.Duration, log *logger.Logger) {
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
			removed, err := store.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired OTP codes")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Debug("Purged expired OTP codes")
			}
		}
	}
}
