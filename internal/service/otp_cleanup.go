package service

import (
	"context"
	"log"
	"time"
)

// OtpCleanup periodically purges expired and used OTP records. It is an
// explicitly owned background task: Run blocks until the given context is
// cancelled, so main controls its lifetime.
type OtpCleanup struct {
	otpService *OtpService
	interval   time.Duration
}

// NewOtpCleanup creates the sweeper. interval <= 0 falls back to the
// reference 10 minutes.
func NewOtpCleanup(otpService *OtpService, interval time.Duration) *OtpCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &OtpCleanup{
		otpService: otpService,
		interval:   interval,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. A failed sweep
// is logged and does not stop the schedule.
func (c *OtpCleanup) Run(ctx context.Context) {
	log.Printf("[OtpCleanup] started (interval %s)", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.otpService.PurgeExpired(ctx); err != nil {
				log.Printf("[OtpCleanup] sweep failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("[OtpCleanup] stopped")
			return
		}
	}
}
