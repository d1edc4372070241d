// Package scheduler drives the periodic maintenance sweeps. The services
// have no internal timers; this is the one place that ticks.
package scheduler

import (
	"context"
	"time"

	"gatekeeper/internal/community"
	"gatekeeper/internal/observability"
	"gatekeeper/internal/queue"
)

const cleanupInterval = 24 * time.Hour

// Scheduler periodically expires temporary bans and purges old moderation
// history. Both sweeps are idempotent, so overlapping or repeated runs are
// harmless.
type Scheduler struct {
	queueService     *queue.ModerationQueueService
	communityService *community.CommunityModerationService

	sweepInterval time.Duration
	retentionDays int
	logger        *observability.ServiceLogger
}

// New creates a scheduler. sweepInterval controls the ban expiry sweep;
// cleanup runs daily with the given retention window.
func New(
	queueService *queue.ModerationQueueService,
	communityService *community.CommunityModerationService,
	sweepInterval time.Duration,
	retentionDays int,
) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	return &Scheduler{
		queueService:     queueService,
		communityService: communityService,
		sweepInterval:    sweepInterval,
		retentionDays:    retentionDays,
		logger:           observability.NewServiceLogger("scheduler"),
	}
}

// Run blocks, executing sweeps until ctx is cancelled. Call it from its own
// goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	banTicker := time.NewTicker(s.sweepInterval)
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer banTicker.Stop()
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-banTicker.C:
			s.expireBans(ctx)
		case <-cleanupTicker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Scheduler) expireBans(ctx context.Context) {
	expired, err := s.communityService.ExpireTemporaryBans(ctx)
	if err != nil {
		s.logger.LogError(ctx, "expireBans", err)
		return
	}
	if expired > 0 {
		s.logger.LogCall(ctx, "expireBans", map[string]interface{}{"expired": expired})
	}
}

func (s *Scheduler) cleanup(ctx context.Context) {
	removed, err := s.queueService.Cleanup(ctx, s.retentionDays)
	if err != nil {
		s.logger.LogError(ctx, "cleanup", err)
		return
	}
	s.logger.LogCall(ctx, "cleanup", map[string]interface{}{"removed": removed})
}
