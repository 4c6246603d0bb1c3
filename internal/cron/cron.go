package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	JobNotificationCleanup = "notification_cleanup"
	JobSessionPurge        = "session_purge"

	jobTimeout = time.Minute
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron          *cron.Cron
	notifications service.NotificationService
	auth          service.AuthService
	retention     time.Duration
}

// NewScheduler creates a scheduler. Read notifications older than retention
// are purged by the cleanup job.
func NewScheduler(notifications service.NotificationService, auth service.AuthService, retention time.Duration) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		notifications: notifications,
		auth:          auth,
		retention:     retention,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	// Every Sunday at midnight
	if _, err := s.cron.AddFunc("0 0 * * 0", func() { s.run(JobNotificationCleanup) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobNotificationCleanup, err)
	}
	// Every hour
	if _, err := s.cron.AddFunc("0 * * * *", func() { s.run(JobSessionPurge) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobSessionPurge, err)
	}

	s.cron.Start()
	log.Info().Str("component", "cron").Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Str("component", "cron").Msg("Scheduler stopped")
}

// ManualTrigger runs one job immediately and returns how many rows it removed.
func (s *Scheduler) ManualTrigger(job string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	switch job {
	case JobNotificationCleanup:
		return s.cleanupOldNotifications(ctx)
	case JobSessionPurge:
		return s.auth.PurgeExpiredSessions(ctx)
	}
	return 0, fmt.Errorf("unknown job %q", job)
}

func (s *Scheduler) run(job string) {
	start := time.Now()
	removed, err := s.ManualTrigger(job)
	if err != nil {
		log.Error().Err(err).Str("component", "cron").Str("job", job).Msg("Job failed")
		return
	}
	log.Info().Str("component", "cron").Str("job", job).Int("removed", removed).
		Dur("duration", time.Since(start)).Msg("Job finished")
}

// cleanupOldNotifications removes old read notifications
func (s *Scheduler) cleanupOldNotifications(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	return s.notifications.PurgeRead(ctx, s.retention)
}
