package cron

import (
	"context"
	"testing"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/config"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/Marga-Ghale/teamhub-backend/internal/testutil"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T, retention time.Duration) (*Scheduler, *testutil.MemStore, *repository.Repositories) {
	t.Helper()
	store := testutil.NewMemStore()
	repos := store.Repositories()
	notifier := notification.NewService(notification.NewWriter(repos.NotificationRepo, nil), repos.UserRepo)
	svcs := service.NewServices(&service.ServiceDeps{
		Config:   &config.Config{JWTSecret: "test", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:    repos,
		Notifier: notifier,
	})
	return NewScheduler(svcs.Notification, svcs.Auth, retention), store, repos
}

func TestManualTrigger_NotificationCleanup(t *testing.T) {
	s, store, repos := newScheduler(t, 24*time.Hour)
	ctx := context.Background()
	user := store.SeedUser("Alice", "alice@example.com", "x", types.RoleMember)

	for _, read := range []bool{true, false} {
		n := &repository.Notification{RecipientID: user.ID, Type: types.NotificationTaskUpdated, Message: "m"}
		require.NoError(t, repos.NotificationRepo.Create(ctx, n))
		if read {
			require.NoError(t, repos.NotificationRepo.SetRead(ctx, n.ID, true))
		}
	}

	removed, err := s.ManualTrigger(JobNotificationCleanup)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.NotificationCount())
}

func TestManualTrigger_DisabledRetention(t *testing.T) {
	s, _, _ := newScheduler(t, 0)
	removed, err := s.ManualTrigger(JobNotificationCleanup)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestManualTrigger_SessionPurge(t *testing.T) {
	s, _, repos := newScheduler(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, repos.SessionRepo.Save(ctx, &repository.RefreshToken{Token: "old", UserID: "u", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repos.SessionRepo.Save(ctx, &repository.RefreshToken{Token: "new", UserID: "u", ExpiresAt: time.Now().Add(time.Hour)}))

	removed, err := s.ManualTrigger(JobSessionPurge)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	kept, err := repos.SessionRepo.Find(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestManualTrigger_UnknownJob(t *testing.T) {
	s, _, _ := newScheduler(t, time.Hour)
	_, err := s.ManualTrigger("sprint")
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, _, _ := newScheduler(t, time.Hour)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
