package service

import (
	"context"
	"testing"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_ReadStateIsPerRecipient(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svcs.Task.Create(ctx, actorOf(e.admin), &models.CreateTaskRequest{Title: "a", Assignee: &e.alice.ID})
	require.NoError(t, err)
	_, err = e.svcs.Task.Create(ctx, actorOf(e.admin), &models.CreateTaskRequest{Title: "b", Assignee: &e.alice.ID})
	require.NoError(t, err)

	list, err := e.svcs.Notification.List(ctx, e.alice.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Task.Title)

	_, err = e.svcs.Notification.MarkAsRead(ctx, actorOf(e.bob), list[0].ID)
	assertKind(t, err, ErrForbidden)

	read, err := e.svcs.Notification.MarkAsRead(ctx, actorOf(e.alice), list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := e.svcs.Notification.UnreadCount(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	onlyUnread, err := e.svcs.Notification.List(ctx, e.alice.ID, true)
	require.NoError(t, err)
	require.Len(t, onlyUnread, 1)
	assert.Equal(t, list[1].ID, onlyUnread[0].ID)

	back, err := e.svcs.Notification.MarkAsUnread(ctx, actorOf(e.alice), list[0].ID)
	require.NoError(t, err)
	assert.False(t, back.IsRead)

	marked, err := e.svcs.Notification.MarkAllAsRead(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
}

func TestNotification_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svcs.Task.Create(ctx, actorOf(e.admin), &models.CreateTaskRequest{Title: "a", Assignee: &e.alice.ID})
	require.NoError(t, err)
	id := e.store.Notifications(e.alice.ID)[0].ID

	assertKind(t, e.svcs.Notification.Delete(ctx, actorOf(e.bob), id), ErrForbidden)
	require.NoError(t, e.svcs.Notification.Delete(ctx, actorOf(e.alice), id))
	assert.ErrorIs(t, e.svcs.Notification.Delete(ctx, actorOf(e.alice), id), ErrNotifMissing)
	assertKind(t, e.svcs.Notification.Delete(ctx, actorOf(e.alice), "bad"), ErrValidation)
}

func TestNotification_PurgeRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svcs.Task.Create(ctx, actorOf(e.admin), &models.CreateTaskRequest{Title: "a", Assignee: &e.alice.ID})
	require.NoError(t, err)
	_, err = e.svcs.Task.Create(ctx, actorOf(e.admin), &models.CreateTaskRequest{Title: "b", Assignee: &e.alice.ID})
	require.NoError(t, err)
	notes := e.store.Notifications(e.alice.ID)
	_, err = e.svcs.Notification.MarkAsRead(ctx, actorOf(e.alice), notes[0].ID)
	require.NoError(t, err)

	// The store clock starts in 2024, so every row is older than a day.
	purged, err := e.svcs.Notification.PurgeRead(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, e.store.NotificationCount())
}
