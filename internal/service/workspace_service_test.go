package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_CreateIncludesCreator(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ws, err := e.svcs.Workspace.Create(ctx, actorOf(e.admin), "  Core  ", []string{e.alice.ID, e.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "Core", ws.Name)
	assert.Equal(t, e.admin.ID, ws.CreatedBy)
	assert.ElementsMatch(t, []string{e.admin.ID, e.alice.ID}, ws.Members)

	mine, err := e.svcs.Workspace.ListForUser(ctx, e.alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ws.ID, mine[0].ID)
}

func TestWorkspace_CreateRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svcs.Workspace.Create(ctx, actorOf(e.alice), "Core", nil)
	assertKind(t, err, ErrForbidden)

	_, err = e.svcs.Workspace.Create(ctx, actorOf(e.admin), "   ", nil)
	assertKind(t, err, ErrValidation)

	_, err = e.svcs.Workspace.Create(ctx, actorOf(e.admin), "Core", []string{"99999999-9999-9999-9999-999999999999"})
	assertKind(t, err, ErrValidation)
}

func TestWorkspace_NonAdminCannotMutate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID, e.alice.ID)

	_, err := e.svcs.Workspace.Update(ctx, actorOf(e.alice), ws.ID, "Renamed")
	assertKind(t, err, ErrForbidden)

	_, err = e.svcs.Workspace.AddMembers(ctx, actorOf(e.alice), ws.ID, []string{e.bob.ID})
	assertKind(t, err, ErrForbidden)

	assertKind(t, e.svcs.Workspace.Delete(ctx, actorOf(e.alice), ws.ID), ErrForbidden)
	assert.Zero(t, e.store.NotificationCount())
}

func TestWorkspace_GetChecksAccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID, e.alice.ID)

	got, err := e.svcs.Workspace.Get(ctx, actorOf(e.alice), ws.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)

	_, err = e.svcs.Workspace.Get(ctx, actorOf(e.bob), ws.ID)
	assertKind(t, err, ErrForbidden)

	_, err = e.svcs.Workspace.Get(ctx, actorOf(e.admin), "99999999-9999-9999-9999-999999999999")
	assertKind(t, err, ErrNotFound)

	_, err = e.svcs.Workspace.Get(ctx, actorOf(e.admin), "nope")
	assertKind(t, err, ErrValidation)
}

func TestWorkspace_AddMembersNotifiesNewOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID, e.alice.ID)

	updated, err := e.svcs.Workspace.AddMembers(ctx, actorOf(e.admin), ws.ID, []string{e.alice.ID, e.bob.ID, e.carol.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{e.admin.ID, e.alice.ID, e.bob.ID, e.carol.ID}, updated.Members)

	assert.Empty(t, e.store.Notifications(e.alice.ID))
	for _, u := range []string{e.bob.ID, e.carol.ID} {
		notes := e.store.Notifications(u)
		require.Len(t, notes, 1)
		assert.Equal(t, types.NotificationWorkspaceAdded, notes[0].Type)
		assert.Equal(t, "Core", notes[0].Metadata["workspaceName"])
		assert.Equal(t, "Ada", notes[0].Metadata["addedBy"])
		assert.Len(t, e.pusher.Events(u, socket.EventNotification), 1)
	}

	confirm := e.store.Notifications(e.admin.ID)
	require.Len(t, confirm, 1)
	assert.ElementsMatch(t, []string{e.bob.ID, e.carol.ID}, confirm[0].Metadata["addedMembers"])
}

func TestWorkspace_AddExistingMembersIsQuiet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID, e.alice.ID)

	_, err := e.svcs.Workspace.AddMembers(ctx, actorOf(e.admin), ws.ID, []string{e.alice.ID})
	require.NoError(t, err)
	assert.Zero(t, e.store.NotificationCount())

	_, err = e.svcs.Workspace.AddMembers(ctx, actorOf(e.admin), ws.ID, nil)
	assertKind(t, err, ErrValidation)
}

func TestWorkspace_AddMembersSurvivesNotificationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID)
	e.store.NotificationCreateErr = errors.New("disk full")

	updated, err := e.svcs.Workspace.AddMembers(ctx, actorOf(e.admin), ws.ID, []string{e.bob.ID})
	require.NoError(t, err)
	assert.Contains(t, updated.Members, e.bob.ID)
	assert.Empty(t, e.pusher.Events(e.bob.ID, socket.EventNotification))
}

type unreachableUserLookup struct {
	repository.UserRepository
}

func (unreachableUserLookup) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return nil, errors.New("connection reset")
}

func TestWorkspace_AddMembersSurvivesAdminLookupFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID)

	repos := e.store.Repositories()
	notifier := notification.NewService(notification.NewWriter(repos.NotificationRepo, e.pusher), repos.UserRepo)
	svc := NewWorkspaceService(repos.WorkspaceRepo, unreachableUserLookup{repos.UserRepo}, e.svcs.Permission, notifier)

	updated, err := svc.AddMembers(ctx, actorOf(e.admin), ws.ID, []string{e.bob.ID})
	require.NoError(t, err)
	assert.Contains(t, updated.Members, e.bob.ID)

	notes := e.store.Notifications(e.bob.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, types.NotificationWorkspaceAdded, notes[0].Type)
	assert.Equal(t, "Core", notes[0].Metadata["workspaceName"])
	assert.Len(t, e.pusher.Events(e.bob.ID, socket.EventNotification), 1)
}

func TestWorkspace_Leave(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID, e.alice.ID)

	assertKind(t, e.svcs.Workspace.Leave(ctx, actorOf(e.admin), ws.ID), ErrInvalidState)
	assertKind(t, e.svcs.Workspace.Leave(ctx, actorOf(e.bob), ws.ID), ErrForbidden)

	require.NoError(t, e.svcs.Workspace.Leave(ctx, actorOf(e.alice), ws.ID))
	_, err := e.svcs.Workspace.Get(ctx, actorOf(e.alice), ws.ID)
	assertKind(t, err, ErrForbidden)
}

func TestWorkspace_UpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ws := e.store.SeedWorkspace("Core", e.admin.ID)

	updated, err := e.svcs.Workspace.Update(ctx, actorOf(e.admin), ws.ID, "Platform")
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Name)

	require.NoError(t, e.svcs.Workspace.Delete(ctx, actorOf(e.admin), ws.ID))
	assertKind(t, e.svcs.Workspace.Delete(ctx, actorOf(e.admin), ws.ID), ErrNotFound)
}
