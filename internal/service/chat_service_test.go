package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, e *env, from, to *repository.User) *repository.ChatRequest {
	t.Helper()
	ctx := context.Background()
	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(from), to.Email)
	require.NoError(t, err)
	_, err = e.svcs.Chat.Respond(ctx, actorOf(to), req.ID, types.ChatRequestAccepted)
	require.NoError(t, err)
	return req
}

func TestChat_SendRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), " BOB@example.com ")
	require.NoError(t, err)
	assert.Equal(t, types.ChatRequestPending, req.Status)
	assert.Equal(t, e.bob.ID, req.RecipientID)
	assert.Len(t, e.pusher.Events(e.bob.ID, socket.EventChatRequest), 1)

	pending, err := e.svcs.Chat.PendingRequests(ctx, e.bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)
}

func TestChat_SendRequestRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.alice.Email)
	assertKind(t, err, ErrValidation)

	_, err = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	require.NoError(t, err)
	_, err = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	assert.ErrorIs(t, err, ErrDuplicateChat)
	assertKind(t, err, ErrConflict)
	assert.Equal(t, 1, e.store.ChatRequestCount())
}

func TestChat_ConcurrentDuplicateRequests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateChat):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 1, e.store.ChatRequestCount())
}

func TestChat_RequesterCannotAnswerOwnRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	require.NoError(t, err)

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.alice), req.ID, types.ChatRequestAccepted)
	assertKind(t, err, ErrForbidden)
	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.alice), req.ID, types.ChatRequestRejected)
	assertKind(t, err, ErrForbidden)
	assert.Zero(t, e.store.ConnectionCount())

	_, err = e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "hi")
	assertKind(t, err, ErrForbidden)

	pending, err := e.svcs.Chat.PendingRequests(ctx, e.bob.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestChat_AcceptIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		accepted, err := e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, types.ChatRequestAccepted)
		require.NoError(t, err)
		assert.Equal(t, types.ChatRequestAccepted, accepted.Status)
	}
	assert.Equal(t, 1, e.store.ConnectionCount())

	conns, err := e.svcs.Chat.Connections(ctx, e.alice.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.ElementsMatch(t, []string{e.alice.Email, e.bob.Email}, []string{conns[0].User1Email, conns[0].User2Email})
	assert.NotEmpty(t, e.pusher.Events(e.alice.ID, socket.EventChatRequestResponse))

	_, err = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	assert.ErrorIs(t, err, ErrDuplicateChat)
}

func TestChat_RespondRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	require.NoError(t, err)

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.carol), req.ID, types.ChatRequestAccepted)
	assertKind(t, err, ErrForbidden)

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, "maybe")
	assertKind(t, err, ErrValidation)

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.bob), "99999999-9999-9999-9999-999999999999", types.ChatRequestAccepted)
	assert.ErrorIs(t, err, ErrRequestMissing)

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, types.ChatRequestAccepted)
	require.NoError(t, err)
	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, types.ChatRequestRejected)
	assertKind(t, err, ErrInvalidState)
}

func TestChat_RejectAllowsNewRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req, err := e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	require.NoError(t, err)

	rejected, err := e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, types.ChatRequestRejected)
	require.NoError(t, err)
	assert.Equal(t, types.ChatRequestRejected, rejected.Status)
	assert.Zero(t, e.store.ConnectionCount())

	_, err = e.svcs.Chat.Respond(ctx, actorOf(e.bob), req.ID, types.ChatRequestAccepted)
	assertKind(t, err, ErrInvalidState)

	_, err = e.svcs.Chat.SendRequest(ctx, actorOf(e.alice), e.bob.Email)
	assert.NoError(t, err)
}

func TestChat_MessagingRequiresConnection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "hi")
	assertKind(t, err, ErrForbidden)

	connect(t, e, e.alice, e.bob)

	msg, err := e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "  hi bob ")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", msg.Content)
	assert.Len(t, e.pusher.Events(e.bob.ID, socket.EventPrivateMessage), 1)

	_, err = e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "   ")
	assertKind(t, err, ErrValidation)

	_, err = e.svcs.Chat.SendMessage(ctx, actorOf(e.carol), e.bob.ID, "hey")
	assertKind(t, err, ErrForbidden)
}

func TestChat_HistoryMarksRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	connect(t, e, e.alice, e.bob)

	_, err := e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "one")
	require.NoError(t, err)
	_, err = e.svcs.Chat.SendMessage(ctx, actorOf(e.bob), e.alice.ID, "two")
	require.NoError(t, err)

	unread, err := e.svcs.Chat.UnreadCount(ctx, e.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	history, err := e.svcs.Chat.History(ctx, actorOf(e.bob), e.alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)

	unread, err = e.svcs.Chat.UnreadCount(ctx, e.bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.Len(t, e.pusher.Events(e.alice.ID, socket.EventMessageSeen), 1)

	_, err = e.svcs.Chat.History(ctx, actorOf(e.carol), e.alice.ID)
	assertKind(t, err, ErrForbidden)
}

func TestChat_EditDeleteAndSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	connect(t, e, e.alice, e.bob)

	msg, err := e.svcs.Chat.SendMessage(ctx, actorOf(e.alice), e.bob.ID, "release on friday")
	require.NoError(t, err)

	_, err = e.svcs.Chat.EditMessage(ctx, actorOf(e.bob), msg.ID, "nope")
	assertKind(t, err, ErrForbidden)

	edited, err := e.svcs.Chat.EditMessage(ctx, actorOf(e.alice), msg.ID, "release on monday")
	require.NoError(t, err)
	assert.True(t, edited.Edited)

	found, err := e.svcs.Chat.Search(ctx, e.bob.ID, "MONDAY")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = e.svcs.Chat.Search(ctx, e.bob.ID, " ")
	assertKind(t, err, ErrValidation)

	assertKind(t, e.svcs.Chat.DeleteMessage(ctx, actorOf(e.bob), msg.ID), ErrForbidden)
	require.NoError(t, e.svcs.Chat.DeleteMessage(ctx, actorOf(e.alice), msg.ID))
	assert.ErrorIs(t, e.svcs.Chat.DeleteMessage(ctx, actorOf(e.alice), msg.ID), ErrMessageMissing)

	history, err := e.svcs.Chat.History(ctx, actorOf(e.alice), e.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
