package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/testutil"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "11111111-1111-1111-1111-111111111111"

func TestWriter_PersistsAndPushes(t *testing.T) {
	store := testutil.NewMemStore()
	pusher := testutil.NewRecordingPusher(recipient)
	w := NewWriter(store.Repositories().NotificationRepo, pusher)

	res, err := w.Notify(context.Background(), Request{
		RecipientID: recipient,
		Type:        types.NotificationTaskAssigned,
		Message:     "hello",
		Metadata:    map[string]interface{}{"taskTitle": "Ship it"},
	})

	require.NoError(t, err)
	require.NotNil(t, res.Notification)
	assert.NotEmpty(t, res.Notification.ID)
	assert.True(t, res.Delivered)
	assert.NoError(t, res.DeliveryErr)
	assert.Len(t, store.Notifications(recipient), 1)
	assert.Len(t, pusher.Events(recipient, socket.EventNotification), 1)
}

func TestWriter_OfflineRecipientStillPersisted(t *testing.T) {
	store := testutil.NewMemStore()
	pusher := testutil.NewRecordingPusher()
	w := NewWriter(store.Repositories().NotificationRepo, pusher)

	res, err := w.Notify(context.Background(), Request{
		RecipientID: recipient,
		Type:        types.NotificationTaskUpdated,
		Message:     "changed",
	})

	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.NoError(t, res.DeliveryErr)
	assert.Len(t, store.Notifications(recipient), 1)
}

func TestWriter_DeliveryFailureIsNotReturned(t *testing.T) {
	store := testutil.NewMemStore()
	pusher := testutil.NewRecordingPusher(recipient)
	pusher.Err = socket.ErrClientClosed
	w := NewWriter(store.Repositories().NotificationRepo, pusher)

	res, err := w.Notify(context.Background(), Request{
		RecipientID: recipient,
		Type:        types.NotificationTaskCompleted,
		Message:     "done",
	})

	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.ErrorIs(t, res.DeliveryErr, socket.ErrClientClosed)
	assert.Len(t, store.Notifications(recipient), 1)
}

func TestWriter_PersistenceFailureIsReturned(t *testing.T) {
	store := testutil.NewMemStore()
	store.NotificationCreateErr = errors.New("disk full")
	pusher := testutil.NewRecordingPusher(recipient)
	w := NewWriter(store.Repositories().NotificationRepo, pusher)

	res, err := w.Notify(context.Background(), Request{
		RecipientID: recipient,
		Type:        types.NotificationTaskAssigned,
		Message:     "hello",
	})

	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, pusher.Events(recipient, socket.EventNotification))
}

func TestWriter_RejectsBadInput(t *testing.T) {
	store := testutil.NewMemStore()
	w := NewWriter(store.Repositories().NotificationRepo, nil)

	_, err := w.Notify(context.Background(), Request{Type: types.NotificationTaskAssigned})
	assert.ErrorIs(t, err, ErrMissingRecipient)

	_, err = w.Notify(context.Background(), Request{RecipientID: recipient, Type: "party"})
	assert.ErrorIs(t, err, ErrInvalidType)

	assert.Equal(t, 0, store.NotificationCount())
}
