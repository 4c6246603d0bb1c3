package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingRecipient = errors.New("notification recipient is required")
	ErrInvalidType      = errors.New("invalid notification type")
)

// Pusher routes a live event to one user. *socket.Hub satisfies it.
type Pusher interface {
	EmitToUser(userID string, event socket.EventType, payload interface{}) (bool, error)
}

// Request describes one notification to persist and push.
type Request struct {
	RecipientID string
	Type        string
	TaskID      *string
	Message     string
	Metadata    map[string]interface{}
}

// Result reports both phases of a Notify call. Persistence failures are
// returned as errors instead; a Result always carries a stored notification.
type Result struct {
	Notification *repository.Notification
	Delivered    bool
	DeliveryErr  error
}

// Writer persists notifications, then mirrors them to the recipient's live
// connection when there is one.
type Writer struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

func NewWriter(repo repository.NotificationRepository, pusher Pusher) *Writer {
	return &Writer{repo: repo, pusher: pusher}
}

func (w *Writer) Notify(ctx context.Context, req Request) (*Result, error) {
	if req.RecipientID == "" {
		return nil, ErrMissingRecipient
	}
	if !types.IsValidNotificationType(req.Type) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, req.Type)
	}

	n := &repository.Notification{
		RecipientID: req.RecipientID,
		Type:        req.Type,
		TaskID:      req.TaskID,
		Message:     req.Message,
		Metadata:    req.Metadata,
	}
	if err := w.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	result := &Result{Notification: n}
	if w.pusher == nil {
		return result, nil
	}

	result.Delivered, result.DeliveryErr = w.pusher.EmitToUser(n.RecipientID, socket.EventNotification, models.NewNotificationResponse(n))
	if result.DeliveryErr != nil {
		log.Warn().Err(result.DeliveryErr).Str("component", "notification").
			Str("recipient_id", n.RecipientID).Str("notification_id", n.ID).
			Msg("Live delivery failed")
	}
	return result, nil
}
