package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
)

// ============================================
// Notification Service (for handlers)
// ============================================

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, actor Actor, id string) (*repository.Notification, error)
	MarkAsUnread(ctx context.Context, actor Actor, id string) (*repository.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, actor Actor, id string) error
	// PurgeRead removes read notifications older than the retention window.
	PurgeRead(ctx context.Context, retention time.Duration) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	permission       PermissionService
}

func NewNotificationService(notificationRepo repository.NotificationRepository, permission PermissionService) NotificationService {
	return &notificationService{notificationRepo: notificationRepo, permission: permission}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByRecipient(ctx, userID, unreadOnly)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor Actor, id string) (*repository.Notification, error) {
	return s.setRead(ctx, actor, id, true)
}

func (s *notificationService) MarkAsUnread(ctx context.Context, actor Actor, id string) (*repository.Notification, error) {
	return s.setRead(ctx, actor, id, false)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, actor Actor, id string) error {
	n, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	deleted, err := s.notificationRepo.Delete(ctx, n.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotifMissing
	}
	return nil
}

func (s *notificationService) PurgeRead(ctx context.Context, retention time.Duration) (int, error) {
	return s.notificationRepo.DeleteReadOlderThan(ctx, time.Now().Add(-retention))
}

func (s *notificationService) setRead(ctx context.Context, actor Actor, id string, read bool) (*repository.Notification, error) {
	n, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead == read {
		return n, nil
	}
	if err := s.notificationRepo.SetRead(ctx, n.ID, read); err != nil {
		return nil, err
	}
	n.IsRead = read
	return n, nil
}

func (s *notificationService) load(ctx context.Context, actor Actor, id string) (*repository.Notification, error) {
	if err := validateID(id, "notification id"); err != nil {
		return nil, err
	}
	n, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}
	if n == nil {
		return nil, ErrNotifMissing
	}
	if err := s.permission.Check(ctx, actor, ActionNotificationMutate, Resource{Notification: n}); err != nil {
		return nil, err
	}
	return n, nil
}
