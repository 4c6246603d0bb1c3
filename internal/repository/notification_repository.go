package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationListLimit caps list results.
const NotificationListLimit = 50

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	FindByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	SetRead(ctx context.Context, id string, read bool) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int, error)
}

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

func (r *pgNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	metadata := notification.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO notifications (recipient_id, type, task_id, message, is_read, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientID, notification.Type, notification.TaskID,
		notification.Message, notification.IsRead, metaJSON,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *pgNotificationRepository) FindByID(ctx context.Context, id string) (*Notification, error) {
	query := `
		SELECT id, recipient_id, type, task_id, message, is_read, metadata, created_at
		FROM notifications WHERE id = $1
	`
	n := &Notification{}
	var metaJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.TaskID, &n.Message, &n.IsRead, &metaJSON, &n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
		return nil, err
	}
	return n, nil
}

// FindByRecipient lists newest first with the referenced task populated.
func (r *pgNotificationRepository) FindByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT n.id, n.recipient_id, n.type, n.task_id, n.message, n.is_read, n.metadata, n.created_at,
		       t.id, t.title, t.status, t.priority
		FROM notifications n
		LEFT JOIN tasks t ON t.id = n.task_id
		WHERE n.recipient_id = $1
	`
	if unreadOnly {
		query += ` AND n.is_read = FALSE`
	}
	query += ` ORDER BY n.created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, recipientID, NotificationListLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var (
			metaJSON                        []byte
			tID, tTitle, tStatus, tPriority *string
		)
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.TaskID, &n.Message, &n.IsRead, &metaJSON, &n.CreatedAt,
			&tID, &tTitle, &tStatus, &tPriority,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
			return nil, err
		}
		if tID != nil {
			n.Task = &TaskSummary{ID: *tID, Title: deref(tTitle), Status: deref(tStatus), Priority: deref(tPriority)}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID,
	).Scan(&count)
	return count, err
}

func (r *pgNotificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = $2 WHERE id = $1`, id, read)
	return err
}

func (r *pgNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *pgNotificationRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// DeleteReadOlderThan removes read notifications created before olderThan.
func (r *pgNotificationRepository) DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
