package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository interface {
	// Requests
	CreateRequest(ctx context.Context, req *ChatRequest) error
	FindRequestByID(ctx context.Context, id string) (*ChatRequest, error)
	FindOpenRequest(ctx context.Context, requesterID, recipientID string) (*ChatRequest, error)
	FindAcceptedBetween(ctx context.Context, userA, userB string) (*ChatRequest, error)
	FindPendingForRecipient(ctx context.Context, recipientID string) ([]*ChatRequest, error)
	UpdateRequestStatus(ctx context.Context, id, status string) error

	// Connections
	CreateConnection(ctx context.Context, conn *ChatConnection) error
	FindConnection(ctx context.Context, userA, userB string) (*ChatConnection, error)
	FindConnectionsForUser(ctx context.Context, userID string) ([]*ChatConnection, error)

	// Messages
	CreateMessage(ctx context.Context, msg *ChatMessage) error
	FindMessageByID(ctx context.Context, id string) (*ChatMessage, error)
	FindConversation(ctx context.Context, userA, userB string) ([]*ChatMessage, error)
	MarkConversationRead(ctx context.Context, senderID, recipientID string) (int, error)
	UpdateMessage(ctx context.Context, msg *ChatMessage) error
	CountUnread(ctx context.Context, recipientID string) (int, error)
	SearchReceived(ctx context.Context, recipientID, keyword string) ([]*ChatMessage, error)
}

type pgChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &pgChatRepository{pool: pool}
}

// ============================================
// Requests
// ============================================

const chatRequestColumns = `id, requester_id, recipient_id, recipient_email, status, created_at, updated_at`

func scanChatRequest(row pgx.Row) (*ChatRequest, error) {
	req := &ChatRequest{}
	err := row.Scan(&req.ID, &req.RequesterID, &req.RecipientID, &req.RecipientEmail,
		&req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CreateRequest returns ErrDuplicate when an open request already exists in
// the same direction.
func (r *pgChatRepository) CreateRequest(ctx context.Context, req *ChatRequest) error {
	query := `
		INSERT INTO chat_requests (requester_id, recipient_id, recipient_email, status)
		VALUES ($1, $2, LOWER($3), $4)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		req.RequesterID, req.RecipientID, req.RecipientEmail, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return mapPgError(err)
}

func (r *pgChatRepository) findOneRequest(ctx context.Context, query string, args ...interface{}) (*ChatRequest, error) {
	req, err := scanChatRequest(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *pgChatRepository) FindRequestByID(ctx context.Context, id string) (*ChatRequest, error) {
	return r.findOneRequest(ctx, `SELECT `+chatRequestColumns+` FROM chat_requests WHERE id = $1`, id)
}

func (r *pgChatRepository) FindOpenRequest(ctx context.Context, requesterID, recipientID string) (*ChatRequest, error) {
	query := `
		SELECT ` + chatRequestColumns + ` FROM chat_requests
		WHERE requester_id = $1 AND recipient_id = $2 AND status IN ('pending', 'accepted')
		LIMIT 1
	`
	return r.findOneRequest(ctx, query, requesterID, recipientID)
}

// FindAcceptedBetween matches either direction.
func (r *pgChatRepository) FindAcceptedBetween(ctx context.Context, userA, userB string) (*ChatRequest, error) {
	query := `
		SELECT ` + chatRequestColumns + ` FROM chat_requests
		WHERE status = 'accepted'
		  AND ((requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1))
		LIMIT 1
	`
	return r.findOneRequest(ctx, query, userA, userB)
}

func (r *pgChatRepository) FindPendingForRecipient(ctx context.Context, recipientID string) ([]*ChatRequest, error) {
	query := `
		SELECT ` + chatRequestColumns + ` FROM chat_requests
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*ChatRequest
	for rows.Next() {
		req, err := scanChatRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *pgChatRepository) UpdateRequestStatus(ctx context.Context, id, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return mapPgError(err)
}

// ============================================
// Connections
// ============================================

const chatConnectionColumns = `id, user1_id, user2_id, user1_email, user2_email, created_at`

func scanChatConnection(row pgx.Row) (*ChatConnection, error) {
	c := &ChatConnection{}
	if err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.User1Email, &c.User2Email, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateConnection stores the pair in canonical order. A concurrent insert of
// the same pair yields ErrDuplicate.
func (r *pgChatRepository) CreateConnection(ctx context.Context, conn *ChatConnection) error {
	if conn.User1ID > conn.User2ID {
		conn.User1ID, conn.User2ID = conn.User2ID, conn.User1ID
		conn.User1Email, conn.User2Email = conn.User2Email, conn.User1Email
	}
	query := `
		INSERT INTO chat_connections (user1_id, user2_id, user1_email, user2_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		conn.User1ID, conn.User2ID, conn.User1Email, conn.User2Email,
	).Scan(&conn.ID, &conn.CreatedAt)
	return mapPgError(err)
}

func (r *pgChatRepository) FindConnection(ctx context.Context, userA, userB string) (*ChatConnection, error) {
	u1, u2 := OrderPair(userA, userB)
	query := `SELECT ` + chatConnectionColumns + ` FROM chat_connections WHERE user1_id = $1 AND user2_id = $2`
	c, err := scanChatConnection(r.pool.QueryRow(ctx, query, u1, u2))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *pgChatRepository) FindConnectionsForUser(ctx context.Context, userID string) ([]*ChatConnection, error) {
	query := `
		SELECT ` + chatConnectionColumns + ` FROM chat_connections
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*ChatConnection
	for rows.Next() {
		c, err := scanChatConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// ============================================
// Messages
// ============================================

const chatMessageColumns = `id, sender_id, recipient_id, content, deleted, edited, read, created_at, updated_at`

func scanChatMessage(row pgx.Row) (*ChatMessage, error) {
	m := &ChatMessage{}
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content,
		&m.Deleted, &m.Edited, &m.Read, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgChatRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*ChatMessage, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *pgChatRepository) CreateMessage(ctx context.Context, msg *ChatMessage) error {
	query := `
		INSERT INTO chat_messages (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, msg.SenderID, msg.RecipientID, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
}

func (r *pgChatRepository) FindMessageByID(ctx context.Context, id string) (*ChatMessage, error) {
	m, err := scanChatMessage(r.pool.QueryRow(ctx,
		`SELECT `+chatMessageColumns+` FROM chat_messages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// FindConversation returns non-deleted messages between the two users, oldest first.
func (r *pgChatRepository) FindConversation(ctx context.Context, userA, userB string) ([]*ChatMessage, error) {
	query := `
		SELECT ` + chatMessageColumns + ` FROM chat_messages
		WHERE deleted = FALSE
		  AND ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
		ORDER BY created_at ASC
	`
	return r.queryMessages(ctx, query, userA, userB)
}

func (r *pgChatRepository) MarkConversationRead(ctx context.Context, senderID, recipientID string) (int, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE chat_messages SET read = TRUE
		WHERE sender_id = $1 AND recipient_id = $2 AND read = FALSE
	`, senderID, recipientID)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *pgChatRepository) UpdateMessage(ctx context.Context, msg *ChatMessage) error {
	query := `
		UPDATE chat_messages SET content = $2, deleted = $3, edited = $4, read = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, msg.ID, msg.Content, msg.Deleted, msg.Edited, msg.Read).
		Scan(&msg.UpdatedAt)
}

func (r *pgChatRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_messages
		WHERE recipient_id = $1 AND read = FALSE AND deleted = FALSE
	`, recipientID).Scan(&count)
	return count, err
}

// SearchReceived matches keyword case-insensitively against messages the user received.
func (r *pgChatRepository) SearchReceived(ctx context.Context, recipientID, keyword string) ([]*ChatMessage, error) {
	query := `
		SELECT ` + chatMessageColumns + ` FROM chat_messages
		WHERE recipient_id = $1 AND deleted = FALSE AND content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC
	`
	return r.queryMessages(ctx, query, recipientID, keyword)
}
