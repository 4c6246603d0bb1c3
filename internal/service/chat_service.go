package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/rs/zerolog/log"
)

type ChatService interface {
	// SendRequest opens a chat request to the user registered under email.
	SendRequest(ctx context.Context, actor Actor, recipientEmail string) (*repository.ChatRequest, error)
	PendingRequests(ctx context.Context, userID string) ([]*repository.ChatRequest, error)
	Respond(ctx context.Context, actor Actor, requestID, status string) (*repository.ChatRequest, error)
	Connections(ctx context.Context, userID string) ([]*repository.ChatConnection, error)

	SendMessage(ctx context.Context, actor Actor, receiverID, content string) (*repository.ChatMessage, error)
	// History returns the conversation with peerID and marks the peer's
	// messages as read.
	History(ctx context.Context, actor Actor, peerID string) ([]*repository.ChatMessage, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Search(ctx context.Context, userID, keyword string) ([]*repository.ChatMessage, error)
	EditMessage(ctx context.Context, actor Actor, messageID, content string) (*repository.ChatMessage, error)
	DeleteMessage(ctx context.Context, actor Actor, messageID string) error
}

type chatService struct {
	chatRepo   repository.ChatRepository
	userRepo   repository.UserRepository
	permission PermissionService
	pusher     notification.Pusher
}

func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	permission PermissionService,
	pusher notification.Pusher,
) ChatService {
	return &chatService{
		chatRepo:   chatRepo,
		userRepo:   userRepo,
		permission: permission,
		pusher:     pusher,
	}
}

// ============================================
// Requests
// ============================================

func (s *chatService) SendRequest(ctx context.Context, actor Actor, recipientEmail string) (*repository.ChatRequest, error) {
	email := strings.ToLower(strings.TrimSpace(recipientEmail))
	if email == "" {
		return nil, validationf("recipient email is required")
	}

	recipient, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrUserNotFound
	}
	if recipient.ID == actor.UserID {
		return nil, validationf("you cannot send a chat request to yourself")
	}

	existing, err := s.chatRepo.FindOpenRequest(ctx, actor.UserID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateChat
	}

	req := &repository.ChatRequest{
		RequesterID:    actor.UserID,
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		Status:         types.ChatRequestPending,
	}
	if err := s.chatRepo.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateChat
		}
		return nil, err
	}

	payload := eventPayload{"request": models.NewChatRequestResponse(req)}
	if requester, err := s.userRepo.FindByID(ctx, actor.UserID); err == nil && requester != nil {
		payload["requester"] = models.UserSummaryResponse{ID: requester.ID, Name: requester.DisplayName(), Email: requester.Email}
	}
	s.push(recipient.ID, socket.EventChatRequest, payload)

	return req, nil
}

func (s *chatService) PendingRequests(ctx context.Context, userID string) ([]*repository.ChatRequest, error) {
	return s.chatRepo.FindPendingForRecipient(ctx, userID)
}

func (s *chatService) Respond(ctx context.Context, actor Actor, requestID, status string) (*repository.ChatRequest, error) {
	if err := validateID(requestID, "request id"); err != nil {
		return nil, err
	}
	if status != types.ChatRequestAccepted && status != types.ChatRequestRejected {
		return nil, validationf("status must be accepted or rejected")
	}

	req, err := s.chatRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load chat request: %w", err)
	}
	if req == nil {
		return nil, ErrRequestMissing
	}
	if err := s.permission.Check(ctx, actor, ActionChatRespond, Resource{Request: req}); err != nil {
		return nil, err
	}

	switch {
	case req.Status == status:
		// Repeating a decision is a no-op, but an accept still makes sure the
		// connection exists.
	case req.Status == types.ChatRequestAccepted:
		return nil, newError(ErrInvalidState, "chat request was already accepted")
	case req.Status == types.ChatRequestRejected:
		return nil, newError(ErrInvalidState, "chat request was already rejected")
	default:
		if err := s.chatRepo.UpdateRequestStatus(ctx, req.ID, status); err != nil {
			return nil, err
		}
		req.Status = status
	}

	if status == types.ChatRequestAccepted {
		if _, err := s.ensureConnection(ctx, req.RequesterID, req.RecipientID); err != nil {
			return nil, err
		}
	}

	s.push(req.OtherParty(actor.UserID), socket.EventChatRequestResponse, eventPayload{
		"request": models.NewChatRequestResponse(req),
		"status":  req.Status,
	})
	return req, nil
}

// ensureConnection finds or creates the pair's connection. A concurrent insert
// of the same pair resolves to the stored row.
func (s *chatService) ensureConnection(ctx context.Context, userA, userB string) (*repository.ChatConnection, error) {
	conn, err := s.chatRepo.FindConnection(ctx, userA, userB)
	if err != nil || conn != nil {
		return conn, err
	}

	users, err := s.userRepo.FindByIDs(ctx, []string{userA, userB})
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	first, second := repository.OrderPair(userA, userB)
	conn = &repository.ChatConnection{
		User1ID:    first,
		User2ID:    second,
		User1Email: emails[first],
		User2Email: emails[second],
	}
	if err := s.chatRepo.CreateConnection(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.chatRepo.FindConnection(ctx, userA, userB)
		}
		return nil, err
	}
	return conn, nil
}

func (s *chatService) Connections(ctx context.Context, userID string) ([]*repository.ChatConnection, error) {
	return s.chatRepo.FindConnectionsForUser(ctx, userID)
}

// ============================================
// Messages
// ============================================

func (s *chatService) SendMessage(ctx context.Context, actor Actor, receiverID, content string) (*repository.ChatMessage, error) {
	if err := validateID(receiverID, "receiver id"); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("message content is required")
	}
	if err := s.permission.Check(ctx, actor, ActionChatMessage, Resource{PeerID: receiverID}); err != nil {
		return nil, err
	}

	msg := &repository.ChatMessage{
		SenderID:    actor.UserID,
		RecipientID: receiverID,
		Content:     content,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.push(receiverID, socket.EventPrivateMessage, models.NewChatMessageResponse(msg))
	return msg, nil
}

func (s *chatService) History(ctx context.Context, actor Actor, peerID string) ([]*repository.ChatMessage, error) {
	if err := validateID(peerID, "user id"); err != nil {
		return nil, err
	}
	if err := s.permission.Check(ctx, actor, ActionChatMessage, Resource{PeerID: peerID}); err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.FindConversation(ctx, actor.UserID, peerID)
	if err != nil {
		return nil, err
	}
	marked, err := s.chatRepo.MarkConversationRead(ctx, peerID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.push(peerID, socket.EventMessageSeen, eventPayload{"senderId": peerID, "seenBy": actor.UserID})
	}
	return messages, nil
}

func (s *chatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.chatRepo.CountUnread(ctx, userID)
}

func (s *chatService) Search(ctx context.Context, userID, keyword string) ([]*repository.ChatMessage, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, validationf("search keyword is required")
	}
	return s.chatRepo.SearchReceived(ctx, userID, keyword)
}

func (s *chatService) EditMessage(ctx context.Context, actor Actor, messageID, content string) (*repository.ChatMessage, error) {
	msg, err := s.messageFor(ctx, actor, ActionChatEdit, messageID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("message content is required")
	}

	msg.Content = content
	msg.Edited = true
	if err := s.chatRepo.UpdateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, actor Actor, messageID string) error {
	msg, err := s.messageFor(ctx, actor, ActionChatDelete, messageID)
	if err != nil {
		return err
	}
	msg.Deleted = true
	return s.chatRepo.UpdateMessage(ctx, msg)
}

func (s *chatService) messageFor(ctx context.Context, actor Actor, action Action, messageID string) (*repository.ChatMessage, error) {
	if err := validateID(messageID, "message id"); err != nil {
		return nil, err
	}
	msg, err := s.chatRepo.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg == nil || msg.Deleted {
		return nil, ErrMessageMissing
	}
	if err := s.permission.Check(ctx, actor, action, Resource{Message: msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

type eventPayload map[string]interface{}

// push is best effort; the stored row is the source of truth.
func (s *chatService) push(userID string, event socket.EventType, payload interface{}) {
	if s.pusher == nil {
		return
	}
	if _, err := s.pusher.EmitToUser(userID, event, payload); err != nil {
		log.Warn().Err(err).Str("component", "chat").Str("user_id", userID).Str("event", string(event)).
			Msg("Live delivery failed")
	}
}
