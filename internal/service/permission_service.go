package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
)

// Action names a permission-checked operation.
type Action string

const (
	ActionWorkspaceCreate     Action = "workspace.create"
	ActionWorkspaceUpdate     Action = "workspace.update"
	ActionWorkspaceDelete     Action = "workspace.delete"
	ActionWorkspaceAddMembers Action = "workspace.add_members"
	ActionWorkspaceRead       Action = "workspace.read"
	ActionWorkspaceLeave      Action = "workspace.leave"

	ActionTaskRead   Action = "task.read"
	ActionTaskUpdate Action = "task.update"
	ActionTaskDelete Action = "task.delete"

	ActionChatMessage Action = "chat.message"
	ActionChatEdit    Action = "chat.edit"
	ActionChatDelete  Action = "chat.delete"
	ActionChatRespond Action = "chat.respond"

	ActionUserList           Action = "user.list"
	ActionNotificationMutate Action = "notification.mutate"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == types.RoleAdmin
}

// Resource carries whatever the action is checked against. Only the field the
// action needs is read.
type Resource struct {
	Workspace    *repository.Workspace
	Task         *repository.Task
	Message      *repository.ChatMessage
	Request      *repository.ChatRequest
	Notification *repository.Notification
	PeerID       string
}

type RejectionKind string

const (
	RejectNotFound     RejectionKind = "not_found"
	RejectForbidden    RejectionKind = "forbidden"
	RejectInvalidState RejectionKind = "invalid_state"
)

// Rejection is the error Check returns when an action is not allowed.
type Rejection struct {
	Kind   RejectionKind
	Action Action
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	switch r.Kind {
	case RejectNotFound:
		return ErrNotFound
	case RejectInvalidState:
		return ErrInvalidState
	default:
		return ErrForbidden
	}
}

func reject(kind RejectionKind, action Action, reason string) *Rejection {
	return &Rejection{Kind: kind, Action: action, Reason: reason}
}

// PermissionService decides whether an actor may perform an action.
type PermissionService interface {
	// Check returns nil when allowed, a *Rejection when denied, or a plain
	// error when the decision itself failed.
	Check(ctx context.Context, actor Actor, action Action, res Resource) error
	// CanMessage reports whether two users may exchange private messages.
	CanMessage(ctx context.Context, userID, peerID string) error
}

type permissionService struct {
	workspaceRepo repository.WorkspaceRepository
	chatRepo      repository.ChatRepository
}

func NewPermissionService(workspaceRepo repository.WorkspaceRepository, chatRepo repository.ChatRepository) PermissionService {
	return &permissionService{workspaceRepo: workspaceRepo, chatRepo: chatRepo}
}

func (s *permissionService) Check(ctx context.Context, actor Actor, action Action, res Resource) error {
	switch action {
	case ActionWorkspaceCreate, ActionWorkspaceUpdate, ActionWorkspaceDelete, ActionWorkspaceAddMembers:
		if !actor.IsAdmin() {
			return reject(RejectForbidden, action, "only admins can manage workspaces")
		}
		return nil

	case ActionWorkspaceRead:
		return s.checkWorkspaceRead(actor, action, res.Workspace)

	case ActionWorkspaceLeave:
		ws := res.Workspace
		if ws == nil {
			return reject(RejectNotFound, action, "workspace not found")
		}
		if ws.IsCreator(actor.UserID) {
			return reject(RejectInvalidState, action, "workspace creator cannot leave the workspace")
		}
		if !ws.HasMember(actor.UserID) {
			return reject(RejectForbidden, action, "you are not a member of this workspace")
		}
		return nil

	case ActionTaskRead, ActionTaskUpdate, ActionTaskDelete:
		return s.checkTask(ctx, actor, action, res.Task)

	case ActionChatMessage:
		return s.checkChat(ctx, actor.UserID, res.PeerID)

	case ActionChatEdit, ActionChatDelete:
		if res.Message == nil {
			return reject(RejectNotFound, action, "message not found")
		}
		if res.Message.SenderID != actor.UserID {
			return reject(RejectForbidden, action, "only the sender can change this message")
		}
		return nil

	case ActionChatRespond:
		if res.Request == nil {
			return reject(RejectNotFound, action, "chat request not found")
		}
		if res.Request.RecipientID != actor.UserID {
			return reject(RejectForbidden, action, "only the recipient can respond to this chat request")
		}
		return nil

	case ActionUserList:
		if !actor.IsAdmin() {
			return reject(RejectForbidden, action, "access denied")
		}
		return nil

	case ActionNotificationMutate:
		if res.Notification == nil {
			return reject(RejectNotFound, action, "notification not found")
		}
		if res.Notification.RecipientID != actor.UserID {
			return reject(RejectForbidden, action, "access denied")
		}
		return nil
	}

	return fmt.Errorf("unknown action %q", action)
}

func (s *permissionService) CanMessage(ctx context.Context, userID, peerID string) error {
	return s.checkChat(ctx, userID, peerID)
}

func (s *permissionService) checkWorkspaceRead(actor Actor, action Action, ws *repository.Workspace) error {
	if ws == nil {
		return reject(RejectNotFound, action, "workspace not found")
	}
	if actor.IsAdmin() || ws.IsCreator(actor.UserID) || ws.HasMember(actor.UserID) {
		return nil
	}
	return reject(RejectForbidden, action, "you do not have access to this workspace")
}

// checkTask applies workspace.read to the task's workspace. Tasks outside any
// workspace are open to every authenticated user.
func (s *permissionService) checkTask(ctx context.Context, actor Actor, action Action, task *repository.Task) error {
	if task == nil {
		return reject(RejectNotFound, action, "task not found")
	}
	if task.WorkspaceID == nil || *task.WorkspaceID == "" {
		return nil
	}

	ws, err := s.workspaceRepo.FindByID(ctx, *task.WorkspaceID)
	if err != nil {
		return fmt.Errorf("load task workspace: %w", err)
	}
	if ws == nil {
		return reject(RejectNotFound, action, "workspace not found")
	}
	if err := s.checkWorkspaceRead(actor, action, ws); err != nil {
		var rej *Rejection
		if errors.As(err, &rej) && rej.Kind == RejectForbidden {
			rej.Reason = "you do not have access to this task"
		}
		return err
	}
	return nil
}

// checkChat allows messaging when the pair has an accepted request in either
// direction or a stored connection.
func (s *permissionService) checkChat(ctx context.Context, userID, peerID string) error {
	if peerID == "" || peerID == userID {
		return reject(RejectForbidden, ActionChatMessage, "chat not allowed")
	}

	conn, err := s.chatRepo.FindConnection(ctx, userID, peerID)
	if err != nil {
		return fmt.Errorf("load chat connection: %w", err)
	}
	if conn != nil {
		return nil
	}

	req, err := s.chatRepo.FindAcceptedBetween(ctx, userID, peerID)
	if err != nil {
		return fmt.Errorf("load chat request: %w", err)
	}
	if req != nil {
		return nil
	}
	return reject(RejectForbidden, ActionChatMessage, "chat not allowed")
}
