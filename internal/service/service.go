package service

import (
	"errors"
	"fmt"

	"github.com/Marga-Ghale/teamhub-backend/internal/config"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/google/uuid"
)

// Error kinds. Handlers map these to status codes with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("resource already exists")
	ErrInvalidState    = errors.New("invalid state")
)

var (
	ErrUserNotFound   = newError(ErrNotFound, "user not found")
	ErrRoleMismatch   = newError(ErrForbidden, "role does not match this account")
	ErrBadPassword    = newError(ErrUnauthenticated, "invalid password")
	ErrUserExists     = newError(ErrConflict, "user already exists, please use another email")
	ErrTokenMissing   = newError(ErrUnauthenticated, "no token provided")
	ErrTokenInvalid   = newError(ErrUnauthenticated, "invalid token")
	ErrTokenExpired   = newError(ErrUnauthenticated, "token expired")
	ErrTaskNotFound   = newError(ErrNotFound, "task not found")
	ErrWorkspaceGone  = newError(ErrNotFound, "workspace not found")
	ErrMessageMissing = newError(ErrNotFound, "message not found")
	ErrRequestMissing = newError(ErrNotFound, "chat request not found")
	ErrNotifMissing   = newError(ErrNotFound, "notification not found")
	ErrDuplicateChat  = newError(ErrConflict, "a chat request to this user is already pending or accepted")
)

// Error is a domain error whose Kind is one of the sentinel kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// validateID rejects ids that are not UUIDs before they reach the store.
func validateID(id, field string) error {
	if _, err := uuid.Parse(id); err != nil {
		return validationf("invalid %s", field)
	}
	return nil
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Workspace    WorkspaceService
	Task         TaskService
	Chat         ChatService
	Notification NotificationService
	Permission   PermissionService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Notifier *notification.Service
	Pusher   notification.Pusher
}

func NewServices(deps *ServiceDeps) *Services {
	permission := NewPermissionService(deps.Repos.WorkspaceRepo, deps.Repos.ChatRepo)

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo, deps.Repos.SessionRepo),
		User:       NewUserService(deps.Repos.UserRepo, permission),
		Permission: permission,
		Workspace: NewWorkspaceService(
			deps.Repos.WorkspaceRepo,
			deps.Repos.UserRepo,
			permission,
			deps.Notifier,
		),
		Task: NewTaskService(
			deps.Repos.TaskRepo,
			deps.Repos.WorkspaceRepo,
			permission,
			deps.Notifier,
		),
		Chat: NewChatService(
			deps.Repos.ChatRepo,
			deps.Repos.UserRepo,
			permission,
			deps.Pusher,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo, permission),
	}
}
