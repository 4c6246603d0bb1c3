package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/rs/zerolog/log"
)

type TaskService interface {
	Create(ctx context.Context, actor Actor, req *models.CreateTaskRequest) (*repository.Task, error)
	Get(ctx context.Context, actor Actor, taskID string) (*repository.Task, error)
	// List returns every task the actor can see. Admins see all tasks.
	List(ctx context.Context, actor Actor) ([]*repository.Task, error)
	ListByWorkspace(ctx context.Context, actor Actor, workspaceID string) ([]*repository.Task, error)
	Update(ctx context.Context, actor Actor, taskID string, req *models.UpdateTaskRequest) (*repository.Task, error)
	Delete(ctx context.Context, actor Actor, taskID string) error
}

type taskService struct {
	taskRepo      repository.TaskRepository
	workspaceRepo repository.WorkspaceRepository
	permission    PermissionService
	notifier      *notification.Service
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	workspaceRepo repository.WorkspaceRepository,
	permission PermissionService,
	notifier *notification.Service,
) TaskService {
	return &taskService{
		taskRepo:      taskRepo,
		workspaceRepo: workspaceRepo,
		permission:    permission,
		notifier:      notifier,
	}
}

func (s *taskService) Create(ctx context.Context, actor Actor, req *models.CreateTaskRequest) (*repository.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationf("title is required")
	}

	task := &repository.Task{
		Title:       title,
		Description: req.Description,
		Priority:    types.PriorityMedium,
		Status:      types.StatusPending,
		DueDate:     req.DueDate,
		CreatedBy:   &actor.UserID,
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if err := validateTaskFields(task.Priority, task.Status); err != nil {
		return nil, err
	}
	if err := applyAssignee(task, req.Assignee, req.AssigneeName, req.AssigneeEmail); err != nil {
		return nil, err
	}

	var workspace *repository.Workspace
	if v := trimmed(req.Workspace); v != "" {
		ws, err := s.accessibleWorkspace(ctx, actor, v)
		if err != nil {
			return nil, err
		}
		workspace = ws
		task.WorkspaceID = &ws.ID
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if _, err := s.notifier.TaskCreated(ctx, task, workspace, actor.UserID); err != nil {
			log.Error().Err(err).Str("component", "task").Str("task_id", task.ID).
				Msg("Failed to record task creation notifications")
		}
	}

	return s.reload(ctx, task)
}

func (s *taskService) Get(ctx context.Context, actor Actor, taskID string) (*repository.Task, error) {
	return s.loadFor(ctx, actor, ActionTaskRead, taskID)
}

func (s *taskService) List(ctx context.Context, actor Actor) ([]*repository.Task, error) {
	return s.taskRepo.FindVisible(ctx, actor.UserID, actor.IsAdmin())
}

func (s *taskService) ListByWorkspace(ctx context.Context, actor Actor, workspaceID string) ([]*repository.Task, error) {
	if _, err := s.accessibleWorkspace(ctx, actor, workspaceID); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByWorkspace(ctx, workspaceID)
}

func (s *taskService) Update(ctx context.Context, actor Actor, taskID string, req *models.UpdateTaskRequest) (*repository.Task, error) {
	task, err := s.loadFor(ctx, actor, ActionTaskUpdate, taskID)
	if err != nil {
		return nil, err
	}
	before := *task

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationf("title cannot be empty")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if err := validateTaskFields(task.Priority, task.Status); err != nil {
		return nil, err
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Assignee != nil || req.AssigneeName != nil || req.AssigneeEmail != nil {
		assignee, name, email := req.Assignee, req.AssigneeName, req.AssigneeEmail
		if assignee == nil {
			assignee = task.AssigneeID
		}
		if name == nil {
			name = task.AssigneeName
		}
		if email == nil {
			email = task.AssigneeEmail
		}
		if err := applyAssignee(task, assignee, name, email); err != nil {
			return nil, err
		}
	}
	if req.Workspace != nil {
		if v := strings.TrimSpace(*req.Workspace); v == "" {
			task.WorkspaceID = nil
		} else if task.WorkspaceID == nil || *task.WorkspaceID != v {
			ws, err := s.accessibleWorkspace(ctx, actor, v)
			if err != nil {
				return nil, err
			}
			task.WorkspaceID = &ws.ID
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if _, err := s.notifier.TaskUpdated(ctx, &before, task, actor.UserID); err != nil {
			log.Error().Err(err).Str("component", "task").Str("task_id", task.ID).
				Msg("Failed to record task update notification")
		}
	}

	return s.reload(ctx, task)
}

func (s *taskService) Delete(ctx context.Context, actor Actor, taskID string) error {
	task, err := s.loadFor(ctx, actor, ActionTaskDelete, taskID)
	if err != nil {
		return err
	}
	deleted, err := s.taskRepo.Delete(ctx, task.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

func (s *taskService) loadFor(ctx context.Context, actor Actor, action Action, taskID string) (*repository.Task, error) {
	if err := validateID(taskID, "task id"); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if err := s.permission.Check(ctx, actor, action, Resource{Task: task}); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) accessibleWorkspace(ctx context.Context, actor Actor, workspaceID string) (*repository.Workspace, error) {
	if err := validateID(workspaceID, "workspace id"); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if ws == nil {
		return nil, ErrWorkspaceGone
	}
	if err := s.permission.Check(ctx, actor, ActionWorkspaceRead, Resource{Workspace: ws}); err != nil {
		return nil, err
	}
	return ws, nil
}

// reload returns the stored row so the populated assignee is included.
func (s *taskService) reload(ctx context.Context, task *repository.Task) (*repository.Task, error) {
	fresh, err := s.taskRepo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return task, nil
	}
	return fresh, nil
}

func validateTaskFields(priority, status string) error {
	if !types.IsValidTaskPriority(priority) {
		return validationf("invalid priority %q", priority)
	}
	if !types.IsValidTaskStatus(status) {
		return validationf("invalid status %q", status)
	}
	return nil
}

// applyAssignee sets the assignee fields. Empty values clear them.
func applyAssignee(task *repository.Task, assignee, name, email *string) error {
	task.AssigneeID = nil
	if v := trimmed(assignee); v != "" {
		if err := validateID(v, "assignee id"); err != nil {
			return err
		}
		task.AssigneeID = &v
	}

	task.AssigneeName = nil
	if v := trimmed(name); v != "" {
		task.AssigneeName = &v
	}

	task.AssigneeEmail = nil
	if v := strings.ToLower(trimmed(email)); v != "" {
		task.AssigneeEmail = &v
	}
	return nil
}
