package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/rs/zerolog/log"
)

// Service derives notifications from domain changes and hands them to the Writer.
type Service struct {
	writer   *Writer
	userRepo repository.UserRepository
}

func NewService(writer *Writer, userRepo repository.UserRepository) *Service {
	return &Service{writer: writer, userRepo: userRepo}
}

func (s *Service) Writer() *Writer {
	return s.writer
}

// ============================================
// Task Notifications
// ============================================

// TaskCreated notifies the assignee of a new task. A task with no individual
// assignee inside a workspace notifies the workspace creator and members.
func (s *Service) TaskCreated(ctx context.Context, task *repository.Task, workspace *repository.Workspace, createdBy string) ([]*Result, error) {
	if hasValue(task.AssigneeID) || hasValue(task.AssigneeEmail) {
		assigneeID, err := s.resolveAssignee(ctx, task)
		if err != nil || assigneeID == "" {
			return nil, err
		}
		res, err := s.taskAssigned(ctx, assigneeID, task, createdBy)
		if err != nil {
			return nil, err
		}
		return []*Result{res}, nil
	}

	if workspace == nil {
		return nil, nil
	}

	recipients := uniqueIDs(append([]string{workspace.CreatedBy}, workspace.Members...))
	var (
		results []*Result
		errs    []error
	)
	for _, recipientID := range recipients {
		res, err := s.writer.Notify(ctx, Request{
			RecipientID: recipientID,
			Type:        types.NotificationTaskCreated,
			TaskID:      &task.ID,
			Message:     fmt.Sprintf("New task \"%s\" was created in workspace \"%s\"", task.Title, workspace.Name),
			Metadata: map[string]interface{}{
				"taskTitle":     task.Title,
				"workspaceId":   workspace.ID,
				"workspaceName": workspace.Name,
				"createdBy":     createdBy,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", recipientID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// TaskUpdated compares before and after and sends at most one notification to
// the current assignee. The first matching rule wins:
//  1. assignee set where there was none: task_assigned
//  2. status moved to completed: task_completed
//  3. status changed between two non-completed values: task_updated
//  4. assignee changed to someone else: task_assigned
func (s *Service) TaskUpdated(ctx context.Context, before, after *repository.Task, updatedBy string) (*Result, error) {
	prevAssignee, err := s.resolveAssignee(ctx, before)
	if err != nil {
		return nil, err
	}
	nextAssignee, err := s.resolveAssignee(ctx, after)
	if err != nil {
		return nil, err
	}
	if nextAssignee == "" {
		return nil, nil
	}

	wasCompleted := before.Status == types.StatusCompleted
	isCompleted := after.Status == types.StatusCompleted

	switch {
	case prevAssignee == "":
		return s.taskAssigned(ctx, nextAssignee, after, updatedBy)

	case !wasCompleted && isCompleted:
		return s.writer.Notify(ctx, Request{
			RecipientID: nextAssignee,
			Type:        types.NotificationTaskCompleted,
			TaskID:      &after.ID,
			Message:     fmt.Sprintf("Task \"%s\" has been marked as completed", after.Title),
			Metadata: map[string]interface{}{
				"taskTitle":   after.Title,
				"newStatus":   types.StatusCompleted,
				"completedBy": updatedBy,
			},
		})

	case before.Status != after.Status && !wasCompleted && !isCompleted:
		return s.writer.Notify(ctx, Request{
			RecipientID: nextAssignee,
			Type:        types.NotificationTaskUpdated,
			TaskID:      &after.ID,
			Message:     fmt.Sprintf("Task \"%s\" has been updated from %s to %s", after.Title, before.Status, after.Status),
			Metadata: map[string]interface{}{
				"taskTitle":      after.Title,
				"previousStatus": before.Status,
				"newStatus":      after.Status,
				"updatedBy":      updatedBy,
			},
		})

	case prevAssignee != nextAssignee:
		return s.taskAssigned(ctx, nextAssignee, after, updatedBy)
	}

	return nil, nil
}

func (s *Service) taskAssigned(ctx context.Context, recipientID string, task *repository.Task, assignedBy string) (*Result, error) {
	return s.writer.Notify(ctx, Request{
		RecipientID: recipientID,
		Type:        types.NotificationTaskAssigned,
		TaskID:      &task.ID,
		Message:     fmt.Sprintf("You have been assigned a new task: \"%s\"", task.Title),
		Metadata: map[string]interface{}{
			"taskTitle":  task.Title,
			"assignedBy": assignedBy,
		},
	})
}

// resolveAssignee returns the assignee id, looking the user up by email when
// only an email is set. An unknown email resolves to "".
func (s *Service) resolveAssignee(ctx context.Context, task *repository.Task) (string, error) {
	if task == nil {
		return "", nil
	}
	if hasValue(task.AssigneeID) {
		return *task.AssigneeID, nil
	}
	if !hasValue(task.AssigneeEmail) {
		return "", nil
	}

	user, err := s.userRepo.FindByEmail(ctx, *task.AssigneeEmail)
	if err != nil {
		return "", fmt.Errorf("resolve assignee email: %w", err)
	}
	if user == nil {
		log.Debug().Str("component", "notification").Str("email", *task.AssigneeEmail).
			Msg("Assignee email does not match a user")
		return "", nil
	}
	return user.ID, nil
}

// ============================================
// Workspace Notifications
// ============================================

// MembersAdded tells each newly added member and sends the acting admin a
// confirmation listing who was added.
func (s *Service) MembersAdded(ctx context.Context, workspace *repository.Workspace, admin *repository.User, added []string) ([]*Result, error) {
	added = uniqueIDs(added)
	if len(added) == 0 {
		return nil, nil
	}

	var (
		results []*Result
		errs    []error
	)
	for _, memberID := range added {
		res, err := s.writer.Notify(ctx, Request{
			RecipientID: memberID,
			Type:        types.NotificationWorkspaceAdded,
			Message:     fmt.Sprintf("You have been added to workspace \"%s\"", workspace.Name),
			Metadata: map[string]interface{}{
				"workspaceName": workspace.Name,
				"workspaceId":   workspace.ID,
				"addedBy":       admin.DisplayName(),
				"addedById":     admin.ID,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", memberID, err))
			continue
		}
		results = append(results, res)
	}

	res, err := s.writer.Notify(ctx, Request{
		RecipientID: admin.ID,
		Type:        types.NotificationWorkspaceAdded,
		Message:     fmt.Sprintf("You added %d member(s) to workspace \"%s\"", len(added), workspace.Name),
		Metadata: map[string]interface{}{
			"workspaceName": workspace.Name,
			"workspaceId":   workspace.ID,
			"addedBy":       admin.DisplayName(),
			"addedById":     admin.ID,
			"addedMembers":  added,
		},
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notify %s: %w", admin.ID, err))
	} else {
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
