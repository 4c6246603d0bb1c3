package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

// ============================================
// Workspace Service
// ============================================

type WorkspaceService interface {
	Create(ctx context.Context, actor Actor, name string, members []string) (*repository.Workspace, error)
	Get(ctx context.Context, actor Actor, id string) (*repository.Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]*repository.Workspace, error)
	Update(ctx context.Context, actor Actor, id, name string) (*repository.Workspace, error)
	// AddMembers merges members into the workspace and notifies the ones who
	// were not already in it.
	AddMembers(ctx context.Context, actor Actor, id string, members []string) (*repository.Workspace, error)
	Leave(ctx context.Context, actor Actor, id string) error
	Delete(ctx context.Context, actor Actor, id string) error
}

type workspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	permission    PermissionService
	notifier      *notification.Service
}

func NewWorkspaceService(
	workspaceRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	permission PermissionService,
	notifier *notification.Service,
) WorkspaceService {
	return &workspaceService{
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		permission:    permission,
		notifier:      notifier,
	}
}

func (s *workspaceService) Create(ctx context.Context, actor Actor, name string, members []string) (*repository.Workspace, error) {
	if err := s.permission.Check(ctx, actor, ActionWorkspaceCreate, Resource{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("workspace name is required")
	}
	if err := s.ensureUsersExist(ctx, members); err != nil {
		return nil, err
	}

	workspace := &repository.Workspace{
		Name:      name,
		CreatedBy: actor.UserID,
		Members:   uniqueIDs(append([]string{actor.UserID}, members...)),
	}
	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, err
	}

	log.Info().Str("component", "workspace").Str("workspace_id", workspace.ID).Str("user_id", actor.UserID).
		Msg("Workspace created")
	return workspace, nil
}

func (s *workspaceService) Get(ctx context.Context, actor Actor, id string) (*repository.Workspace, error) {
	workspace, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.permission.Check(ctx, actor, ActionWorkspaceRead, Resource{Workspace: workspace}); err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *workspaceService) ListForUser(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	return s.workspaceRepo.FindByUserID(ctx, userID)
}

func (s *workspaceService) Update(ctx context.Context, actor Actor, id, name string) (*repository.Workspace, error) {
	if err := s.permission.Check(ctx, actor, ActionWorkspaceUpdate, Resource{}); err != nil {
		return nil, err
	}
	workspace, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("workspace name is required")
	}

	workspace.Name = name
	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *workspaceService) AddMembers(ctx context.Context, actor Actor, id string, members []string) (*repository.Workspace, error) {
	if err := s.permission.Check(ctx, actor, ActionWorkspaceAddMembers, Resource{}); err != nil {
		return nil, err
	}
	members = uniqueIDs(members)
	if len(members) == 0 {
		return nil, validationf("members must list at least one user id")
	}
	workspace, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUsersExist(ctx, members); err != nil {
		return nil, err
	}

	var added []string
	for _, memberID := range members {
		if !workspace.HasMember(memberID) && !workspace.IsCreator(memberID) {
			added = append(added, memberID)
		}
	}

	updated, err := s.workspaceRepo.AddMembers(ctx, workspace.ID, members)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrWorkspaceGone
	}

	if len(added) > 0 && s.notifier != nil {
		admin, err := s.userRepo.FindByID(ctx, actor.UserID)
		if err != nil {
			log.Warn().Err(err).Str("component", "workspace").Str("user_id", actor.UserID).
				Msg("Failed to load acting admin for member notifications")
			admin = nil
		}
		if admin == nil {
			admin = &repository.User{ID: actor.UserID}
		}
		if _, err := s.notifier.MembersAdded(ctx, updated, admin, added); err != nil {
			log.Error().Err(err).Str("component", "workspace").Str("workspace_id", updated.ID).
				Msg("Failed to record member notifications")
		}
	}
	return updated, nil
}

func (s *workspaceService) Leave(ctx context.Context, actor Actor, id string) error {
	workspace, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.permission.Check(ctx, actor, ActionWorkspaceLeave, Resource{Workspace: workspace}); err != nil {
		return err
	}
	updated, err := s.workspaceRepo.RemoveMember(ctx, workspace.ID, actor.UserID)
	if err != nil {
		return err
	}
	if updated == nil {
		return ErrWorkspaceGone
	}
	return nil
}

func (s *workspaceService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.permission.Check(ctx, actor, ActionWorkspaceDelete, Resource{}); err != nil {
		return err
	}
	if err := validateID(id, "workspace id"); err != nil {
		return err
	}
	deleted, err := s.workspaceRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkspaceGone
	}
	return nil
}

func (s *workspaceService) load(ctx context.Context, id string) (*repository.Workspace, error) {
	if err := validateID(id, "workspace id"); err != nil {
		return nil, err
	}
	workspace, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if workspace == nil {
		return nil, ErrWorkspaceGone
	}
	return workspace, nil
}

func (s *workspaceService) ensureUsersExist(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if err := validateID(id, "member id"); err != nil {
			return err
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(users) != len(ids) {
		return validationf("one or more members do not exist")
	}
	return nil
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
