// internal/seed/seed.go
package seed

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

type seedUser struct {
	firstName string
	lastName  string
	email     string
	role      string
}

var users = []seedUser{
	{"Marga", "Ghale", "admin@teamhub.dev", types.RoleAdmin},
	{"Bipin", "Dhimal", "bipin@teamhub.dev", types.RoleMember},
	{"Kritim", "Kafle", "kritim@teamhub.dev", types.RoleMember},
}

// SeedData creates development accounts, a workspace and a few tasks. It does
// nothing when the admin account already exists.
func SeedData(ctx context.Context, repos *repository.Repositories) error {
	existing, err := repos.UserRepo.FindByEmail(ctx, users[0].email)
	if err != nil {
		return fmt.Errorf("check seed admin: %w", err)
	}
	if existing != nil {
		log.Info().Str("component", "seed").Msg("Data already exists, skipping")
		return nil
	}

	log.Info().Str("component", "seed").Msg("Creating initial data")

	password, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	created := make([]*repository.User, 0, len(users))
	for _, u := range users {
		user := &repository.User{
			FirstName: u.firstName,
			LastName:  u.lastName,
			Email:     u.email,
			Password:  string(password),
			Role:      u.role,
		}
		if err := repos.UserRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", u.email, err)
		}
		created = append(created, user)
	}
	admin, bipin, kritim := created[0], created[1], created[2]

	workspace := &repository.Workspace{
		Name:      "TeamHub Core",
		CreatedBy: admin.ID,
		Members:   []string{admin.ID, bipin.ID, kritim.ID},
	}
	if err := repos.WorkspaceRepo.Create(ctx, workspace); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	tasks := []*repository.Task{
		{
			Title:       "Set up CI pipeline",
			Description: stringPtr("Run tests and lint on every push"),
			Priority:    types.PriorityHigh,
			Status:      types.StatusInProgress,
			AssigneeID:  &bipin.ID,
			WorkspaceID: &workspace.ID,
			CreatedBy:   &admin.ID,
		},
		{
			Title:       "Write onboarding guide",
			Priority:    types.PriorityMedium,
			Status:      types.StatusPending,
			AssigneeID:  &kritim.ID,
			WorkspaceID: &workspace.ID,
			CreatedBy:   &admin.ID,
		},
		{
			Title:     "Review open chat requests",
			Priority:  types.PriorityLow,
			Status:    types.StatusPending,
			CreatedBy: &admin.ID,
		},
	}
	for _, task := range tasks {
		if err := repos.TaskRepo.Create(ctx, task); err != nil {
			return fmt.Errorf("create task %q: %w", task.Title, err)
		}
	}

	log.Info().Str("component", "seed").Int("users", len(created)).Int("tasks", len(tasks)).
		Msg("Seed data created")
	return nil
}

func stringPtr(s string) *string {
	return &s
}
