package repository

import (
	"github.com/Marga-Ghale/teamhub-backend/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo         UserRepository
	SessionRepo      SessionRepository
	WorkspaceRepo    WorkspaceRepository
	TaskRepo         TaskRepository
	ChatRepo         ChatRepository
	NotificationRepo NotificationRepository
}

// NewRepositories wires the Postgres repositories. Refresh-token sessions live in
// Redis when it is configured and in Postgres otherwise.
func NewRepositories(pool *pgxpool.Pool, redisDB *db.RedisDB) *Repositories {
	var sessions SessionRepository
	if redisDB != nil {
		sessions = NewRedisSessionRepository(redisDB)
	} else {
		sessions = NewSessionRepository(pool)
	}

	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		SessionRepo:      sessions,
		WorkspaceRepo:    NewWorkspaceRepository(pool),
		TaskRepo:         NewTaskRepository(pool),
		ChatRepo:         NewChatRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
	}
}
