// internal/repository/repository.go
package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when a write hits a unique index.
var ErrDuplicate = errors.New("duplicate key")

const pgUniqueViolation = "23505"

// mapPgError converts unique violations into ErrDuplicate and passes anything else through.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the email when no name was registered.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// UserSummary is the populated view of a referenced user.
type UserSummary struct {
	ID    string
	Name  string
	Email string
}

type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type Workspace struct {
	ID        string
	Name      string
	CreatedBy string
	Members   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Workspace) IsCreator(userID string) bool {
	return w.CreatedBy == userID
}

func (w *Workspace) HasMember(userID string) bool {
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

type Task struct {
	ID            string
	Title         string
	Description   *string
	Priority      string
	Status        string
	AssigneeID    *string
	AssigneeName  *string
	AssigneeEmail *string
	DueDate       *time.Time
	WorkspaceID   *string
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Populated on reads
	Assignee *UserSummary
}

// TaskSummary is the populated view of a task referenced by a notification.
type TaskSummary struct {
	ID       string
	Title    string
	Status   string
	Priority string
}

type ChatRequest struct {
	ID             string
	RequesterID    string
	RecipientID    string
	RecipientEmail string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Involves reports whether userID is one of the two parties.
func (r *ChatRequest) Involves(userID string) bool {
	return r.RequesterID == userID || r.RecipientID == userID
}

// OtherParty returns the party that is not userID.
func (r *ChatRequest) OtherParty(userID string) string {
	if r.RequesterID == userID {
		return r.RecipientID
	}
	return r.RequesterID
}

type ChatConnection struct {
	ID         string
	User1ID    string
	User2ID    string
	User1Email string
	User2Email string
	CreatedAt  time.Time
}

// OrderPair returns the two ids in storage order so a pair has one canonical row.
func OrderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

type ChatMessage struct {
	ID          string
	SenderID    string
	RecipientID string
	Content     string
	Deleted     bool
	Edited      bool
	Read        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Notification struct {
	ID          string
	RecipientID string
	Type        string
	TaskID      *string
	Message     string
	IsRead      bool
	Metadata    map[string]interface{}
	CreatedAt   time.Time

	// Populated on list
	Task *TaskSummary
}
