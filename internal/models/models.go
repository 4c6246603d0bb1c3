package models

import (
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"omitempty,oneof=member admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=member admin"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName(),
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	Password  *string `json:"password,omitempty" binding:"omitempty,min=6"`
}

type UserSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ============================================
// Task DTOs
// ============================================

type CreateTaskRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   *string    `json:"description"`
	Priority      string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Status        string     `json:"status" binding:"omitempty,oneof=pending 'in progress' completed"`
	Assignee      *string    `json:"assignee" binding:"omitempty,uuid"`
	AssigneeName  *string    `json:"assigneeName"`
	AssigneeEmail *string    `json:"assigneeEmail" binding:"omitempty,email"`
	DueDate       *time.Time `json:"dueDate"`
	Workspace     *string    `json:"workspace" binding:"omitempty,uuid"`
}

// UpdateTaskRequest applies only the fields present. An empty string clears
// assignee, assigneeEmail or workspace.
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Status        *string    `json:"status" binding:"omitempty,oneof=pending 'in progress' completed"`
	Assignee      *string    `json:"assignee"`
	AssigneeName  *string    `json:"assigneeName"`
	AssigneeEmail *string    `json:"assigneeEmail"`
	DueDate       *time.Time `json:"dueDate"`
	Workspace     *string    `json:"workspace"`
}

type TaskResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   *string              `json:"description,omitempty"`
	Priority      string               `json:"priority"`
	Status        string               `json:"status"`
	Assignee      *string              `json:"assignee,omitempty"`
	AssigneeName  *string              `json:"assigneeName,omitempty"`
	AssigneeEmail *string              `json:"assigneeEmail,omitempty"`
	AssigneeUser  *UserSummaryResponse `json:"assigneeUser,omitempty"`
	DueDate       *time.Time           `json:"dueDate,omitempty"`
	Workspace     *string              `json:"workspace,omitempty"`
	CreatedBy     *string              `json:"createdBy,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func NewTaskResponse(t *repository.Task) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      t.Priority,
		Status:        t.Status,
		Assignee:      t.AssigneeID,
		AssigneeName:  t.AssigneeName,
		AssigneeEmail: t.AssigneeEmail,
		DueDate:       t.DueDate,
		Workspace:     t.WorkspaceID,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.Assignee != nil {
		resp.AssigneeUser = &UserSummaryResponse{ID: t.Assignee.ID, Name: t.Assignee.Name, Email: t.Assignee.Email}
	}
	return resp
}

func NewTaskResponses(tasks []*repository.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}

// ============================================
// Workspace DTOs
// ============================================

type CreateWorkspaceRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"omitempty,dive,uuid"`
}

type UpdateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddMembersRequest struct {
	Members []string `json:"members" binding:"required,min=1,dive,uuid"`
}

type WorkspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewWorkspaceResponse(w *repository.Workspace) WorkspaceResponse {
	members := w.Members
	if members == nil {
		members = []string{}
	}
	return WorkspaceResponse{
		ID:        w.ID,
		Name:      w.Name,
		CreatedBy: w.CreatedBy,
		Members:   members,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func NewWorkspaceResponses(workspaces []*repository.Workspace) []WorkspaceResponse {
	out := make([]WorkspaceResponse, 0, len(workspaces))
	for _, w := range workspaces {
		out = append(out, NewWorkspaceResponse(w))
	}
	return out
}

// ============================================
// Notification DTOs
// ============================================

type TaskSummaryResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Recipient string                 `json:"recipient"`
	Type      string                 `json:"type"`
	TaskID    *string                `json:"taskId,omitempty"`
	Task      *TaskSummaryResponse   `json:"task,omitempty"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"isRead"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

func NewNotificationResponse(n *repository.Notification) NotificationResponse {
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	resp := NotificationResponse{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Type:      n.Type,
		TaskID:    n.TaskID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		Metadata:  metadata,
		CreatedAt: n.CreatedAt,
	}
	if n.Task != nil {
		resp.Task = &TaskSummaryResponse{ID: n.Task.ID, Title: n.Task.Title, Status: n.Task.Status, Priority: n.Task.Priority}
	}
	return resp
}

func NewNotificationResponses(notifications []*repository.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NewNotificationResponse(n))
	}
	return out
}

// ============================================
// Chat DTOs
// ============================================

type ChatRequestCreate struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
}

type ChatRequestRespond struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,uuid"`
	Content    string `json:"content" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ChatRequestResponse struct {
	ID             string    `json:"id"`
	Requester      string    `json:"requester"`
	Recipient      string    `json:"recipient"`
	RecipientEmail string    `json:"recipientEmail"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewChatRequestResponse(r *repository.ChatRequest) ChatRequestResponse {
	return ChatRequestResponse{
		ID:             r.ID,
		Requester:      r.RequesterID,
		Recipient:      r.RecipientID,
		RecipientEmail: r.RecipientEmail,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func NewChatRequestResponses(requests []*repository.ChatRequest) []ChatRequestResponse {
	out := make([]ChatRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, NewChatRequestResponse(r))
	}
	return out
}

type ChatConnectionResponse struct {
	ID         string    `json:"id"`
	User1      string    `json:"user1"`
	User2      string    `json:"user2"`
	User1Email string    `json:"user1Email"`
	User2Email string    `json:"user2Email"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewChatConnectionResponses(conns []*repository.ChatConnection) []ChatConnectionResponse {
	out := make([]ChatConnectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, ChatConnectionResponse{
			ID:         c.ID,
			User1:      c.User1ID,
			User2:      c.User2ID,
			User1Email: c.User1Email,
			User2Email: c.User2Email,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}

type ChatMessageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Edited    bool      `json:"edited"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewChatMessageResponse(m *repository.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Sender:    m.SenderID,
		Recipient: m.RecipientID,
		Content:   m.Content,
		Edited:    m.Edited,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewChatMessageResponses(messages []*repository.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewChatMessageResponse(m))
	}
	return out
}
