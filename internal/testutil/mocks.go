package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/google/uuid"
)

// MemStore is an in-memory backing store shared by the mock repositories.
// It enforces the same uniqueness rules as the Postgres schema.
type MemStore struct {
	mu            sync.Mutex
	clock         time.Time
	users         map[string]*repository.User
	sessions      map[string]*repository.RefreshToken
	workspaces    map[string]*repository.Workspace
	tasks         map[string]*repository.Task
	requests      map[string]*repository.ChatRequest
	connections   map[string]*repository.ChatConnection
	messages      map[string]*repository.ChatMessage
	notifications map[string]*repository.Notification

	// NotificationCreateErr, when set, fails every notification insert.
	NotificationCreateErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         make(map[string]*repository.User),
		sessions:      make(map[string]*repository.RefreshToken),
		workspaces:    make(map[string]*repository.Workspace),
		tasks:         make(map[string]*repository.Task),
		requests:      make(map[string]*repository.ChatRequest),
		connections:   make(map[string]*repository.ChatConnection),
		messages:      make(map[string]*repository.ChatMessage),
		notifications: make(map[string]*repository.Notification),
	}
}

// Repositories returns mock repositories backed by s.
func (s *MemStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		UserRepo:         &MockUserRepository{s: s},
		SessionRepo:      &MockSessionRepository{s: s},
		WorkspaceRepo:    &MockWorkspaceRepository{s: s},
		TaskRepo:         &MockTaskRepository{s: s},
		ChatRepo:         &MockChatRepository{s: s},
		NotificationRepo: &MockNotificationRepository{s: s},
	}
}

// tick returns a strictly increasing timestamp. Caller holds mu.
func (s *MemStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// Notifications returns every stored notification for recipientID, oldest first.
func (s *MemStore) Notifications(recipientID string) []*repository.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemStore) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *MemStore) ChatRequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *MemStore) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// SeedUser stores a user directly and returns it.
func (s *MemStore) SeedUser(firstName, email, passwordHash, role string) *repository.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	u := &repository.User{
		ID:        uuid.New().String(),
		FirstName: firstName,
		Email:     strings.ToLower(email),
		Password:  passwordHash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

// SeedWorkspace stores a workspace directly and returns it.
func (s *MemStore) SeedWorkspace(name, createdBy string, members ...string) *repository.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	ws := &repository.Workspace{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: createdBy,
		Members:   dedupe(append([]string{createdBy}, members...)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.workspaces[ws.ID] = ws
	return copyWorkspace(ws)
}

// ============================================
// Users
// ============================================

type MockUserRepository struct{ s *MemStore }

func (m *MockUserRepository) Create(ctx context.Context, user *repository.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New().String()
	user.CreatedAt = m.s.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.s.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*repository.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.User
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockUserRepository) FindAllExcept(ctx context.Context, excludeID string) ([]*repository.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.User
	for _, u := range m.s.users {
		if u.ID != excludeID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *repository.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	existing, ok := m.s.users[user.ID]
	if !ok {
		return nil
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.Password = user.Password
	existing.UpdatedAt = m.s.tick()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// ============================================
// Sessions
// ============================================

type MockSessionRepository struct{ s *MemStore }

func (m *MockSessionRepository) Save(ctx context.Context, token *repository.RefreshToken) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	token.CreatedAt = m.s.tick()
	cp := *token
	m.s.sessions[token.Token] = &cp
	return nil
}

func (m *MockSessionRepository) Find(ctx context.Context, token string) (*repository.RefreshToken, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if rt, ok := m.s.sessions[token]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for token, rt := range m.s.sessions {
		if rt.ExpiresAt.Before(before) {
			delete(m.s.sessions, token)
			n++
		}
	}
	return n, nil
}

// ============================================
// Workspaces
// ============================================

type MockWorkspaceRepository struct{ s *MemStore }

func (m *MockWorkspaceRepository) Create(ctx context.Context, workspace *repository.Workspace) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	workspace.ID = uuid.New().String()
	workspace.Members = dedupe(workspace.Members)
	workspace.CreatedAt = m.s.tick()
	workspace.UpdatedAt = workspace.CreatedAt
	m.s.workspaces[workspace.ID] = copyWorkspace(workspace)
	return nil
}

func (m *MockWorkspaceRepository) FindByID(ctx context.Context, id string) (*repository.Workspace, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if ws, ok := m.s.workspaces[id]; ok {
		return copyWorkspace(ws), nil
	}
	return nil, nil
}

func (m *MockWorkspaceRepository) FindByUserID(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.Workspace
	for _, ws := range m.s.workspaces {
		if ws.IsCreator(userID) || ws.HasMember(userID) {
			out = append(out, copyWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockWorkspaceRepository) Update(ctx context.Context, workspace *repository.Workspace) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if ws, ok := m.s.workspaces[workspace.ID]; ok {
		ws.Name = workspace.Name
		ws.UpdatedAt = m.s.tick()
		workspace.UpdatedAt = ws.UpdatedAt
	}
	return nil
}

func (m *MockWorkspaceRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.workspaces[id]; !ok {
		return false, nil
	}
	delete(m.s.workspaces, id)
	return true, nil
}

func (m *MockWorkspaceRepository) AddMembers(ctx context.Context, workspaceID string, userIDs []string) (*repository.Workspace, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ws, ok := m.s.workspaces[workspaceID]
	if !ok {
		return nil, nil
	}
	ws.Members = dedupe(append(ws.Members, userIDs...))
	ws.UpdatedAt = m.s.tick()
	return copyWorkspace(ws), nil
}

func (m *MockWorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) (*repository.Workspace, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ws, ok := m.s.workspaces[workspaceID]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(ws.Members))
	for _, id := range ws.Members {
		if id != userID {
			members = append(members, id)
		}
	}
	ws.Members = members
	ws.UpdatedAt = m.s.tick()
	return copyWorkspace(ws), nil
}

// ============================================
// Tasks
// ============================================

type MockTaskRepository struct{ s *MemStore }

func (m *MockTaskRepository) Create(ctx context.Context, task *repository.Task) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	task.ID = uuid.New().String()
	task.AssigneeEmail = lowerPtr(task.AssigneeEmail)
	task.CreatedAt = m.s.tick()
	task.UpdatedAt = task.CreatedAt
	m.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id string) (*repository.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if t, ok := m.s.tasks[id]; ok {
		return m.populate(t), nil
	}
	return nil, nil
}

func (m *MockTaskRepository) FindVisible(ctx context.Context, userID string, includeAll bool) ([]*repository.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.Task
	for _, t := range m.s.tasks {
		visible := includeAll || t.WorkspaceID == nil
		if !visible {
			if ws, ok := m.s.workspaces[*t.WorkspaceID]; ok {
				visible = ws.IsCreator(userID) || ws.HasMember(userID)
			}
		}
		if visible {
			out = append(out, m.populate(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func (m *MockTaskRepository) FindByWorkspace(ctx context.Context, workspaceID string) ([]*repository.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.Task
	for _, t := range m.s.tasks {
		if t.WorkspaceID != nil && *t.WorkspaceID == workspaceID {
			out = append(out, m.populate(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, task *repository.Task) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.tasks[task.ID]
	if !ok {
		return nil
	}
	task.AssigneeEmail = lowerPtr(task.AssigneeEmail)
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = m.s.tick()
	m.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.tasks[id]; !ok {
		return false, nil
	}
	delete(m.s.tasks, id)
	return true, nil
}

// populate copies t and fills Assignee. Caller holds mu.
func (m *MockTaskRepository) populate(t *repository.Task) *repository.Task {
	cp := copyTask(t)
	if cp.AssigneeID != nil {
		if u, ok := m.s.users[*cp.AssigneeID]; ok {
			cp.Assignee = &repository.UserSummary{ID: u.ID, Name: u.FullName(), Email: u.Email}
		}
	}
	return cp
}

// ============================================
// Chat
// ============================================

type MockChatRepository struct{ s *MemStore }

func (m *MockChatRepository) CreateRequest(ctx context.Context, req *repository.ChatRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.requests {
		if r.RequesterID == req.RequesterID && r.RecipientID == req.RecipientID && isOpen(r.Status) {
			return repository.ErrDuplicate
		}
	}
	req.ID = uuid.New().String()
	req.RecipientEmail = strings.ToLower(req.RecipientEmail)
	req.CreatedAt = m.s.tick()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.s.requests[req.ID] = &cp
	return nil
}

func (m *MockChatRepository) FindRequestByID(ctx context.Context, id string) (*repository.ChatRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r, ok := m.s.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *MockChatRepository) FindOpenRequest(ctx context.Context, requesterID, recipientID string) (*repository.ChatRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.requests {
		if r.RequesterID == requesterID && r.RecipientID == recipientID && isOpen(r.Status) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockChatRepository) FindAcceptedBetween(ctx context.Context, userA, userB string) (*repository.ChatRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.requests {
		if r.Status == types.ChatRequestAccepted && r.Involves(userA) && r.Involves(userB) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockChatRepository) FindPendingForRecipient(ctx context.Context, recipientID string) ([]*repository.ChatRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.ChatRequest
	for _, r := range m.s.requests {
		if r.RecipientID == recipientID && r.Status == types.ChatRequestPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockChatRepository) UpdateRequestStatus(ctx context.Context, id, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok {
		return nil
	}
	if isOpen(status) {
		for _, other := range m.s.requests {
			if other.ID != id && other.RequesterID == r.RequesterID && other.RecipientID == r.RecipientID && isOpen(other.Status) {
				return repository.ErrDuplicate
			}
		}
	}
	r.Status = status
	r.UpdatedAt = m.s.tick()
	return nil
}

func (m *MockChatRepository) CreateConnection(ctx context.Context, conn *repository.ChatConnection) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if conn.User1ID > conn.User2ID {
		conn.User1ID, conn.User2ID = conn.User2ID, conn.User1ID
		conn.User1Email, conn.User2Email = conn.User2Email, conn.User1Email
	}
	for _, c := range m.s.connections {
		if c.User1ID == conn.User1ID && c.User2ID == conn.User2ID {
			return repository.ErrDuplicate
		}
	}
	conn.ID = uuid.New().String()
	conn.CreatedAt = m.s.tick()
	cp := *conn
	m.s.connections[conn.ID] = &cp
	return nil
}

func (m *MockChatRepository) FindConnection(ctx context.Context, userA, userB string) (*repository.ChatConnection, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u1, u2 := repository.OrderPair(userA, userB)
	for _, c := range m.s.connections {
		if c.User1ID == u1 && c.User2ID == u2 {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockChatRepository) FindConnectionsForUser(ctx context.Context, userID string) ([]*repository.ChatConnection, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.ChatConnection
	for _, c := range m.s.connections {
		if c.User1ID == userID || c.User2ID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockChatRepository) CreateMessage(ctx context.Context, msg *repository.ChatMessage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg.ID = uuid.New().String()
	msg.CreatedAt = m.s.tick()
	msg.UpdatedAt = msg.CreatedAt
	cp := *msg
	m.s.messages[msg.ID] = &cp
	return nil
}

func (m *MockChatRepository) FindMessageByID(ctx context.Context, id string) (*repository.ChatMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if msg, ok := m.s.messages[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

func (m *MockChatRepository) FindConversation(ctx context.Context, userA, userB string) ([]*repository.ChatMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.ChatMessage
	for _, msg := range m.s.messages {
		if msg.Deleted {
			continue
		}
		if (msg.SenderID == userA && msg.RecipientID == userB) || (msg.SenderID == userB && msg.RecipientID == userA) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockChatRepository) MarkConversationRead(ctx context.Context, senderID, recipientID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for _, msg := range m.s.messages {
		if msg.SenderID == senderID && msg.RecipientID == recipientID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *MockChatRepository) UpdateMessage(ctx context.Context, msg *repository.ChatMessage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.messages[msg.ID]
	if !ok {
		return nil
	}
	existing.Content = msg.Content
	existing.Deleted = msg.Deleted
	existing.Edited = msg.Edited
	existing.Read = msg.Read
	existing.UpdatedAt = m.s.tick()
	msg.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m *MockChatRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for _, msg := range m.s.messages {
		if msg.RecipientID == recipientID && !msg.Read && !msg.Deleted {
			n++
		}
	}
	return n, nil
}

func (m *MockChatRepository) SearchReceived(ctx context.Context, recipientID, keyword string) ([]*repository.ChatMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	keyword = strings.ToLower(keyword)
	var out []*repository.ChatMessage
	for _, msg := range m.s.messages {
		if msg.RecipientID == recipientID && !msg.Deleted && strings.Contains(strings.ToLower(msg.Content), keyword) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ============================================
// Notifications
// ============================================

type MockNotificationRepository struct{ s *MemStore }

func (m *MockNotificationRepository) Create(ctx context.Context, n *repository.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.NotificationCreateErr != nil {
		return m.s.NotificationCreateErr
	}
	n.ID = uuid.New().String()
	n.CreatedAt = m.s.tick()
	if n.Metadata == nil {
		n.Metadata = map[string]interface{}{}
	}
	cp := *n
	m.s.notifications[n.ID] = &cp
	return nil
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, id string) (*repository.Notification, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if n, ok := m.s.notifications[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (m *MockNotificationRepository) FindByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*repository.Notification, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*repository.Notification
	for _, n := range m.s.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		if cp.TaskID != nil {
			if t, ok := m.s.tasks[*cp.TaskID]; ok {
				cp.Task = &repository.TaskSummary{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority}
			}
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > repository.NotificationListLimit {
		out = out[:repository.NotificationListLimit]
	}
	return out, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for _, n := range m.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if n, ok := m.s.notifications[id]; ok {
		n.IsRead = read
	}
	return nil
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for _, n := range m.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.notifications[id]; !ok {
		return false, nil
	}
	delete(m.s.notifications, id)
	return true, nil
}

func (m *MockNotificationRepository) DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for id, n := range m.s.notifications {
		if n.IsRead && n.CreatedAt.Before(olderThan) {
			delete(m.s.notifications, id)
			count++
		}
	}
	return count, nil
}

// ============================================
// Live delivery
// ============================================

// PushedEvent is one event captured by RecordingPusher.
type PushedEvent struct {
	UserID  string
	Event   socket.EventType
	Payload interface{}
}

// RecordingPusher records live events. Only users in Online count as delivered.
type RecordingPusher struct {
	mu     sync.Mutex
	Online map[string]bool
	Err    error
	events []PushedEvent
}

func NewRecordingPusher(online ...string) *RecordingPusher {
	p := &RecordingPusher{Online: make(map[string]bool)}
	for _, id := range online {
		p.Online[id] = true
	}
	return p
}

func (p *RecordingPusher) EmitToUser(userID string, event socket.EventType, payload interface{}) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return false, p.Err
	}
	if !p.Online[userID] {
		return false, nil
	}
	p.events = append(p.events, PushedEvent{UserID: userID, Event: event, Payload: payload})
	return true, nil
}

// Events returns captured events of the given type for userID.
func (p *RecordingPusher) Events(userID string, event socket.EventType) []PushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PushedEvent
	for _, e := range p.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// ============================================
// Helpers
// ============================================

func isOpen(status string) bool {
	return status == types.ChatRequestPending || status == types.ChatRequestAccepted
}

func dedupe(ids []string) []string {
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

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(*s)
	return &v
}

func copyWorkspace(ws *repository.Workspace) *repository.Workspace {
	cp := *ws
	cp.Members = append([]string(nil), ws.Members...)
	return &cp
}

func copyTask(t *repository.Task) *repository.Task {
	cp := *t
	cp.Assignee = nil
	return &cp
}

func sortTasks(tasks []*repository.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
}
