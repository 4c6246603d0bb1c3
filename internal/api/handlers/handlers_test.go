package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Marga-Ghale/teamhub-backend/internal/config"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/Marga-Ghale/teamhub-backend/internal/testutil"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret1"

type apiEnv struct {
	t      *testing.T
	store  *testutil.MemStore
	svcs   *service.Services
	router *gin.Engine
	admin  *repository.User
	alice  *repository.User
	bob    *repository.User
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := testutil.NewMemStore()
	repos := store.Repositories()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	e := &apiEnv{
		t:     t,
		store: store,
		admin: store.SeedUser("Ada", "ada@example.com", string(hash), types.RoleAdmin),
		alice: store.SeedUser("Alice", "alice@example.com", string(hash), types.RoleMember),
		bob:   store.SeedUser("Bob", "bob@example.com", string(hash), types.RoleMember),
	}

	pusher := testutil.NewRecordingPusher()
	notifier := notification.NewService(notification.NewWriter(repos.NotificationRepo, pusher), repos.UserRepo)
	e.svcs = service.NewServices(&service.ServiceDeps{
		Config:   &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:    repos,
		Notifier: notifier,
		Pusher:   pusher,
	})
	e.router = NewRouter(RouterConfig{
		Handlers:    NewHandlers(e.svcs),
		Auth:        e.svcs.Auth,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return e
}

func (e *apiEnv) token(u *repository.User) string {
	e.t.Helper()
	_, tokens, err := e.svcs.Auth.Login(context.Background(), u.Email, testPassword, "")
	require.NoError(e.t, err)
	return tokens.AccessToken
}

func (e *apiEnv) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrTaskNotFound, http.StatusNotFound},
		{service.ErrDuplicateChat, http.StatusBadRequest},
		{&service.Rejection{Kind: service.RejectForbidden}, http.StatusForbidden},
		{&service.Rejection{Kind: service.RejectInvalidState}, http.StatusBadRequest},
		{service.ErrTokenExpired, http.StatusUnauthorized},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), "%v", tt.err)
	}
}

func TestRouter_NoRouteAndHealth(t *testing.T) {
	e := newAPIEnv(t)

	code, body := e.do(http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Cannot find /api/nothing route on GET request", body["error"])

	code, body = e.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuth_RegisterLoginFlow(t *testing.T) {
	e := newAPIEnv(t)

	code, body := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"firstName": "Dana", "email": "dana@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])

	code, body = e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"firstName": "Dana", "email": "dana@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, _ = e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "dana@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	token := data["accessToken"].(string)

	code, body = e.do(http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dana@example.com", body["user"].(map[string]interface{})["email"])
}

func TestAuth_LoginFailures(t *testing.T) {
	e := newAPIEnv(t)

	code, _ := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "x"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": e.alice.Email, "password": testPassword, "role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": e.alice.Email, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuth_UserListIsAdminOnly(t *testing.T) {
	e := newAPIEnv(t)

	code, _ := e.do(http.MethodGet, "/api/auth/users", e.token(e.alice), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := e.do(http.MethodGet, "/api/auth/users", e.token(e.admin), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["users"], 2)
}

func TestTasks_RequireAuth(t *testing.T) {
	e := newAPIEnv(t)

	code, body := e.do(http.MethodGet, "/api/task/get-tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "no token provided", body["error"])

	code, _ = e.do(http.MethodGet, "/api/task/get-tasks", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTasks_CRUD(t *testing.T) {
	e := newAPIEnv(t)
	adminToken := e.token(e.admin)
	aliceToken := e.token(e.alice)

	code, body := e.do(http.MethodPost, "/api/task/create-task", adminToken, gin.H{
		"title": "Ship", "assignee": e.alice.ID, "priority": "high",
	})
	require.Equal(t, http.StatusCreated, code, body)
	task := body["task"].(map[string]interface{})
	id := task["id"].(string)
	assert.Equal(t, "high", task["priority"])
	assert.Equal(t, e.alice.Email, task["assigneeUser"].(map[string]interface{})["email"])

	code, _ = e.do(http.MethodPost, "/api/task/create-task", adminToken, gin.H{"title": "x", "status": "done"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(http.MethodPut, "/api/task/update-task/"+id, aliceToken, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", body["data"].(map[string]interface{})["status"])

	code, body = e.do(http.MethodGet, "/api/task/get-tasks", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = e.do(http.MethodGet, "/api/task/get-task/not-a-uuid", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(http.MethodDelete, "/api/task/delete-task/"+id, aliceToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(http.MethodGet, "/api/task/get-task/"+id, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWorkspace_AddMemberScenario(t *testing.T) {
	e := newAPIEnv(t)
	adminToken := e.token(e.admin)
	bobToken := e.token(e.bob)

	code, _ := e.do(http.MethodPost, "/api/workspace/create", bobToken, gin.H{"name": "Core"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := e.do(http.MethodPost, "/api/workspace/create", adminToken, gin.H{"name": "Core"})
	require.Equal(t, http.StatusCreated, code, body)
	wsID := body["workspace"].(map[string]interface{})["id"].(string)

	code, body = e.do(http.MethodPost, "/api/workspace/"+wsID+"/add-members", adminToken, gin.H{"members": []string{e.bob.ID}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body["workspace"].(map[string]interface{})["members"], e.bob.ID)

	code, body = e.do(http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["unreadCount"])

	code, body = e.do(http.MethodGet, "/api/notifications?unreadOnly=true", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	notes := body["notifications"].([]interface{})
	require.Len(t, notes, 1)
	note := notes[0].(map[string]interface{})
	assert.Equal(t, types.NotificationWorkspaceAdded, note["type"])
	assert.Equal(t, "Core", note["metadata"].(map[string]interface{})["workspaceName"])

	code, _ = e.do(http.MethodPatch, "/api/notifications/"+note["id"].(string)+"/read", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(http.MethodPatch, "/api/notifications/"+note["id"].(string)+"/read", bobToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = e.do(http.MethodGet, "/api/workspace/user-workspaces", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = e.do(http.MethodDelete, "/api/workspace/leave/"+wsID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodDelete, "/api/workspace/leave/"+wsID, bobToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodGet, "/api/workspace/"+wsID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestChat_RequestAndMessageFlow(t *testing.T) {
	e := newAPIEnv(t)
	aliceToken := e.token(e.alice)
	bobToken := e.token(e.bob)

	code, body := e.do(http.MethodPost, "/api/chat/request", aliceToken, gin.H{"recipientEmail": e.bob.Email})
	require.Equal(t, http.StatusCreated, code, body)
	reqID := body["request"].(map[string]interface{})["id"].(string)

	code, _ = e.do(http.MethodPost, "/api/chat/request", aliceToken, gin.H{"recipientEmail": e.bob.Email})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 1, e.store.ChatRequestCount())

	code, _ = e.do(http.MethodPost, "/api/chat/send", aliceToken, gin.H{"receiverId": e.bob.ID, "content": "hi"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = e.do(http.MethodGet, "/api/chat/requests/pending", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["requests"], 1)

	for i := 0; i < 2; i++ {
		code, _ = e.do(http.MethodPost, "/api/chat/requests/"+reqID+"/respond", bobToken, gin.H{"status": "accepted"})
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1, e.store.ConnectionCount())

	code, body = e.do(http.MethodPost, "/api/chat/send", aliceToken, gin.H{"receiverId": e.bob.ID, "content": "hi bob"})
	require.Equal(t, http.StatusCreated, code, body)
	msgID := body["data"].(map[string]interface{})["id"].(string)

	code, body = e.do(http.MethodGet, "/api/chat/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = e.do(http.MethodGet, "/api/chat/search?keyword=BOB", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], 1)

	code, body = e.do(http.MethodGet, "/api/chat/"+e.alice.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], 1)

	code, _ = e.do(http.MethodPut, "/api/chat/"+msgID, bobToken, gin.H{"content": "edited"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(http.MethodPut, "/api/chat/"+msgID, aliceToken, gin.H{"content": "edited"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodDelete, "/api/chat/"+msgID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = e.do(http.MethodGet, "/api/chat/connections", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["connections"], 1)
}
