package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
)

type fakeMessages struct {
	sendErr   error
	cancelIDs []string
	owner     string
}

func (f *fakeMessages) SendMessage(ctx context.Context, conversationID, text string) (*polarisagent.Sent, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &polarisagent.Sent{ConversationID: conversationID, MessageID: "msg-1"}, nil
}

func (f *fakeMessages) CancelProject(ctx context.Context, projectID string) ([]string, error) {
	return f.cancelIDs, nil
}

func (f *fakeMessages) CreateProjectWithPrompt(ctx context.Context, ownerID, prompt string) (*polarisagent.Sent, error) {
	f.owner = ownerID
	return &polarisagent.Sent{ProjectID: "p-1", ConversationID: "c-1", MessageID: "m-1"}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name     string
		messages *fakeMessages
		method   string
		path     string
		body     string
		header   map[string]string
		wantCode int
		want     map[string]any
	}{
		{
			name:     "send message",
			messages: &fakeMessages{},
			method:   http.MethodPost,
			path:     "/api/messages",
			body:     `{"conversationId":"c-1","message":"hi"}`,
			wantCode: http.StatusOK,
			want:     map[string]any{"success": true, "messageId": "msg-1"},
		},
		{
			name:     "send to unknown conversation",
			messages: &fakeMessages{sendErr: storage.ErrConversationGone},
			method:   http.MethodPost,
			path:     "/api/messages",
			body:     `{"conversationId":"nope","message":"hi"}`,
			wantCode: http.StatusNotFound,
			want:     map[string]any{"error": "Conversation not found"},
		},
		{
			name:     "send fails",
			messages: &fakeMessages{sendErr: errors.New("disk full")},
			method:   http.MethodPost,
			path:     "/api/messages",
			body:     `{"conversationId":"c-1","message":"hi"}`,
			wantCode: http.StatusInternalServerError,
			want:     map[string]any{"error": "Failed to send message"},
		},
		{
			name:     "cancel with nothing pending",
			messages: &fakeMessages{},
			method:   http.MethodPost,
			path:     "/api/messages/cancel",
			body:     `{"projectId":"p-1"}`,
			wantCode: http.StatusOK,
			want:     map[string]any{"message": "No processing messages to cancel"},
		},
		{
			name:     "cancel pending",
			messages: &fakeMessages{cancelIDs: []string{"a", "b"}},
			method:   http.MethodPost,
			path:     "/api/messages/cancel",
			body:     `{"projectId":"p-1"}`,
			wantCode: http.StatusOK,
			want:     map[string]any{"success": true, "messageIds": []any{"a", "b"}},
		},
		{
			name:     "create project without owner",
			messages: &fakeMessages{},
			method:   http.MethodPost,
			path:     "/api/projects/create-with-prompt",
			body:     `{"prompt":"build a todo app"}`,
			wantCode: http.StatusUnauthorized,
			want:     map[string]any{"error": "Missing X-Owner-ID header"},
		},
		{
			name:     "create project",
			messages: &fakeMessages{},
			method:   http.MethodPost,
			path:     "/api/projects/create-with-prompt",
			body:     `{"prompt":"build a todo app"}`,
			header:   map[string]string{OwnerHeader: "owner-1"},
			wantCode: http.StatusCreated,
			want:     map[string]any{"projectId": "p-1", "conversationId": "c-1", "messageId": "m-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(tt.messages, gin.TestMode, nil)
			code, body := do(t, srv.Handler(), tt.method, tt.path, tt.body, tt.header)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestBindingErrors(t *testing.T) {
	srv := New(&fakeMessages{}, gin.TestMode, nil)

	for _, tc := range []struct{ path, body string }{
		{"/api/messages", `{"conversationId":"c-1"}`},
		{"/api/messages", `not json`},
		{"/api/messages/cancel", `{}`},
	} {
		code, body := do(t, srv.Handler(), http.MethodPost, tc.path, tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, code, tc.body)
		assert.Contains(t, body, "error")
	}
}

func TestHealth(t *testing.T) {
	srv := New(&fakeMessages{}, gin.TestMode, nil)
	code, body := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "rssBytes")
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealthChecks(t *testing.T) {
	srv := New(&fakeMessages{}, gin.TestMode, nil)
	srv.AddCheck("blob", checkFunc(func(ctx context.Context) error { return nil }))

	code, body := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"blob": "ok"}, body["checks"])

	srv.AddCheck("redis", checkFunc(func(ctx context.Context) error { return errors.New("connection refused") }))
	code, body = do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"blob": "ok", "redis": "connection refused"}, body["checks"])
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	repo := storage.NewRepository(db.DB(), nil, nil)
	bus := events.NewMemoryBus(16, nil)
	t.Cleanup(func() { bus.Close() })

	project := &storage.Project{Name: "p", OwnerID: "owner-1"}
	conv, err := repo.CreateProjectWithConversation(ctx, project, polarisagent.DefaultConversationTitle)
	require.NoError(t, err)

	srv := New(polarisagent.NewService(repo, bus, nil), gin.TestMode, nil)

	code, body := do(t, srv.Handler(), http.MethodPost, "/api/messages",
		`{"conversationId":"`+conv.ID+`","message":"add a readme"}`, nil)
	require.Equal(t, http.StatusOK, code)
	messageID := body["messageId"].(string)

	msg, err := repo.GetMessage(ctx, messageID)
	require.NoError(t, err)
	assert.True(t, msg.IsPending())

	code, body = do(t, srv.Handler(), http.MethodPost, "/api/messages/cancel",
		`{"projectId":"`+project.ID+`"}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{messageID}, body["messageIds"])

	msg, err = repo.GetMessage(ctx, messageID)
	require.NoError(t, err)
	require.NotNil(t, msg.Status)
	assert.Equal(t, storage.StatusFailed, *msg.Status)

	code, _ = do(t, srv.Handler(), http.MethodPost, "/api/messages",
		`{"conversationId":"missing","message":"hi"}`, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
