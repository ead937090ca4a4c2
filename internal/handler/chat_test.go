package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docschat/docschat/internal/types"
)

type fakeChatService struct {
	started []string
	err     error
}

func (f *fakeChatService) StartInteraction(_ context.Context, userID string, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.started = append(f.started, userID+"|"+prompt)
	return "interaction-1", nil
}

type fakeConversationService struct {
	history []string
	cleared []string
	err     error
}

func (f *fakeConversationService) AddEntry(context.Context, string, types.Speaker, string) error {
	return f.err
}

func (f *fakeConversationService) GetConversation(context.Context, string, int) ([]string, error) {
	return f.history, f.err
}

func (f *fakeConversationService) ClearConversation(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func newTestRouter(chat *fakeChatService, conv *fakeConversationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(chat, conv)
	r := gin.New()
	r.POST("/api/chat", h.Chat)
	r.GET("/api/conversations/:user_id", h.GetConversation)
	r.DELETE("/api/conversations/:user_id", h.ClearConversation)
	return r
}

func TestChatReturnsStarted(t *testing.T) {
	chat := &fakeChatService{}
	r := newTestRouter(chat, &fakeConversationService{})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"prompt":"What is the capital of France?","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"started"}`, w.Body.String())
	require.Len(t, chat.started, 1)
	assert.Equal(t, "u1|What is the capital of France?", chat.started[0])
}

func TestChatStartFailureStillReturnsStarted(t *testing.T) {
	chat := &fakeChatService{err: errors.New("pool exhausted")}
	r := newTestRouter(chat, &fakeConversationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"prompt":"p","userId":"u"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"started"}`, w.Body.String())
}

func TestChatRejectsMissingFields(t *testing.T) {
	r := newTestRouter(&fakeChatService{}, &fakeConversationService{})

	for _, body := range []string{`{}`, `{"prompt":"p"}`, `{"userId":"u"}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestGetConversation(t *testing.T) {
	conv := &fakeConversationService{history: []string{"USER: hi", "AI: hello"}}
	r := newTestRouter(&fakeChatService{}, conv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/u1?limit=5", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history":["USER: hi","AI: hello"]}`, w.Body.String())
}

func TestGetConversationBadLimit(t *testing.T) {
	r := newTestRouter(&fakeChatService{}, &fakeConversationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/u1?limit=zero", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearConversation(t *testing.T) {
	conv := &fakeConversationService{}
	r := newTestRouter(&fakeChatService{}, conv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/conversations/u1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"u1"}, conv.cleared)
}
