// Package handler contains the gin HTTP handlers.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/types/interfaces"
)

// ChatHandler serves the chat and conversation endpoints.
type ChatHandler struct {
	chatService         interfaces.ChatService
	conversationService interfaces.ConversationService
}

// NewChatHandler creates the handler.
func NewChatHandler(
	chatService interfaces.ChatService, conversationService interfaces.ConversationService,
) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		conversationService: conversationService,
	}
}

type chatRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

// Chat handles POST /api/chat. It schedules a detached interaction and
// answers "started" immediately; interaction failures surface on the
// realtime channel, never on this response.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt and userId are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.chatService.StartInteraction(ctx, req.UserID, req.Prompt); err != nil {
		// The HTTP contract stays "started" even when scheduling fails;
		// the caller learns about problems on the channel.
		logger.Errorf(ctx, "failed to start interaction for user %s: %v", req.UserID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "started"})
}

// GetConversation handles GET /api/conversations/:user_id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID := c.Param("user_id")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	history, err := h.conversationService.GetConversation(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Errorf(c.Request.Context(), "failed to load conversation for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ClearConversation handles DELETE /api/conversations/:user_id.
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.conversationService.ClearConversation(c.Request.Context(), userID); err != nil {
		logger.Errorf(c.Request.Context(), "failed to clear conversation for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}
