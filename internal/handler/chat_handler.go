package handler

import (
	"errors"
	"net/http"
	"strconv"

	"nhadat/internal/middleware"
	"nhadat/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// ListConversations returns the caller's conversations with their unread counters.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.chatSvc.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// GetMessages returns a message page; participant only.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, _ := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if convID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.chatSvc.ListMessages(userID, uint(convID), limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}
