package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/teamhub-backend/internal/api/middleware"
	"github.com/Marga-Ghale/teamhub-backend/internal/models"
	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Chat Handler
// ============================================

type ChatHandler struct {
	chatService service.ChatService
}

func (h *ChatHandler) SendRequest(c *gin.Context) {
	var req models.ChatRequestCreate
	if !bindJSON(c, &req) {
		return
	}

	chatReq, err := h.chatService.SendRequest(c.Request.Context(), middleware.GetActor(c), req.RecipientEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"message": "Chat request sent", "request": models.NewChatRequestResponse(chatReq)})
}

func (h *ChatHandler) PendingRequests(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	requests, err := h.chatService.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"requests": models.NewChatRequestResponses(requests)})
}

func (h *ChatHandler) Respond(c *gin.Context) {
	var req models.ChatRequestRespond
	if !bindJSON(c, &req) {
		return
	}

	chatReq, err := h.chatService.Respond(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Chat request " + chatReq.Status, "request": models.NewChatRequestResponse(chatReq)})
}

func (h *ChatHandler) Connections(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	conns, err := h.chatService.Connections(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"connections": models.NewChatConnectionResponses(conns)})
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), middleware.GetActor(c), req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"data": models.NewChatMessageResponse(msg)})
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.chatService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"count": count})
}

func (h *ChatHandler) Search(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	messages, err := h.chatService.Search(c.Request.Context(), userID, c.Query("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"messages": models.NewChatMessageResponses(messages)})
}

func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), middleware.GetActor(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"messages": models.NewChatMessageResponses(messages)})
}

func (h *ChatHandler) Edit(c *gin.Context) {
	var req models.EditMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chatService.EditMessage(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": models.NewChatMessageResponse(msg)})
}

func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.chatService.DeleteMessage(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Message deleted"})
}
