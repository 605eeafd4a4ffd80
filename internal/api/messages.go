package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/chat"
	"github.com/rootedtogether/rooted/internal/database"
	"github.com/rootedtogether/rooted/internal/models"
	"github.com/rootedtogether/rooted/internal/realtime"
)

// MessageHandler exposes the conversation engine over HTTP.
type MessageHandler struct {
	DB       database.Store
	Chat     *chat.Service
	Notifier realtime.Notifier
}

// NewMessageHandler creates a message handler backed by the given store. The
// notifier may be nil; sends then simply produce no realtime hint.
func NewMessageHandler(db database.Store, notifier realtime.Notifier) *MessageHandler {
	return &MessageHandler{
		DB:       db,
		Chat:     chat.NewService(db, db),
		Notifier: notifier,
	}
}

// ListConversations returns one summary per partner, newest first.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	conversations, err := h.Chat.ListConversations(viewerID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load conversations"})
		return
	}

	if conversations == nil {
		conversations = []*chat.Conversation{}
	}
	c.JSON(http.StatusOK, conversations)
}

// GetThread returns the chronological exchange with one partner and marks
// the unread inbound messages as read.
func (h *MessageHandler) GetThread(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	partnerID, err := uuid.Parse(c.Param("partnerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid partner ID"})
		return
	}

	thread, err := h.Chat.OpenThread(viewerID, partnerID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load thread"})
		return
	}

	if thread == nil {
		thread = []*models.Message{}
	}
	c.JSON(http.StatusOK, thread)
}

// SendMessage appends a new message to a thread.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.Chat.Send(viewerID, req.RecipientID, req.Content)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Message content cannot be empty"})
		return
	case errors.Is(err, database.ErrSelfMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot message yourself"})
		return
	case errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if h.Notifier != nil {
		h.Notifier.NotifyNewMessage(message.RecipientID, message)
	}

	c.JSON(http.StatusCreated, message)
}
