package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/database"
	"github.com/rootedtogether/rooted/internal/models"
)

// ConnectionHandler manages gardener-to-gardener connection requests.
type ConnectionHandler struct {
	DB database.Store
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(db database.Store) *ConnectionHandler {
	return &ConnectionHandler{DB: db}
}

// Request creates a pending connection to another gardener.
func (h *ConnectionHandler) Request(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.DB.CreateConnection(requesterID, req.AddresseeID)
	switch err {
	case nil:
	case database.ErrConnectionExists:
		c.JSON(http.StatusConflict, gin.H{"error": "Connection already exists"})
		return
	case database.ErrSelfMessage:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot connect to yourself"})
		return
	case database.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create connection"})
		return
	}

	c.JSON(http.StatusCreated, conn)
}

// Update accepts or blocks a pending connection addressed to the current user.
func (h *ConnectionHandler) Update(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	connID, err := uuid.Parse(c.Param("connectionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid connection ID"})
		return
	}

	var req models.ConnectionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.DB.UpdateConnectionStatus(connID, actorID, req.Status)
	if err == database.ErrConnectionNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update connection"})
		return
	}

	c.JSON(http.StatusOK, conn)
}

// List returns every connection the current user participates in.
func (h *ConnectionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conns, err := h.DB.ListConnectionsFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load connections"})
		return
	}

	if conns == nil {
		conns = []*models.Connection{}
	}
	c.JSON(http.StatusOK, conns)
}
