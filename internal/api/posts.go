package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rootedtogether/rooted/internal/database"
	"github.com/rootedtogether/rooted/internal/models"
)

// PostHandler serves the community feed.
type PostHandler struct {
	DB database.Store
}

// NewPostHandler creates a new post handler
func NewPostHandler(db database.Store) *PostHandler {
	return &PostHandler{DB: db}
}

// Create publishes a new feed post by the current user.
func (h *PostHandler) Create(c *gin.Context) {
	authorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.DB.CreatePost(authorID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// List returns the newest feed posts with their authors joined in.
func (h *PostHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	posts, err := h.DB.ListPosts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed"})
		return
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}
