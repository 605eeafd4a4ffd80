package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a feed entry: a tip, question or harvest photo shared with the
// whole community rather than one partner.
type Post struct {
	ID          uuid.UUID       `json:"id"`
	AuthorID    uuid.UUID       `json:"author_id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	GrowingZone string          `json:"growing_zone,omitempty"`
	Tags        []string        `json:"tags"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Author      *ProfileSummary `json:"author,omitempty"`
}

// CreatePostRequest is the structure for feed post creation requests
type CreatePostRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=140"`
	Content     string   `json:"content" binding:"required,min=1"`
	GrowingZone string   `json:"growing_zone" binding:"max=8"`
	Tags        []string `json:"tags" binding:"max=10"`
	ImageURL    string   `json:"image_url" binding:"omitempty,url"`
}
