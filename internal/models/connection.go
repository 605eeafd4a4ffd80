package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection statuses
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionBlocked  = "blocked"
)

// Connection links two gardeners who want to follow each other's growing.
type Connection struct {
	ID          uuid.UUID       `json:"id"`
	RequesterID uuid.UUID       `json:"requester_id"`
	AddresseeID uuid.UUID       `json:"addressee_id"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Requester   *ProfileSummary `json:"requester,omitempty"`
	Addressee   *ProfileSummary `json:"addressee,omitempty"`
}

// ConnectionRequest is the structure for connection creation requests
type ConnectionRequest struct {
	AddresseeID uuid.UUID `json:"addressee_id" binding:"required"`
}

// ConnectionUpdate carries a status transition on an existing connection.
type ConnectionUpdate struct {
	Status string `json:"status" binding:"required,oneof=accepted blocked"`
}
