package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one direct message between two gardeners. ReadAt is nil until
// the recipient opens the thread it belongs to; it is set at most once.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// IsUnreadBy reports whether the message is addressed to userID and has not
// been read yet.
func (m *Message) IsUnreadBy(userID uuid.UUID) bool {
	return m.RecipientID == userID && m.ReadAt == nil
}

// PartnerOf returns the other participant relative to userID.
func (m *Message) PartnerOf(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// SendMessageRequest is the structure for message creation requests
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Content     string    `json:"content" binding:"required"`
}
