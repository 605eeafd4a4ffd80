package chat

import (
	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/models"
)

// Conversation is the derived per-partner summary shown in the message list.
// It is recomputed from the message log on every load and never persisted.
type Conversation struct {
	PartnerID   uuid.UUID              `json:"partner_id"`
	Partner     *models.ProfileSummary `json:"partner,omitempty"`
	LastMessage *models.Message        `json:"last_message"`
	UnreadCount int                    `json:"unread_count"`
}

// BuildConversations folds a newest-first message feed into one summary per
// distinct partner. The ordering is load-bearing twice over: the first
// message seen for a partner is by construction their latest, and first
// encounters arrive in descending last-message order, so the returned slice
// is already sorted for display without a second pass.
func BuildConversations(viewer uuid.UUID, feed []*models.Message) []*Conversation {
	byPartner := make(map[uuid.UUID]*Conversation)
	var ordered []*Conversation

	for _, msg := range feed {
		partnerID := msg.PartnerOf(viewer)

		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &Conversation{
				PartnerID:   partnerID,
				LastMessage: msg,
			}
			byPartner[partnerID] = conv
			ordered = append(ordered, conv)
		}

		if msg.IsUnreadBy(viewer) {
			conv.UnreadCount++
		}
	}

	return ordered
}
