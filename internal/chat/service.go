package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/logger"
	"github.com/rootedtogether/rooted/internal/models"
)

var (
	// ErrEmptyMessage rejects whitespace-only sends before any store call.
	ErrEmptyMessage = errors.New("message content is empty")

	log = logger.New("chat")
)

// MessageStore is the slice of the data layer the engine reads and writes.
// The store owns every message; the engine's only mutation right is the
// read-receipt stamp on messages addressed to the viewer.
type MessageStore interface {
	// ListMessagesFor returns every message the viewer participates in,
	// newest first. The aggregator's single-pass scan relies on that order.
	ListMessagesFor(viewer uuid.UUID) ([]*models.Message, error)
	// ListThread returns the pairing's messages oldest first.
	ListThread(viewer, partner uuid.UUID) ([]*models.Message, error)
	// MarkThreadRead stamps read_at on unread partner->viewer messages and
	// reports how many rows changed. Zero is a valid count.
	MarkThreadRead(viewer, partner uuid.UUID) (int64, error)
	AppendMessage(sender, recipient uuid.UUID, content string) (*models.Message, error)
}

// ProfileDirectory resolves partner ids to display data.
type ProfileDirectory interface {
	GetProfile(id uuid.UUID) (*models.ProfileSummary, error)
}

// Service implements the conversation engine: aggregation, thread loading
// with read receipts, and sending.
type Service struct {
	store    MessageStore
	profiles ProfileDirectory

	// Sends from one service instance are serialized so two in-flight sends
	// from the same session cannot reach the store out of submission order.
	sendMu sync.Mutex
}

// NewService creates a conversation service over the given collaborators.
func NewService(store MessageStore, profiles ProfileDirectory) *Service {
	return &Service{store: store, profiles: profiles}
}

// ListConversations aggregates the viewer's message feed into one summary
// per partner, newest conversation first, with partner display data joined
// in. Read-only: a failed fetch surfaces without publishing a partial list.
func (s *Service) ListConversations(viewer uuid.UUID) ([]*Conversation, error) {
	feed, err := s.store.ListMessagesFor(viewer)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	conversations := BuildConversations(viewer, feed)

	for _, conv := range conversations {
		profile, err := s.profiles.GetProfile(conv.PartnerID)
		if err != nil {
			// A missing profile degrades the display, not the conversation.
			log.Warn("Profile lookup failed for partner %s: %v", conv.PartnerID, err)
			continue
		}
		conv.Partner = profile
	}

	return conversations, nil
}

// OpenThread loads the full exchange with partner in chronological order and
// then stamps read receipts on every unread message addressed to the viewer.
// The stamp runs only after a successful fetch and is idempotent; if it
// fails, the thread is still returned and the next open retries it.
func (s *Service) OpenThread(viewer, partner uuid.UUID) ([]*models.Message, error) {
	thread, err := s.store.ListThread(viewer, partner)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	marked, err := s.store.MarkThreadRead(viewer, partner)
	if err != nil {
		log.Warn("Read receipt update failed for thread %s/%s: %v", viewer, partner, err)
	} else if marked > 0 {
		log.Debug("Marked %d messages read in thread %s/%s", marked, viewer, partner)
	}

	return thread, nil
}

// Send appends one message from viewer to partner. Whitespace-only content
// is rejected locally with ErrEmptyMessage; the store is never called.
func (s *Service) Send(viewer, partner uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	msg, err := s.store.AppendMessage(viewer, partner, content)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	return msg, nil
}
