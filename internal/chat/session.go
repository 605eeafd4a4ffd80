package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rootedtogether/rooted/internal/models"
)

// Session holds one viewer's last-known conversation list and active thread.
// The cache is explicit: it only changes on a successful refresh, so a failed
// fetch leaves the previous state intact instead of publishing a partial one.
// Invalidation is imperative, driven by opens and sends.
type Session struct {
	svc    *Service
	viewer uuid.UUID

	mu            sync.Mutex
	conversations []*Conversation
	activePartner uuid.UUID
	thread        []*models.Message
}

// NewSession creates a session for the given viewer.
func NewSession(svc *Service, viewer uuid.UUID) *Session {
	return &Session{svc: svc, viewer: viewer}
}

// Viewer returns the identity the session operates on behalf of.
func (s *Session) Viewer() uuid.UUID {
	return s.viewer
}

// Conversations returns the last successfully loaded conversation list.
func (s *Session) Conversations() []*Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Conversation(nil), s.conversations...)
}

// Thread returns the last successfully loaded thread for the active partner.
func (s *Session) Thread() (uuid.UUID, []*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePartner, append([]*models.Message(nil), s.thread...)
}

// RefreshConversations re-aggregates the conversation list. On failure the
// prior list is preserved and the error returned for the caller's retry
// affordance.
func (s *Session) RefreshConversations() ([]*Conversation, error) {
	conversations, err := s.svc.ListConversations(s.viewer)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()

	return conversations, nil
}

// Open selects a partner, loads their thread and applies read receipts. A
// load failure keeps whatever thread was previously shown and does not touch
// read state.
func (s *Session) Open(partner uuid.UUID) ([]*models.Message, error) {
	thread, err := s.svc.OpenThread(s.viewer, partner)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.activePartner = partner
	s.thread = thread
	s.mu.Unlock()

	return thread, nil
}

// Send appends a message to the active conversation and then refreshes both
// the thread and the conversation list so ordering and counts stay in step
// with the store. The send error surfaces untouched so the caller can keep
// the user's input for retry; refresh errors after a successful send are
// logged and the stale cache kept until the next action.
func (s *Session) Send(partner uuid.UUID, content string) (*models.Message, error) {
	msg, err := s.svc.Send(s.viewer, partner, content)
	if err != nil {
		return nil, err
	}

	if _, err := s.Open(partner); err != nil {
		log.Warn("Thread refresh after send failed for %s: %v", partner, err)
	}
	if _, err := s.RefreshConversations(); err != nil {
		log.Warn("Conversation refresh after send failed: %v", err)
	}

	return msg, nil
}
