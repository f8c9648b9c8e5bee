package agent

import (
	"context"
	"sync"

	"github.com/hattiebot/conduit/internal/core"
)

// Session owns one conversation and runs its requests one at a time.
type Session struct {
	ID string

	mu   sync.Mutex
	conv *Conversation
	loop *Loop
}

func NewSession(id string, loop *Loop) *Session {
	return &Session{ID: id, conv: NewConversation(), loop: loop}
}

// Handle runs one user request. Concurrent callers queue behind the request
// in flight.
func (s *Session) Handle(ctx context.Context, text string, obs Observer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop.Run(core.WithSessionID(ctx, s.ID), s.conv, text, obs)
}

// History returns a copy of the session's conversation.
func (s *Session) History() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}
