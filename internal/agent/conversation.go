package agent

import "github.com/hattiebot/conduit/internal/core"

// Conversation is the ordered message history of one session. It only grows:
// there is no way to edit, drop or reorder a message once appended. It is not
// safe for concurrent use; its Session serializes access.
type Conversation struct {
	msgs []core.Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...core.Message) {
	c.msgs = append(c.msgs, msgs...)
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []core.Message {
	out := make([]core.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *Conversation) Len() int { return len(c.msgs) }
