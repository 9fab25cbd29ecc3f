package chat

import (
	"time"
)

// Chat is the domain aggregate for a conversation and its posting rules.
//
// Notes:
//   - The application layer hydrates it from the repository before invoking its behaviors.
//   - Persistence is handled by repositories outside the domain; this type only
//     enforces rules and shapes intent.
type Chat struct {
	Conversation Conversation
	// ReplyTarget is the message being replied to, when the new message carries a reply link.
	ReplyTarget *Message
}

// HasParticipant tells whether userID is part of this chat.
func (c *Chat) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	return c.Conversation.HasParticipant(userID)
}

// PostMessage applies domain rules and returns a validated message ready to persist.
//
// Validations:
// - Conversation/message identity must match
// - Sender must be a participant
// - A reply must point at a message of the same conversation
// - Content rules of NewMessage
func (c *Chat) PostMessage(m Message, now time.Time) (*Message, error) {
	if m.ChatID == "" || c.Conversation.ID == "" || m.ChatID != c.Conversation.ID {
		return nil, ErrChatNotFound
	}

	if !c.HasParticipant(m.SenderID) {
		return nil, ErrNotParticipant
	}

	if m.ReplyToID != nil && *m.ReplyToID != "" {
		if c.ReplyTarget == nil || c.ReplyTarget.ID != *m.ReplyToID || c.ReplyTarget.ChatID != c.Conversation.ID {
			return nil, Invalid("replyTo must reference a message in the same chat")
		}
	}

	return NewMessage(m, now)
}
