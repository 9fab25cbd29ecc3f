package chat

import (
	"strings"
	"time"
)

// MessageType represents the kind of message content.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeAudio MessageType = "audio"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is one of the known kinds.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// MessageState is the lifecycle tag of a message: active, edited or deleted.
type MessageState string

const (
	MessageStateActive  MessageState = "active"
	MessageStateEdited  MessageState = "edited"
	MessageStateDeleted MessageState = "deleted"
)

// Tombstone replaces the body of a deleted message.
const Tombstone = "This message was deleted"

// maxClientIDLength bounds the sender-chosen idempotency key.
const maxClientIDLength = 128

// MediaRef points at an object produced by the external media store.
type MediaRef struct {
	URL      string   `json:"url"`
	FileName string   `json:"fileName,omitempty"`
	FileSize int64    `json:"fileSize,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// ReadEntry records that UserID has seen a message.
type ReadEntry struct {
	UserID string    `db:"user_id"`
	ReadAt time.Time `db:"read_at"`
}

// Message is an entry in a conversation. Only Edit and Delete change it after creation.
type Message struct {
	ID        string       `db:"id"`
	ChatID    string       `db:"chat_id"`
	SenderID  string       `db:"sender_id"`
	Body      string       `db:"body"`
	Type      MessageType  `db:"msg_type"`
	Media     *MediaRef    `db:"media"`
	ReadBy    []ReadEntry  `db:"-"`
	ReplyToID *string      `db:"reply_to_id"`
	ClientID  string       `db:"client_id"`
	State     MessageState `db:"-"`
	EditedAt  *time.Time   `db:"edited_at"`
	DeletedAt *time.Time   `db:"deleted_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// NewMessage validates m and returns a message ready to persist.
// The sender is recorded as the first reader.
func NewMessage(m Message, now time.Time) (*Message, error) {
	if m.ChatID == "" || m.SenderID == "" {
		return nil, Invalid("chatId and sender are required")
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if !m.Type.Valid() {
		return nil, Invalid("unknown message type %q", m.Type)
	}

	m.Body = strings.TrimSpace(m.Body)
	if m.Media != nil && strings.TrimSpace(m.Media.URL) == "" {
		m.Media = nil
	}
	switch {
	case m.Type == MessageTypeText && m.Body == "":
		return nil, Invalid("content is required")
	case m.Type != MessageTypeText && m.Media == nil:
		return nil, Invalid("mediaUrl is required for %s messages", m.Type)
	}
	if m.ReplyToID != nil && *m.ReplyToID == "" {
		m.ReplyToID = nil
	}
	m.ClientID = strings.TrimSpace(m.ClientID)
	if len(m.ClientID) > maxClientIDLength {
		return nil, Invalid("clientMessageId is longer than %d characters", maxClientIDLength)
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.State = MessageStateActive
	m.EditedAt = nil
	m.DeletedAt = nil
	m.ReadBy = []ReadEntry{{UserID: m.SenderID, ReadAt: now}}
	return &m, nil
}

// HasReader reports whether userID already has a read entry.
func (m *Message) HasReader(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Edit replaces the body of an active or edited text message written by editorID.
func (m Message) Edit(editorID, body string, now time.Time) (Message, error) {
	if m.SenderID != editorID {
		return Message{}, ErrMessageNotFound
	}
	if m.Type != MessageTypeText || m.State == MessageStateDeleted {
		return Message{}, ErrNotEditable
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, Invalid("content is required")
	}
	now = now.UTC()
	m.Body = body
	m.State = MessageStateEdited
	m.EditedAt = &now
	m.UpdatedAt = now
	return m, nil
}

// Delete tombstones a message written by deleterID. Identity, chat and reply links are kept.
func (m Message) Delete(deleterID string, now time.Time) (Message, error) {
	if m.SenderID != deleterID {
		return Message{}, ErrMessageNotFound
	}
	if m.State == MessageStateDeleted {
		return m, nil
	}
	now = now.UTC()
	m.Body = Tombstone
	m.Media = nil
	m.State = MessageStateDeleted
	m.DeletedAt = &now
	m.UpdatedAt = now
	return m, nil
}

// StateOf derives the lifecycle tag from the persisted timestamps.
func StateOf(editedAt, deletedAt *time.Time) MessageState {
	switch {
	case deletedAt != nil:
		return MessageStateDeleted
	case editedAt != nil:
		return MessageStateEdited
	}
	return MessageStateActive
}
