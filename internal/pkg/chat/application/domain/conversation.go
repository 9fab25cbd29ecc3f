package chat

import (
	"sort"
	"strings"
	"time"
)

// ChatType distinguishes 1:1 conversations from groups.
type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

// Conversation is the persisted chat record.
// Participants keep insertion order and never contain duplicates.
type Conversation struct {
	ID            string    `db:"id"`
	Type          ChatType  `db:"chat_type"`
	Participants  []string  `db:"-"`
	Admins        []string  `db:"-"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	Avatar        string    `db:"avatar"`
	LastMessageID *string   `db:"last_message_id"`
	LastMessageAt time.Time `db:"last_message_at"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	PairKey       *string   `db:"pair_key"`
}

// PairKey is the order-independent identity of a private chat between a and b.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// NewPrivateConversation builds the record for a private chat opened by creatorID.
func NewPrivateConversation(creatorID, otherID string, now time.Time) (Conversation, error) {
	if creatorID == "" || otherID == "" {
		return Conversation{}, Invalid("participant ids are required")
	}
	if creatorID == otherID {
		return Conversation{}, Invalid("cannot create chat with yourself")
	}
	key := PairKey(creatorID, otherID)
	now = now.UTC()
	return Conversation{
		Type:          ChatTypePrivate,
		Participants:  []string{creatorID, otherID},
		LastMessageAt: now,
		CreatedBy:     creatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
		PairKey:       &key,
	}, nil
}

// NewGroupConversation builds a group record. The creator is always a participant and an admin.
func NewGroupConversation(creatorID, name, description, avatar string, memberIDs []string, now time.Time) (Conversation, error) {
	if creatorID == "" {
		return Conversation{}, Invalid("creator id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Conversation{}, Invalid("group name is required")
	}
	participants := uniqueIDs(append([]string{creatorID}, memberIDs...))
	if len(participants) < 2 {
		return Conversation{}, Invalid("a group needs at least two participants")
	}
	now = now.UTC()
	return Conversation{
		Type:          ChatTypeGroup,
		Participants:  participants,
		Admins:        []string{creatorID},
		Name:          name,
		Description:   strings.TrimSpace(description),
		Avatar:        avatar,
		LastMessageAt: now,
		CreatedBy:     creatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// HasParticipant tells whether userID is part of this conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID administers the group.
func (c Conversation) IsAdmin(userID string) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other member of a private chat, or "" for groups and outsiders.
func (c Conversation) Counterpart(userID string) string {
	if c.Type != ChatTypePrivate || !c.HasParticipant(userID) {
		return ""
	}
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
