package repository

import (
	"context"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
)

// SearchQuery scopes a full-text search over message bodies.
// ChatIDs restricts the search to those chats; an empty list matches nothing.
type SearchQuery struct {
	ChatIDs []string
	Text    string
	Limit   int
	Offset  int
}

// ChatRepository defines persistence operations for the chat domain.
// Missing chats and messages are reported with chat.ErrChatNotFound and chat.ErrMessageNotFound.
type ChatRepository interface {
	GetChat(ctx context.Context, chatID string) (*chat.Conversation, error)
	ListChatIDsForUser(ctx context.Context, userID string) ([]string, error)
	// ListChats returns the user's chats ordered by last activity, newest first.
	ListChats(ctx context.Context, userID string, limit int, offset int) ([]chat.Conversation, error)

	// GetOrCreatePrivateChat inserts c unless a chat already exists for its pair key.
	// created reports whether c was inserted.
	GetOrCreatePrivateChat(ctx context.Context, c chat.Conversation) (result *chat.Conversation, created bool, err error)
	CreateGroupChat(ctx context.Context, c chat.Conversation) (*chat.Conversation, error)

	// AppendMessage stores m with its read entries and moves the chat's
	// last-message pointer in a single operation. The stored message is returned with its ID.
	// When m.ClientID is set and the sender already stored a message with it in the
	// same chat, that message is returned and nothing is written.
	AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error)
	GetMessage(ctx context.Context, messageID string) (*chat.Message, error)
	// GetMessages resolves ids in any state; unknown ids are skipped.
	GetMessages(ctx context.Context, messageIDs []string) ([]chat.Message, error)
	// ListMessages returns one page counted back from the newest message, in chronological order.
	ListMessages(ctx context.Context, chatID string, limit int, offset int) ([]chat.Message, error)
	// UpdateMessage persists the body, media and lifecycle timestamps of m. A message
	// that is already deleted is never written again: the call fails with chat.ErrNotEditable.
	UpdateMessage(ctx context.Context, m chat.Message) error

	// MarkRead adds a read entry for readerID to every listed message of chatID that
	// does not already carry one. It returns the ids that were newly marked, in request order.
	MarkRead(ctx context.Context, chatID string, readerID string, messageIDs []string, at time.Time) ([]string, error)

	// SearchMessages matches non-deleted bodies, newest first, and reports the total match count.
	SearchMessages(ctx context.Context, q SearchQuery) ([]chat.Message, int, error)

	// BlockUser records b; blocking twice is a no-op.
	BlockUser(ctx context.Context, b chat.Block) error
	UnblockUser(ctx context.Context, blockerID, blockedID string) error
	// IsBlocked reports whether either user has blocked the other.
	IsBlocked(ctx context.Context, a, b string) (bool, error)

	// SaveReport stores r and returns it with its ID.
	SaveReport(ctx context.Context, r chat.Report) (*chat.Report, error)

	Ping(ctx context.Context) error
}
