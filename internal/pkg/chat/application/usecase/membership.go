package usecase

import (
	"context"
	"strings"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// chatFor loads chatID and checks that userID belongs to it.
func chatFor(ctx context.Context, repo repository.ChatRepository, chatID, userID string) (*chat.Conversation, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, chat.Invalid("chatId is required")
	}
	c, err := repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, persistence(err)
	}
	if !c.HasParticipant(userID) {
		return nil, chat.ErrNotParticipant
	}
	return c, nil
}

// Page is the 1-based paging window of list endpoints.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultLimit = 50
	maxLimit     = 100
)

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.Limit }
