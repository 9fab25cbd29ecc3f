package usecase

import (
	"context"
	"strings"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type SearchMessagesInput struct {
	UserID string
	Query  string
	// ChatID narrows the search to one chat; empty searches all of the user's chats.
	ChatID string
	Page   Page
}

type SearchMessagesOutput struct {
	Messages     []MessageView
	TotalResults int
	Page         int
	HasMore      bool
}

// SearchMessagesUseCase runs a text search over the chats a user belongs to.
// Deleted messages never match.
type SearchMessagesUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
}

func NewSearchMessagesUseCase(repo repository.ChatRepository, resolver *Resolver) *SearchMessagesUseCase {
	return &SearchMessagesUseCase{Repo: repo, Resolver: resolver}
}

func (uc *SearchMessagesUseCase) Execute(ctx context.Context, in SearchMessagesInput) (*SearchMessagesOutput, error) {
	text := strings.TrimSpace(in.Query)
	if text == "" {
		return nil, chat.Invalid("search query is required")
	}

	var chatIDs []string
	if in.ChatID != "" {
		conv, err := chatFor(ctx, uc.Repo, in.ChatID, in.UserID)
		if err != nil {
			return nil, err
		}
		chatIDs = []string{conv.ID}
	} else {
		ids, err := uc.Repo.ListChatIDsForUser(ctx, in.UserID)
		if err != nil {
			return nil, persistence(err)
		}
		chatIDs = ids
	}

	page := in.Page.normalize()
	msgs, total, err := uc.Repo.SearchMessages(ctx, repository.SearchQuery{
		ChatIDs: chatIDs,
		Text:    text,
		Limit:   page.Limit,
		Offset:  page.offset(),
	})
	if err != nil {
		return nil, persistence(err)
	}

	views, err := uc.Resolver.Messages(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return &SearchMessagesOutput{
		Messages:     views,
		TotalResults: total,
		Page:         page.Page,
		HasMore:      page.offset()+len(msgs) < total,
	}, nil
}
