package usecase

import (
	"context"

	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type ListMessagesInput struct {
	ChatID string
	UserID string
	Page   Page
}

type ListMessagesOutput struct {
	Messages []MessageView
	Page     int
	HasMore  bool
}

// ListMessagesUseCase returns chat history. Page 1 holds the newest messages;
// each page is in chronological order.
type ListMessagesUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
}

func NewListMessagesUseCase(repo repository.ChatRepository, resolver *Resolver) *ListMessagesUseCase {
	return &ListMessagesUseCase{Repo: repo, Resolver: resolver}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, in ListMessagesInput) (*ListMessagesOutput, error) {
	conv, err := chatFor(ctx, uc.Repo, in.ChatID, in.UserID)
	if err != nil {
		return nil, err
	}

	page := in.Page.normalize()
	// One extra row, the oldest, tells whether an earlier page exists.
	msgs, err := uc.Repo.ListMessages(ctx, conv.ID, page.Limit+1, page.offset())
	if err != nil {
		return nil, persistence(err)
	}
	hasMore := len(msgs) > page.Limit
	if hasMore {
		msgs = msgs[1:]
	}

	views, err := uc.Resolver.Messages(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return &ListMessagesOutput{Messages: views, Page: page.Page, HasMore: hasMore}, nil
}
