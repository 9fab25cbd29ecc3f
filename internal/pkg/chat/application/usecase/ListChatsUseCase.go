package usecase

import (
	"context"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type ListChatsInput struct {
	UserID string
	Page   Page
}

type ListChatsOutput struct {
	Chats   []ChatView
	Page    int
	HasMore bool
}

// ListChatsUseCase returns the user's chats, most recently active first.
type ListChatsUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
}

func NewListChatsUseCase(repo repository.ChatRepository, resolver *Resolver) *ListChatsUseCase {
	return &ListChatsUseCase{Repo: repo, Resolver: resolver}
}

func (uc *ListChatsUseCase) Execute(ctx context.Context, in ListChatsInput) (*ListChatsOutput, error) {
	if in.UserID == "" {
		return nil, chat.Invalid("user id is required")
	}
	page := in.Page.normalize()
	convs, err := uc.Repo.ListChats(ctx, in.UserID, page.Limit+1, page.offset())
	if err != nil {
		return nil, persistence(err)
	}
	hasMore := len(convs) > page.Limit
	if hasMore {
		convs = convs[:page.Limit]
	}

	views, err := uc.Resolver.Chats(ctx, convs)
	if err != nil {
		return nil, err
	}
	return &ListChatsOutput{Chats: views, Page: page.Page, HasMore: hasMore}, nil
}
