package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

type GetOrCreatePrivateChatInput struct {
	UserID        string
	ParticipantID string
}

// GetOrCreatePrivateChatUseCase opens the single private chat between two friends
// when neither has blocked the other.
// Concurrent calls for the same pair resolve to the same chat.
type GetOrCreatePrivateChatUseCase struct {
	Repo     repository.ChatRepository
	Users    userrepo.UserRepository
	Resolver *Resolver
	Now      func() time.Time
}

func NewGetOrCreatePrivateChatUseCase(repo repository.ChatRepository, users userrepo.UserRepository, resolver *Resolver) *GetOrCreatePrivateChatUseCase {
	return &GetOrCreatePrivateChatUseCase{Repo: repo, Users: users, Resolver: resolver, Now: time.Now}
}

// Execute returns the chat and whether it was created by this call.
func (uc *GetOrCreatePrivateChatUseCase) Execute(ctx context.Context, in GetOrCreatePrivateChatInput) (*ChatView, bool, error) {
	record, err := chat.NewPrivateConversation(in.UserID, in.ParticipantID, uc.Now())
	if err != nil {
		return nil, false, err
	}

	if _, err := uc.Users.FindByID(ctx, in.ParticipantID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, false, fmt.Errorf("%w: user", chat.ErrNotFound)
		}
		return nil, false, persistence(err)
	}
	friends, err := uc.Users.AreFriends(ctx, in.UserID, in.ParticipantID)
	if err != nil {
		return nil, false, persistence(err)
	}
	if !friends {
		return nil, false, chat.ErrNotFriends
	}
	blocked, err := uc.Repo.IsBlocked(ctx, in.UserID, in.ParticipantID)
	if err != nil {
		return nil, false, persistence(err)
	}
	if blocked {
		return nil, false, chat.ErrBlocked
	}

	conv, created, err := uc.Repo.GetOrCreatePrivateChat(ctx, record)
	if err != nil {
		return nil, false, persistence(err)
	}
	view, err := uc.Resolver.Chat(ctx, *conv)
	if err != nil {
		return nil, false, err
	}
	return view, created, nil
}
