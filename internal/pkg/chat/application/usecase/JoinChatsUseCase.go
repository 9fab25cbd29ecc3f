package usecase

import (
	"context"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// JoinChatsUseCase lists the chats whose realtime rooms a user's connection should join.
type JoinChatsUseCase struct {
	Repo repository.ChatRepository
}

func NewJoinChatsUseCase(repo repository.ChatRepository) *JoinChatsUseCase {
	return &JoinChatsUseCase{Repo: repo}
}

func (uc *JoinChatsUseCase) Execute(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, chat.Invalid("user id is required")
	}
	ids, err := uc.Repo.ListChatIDsForUser(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
