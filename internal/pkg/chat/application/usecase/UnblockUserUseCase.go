package usecase

import (
	"context"
	"strings"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type UnblockUserInput struct {
	UserID   string
	TargetID string
}

// UnblockUserUseCase lifts a block the caller placed. Unblocking someone who
// is not blocked succeeds.
type UnblockUserUseCase struct {
	Repo repository.ChatRepository
}

func NewUnblockUserUseCase(repo repository.ChatRepository) *UnblockUserUseCase {
	return &UnblockUserUseCase{Repo: repo}
}

func (uc *UnblockUserUseCase) Execute(ctx context.Context, in UnblockUserInput) error {
	target := strings.TrimSpace(in.TargetID)
	if in.UserID == "" || target == "" {
		return chat.Invalid("userId is required")
	}
	if err := uc.Repo.UnblockUser(ctx, in.UserID, target); err != nil {
		return persistence(err)
	}
	return nil
}
