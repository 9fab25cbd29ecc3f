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

type BlockUserInput struct {
	UserID   string
	TargetID string
}

// BlockUserUseCase stops a private conversation between two users in both
// directions. Existing history stays readable.
type BlockUserUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
	Now   func() time.Time
}

func NewBlockUserUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *BlockUserUseCase {
	return &BlockUserUseCase{Repo: repo, Users: users, Now: time.Now}
}

func (uc *BlockUserUseCase) Execute(ctx context.Context, in BlockUserInput) error {
	b, err := chat.NewBlock(in.UserID, in.TargetID, uc.Now())
	if err != nil {
		return err
	}
	if _, err := uc.Users.FindByID(ctx, b.BlockedID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return fmt.Errorf("%w: user", chat.ErrNotFound)
		}
		return persistence(err)
	}
	if err := uc.Repo.BlockUser(ctx, b); err != nil {
		return persistence(err)
	}
	return nil
}
