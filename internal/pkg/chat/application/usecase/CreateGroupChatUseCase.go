package usecase

import (
	"context"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

// CreateGroupChatInput represents the data required to create a group chat.
type CreateGroupChatInput struct {
	CreatorID      string
	Name           string
	Description    string
	Avatar         string
	ParticipantIDs []string
}

// CreateGroupChatUseCase creates a group whose creator is its first admin.
// Every member must exist in the user directory.
type CreateGroupChatUseCase struct {
	Repo     repository.ChatRepository
	Users    userrepo.UserRepository
	Resolver *Resolver
	Now      func() time.Time
}

func NewCreateGroupChatUseCase(repo repository.ChatRepository, users userrepo.UserRepository, resolver *Resolver) *CreateGroupChatUseCase {
	return &CreateGroupChatUseCase{Repo: repo, Users: users, Resolver: resolver, Now: time.Now}
}

func (uc *CreateGroupChatUseCase) Execute(ctx context.Context, in CreateGroupChatInput) (*ChatView, error) {
	record, err := chat.NewGroupConversation(in.CreatorID, in.Name, in.Description, in.Avatar, in.ParticipantIDs, uc.Now())
	if err != nil {
		return nil, err
	}

	known, err := uc.Users.FindByIDs(ctx, record.Participants)
	if err != nil {
		return nil, persistence(err)
	}
	for _, id := range record.Participants {
		if _, ok := known[id]; !ok {
			return nil, chat.Invalid("unknown participant %s", id)
		}
	}

	conv, err := uc.Repo.CreateGroupChat(ctx, record)
	if err != nil {
		return nil, persistence(err)
	}
	return uc.Resolver.Chat(ctx, *conv)
}
