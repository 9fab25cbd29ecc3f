package usecase

import (
	"context"
	"log/slog"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type ReportMessageInput struct {
	MessageID   string
	ReporterID  string
	Reason      string
	Description string
}

// ReportMessageUseCase files a moderation report. Only participants of the
// message's chat may report it.
type ReportMessageUseCase struct {
	Repo   repository.ChatRepository
	Logger *slog.Logger
	Now    func() time.Time
}

func NewReportMessageUseCase(repo repository.ChatRepository, logger *slog.Logger) *ReportMessageUseCase {
	return &ReportMessageUseCase{Repo: repo, Logger: loggerOrDefault(logger), Now: time.Now}
}

func (uc *ReportMessageUseCase) Execute(ctx context.Context, in ReportMessageInput) (*chat.Report, error) {
	if in.MessageID == "" {
		return nil, chat.Invalid("messageId is required")
	}
	msg, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, persistence(err)
	}
	if _, err := chatFor(ctx, uc.Repo, msg.ChatID, in.ReporterID); err != nil {
		return nil, err
	}

	report, err := chat.NewReport(*msg, in.ReporterID, in.Reason, in.Description, uc.Now())
	if err != nil {
		return nil, err
	}
	saved, err := uc.Repo.SaveReport(ctx, report)
	if err != nil {
		return nil, persistence(err)
	}
	uc.Logger.Info("message reported",
		"reportId", saved.ID,
		"messageId", saved.MessageID,
		"chatId", saved.ChatID,
		"reporterId", saved.ReporterID,
		"reason", saved.Reason,
	)
	return saved, nil
}
