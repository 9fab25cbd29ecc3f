package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/realtime"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

type typingSlot struct {
	userID string
	chatID string
}

// TypingNotifier relays typing transitions to chat rooms. OnChange never blocks,
// so it is safe as the typing registry's callback. While delivery lags, pending
// transitions of one (user, chat) pair collapse into the latest one.
type TypingNotifier struct {
	notifier usecase.Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	order   []typingSlot
	pending map[typingSlot]realtime.TypingEvent
	wake    chan struct{}
}

func NewTypingNotifier(notifier usecase.Notifier, logger *slog.Logger) *TypingNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TypingNotifier{
		notifier: notifier,
		logger:   logger,
		pending:  make(map[typingSlot]realtime.TypingEvent),
		wake:     make(chan struct{}, 1),
	}
}

// OnChange queues ev, replacing an undelivered event of the same pair in place.
func (n *TypingNotifier) OnChange(ev realtime.TypingEvent) {
	slot := typingSlot{userID: ev.UserID, chatID: ev.ChatID}
	n.mu.Lock()
	if _, queued := n.pending[slot]; !queued {
		n.order = append(n.order, slot)
	}
	n.pending[slot] = ev
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued events until ctx is done.
func (n *TypingNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-n.wake:
			for _, ev := range n.drain() {
				if err := n.notifier.NotifyRoom(ctx, ev.ChatID, EventUserTyping, ev, ev.UserID); err != nil {
					n.logger.Warn("user-typing broadcast failed", "chatId", ev.ChatID, "error", err)
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (n *TypingNotifier) drain() []realtime.TypingEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]realtime.TypingEvent, 0, len(n.order))
	for _, slot := range n.order {
		out = append(out, n.pending[slot])
	}
	n.order = nil
	clear(n.pending)
	return out
}
