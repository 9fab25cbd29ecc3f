package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	pubsub "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/pubsub/port"
)

const publishTimeout = 2 * time.Second

// Fanout delivers broadcasts to local connections through the Router and, when a
// bus is configured, to the same rooms on every other node.
type Fanout struct {
	router *Router
	bus    pubsub.Bus
	node   string
	logger *slog.Logger
}

// NewFanout builds a Fanout. bus may be nil for a single-node deployment.
func NewFanout(router *Router, bus pubsub.Bus, logger *slog.Logger) *Fanout {
	return &Fanout{router: router, bus: bus, node: uuid.NewString(), logger: logger}
}

// Node identifies this process on the bus.
func (f *Fanout) Node() string { return f.node }

// NotifyRoom encodes data as event and sends it to the room, skipping excludeUserID.
func (f *Fanout) NotifyRoom(ctx context.Context, chatID, event string, data any, excludeUserID string) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}
	f.router.Broadcast(chatID, payload, excludeUserID)
	f.publish(ctx, pubsub.Envelope{Room: chatID, ExcludeUser: excludeUserID, Payload: payload})
	return nil
}

// NotifyAll sends event to every connection, skipping excludeUserID.
func (f *Fanout) NotifyAll(ctx context.Context, event string, data any, excludeUserID string) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}
	f.router.BroadcastAll(payload, excludeUserID)
	f.publish(ctx, pubsub.Envelope{ExcludeUser: excludeUserID, Payload: payload})
	return nil
}

func (f *Fanout) publish(ctx context.Context, env pubsub.Envelope) {
	if f.bus == nil {
		return
	}
	env.Node = f.node
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := f.bus.Publish(ctx, env); err != nil {
		f.logger.Warn("fanout publish failed", "room", env.Room, "error", err)
	}
}

// Run relays envelopes published by other nodes to local connections until ctx is done.
func (f *Fanout) Run(ctx context.Context) error {
	if f.bus == nil {
		<-ctx.Done()
		return nil
	}
	return f.bus.Subscribe(ctx, func(env pubsub.Envelope) {
		if env.Node == f.node {
			return
		}
		if env.Room == "" {
			f.router.BroadcastAll(env.Payload, env.ExcludeUser)
			return
		}
		f.router.Broadcast(env.Room, env.Payload, env.ExcludeUser)
	})
}
