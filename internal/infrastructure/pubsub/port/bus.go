package port

import (
	"context"
	"encoding/json"
)

// Envelope carries one broadcast between nodes. An empty Room addresses every connection.
type Envelope struct {
	Node        string          `json:"node"`
	Room        string          `json:"room,omitempty"`
	ExcludeUser string          `json:"excludeUser,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// Bus publishes envelopes to every node, including the publisher; receivers drop their own.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe blocks, invoking handle for each envelope until ctx is done.
	Subscribe(ctx context.Context, handle func(Envelope)) error
	Close() error
}
