package realtime

import (
	"context"
	"time"
)

// Counter is a shared atomic counter, backed by Redis in production.
type Counter interface {
	// IncrBy adds delta to key, refreshes its TTL and returns the new value.
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

const (
	clusterPresencePrefix = "presence:nodes:"
	clusterPresenceTTL    = 24 * time.Hour
)

// ClusterPresence counts, per user, the nodes on which the user is online.
// Each node reports only its own local transitions, so the counter tells
// whether a transition is also the user's first or last one cluster-wide.
// A nil *ClusterPresence treats the local node as the whole cluster.
type ClusterPresence struct {
	counter Counter
}

func NewClusterPresence(counter Counter) *ClusterPresence {
	return &ClusterPresence{counter: counter}
}

// Online records that userID came online on this node. It reports whether no
// other node had the user online.
func (c *ClusterPresence) Online(ctx context.Context, userID string) (bool, error) {
	if c == nil {
		return true, nil
	}
	n, err := c.counter.IncrBy(ctx, clusterPresencePrefix+userID, 1, clusterPresenceTTL)
	if err != nil {
		return true, err
	}
	return n == 1, nil
}

// Offline records that userID left this node. It reports whether the user is
// now offline on every node.
func (c *ClusterPresence) Offline(ctx context.Context, userID string) (bool, error) {
	if c == nil {
		return true, nil
	}
	key := clusterPresencePrefix + userID
	n, err := c.counter.IncrBy(ctx, key, -1, clusterPresenceTTL)
	if err != nil {
		return true, err
	}
	if n < 0 {
		// A node restarted without reporting its departures.
		if _, err := c.counter.IncrBy(ctx, key, -n, clusterPresenceTTL); err != nil {
			return true, err
		}
	}
	return n <= 0, nil
}
