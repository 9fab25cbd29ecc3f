package chat

import (
	"strings"
	"time"
)

// Block represents a 1:1 block. While either user blocks the other, no private
// chat between them can be opened or written to.
type Block struct {
	BlockerID string    `db:"blocker_id"`
	BlockedID string    `db:"blocked_id"`
	CreatedAt time.Time `db:"created_at"`
}

func NewBlock(blockerID, blockedID string, now time.Time) (Block, error) {
	blockerID, blockedID = strings.TrimSpace(blockerID), strings.TrimSpace(blockedID)
	if blockerID == "" || blockedID == "" {
		return Block{}, Invalid("userId is required")
	}
	if blockerID == blockedID {
		return Block{}, Invalid("cannot block yourself")
	}
	return Block{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: now.UTC()}, nil
}
