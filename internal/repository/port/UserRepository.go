package repository

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when the directory has no record for an id.
var ErrUserNotFound = errors.New("user not found")

// User is the display record published by the user directory.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	IsAnonymous  bool   `json:"isAnonymous"`
}

// UserRepository is the read-only boundary to the user directory and social graph.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByIDs returns the known users keyed by id; unknown ids are absent.
	FindByIDs(ctx context.Context, ids []string) (map[string]User, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
}
