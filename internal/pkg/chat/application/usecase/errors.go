package usecase

import (
	"errors"
	"fmt"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// persistence wraps a repository error unless it already carries domain meaning.
func persistence(err error) error {
	if errors.Is(err, chat.ErrNotFound) || errors.Is(err, chat.ErrValidation) || errors.Is(err, chat.ErrNotEditable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
