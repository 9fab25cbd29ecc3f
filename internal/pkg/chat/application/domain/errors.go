package chat

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by use cases, the socket gateway and the HTTP controllers.
var (
	ErrAuthentication  = errors.New("chat: authentication error")
	ErrNotParticipant  = errors.New("chat: sender is not a participant in the conversation")
	ErrValidation      = errors.New("chat: invalid input")
	ErrNotFound        = errors.New("chat: not found")
	ErrChatNotFound    = fmt.Errorf("%w: chat", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("%w: message", ErrNotFound)
	ErrNotFriends      = errors.New("chat: participants are not friends")
	ErrNotEditable     = errors.New("chat: message cannot be edited")
	ErrBlocked         = errors.New("chat: one of the users has blocked the other")
)

// Invalid wraps a validation failure so callers can match ErrValidation.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
