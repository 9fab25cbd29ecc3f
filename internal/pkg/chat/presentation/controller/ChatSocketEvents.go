package controller

import "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"

// Inbound events.
const (
	eventJoinChats        = "join-chats"
	eventSendMessage      = "send-message"
	eventTyping           = "typing"
	eventMarkMessagesRead = "mark-messages-read"
)

// Outbound events emitted by the gateway itself; message events come from the use cases.
const (
	EventConnected   = "connected"
	EventChatsJoined = "chats-joined"
	EventUserOnline  = "user-online"
	EventUserOffline = "user-offline"
	EventUserTyping  = "user-typing"
	EventError       = "error"
)

type sendMessageFrame struct {
	ChatID          string                 `json:"chatId"`
	Content         string                 `json:"content"`
	MessageType     string                 `json:"messageType"`
	MediaURL        string                 `json:"mediaUrl"`
	MediaMetadata   *usecase.MediaMetadata `json:"mediaMetadata"`
	ReplyTo         *string                `json:"replyTo"`
	ClientMessageID string                 `json:"clientMessageId"`
}

type typingFrame struct {
	ChatID   string `json:"chatId"`
	IsTyping *bool  `json:"isTyping"`
}

type markReadFrame struct {
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

type errorFrame struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type connectedFrame struct {
	UserID string `json:"userId"`
}

type chatsJoinedFrame struct {
	ChatIDs []string `json:"chatIds"`
}
