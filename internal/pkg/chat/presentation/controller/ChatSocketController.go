package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/realtime"
	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

// SocketDeps wires the gateway to the realtime core and the use cases it drives.
type SocketDeps struct {
	Router       *realtime.Router
	Presence     *realtime.Presence
	Cluster      *realtime.ClusterPresence
	Typing       *realtime.Typing
	Fanout       *realtime.Fanout
	Verifier     auth.Verifier
	Users        userrepo.UserRepository
	JoinChats    *usecase.JoinChatsUseCase
	SendMessage  *usecase.SendMessageUseCase
	MarkRead     *usecase.MarkMessagesReadUseCase
	EventTimeout time.Duration
	Logger       *slog.Logger
}

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
type ChatSocketController struct {
	SocketDeps
}

func NewChatSocketController(deps SocketDeps) *ChatSocketController {
	if deps.EventTimeout <= 0 {
		deps.EventTimeout = 5 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ChatSocketController{SocketDeps: deps}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Access is controlled by the bearer token, not the origin.
		return true
	},
}

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameSize       = 1 << 20
)

// session is the per-connection state owned by the read goroutine.
type session struct {
	conn   *realtime.Connection
	user   userrepo.User
	joined bool
	ctx    context.Context
}

// Handle authenticates the request, upgrades it to a websocket and processes
// events until the client disconnects. Events of one connection are handled in order.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ctl.Verifier.Verify(auth.TokenFromRequest(c.Request))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
			return
		}

		lookupCtx, cancel := context.WithTimeout(c.Request.Context(), ctl.EventTimeout)
		user, err := ctl.Users.FindByID(lookupCtx, userID)
		cancel()
		switch {
		case errors.Is(err, userrepo.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		case err != nil:
			ctl.Logger.Error("socket user lookup failed", "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			ctl.Logger.Debug("websocket upgrade failed", "userId", userID, "error", err)
			return
		}

		s := &session{
			conn: realtime.NewConnection(userID, ws),
			user: *user,
			ctx:  context.WithoutCancel(c.Request.Context()),
		}
		ctl.Router.Attach(s.conn)
		defer ctl.disconnect(s)

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.reply(s, EventConnected, connectedFrame{UserID: userID})
		ctl.Logger.Info("socket connected", "userId", userID, "connId", s.conn.ID)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					ctl.Logger.Debug("socket read ended", "userId", userID, "error", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame realtime.Frame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
				ctl.replyError(s, "bad_request", "Invalid payload")
				continue
			}
			ctl.dispatch(s, frame)
		}
	}
}

func (ctl *ChatSocketController) dispatch(s *session, frame realtime.Frame) {
	switch frame.Event {
	case eventJoinChats:
		ctl.handleJoinChats(s)
	case eventSendMessage:
		ctl.handleSendMessage(s, frame.Data)
	case eventTyping:
		ctl.handleTyping(s, frame.Data)
	case eventMarkMessagesRead:
		ctl.handleMarkRead(s, frame.Data)
	default:
		ctl.replyError(s, "bad_request", "Unknown event "+frame.Event)
	}
}

func (ctl *ChatSocketController) handleJoinChats(s *session) {
	ctx, cancel := context.WithTimeout(s.ctx, ctl.EventTimeout)
	defer cancel()

	chatIDs, err := ctl.JoinChats.Execute(ctx, s.conn.UserID)
	if err != nil {
		ctl.replyUseCaseError(s, err)
		return
	}
	ctl.Router.SetRooms(s.conn, chatIDs)

	if !s.joined {
		s.joined = true
		if ctl.Presence.Connect(s.conn.UserID) && ctl.clusterOnline(ctx, s.conn.UserID) {
			if err := ctl.Fanout.NotifyAll(ctx, EventUserOnline, s.conn.UserID, s.conn.UserID); err != nil {
				ctl.Logger.Warn("user-online broadcast failed", "userId", s.conn.UserID, "error", err)
			}
		}
	}
	ctl.reply(s, EventChatsJoined, chatsJoinedFrame{ChatIDs: chatIDs})
}

func (ctl *ChatSocketController) handleSendMessage(s *session, data json.RawMessage) {
	var in sendMessageFrame
	if err := json.Unmarshal(data, &in); err != nil {
		ctl.replyError(s, "bad_request", "Invalid message payload")
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, ctl.EventTimeout)
	defer cancel()

	// The use case broadcasts new-message to the room, origin included.
	_, err := ctl.SendMessage.Execute(ctx, usecase.SendMessageInput{
		ChatID:          in.ChatID,
		SenderID:        s.conn.UserID,
		Content:         in.Content,
		MessageType:     chat.MessageType(in.MessageType),
		MediaURL:        in.MediaURL,
		MediaMetadata:   in.MediaMetadata,
		ReplyTo:         in.ReplyTo,
		ClientMessageID: in.ClientMessageID,
	})
	if err != nil {
		ctl.replyUseCaseError(s, err)
	}
}

// handleTyping ignores malformed input and rooms the connection has not joined.
func (ctl *ChatSocketController) handleTyping(s *session, data json.RawMessage) {
	var in typingFrame
	if err := json.Unmarshal(data, &in); err != nil || in.ChatID == "" || in.IsTyping == nil {
		return
	}
	if !ctl.Router.InRoom(in.ChatID, s.conn) {
		return
	}
	if *in.IsTyping {
		ctl.Typing.Start(s.conn.UserID, s.user.Name, in.ChatID)
		return
	}
	ctl.Typing.Stop(s.conn.UserID, in.ChatID)
}

func (ctl *ChatSocketController) handleMarkRead(s *session, data json.RawMessage) {
	var in markReadFrame
	if err := json.Unmarshal(data, &in); err != nil {
		ctl.replyError(s, "bad_request", "Invalid read payload")
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, ctl.EventTimeout)
	defer cancel()

	if _, err := ctl.MarkRead.Execute(ctx, usecase.MarkMessagesReadInput{
		ChatID:     in.ChatID,
		ReaderID:   s.conn.UserID,
		MessageIDs: in.MessageIDs,
	}); err != nil {
		ctl.replyUseCaseError(s, err)
	}
}

// disconnect releases everything the connection held. Presence only counts
// connections that joined, so a socket that never sent join-chats leaves it untouched.
func (ctl *ChatSocketController) disconnect(s *session) {
	ctl.Router.Detach(s.conn)
	s.conn.Close(websocket.CloseNormalClosure, "session closed")

	ctx, cancel := context.WithTimeout(s.ctx, ctl.EventTimeout)
	defer cancel()

	if s.joined && ctl.Presence.Disconnect(s.conn.UserID) && ctl.clusterOffline(ctx, s.conn.UserID) {
		if err := ctl.Fanout.NotifyAll(ctx, EventUserOffline, s.conn.UserID, s.conn.UserID); err != nil {
			ctl.Logger.Warn("user-offline broadcast failed", "userId", s.conn.UserID, "error", err)
		}
	}
	ctl.Typing.ClearUser(s.conn.UserID)
	ctl.Logger.Info("socket disconnected", "userId", s.conn.UserID, "connId", s.conn.ID)
}

// clusterOnline reports whether a local first connection is also the user's first
// across nodes. When the shared counter is unreachable the local view wins.
func (ctl *ChatSocketController) clusterOnline(ctx context.Context, userID string) bool {
	first, err := ctl.Cluster.Online(ctx, userID)
	if err != nil {
		ctl.Logger.Warn("cluster presence update failed", "userId", userID, "error", err)
	}
	return first
}

func (ctl *ChatSocketController) clusterOffline(ctx context.Context, userID string) bool {
	last, err := ctl.Cluster.Offline(ctx, userID)
	if err != nil {
		ctl.Logger.Warn("cluster presence update failed", "userId", userID, "error", err)
	}
	return last
}

func (ctl *ChatSocketController) replyUseCaseError(s *session, err error) {
	_, code, message := classify(err)
	if code == "internal_error" {
		ctl.Logger.Error("socket event failed", "userId", s.conn.UserID, "error", err)
	}
	ctl.replyError(s, code, message)
}

func (ctl *ChatSocketController) replyError(s *session, code, message string) {
	ctl.reply(s, EventError, errorFrame{Message: message, Code: code})
}

func (ctl *ChatSocketController) reply(s *session, event string, data any) {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		ctl.Logger.Error("encode socket reply", "event", event, "error", err)
		return
	}
	_ = s.conn.Send(payload)
}
