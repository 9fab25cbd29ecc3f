package controller_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/realtime"
	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
	chatadapter "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/adapter"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/controller"
	chathttp "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/http"
	useradapter "github.com/kuhelii/linked-in-connect-app/internal/repository/adapter"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

const testSecret = "test-secret"

type harness struct {
	server   *httptest.Server
	repo     *chatadapter.MemoryChatRepository
	users    *useradapter.MemoryUserRepository
	presence *realtime.Presence
}

func newHarness(t *testing.T, typingWindow time.Duration) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		repo:     chatadapter.NewMemoryChatRepository(),
		users:    useradapter.NewMemoryUserRepository(),
		presence: realtime.NewPresence(),
	}
	h.users.Put(
		userrepo.User{ID: "alice", Name: "Alice"},
		userrepo.User{ID: "bob", Name: "Bob"},
		userrepo.User{ID: "carol", Name: "Carol"},
	)
	h.users.Befriend("alice", "bob")

	router := realtime.NewRouter()
	fanout := realtime.NewFanout(router, nil, logger)
	relay := controller.NewTypingNotifier(fanout, logger)
	typing := realtime.NewTyping(typingWindow, relay.OnChange)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = relay.Run(ctx) }()

	resolver := usecase.NewResolver(h.repo, h.users)
	sendMessage := usecase.NewSendMessageUseCase(h.repo, resolver, fanout, logger)
	verifier := auth.NewJWTVerifier(testSecret)

	ctls := chathttp.Controllers{
		ListChats:              controller.NewListChatsController(usecase.NewListChatsUseCase(h.repo, resolver)),
		GetOrCreatePrivateChat: controller.NewGetOrCreatePrivateChatController(usecase.NewGetOrCreatePrivateChatUseCase(h.repo, h.users, resolver)),
		CreateGroupChat:        controller.NewCreateGroupChatController(usecase.NewCreateGroupChatUseCase(h.repo, h.users, resolver)),
		ListMessages:           controller.NewListMessagesController(usecase.NewListMessagesUseCase(h.repo, resolver)),
		SendMessage:            controller.NewSendMessageController(sendMessage, nil),
		EditMessage:            controller.NewEditMessageController(usecase.NewEditMessageUseCase(h.repo, resolver, fanout, logger)),
		DeleteMessage:          controller.NewDeleteMessageController(usecase.NewDeleteMessageUseCase(h.repo, resolver, fanout, logger)),
		SearchMessages:         controller.NewSearchMessagesController(usecase.NewSearchMessagesUseCase(h.repo, resolver)),
		BlockUser:              controller.NewBlockUserController(usecase.NewBlockUserUseCase(h.repo, h.users)),
		UnblockUser:            controller.NewUnblockUserController(usecase.NewUnblockUserUseCase(h.repo)),
		ReportMessage:          controller.NewReportMessageController(usecase.NewReportMessageUseCase(h.repo, logger)),
		Presence:               controller.NewPresenceController(h.presence),
		Socket: controller.NewChatSocketController(controller.SocketDeps{
			Router:       router,
			Presence:     h.presence,
			Typing:       typing,
			Fanout:       fanout,
			Verifier:     verifier,
			Users:        h.users,
			JoinChats:    usecase.NewJoinChatsUseCase(h.repo),
			SendMessage:  sendMessage,
			MarkRead:     usecase.NewMarkMessagesReadUseCase(h.repo, fanout, logger),
			EventTimeout: time.Second,
			Logger:       logger,
		}),
	}

	engine := gin.New()
	chathttp.RegisterRoutes(engine.Group("/api/v1"), ctls, auth.Middleware(verifier))
	h.server = httptest.NewServer(engine)

	t.Cleanup(func() {
		router.Close()
		h.server.Close()
		typing.Close()
		cancel()
		h.presence.Close()
	})
	return h
}

func (h *harness) privateChat(t *testing.T, a, b string) string {
	t.Helper()
	c, err := chat.NewPrivateConversation(a, b, time.Now())
	require.NoError(t, err)
	conv, _, err := h.repo.GetOrCreatePrivateChat(context.Background(), c)
	require.NoError(t, err)
	return conv.ID
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.Issue(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + "/api/v1/chats/ws" + query
}

type client struct {
	t      *testing.T
	ws     *websocket.Conn
	frames chan realtime.Frame
}

func (h *harness) dial(t *testing.T, userID string) *client {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(h.wsURL("?token="+token(t, userID)), nil)
	require.NoError(t, err)

	c := &client{t: t, ws: ws, frames: make(chan realtime.Frame, 256)}
	go func() {
		defer close(c.frames)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var f realtime.Frame
			if json.Unmarshal(data, &f) == nil {
				c.frames <- f
			}
		}
	}()
	t.Cleanup(func() { _ = ws.Close() })

	c.next("connected")
	return c
}

func (c *client) emit(event string, data any) {
	c.t.Helper()
	payload, err := realtime.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, payload))
}

// next returns the first frame carrying event, skipping others.
func (c *client) next(event string) realtime.Frame {
	c.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-c.frames:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", event)
			}
			if f.Event == event {
				return f
			}
		case <-timeout:
			c.t.Fatalf("timed out waiting for %s", event)
		}
	}
}

// none asserts that no frame carrying event arrives within d.
func (c *client) none(event string, d time.Duration) {
	c.t.Helper()
	timeout := time.After(d)
	for {
		select {
		case f, ok := <-c.frames:
			if !ok {
				return
			}
			if f.Event == event {
				c.t.Fatalf("unexpected %s: %s", event, f.Data)
			}
		case <-timeout:
			return
		}
	}
}

func (c *client) join() []string {
	c.t.Helper()
	c.emit("join-chats", nil)
	var ack struct {
		ChatIDs []string `json:"chatIds"`
	}
	require.NoError(c.t, json.Unmarshal(c.next("chats-joined").Data, &ack))
	return ack.ChatIDs
}

func decode[T any](t *testing.T, f realtime.Frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

func TestSocketRejectsMissingOrUnknownCredentials(t *testing.T) {
	h := newHarness(t, time.Second)

	_, resp, err := websocket.DefaultDialer.Dial(h.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Authentication error"}`, string(body))

	_, resp, err = websocket.DefaultDialer.Dial(h.wsURL("?token="+token(t, "ghost")), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"User not found"}`, string(body))
}

func TestSocketMessageReachesRoomAfterPersisting(t *testing.T) {
	h := newHarness(t, time.Second)
	chatID := h.privateChat(t, "alice", "bob")

	bob := h.dial(t, "bob")
	assert.Equal(t, []string{chatID}, bob.join())
	alice := h.dial(t, "alice")
	alice.join()
	assert.Equal(t, `"alice"`, string(bob.next("user-online").Data))

	alice.emit("send-message", map[string]any{"chatId": chatID, "content": "hello bob"})

	got := decode[usecase.MessageView](t, bob.next("new-message"))
	assert.Equal(t, "hello bob", got.Content)
	assert.Equal(t, "Alice", got.Sender.Name)

	// Receivers only ever see stored messages.
	stored, err := h.repo.GetMessage(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello bob", stored.Body)

	echo := decode[usecase.MessageView](t, alice.next("new-message"))
	assert.Equal(t, got.ID, echo.ID)
}

func TestSocketErrorsGoToOriginOnly(t *testing.T) {
	h := newHarness(t, time.Second)
	chatID := h.privateChat(t, "alice", "bob")

	bob := h.dial(t, "bob")
	bob.join()
	carol := h.dial(t, "carol")
	carol.join()

	carol.emit("send-message", map[string]any{"chatId": chatID, "content": "let me in"})
	e := decode[map[string]string](t, carol.next("error"))
	assert.Equal(t, "forbidden", e["code"])
	assert.NotEmpty(t, e["message"])

	carol.emit("send-message", map[string]any{"chatId": "missing", "content": "hi"})
	assert.Equal(t, "not_found", decode[map[string]string](t, carol.next("error"))["code"])

	bob.emit("send-message", map[string]any{"chatId": chatID, "content": "   "})
	assert.Equal(t, "bad_request", decode[map[string]string](t, bob.next("error"))["code"])

	require.NoError(t, carol.ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "bad_request", decode[map[string]string](t, carol.next("error"))["code"])

	bob.none("new-message", 150*time.Millisecond)
	bob.none("error", 50*time.Millisecond)
}

func TestSocketTypingDebounceAndExpiry(t *testing.T) {
	h := newHarness(t, 200*time.Millisecond)
	chatID := h.privateChat(t, "alice", "bob")

	alice := h.dial(t, "alice")
	alice.join()
	bob := h.dial(t, "bob")
	bob.join()

	for i := 0; i < 3; i++ {
		alice.emit("typing", map[string]any{"chatId": chatID, "isTyping": true})
	}
	started := decode[realtime.TypingEvent](t, bob.next("user-typing"))
	assert.Equal(t, realtime.TypingEvent{UserID: "alice", UserName: "Alice", ChatID: chatID, IsTyping: true}, started)

	stopped := decode[realtime.TypingEvent](t, bob.next("user-typing"))
	assert.False(t, stopped.IsTyping, "the indicator expires after the inactivity window")
	bob.none("user-typing", 300*time.Millisecond)

	// Malformed and non-member typing events are ignored without an error.
	alice.emit("typing", map[string]any{"chatId": chatID})
	alice.emit("typing", map[string]any{"chatId": "elsewhere", "isTyping": true})
	alice.none("error", 100*time.Millisecond)
	bob.none("user-typing", 100*time.Millisecond)
}

func TestSocketMarkReadIsAnnouncedOnce(t *testing.T) {
	h := newHarness(t, time.Second)
	chatID := h.privateChat(t, "alice", "bob")

	alice := h.dial(t, "alice")
	alice.join()
	bob := h.dial(t, "bob")
	bob.join()

	alice.emit("send-message", map[string]any{"chatId": chatID, "content": "read me"})
	msg := decode[usecase.MessageView](t, bob.next("new-message"))

	bob.emit("mark-messages-read", map[string]any{"chatId": chatID, "messageIds": []string{msg.ID}})
	read := decode[usecase.MessagesReadEvent](t, alice.next("messages-read"))
	assert.Equal(t, "bob", read.UserID)
	assert.Equal(t, []string{msg.ID}, read.MessageIDs)

	bob.emit("mark-messages-read", map[string]any{"chatId": chatID, "messageIds": []string{msg.ID}})
	alice.none("messages-read", 200*time.Millisecond)
	bob.none("messages-read", 10*time.Millisecond)

	stored, err := h.repo.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ReadBy, 2)
}

func TestSocketDisconnectCleansUp(t *testing.T) {
	h := newHarness(t, 5*time.Second)
	chatID := h.privateChat(t, "alice", "bob")

	bob := h.dial(t, "bob")
	bob.join()
	phone := h.dial(t, "alice")
	phone.join()
	laptop := h.dial(t, "alice")
	laptop.join()
	assert.Equal(t, `"alice"`, string(bob.next("user-online").Data))
	bob.none("user-online", 100*time.Millisecond)
	assert.Equal(t, 2, h.presence.Status("alice").Connections)

	laptop.emit("typing", map[string]any{"chatId": chatID, "isTyping": true})
	assert.True(t, decode[realtime.TypingEvent](t, bob.next("user-typing")).IsTyping)

	require.NoError(t, laptop.ws.Close())
	stopped := decode[realtime.TypingEvent](t, bob.next("user-typing"))
	assert.False(t, stopped.IsTyping)
	assert.Equal(t, chatID, stopped.ChatID)
	bob.none("user-offline", 150*time.Millisecond)

	require.NoError(t, phone.ws.Close())
	assert.Equal(t, `"alice"`, string(bob.next("user-offline").Data))
	require.Eventually(t, func() bool { return !h.presence.Status("alice").Online }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.presence.Status("alice").Connections)
}

func TestSocketWithoutJoinDoesNotTouchPresence(t *testing.T) {
	h := newHarness(t, time.Second)
	bob := h.dial(t, "bob")
	bob.join()

	alice := h.dial(t, "alice")
	require.NoError(t, alice.ws.Close())

	bob.none("user-online", 100*time.Millisecond)
	bob.none("user-offline", 100*time.Millisecond)
	assert.False(t, h.presence.Status("alice").Online)
}
