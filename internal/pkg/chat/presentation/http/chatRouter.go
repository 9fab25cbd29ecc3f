package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/controller"
)

// Controllers groups the per-endpoint controllers of the chat module.
type Controllers struct {
	ListChats              *controller.ListChatsController
	GetOrCreatePrivateChat *controller.GetOrCreatePrivateChatController
	CreateGroupChat        *controller.CreateGroupChatController
	ListMessages           *controller.ListMessagesController
	SendMessage            *controller.SendMessageController
	EditMessage            *controller.EditMessageController
	DeleteMessage          *controller.DeleteMessageController
	SearchMessages         *controller.SearchMessagesController
	BlockUser              *controller.BlockUserController
	UnblockUser            *controller.UnblockUserController
	ReportMessage          *controller.ReportMessageController
	Presence               *controller.PresenceController
	Socket                 *controller.ChatSocketController
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It binds the per-endpoint controllers directly to routes.
func RegisterRoutes(g *gin.RouterGroup, ctl Controllers, requireAuth gin.HandlerFunc) {
	// GET /api/v1/chats/ws -> websocket endpoint; authenticates before upgrading
	g.GET("/chats/ws", ctl.Socket.Handle())

	authed := g.Group("", requireAuth)

	// GET /api/v1/chats -> the caller's chats, most recent activity first
	authed.GET("/chats", ctl.ListChats.Handle())

	// POST /api/v1/chats/private -> get or create the private chat with a friend
	authed.POST("/chats/private", ctl.GetOrCreatePrivateChat.Handle())

	// POST /api/v1/chats/group -> create a group chat
	authed.POST("/chats/group", ctl.CreateGroupChat.Handle())

	// GET /api/v1/chats/search -> text search over the caller's chats
	authed.GET("/chats/search", ctl.SearchMessages.Handle())

	// GET /api/v1/chats/:chatId/messages -> chat history, newest page first
	authed.GET("/chats/:chatId/messages", ctl.ListMessages.Handle())

	// POST /api/v1/chats/:chatId/messages -> send a message into a chat
	authed.POST("/chats/:chatId/messages", ctl.SendMessage.Handle())

	// PUT /api/v1/chats/messages/:messageId -> edit a message
	authed.PUT("/chats/messages/:messageId", ctl.EditMessage.Handle())

	// DELETE /api/v1/chats/messages/:messageId -> delete a message
	authed.DELETE("/chats/messages/:messageId", ctl.DeleteMessage.Handle())

	// POST /api/v1/chats/block-user -> stop private messaging with a user
	authed.POST("/chats/block-user", ctl.BlockUser.Handle())

	// POST /api/v1/chats/unblock-user -> lift a block the caller placed
	authed.POST("/chats/unblock-user", ctl.UnblockUser.Handle())

	// POST /api/v1/chats/report-message -> report a message for moderation
	authed.POST("/chats/report-message", ctl.ReportMessage.Handle())

	// GET /api/v1/presence/:userId -> presence of a user on this node
	authed.GET("/presence/:userId", ctl.Presence.Handle())
}
