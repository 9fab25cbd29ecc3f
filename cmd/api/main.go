package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	v1 "github.com/kuhelii/linked-in-connect-app/cmd/api/router/v1"
	"github.com/kuhelii/linked-in-connect-app/internal/config"
	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	cacheadapter "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/cache/adapter"
	cacheport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/cache/port"
	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/database"
	pubsubadapter "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/pubsub/adapter"
	pubsubport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/pubsub/port"
	queueadapter "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/queue/adapter"
	queueport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/queue/port"
	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/realtime"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/task"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
	chatadapter "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/adapter"
	chatrepo "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/controller"
	httpHandler "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/http"
	useradapter "github.com/kuhelii/linked-in-connect-app/internal/repository/adapter"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

const (
	userCacheSize   = 10_000
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Warn(".env file not found or could not be loaded", "error", envErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]controller.Pinger{}

	// Conversation store and user directory
	var (
		chats chatrepo.ChatRepository
		users userrepo.UserRepository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
		chats = chatadapter.NewPgChatRepository(pool)
		users = useradapter.NewPgUserRepository(pool)
	default:
		logger.Warn("using the in-memory store; every user id is accepted and data is lost on restart")
		chats = chatadapter.NewMemoryChatRepository()
		users = useradapter.NewOpenMemoryUserRepository()
	}
	checks["store"] = chats

	// Redis: shared user cache, cross-node fan-out and the send-message queue
	var (
		remote      cacheport.Cache
		bus         pubsubport.Bus
		queueClient queueport.Client
		queueServer *queueadapter.AsynqServer
		cluster     *realtime.ClusterPresence
	)
	if cfg.RedisURL != "" {
		rdb, err := cacheadapter.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		redisCache := cacheadapter.NewRedisCacheFromClient(rdb)
		remote = redisCache
		checks["cache"] = redisCache
		bus = pubsubadapter.NewRedisBus(rdb, pubsubadapter.DefaultChannel, logger)
		cluster = realtime.NewClusterPresence(redisCache)

		client, err := queueadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		queueClient = client

		queueServer, err = queueadapter.NewAsynqServer(queueadapter.ServerConfig{
			RedisURL:    cfg.RedisURL,
			Concurrency: cfg.AsynqConcurrency,
			Queues:      cfg.AsynqQueues,
		}, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Info("REDIS_URL not set; running single-node without queue or shared cache")
	}
	users = useradapter.NewCachedUserRepository(users, remote, userCacheSize, cfg.UserCacheTTL, logger)

	// Realtime core
	router := realtime.NewRouter()
	defer router.Close()
	presence := realtime.NewPresence()
	defer presence.Close()
	fanout := realtime.NewFanout(router, bus, logger)
	typingRelay := controller.NewTypingNotifier(fanout, logger)
	typing := realtime.NewTyping(cfg.TypingWindow, typingRelay.OnChange)
	defer typing.Close()

	// Use cases
	resolver := usecase.NewResolver(chats, users)
	sendMessage := usecase.NewSendMessageUseCase(chats, resolver, fanout, logger)
	markRead := usecase.NewMarkMessagesReadUseCase(chats, fanout, logger)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	ctls := httpHandler.Controllers{
		ListChats:              controller.NewListChatsController(usecase.NewListChatsUseCase(chats, resolver)),
		GetOrCreatePrivateChat: controller.NewGetOrCreatePrivateChatController(usecase.NewGetOrCreatePrivateChatUseCase(chats, users, resolver)),
		CreateGroupChat:        controller.NewCreateGroupChatController(usecase.NewCreateGroupChatUseCase(chats, users, resolver)),
		ListMessages:           controller.NewListMessagesController(usecase.NewListMessagesUseCase(chats, resolver)),
		SendMessage:            controller.NewSendMessageController(sendMessage, queueClient),
		EditMessage:            controller.NewEditMessageController(usecase.NewEditMessageUseCase(chats, resolver, fanout, logger)),
		DeleteMessage:          controller.NewDeleteMessageController(usecase.NewDeleteMessageUseCase(chats, resolver, fanout, logger)),
		SearchMessages:         controller.NewSearchMessagesController(usecase.NewSearchMessagesUseCase(chats, resolver)),
		BlockUser:              controller.NewBlockUserController(usecase.NewBlockUserUseCase(chats, users)),
		UnblockUser:            controller.NewUnblockUserController(usecase.NewUnblockUserUseCase(chats)),
		ReportMessage:          controller.NewReportMessageController(usecase.NewReportMessageUseCase(chats, logger)),
		Presence:               controller.NewPresenceController(presence),
		Socket: controller.NewChatSocketController(controller.SocketDeps{
			Router:       router,
			Presence:     presence,
			Cluster:      cluster,
			Typing:       typing,
			Fanout:       fanout,
			Verifier:     verifier,
			Users:        users,
			JoinChats:    usecase.NewJoinChatsUseCase(chats),
			SendMessage:  sendMessage,
			MarkRead:     markRead,
			EventTimeout: cfg.EventTimeout,
			Logger:       logger,
		}),
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})
	r.GET("/healthz", controller.NewHealthController(checks).Handle())
	v1.RegisterRoutes(r, ctls, verifier)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "store", cfg.StoreDriver, "node", fanout.Node())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked websocket connections are not tracked by the http server.
		router.Close()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return fanout.Run(gctx) })
	g.Go(func() error { return typingRelay.Run(gctx) })
	if queueServer != nil {
		task.RegisterSendMessageTask(queueServer, sendMessage, logger)
		g.Go(func() error { return queueServer.Run(gctx) })
	}

	return g.Wait()
}
