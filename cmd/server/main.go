package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	conversationrepo "github.com/docschat/docschat/internal/application/repository/conversation"
	qdrantrepo "github.com/docschat/docschat/internal/application/repository/retriever/qdrant"
	chatservice "github.com/docschat/docschat/internal/application/service/chat"
	chatpipline "github.com/docschat/docschat/internal/application/service/chat_pipline"
	conversationservice "github.com/docschat/docschat/internal/application/service/conversation"
	"github.com/docschat/docschat/internal/application/service/summarizer"
	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/handler"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/models/chat"
	"github.com/docschat/docschat/internal/models/embedding"
	"github.com/docschat/docschat/internal/router"
	"github.com/docschat/docschat/internal/stream"
	streamredis "github.com/docschat/docschat/internal/stream/redis"
	streamws "github.com/docschat/docschat/internal/stream/websocket"
	"github.com/docschat/docschat/internal/types"
	"github.com/docschat/docschat/internal/types/interfaces"
)

func loadConfig() (*config.Config, error) {
	path := os.Getenv("DOCSCHAT_CONFIG")
	if path == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			path = "config/config.yaml"
		}
	}
	return config.Load(path)
}

func newDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&types.ConversationEntry{}); err != nil {
		return nil, err
	}
	return db, nil
}

// newEventManager registers the pipeline plugins in stage order.
func newEventManager(
	cfg *config.Config,
	conversationService interfaces.ConversationService,
	chatModel chat.Chat,
	retriever interfaces.RetrieveEngine,
	summarizerService interfaces.Summarizer,
	publisher stream.Publisher,
) *chatpipline.EventManager {
	eventManager := chatpipline.NewEventManager()
	chatpipline.NewConversationPlugin(eventManager, conversationService, cfg)
	chatpipline.NewRewritePlugin(eventManager, chatModel)
	chatpipline.NewSearchPlugin(eventManager, retriever, publisher, cfg)
	chatpipline.NewSummarizePlugin(eventManager, summarizerService, publisher, cfg)
	chatpipline.NewStreamPlugin(eventManager, chatModel, conversationService, publisher)
	return eventManager
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()
	providers := []interface{}{
		loadConfig,
		newDatabase,
		streamredis.NewRedisClient,
		streamredis.NewRedisPublisher,
		qdrantrepo.NewQdrantClient,
		chat.NewOpenAIChat,
		embedding.NewOpenAIEmbedder,
		conversationrepo.NewConversationRepository,
		conversationservice.NewConversationService,
		qdrantrepo.NewQdrantRetrieveEngineRepository,
		summarizer.NewSummarizerService,
		newEventManager,
		chatservice.NewChatService,
		handler.NewChatHandler,
		streamws.NewGateway,
		router.NewRouter,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}
	return container, nil
}

func run(cfg *config.Config, engine *gin.Engine) error {
	logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		File:   cfg.Logger.File,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof(ctx, "listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	container, err := buildContainer()
	if err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
	if err := container.Invoke(run); err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}
