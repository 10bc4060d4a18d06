package bootstrap

import (
	"context"
	"log"

	"docuchat-be/internal/config"
	"docuchat-be/internal/controller"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/repository/implementation"
	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/internal/service"
	"docuchat-be/pkg/agent"
	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/llm/factory"
	pkgNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/rag"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger *zap.Logger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Dedicated log for the agent loop and retrieval, kept out of the main log
	llmLogger := log.New(&lumberjack.Logger{
		Filename:   cfg.App.LLMLogFilePath,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,
		MaxAge:     30, // Days
		Compress:   true,
	}, "", log.LstdFlags)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		sysLogger.Info("using embedding provider", zap.String("provider", "ollama"), zap.String("model", cfg.Ai.OllamaModel))
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGemini)
		sysLogger.Info("using embedding provider", zap.String("provider", "gemini"))
	}

	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("using llm provider",
		zap.String("provider", cfg.Ai.LLMProvider),
		zap.String("model", cfg.Ai.LLMModel))

	// 4. Infrastructure
	// NATS (optional: events are best-effort)
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		natsPub = nil
	}

	// Redis session store with in-memory degraded fallback. The choice is
	// made once at startup; a Redis outage later surfaces as request errors.
	var sessions sessionstore.SessionStore
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("failed to parse Redis URL, using direct addr", zap.Error(err))
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("Redis unreachable, running session store in degraded in-memory mode", zap.Error(err))
		sessions = sessionstore.NewMemorySessionStore()
	} else {
		sessions = sessionstore.NewRedisSessionStore(rdb)
	}

	// 5. Retrieval + Agent Core
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	retriever := rag.NewRetriever(
		embeddingProvider,
		chunkRepo,
		llmProvider,
		rag.DefaultConfig(),
		llmLogger,
	)
	toolFactory := agent.NewToolFactory(retriever, llmLogger)
	orchestrator := agent.NewOrchestrator(llmProvider, cfg.Agent.MaxIterations, llmLogger)
	evaluator := agent.NewEvaluator(llmProvider, llmLogger)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Ingest.TopicName)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ingest.TopicName,
		uowFactory,
		embeddingProvider,
		sessions,
		natsPub,
		sysLogger,
	)

	sessionService := service.NewSessionService(sessions)
	documentService := service.NewDocumentService(uowFactory, publisherService)
	queryService := service.NewQueryService(
		sessions,
		uowFactory,
		toolFactory,
		orchestrator,
		evaluator,
		llmProvider,
		natsPub,
		sysLogger,
		llmLogger,
	)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(sessionService, queryService, documentService),
		DocumentController: controller.NewDocumentController(documentService),
		ConsumerService:    consumerService,
		Logger:             sysLogger,
	}
}
