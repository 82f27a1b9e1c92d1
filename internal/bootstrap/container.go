package bootstrap

import (
	"context"
	stdlog "log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ai-shopflow-be/internal/config"
	"ai-shopflow-be/internal/controller"
	"ai-shopflow-be/internal/pkg/logger"
	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/internal/repository/implementation"
	"ai-shopflow-be/internal/repository/memory"
	"ai-shopflow-be/internal/repository/redisrepo"
	"ai-shopflow-be/internal/service"
	"ai-shopflow-be/internal/websocket"
	"ai-shopflow-be/pkg/collaborator"
	"ai-shopflow-be/pkg/flow"
	"ai-shopflow-be/pkg/llm/decision"
	"ai-shopflow-be/pkg/llm/factory"

	pktNats "ai-shopflow-be/pkg/nats"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	HealthController  controller.IHealthController

	// WebSocket surface
	WebSocketHub        *websocket.Hub
	OrchestratorService service.IOrchestratorService
	LifecycleConsumer   service.ILifecycleConsumerService
}

// NewContainer wires the whole orchestrator. db may be nil; archival and the
// history API degrade gracefully without it.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (engine -> sockets)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS (lifecycle events, best effort)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Redis
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb = redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		stdlog.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. Session + checkpoint persistence
	var sessionRepo flow.SessionStore
	var checkpointRepo flow.CheckpointStore
	if cfg.Workflow.SessionBackend == "memory" {
		stdlog.Printf("[INFO] Using in-memory session backend")
		sessionRepo = memory.NewSessionRepository(cfg.Workflow.SessionTTL)
		checkpointRepo = memory.NewCheckpointRepository(cfg.Workflow.SessionTTL)
	} else {
		sessionRepo = redisrepo.NewSessionRepository(rdb, cfg.Workflow.SessionTTL)
		checkpointRepo = redisrepo.NewCheckpointRepository(rdb, cfg.Workflow.SessionTTL)
	}

	var archiveRepo contract.SessionArchiveRepository
	if db != nil {
		archiveRepo = implementation.NewSessionArchiveRepository(db)
	} else {
		stdlog.Printf("[WARN] No database configured; session archival disabled")
	}

	// 4. LLM Decision Port
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HFApiKey,
	)
	if err != nil {
		stdlog.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	stdlog.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	decider := decision.NewDecider(llmProvider, stdlog.Default())

	// 5. Collaborator clients
	mediaClient := collaborator.NewMediaClient(cfg.Collaborators.MediaBaseURL, stdlog.Default())
	catalogClient := collaborator.NewCatalogClient(cfg.Collaborators.SearchBaseURL, stdlog.Default())

	// 6. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, cfg.Workflow.MaxConnections, wsLogger)
	go wsHub.Run()

	busEmitter := service.NewBusEmitter(pubSub)
	busMessages, err := pubSub.Subscribe(context.Background(), service.SessionEventsTopic)
	if err != nil {
		stdlog.Fatalf("[FATAL] Failed to subscribe to session event bus: %v", err)
	}
	go wsHub.ConsumeBus(busMessages)

	// 7. Workflow engine
	engine := flow.NewEngine(flow.Deps{
		Sessions:          sessionRepo,
		Checkpoints:       checkpointRepo,
		Decider:           decider,
		Media:             mediaClient,
		Catalog:           catalogClient,
		Emitter:           busEmitter,
		Logger:            stdlog.Default(),
		MaxClarifications: cfg.Workflow.MaxClarifications,
	})

	// 8. Services
	orchestrator := service.NewOrchestratorService(engine, sessionRepo, archiveRepo, natsPub, busEmitter, sysLogger)
	sessionService := service.NewSessionService(sessionRepo, archiveRepo)
	healthService := service.NewHealthService(wsHub, map[string]service.HealthChecker{
		"media":  mediaClient,
		"search": catalogClient,
	})

	var lifecycleConsumer service.ILifecycleConsumerService
	if natsSub != nil {
		consumer := service.NewLifecycleConsumerService(natsSub, sysLogger)
		if err := consumer.Start(); err != nil {
			stdlog.Printf("[WARN] Lifecycle consumer failed to start: %v", err)
		} else {
			lifecycleConsumer = consumer
		}
	}

	// 9. Controllers
	return &Container{
		SessionController:   controller.NewSessionController(sessionService),
		HealthController:    controller.NewHealthController(healthService, lifecycleConsumer),
		WebSocketHub:        wsHub,
		OrchestratorService: orchestrator,
		LifecycleConsumer:   lifecycleConsumer,
	}
}
