package bootstrap

import (
	"context"
	"log"

	"concept-visualizer-be/internal/config"
	"concept-visualizer-be/internal/controller"
	"concept-visualizer-be/internal/handler"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/internal/repository/memory"
	"concept-visualizer-be/internal/service"
	"concept-visualizer-be/internal/websocket"
	"concept-visualizer-be/pkg/chatbot"
	"concept-visualizer-be/pkg/chunker"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/document"
	"concept-visualizer-be/pkg/formatter"
	"concept-visualizer-be/pkg/lifecycle"
	"concept-visualizer-be/pkg/llm"
	"concept-visualizer-be/pkg/llm/cache"
	"concept-visualizer-be/pkg/llm/factory"
	"concept-visualizer-be/pkg/render"

	pktNats "concept-visualizer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	VisualizationController controller.IVisualizationController
	DocumentController      controller.IDocumentController
	AssistantController     controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ProgressRelay service.IConsumerService

	// WebSockets
	SyncHandler  *handler.SyncHandler
	WebSocketHub *websocket.Hub

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL)

	var lifecycleSink lifecycle.EventSink
	var closers []func()
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			lifecycleSink = natsPub
			closers = append(closers, natsPub.Close)
		}
	}
	lifecycleEvents := lifecycle.NewSinkPublisher(lifecycleSink, sysLogger)

	var completionStore cache.Store
	if rdb != nil {
		completionStore = cache.NewRedisStore(rdb)
		log.Printf("[INFO] Using Redis completion cache")
	} else {
		completionStore = cache.NewMemoryStore(cfg.Ai.CacheTTL)
		log.Printf("[INFO] Using in-memory completion cache")
	}

	// 4. Collaborators
	newProvider := func(name, provider, model string) llm.LLMProvider {
		p, err := factory.NewLLMProvider(factory.Settings{
			Provider:      provider,
			Model:         model,
			GeminiAPIKey:  cfg.Keys.GoogleGemini,
			OpenAIAPIKey:  cfg.Keys.OpenAI,
			OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
			OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		})
		if err != nil {
			log.Printf("[WARN] Failed to initialize %s provider %s: %v", name, provider, err)
			return nil
		}
		log.Printf("[INFO] Using %s provider: %s (%s)", name, provider, model)
		return cache.NewCachedProvider(p, completionStore, provider+":"+model, cfg.Ai.CacheTTL, sysLogger)
	}

	extractionProvider := newProvider("extraction", cfg.Ai.ExtractionProvider, cfg.Ai.ExtractionModel)
	formatProvider := newProvider("formatting", cfg.Ai.FormatProvider, cfg.Ai.FormatModel)
	assistantProvider := newProvider("assistant", cfg.Ai.AssistantProvider, cfg.Ai.AssistantModel)
	if extractionProvider == nil || formatProvider == nil || assistantProvider == nil {
		log.Fatalf("[FATAL] Failed to initialize LLM providers, check API keys")
	}

	layout := render.Layout(cfg.Ai.RenderLayout)
	renderers := make(map[string]render.Renderer)
	if p := newProvider("gemini renderer", factory.ProviderGemini, cfg.Ai.GeminiRenderModel); p != nil {
		renderers[factory.ProviderGemini] = render.NewLLMRenderer(p, layout, sysLogger)
	}
	if p := newProvider("openai renderer", factory.ProviderOpenAI, cfg.Ai.OpenAIRenderModel); p != nil {
		renderers[factory.ProviderOpenAI] = render.NewLLMRenderer(p, layout, sysLogger)
	}
	if _, ok := renderers[cfg.Ai.DefaultRenderer]; !ok {
		log.Fatalf("[FATAL] Default renderer %q is not available", cfg.Ai.DefaultRenderer)
	}

	orchestrator := formatter.NewOrchestrator(
		formatter.NewChunkFormatter(formatProvider, sysLogger),
		chunker.Options{
			TargetParagraphs: cfg.Pipeline.TargetParagraphs,
			MaxParagraphs:    cfg.Pipeline.MaxParagraphs,
			RescueContext:    cfg.Pipeline.RescueContext,
		},
		cfg.Pipeline.FormatConcurrency,
		sysLogger,
	)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.SyncLogFilePath)
	wsHub := websocket.NewHub(rdb, conceptsync.Config{
		Throttle:          cfg.Sync.Throttle,
		SuppressionWindow: cfg.Sync.SuppressionWindow,
		Strategy:          conceptsync.ParseStrategy(cfg.Sync.Strategy),
	}, func(sessionID string) ([]int, bool) {
		sess, ok := sessionRepo.Get(sessionID)
		if !ok || len(sess.Concepts) == 0 {
			return nil, false
		}
		return sess.Positions(), true
	}, wsLogger)

	// 5. Services
	progressPublisher := service.NewProgressPublisher(pubSub, service.ProgressTopic)
	progressRelay := service.NewProgressRelay(pubSub, service.ProgressTopic, wsHub)

	visualizationService := service.NewVisualizationService(service.VisualizationDeps{
		Extractor:         concept.NewLLMExtractor(extractionProvider, sysLogger),
		Renderers:         renderers,
		DefaultModel:      cfg.Ai.DefaultRenderer,
		Formatter:         orchestrator,
		Sessions:          sessionRepo,
		Observer:          wsHub,
		Progress:          progressPublisher,
		Lifecycle:         lifecycleEvents,
		RenderConcurrency: cfg.Pipeline.RenderConcurrency,
		Logger:            sysLogger,
	})
	documentService := service.NewDocumentService(document.NewScraper(cfg.Pipeline.FetchTimeout, sysLogger), sysLogger)
	assistantService := service.NewAssistantService(chatbot.NewLLMAssistant(assistantProvider, sysLogger), sessionRepo, sysLogger)

	closers = append(closers, func() { _ = pubSub.Close() })
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
	}

	return &Container{
		VisualizationController: controller.NewVisualizationController(visualizationService),
		DocumentController:      controller.NewDocumentController(documentService),
		AssistantController:     controller.NewAssistantController(assistantService),
		ProgressRelay:           progressRelay,
		SyncHandler:             handler.NewSyncHandler(sessionRepo, wsHub, sysLogger),
		WebSocketHub:            wsHub,
		Logger:                  sysLogger,
		closers:                 closers,
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// connectRedis returns nil when no URL is configured or the server does not
// answer, so callers fall back to single-instance behaviour.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
