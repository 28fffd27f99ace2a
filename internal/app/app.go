package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/handlers"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/services/artifacts"
	"github.com/ternarybob/narrato/internal/services/credits"
	"github.com/ternarybob/narrato/internal/services/events"
	"github.com/ternarybob/narrato/internal/services/hub"
	"github.com/ternarybob/narrato/internal/services/interpret"
	"github.com/ternarybob/narrato/internal/services/lifecycle"
	"github.com/ternarybob/narrato/internal/services/orchestrator"
	"github.com/ternarybob/narrato/internal/services/pipeline"
	"github.com/ternarybob/narrato/internal/services/render"
	"github.com/ternarybob/narrato/internal/services/scheduler"
	"github.com/ternarybob/narrato/internal/services/speech"
	"github.com/ternarybob/narrato/internal/services/webhook"
	badgerstorage "github.com/ternarybob/narrato/internal/storage/badger"
)

// App holds all application dependencies wired in initialization order
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService interfaces.EventService
	Hub          *hub.Hub
	Subscriber   *handlers.EventSubscriber

	// Job services
	CreditService *credits.Service
	Lifecycle     *lifecycle.Manager
	Interpreter   interfaces.ScriptInterpreter
	SpeechClient  *speech.Client
	RenderClient  *render.Client
	ArtifactStore *artifacts.Store
	Executor      *pipeline.Executor
	Pool          *pipeline.Pool
	Orchestrator  *orchestrator.Orchestrator
	Webhook       *webhook.Dispatcher
	Sweeper       *scheduler.Sweeper

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	JobHandler      *handlers.JobHandler
	CreditHandler   *handlers.CreditHandler
	ArtifactHandler *handlers.ArtifactHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Storage
	storageManager, err := badgerstorage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Event bus and push notification fan-out
	app.EventService = events.NewService(logger)
	app.Hub = hub.NewHub(logger)
	app.Subscriber = handlers.NewEventSubscriber(app.Hub, &cfg.WebSocket, logger)
	if err := app.Subscriber.Register(app.EventService); err != nil {
		return nil, fmt.Errorf("failed to register event subscriber: %w", err)
	}

	// Job lifecycle and admission control
	app.Lifecycle = lifecycle.NewManager(storageManager.JobStorage(), app.EventService, logger)
	app.CreditService = credits.NewService(storageManager.CreditStorage(), &cfg.Credits, logger)

	// Pipeline collaborators
	app.Interpreter, err = interpret.NewInterpreter(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize interpreter: %w", err)
	}

	ttsClient, err := parseTimeoutClient(cfg.TTS.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS timeout: %w", err)
	}
	app.SpeechClient, err = speech.NewClient(&cfg.TTS, ttsClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}

	rendererClient, err := parseTimeoutClient(cfg.Renderer.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid renderer timeout: %w", err)
	}
	app.RenderClient, err = render.NewClient(&cfg.Renderer, rendererClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize render client: %w", err)
	}

	app.ArtifactStore, err = artifacts.NewStore(storageManager.ArtifactStorage(), &cfg.Storage.Filesystem, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	// Pipeline execution
	app.Executor = pipeline.NewExecutor(
		app.Lifecycle,
		app.Interpreter,
		app.SpeechClient,
		app.RenderClient,
		app.ArtifactStore,
		&cfg.Pipeline,
		logger,
	)
	app.Pool = pipeline.NewPool(app.Executor, &cfg.Pipeline, logger)

	// Submission front door
	app.Orchestrator = orchestrator.NewOrchestrator(
		storageManager.JobStorage(),
		app.CreditService,
		app.Pool,
		&cfg.Credits,
		logger,
	)

	// Terminal outcome delivery
	webhookClient, err := parseTimeoutClient(cfg.Webhook.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook timeout: %w", err)
	}
	app.Webhook = webhook.NewDispatcher(&cfg.Webhook, webhookClient, logger)
	if err := app.Webhook.Register(app.EventService); err != nil {
		return nil, fmt.Errorf("failed to register webhook dispatcher: %w", err)
	}

	// Stale job sweeper
	app.Sweeper, err = scheduler.NewSweeper(storageManager.JobStorage(), app.Lifecycle, &cfg.Pipeline, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sweeper: %w", err)
	}
	app.Sweeper.Start()

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.JobHandler = handlers.NewJobHandler(app.Orchestrator, logger)
	app.CreditHandler = handlers.NewCreditHandler(app.CreditService, logger)
	app.ArtifactHandler = handlers.NewArtifactHandler(app.ArtifactStore, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.Hub, logger)

	logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Int("concurrency", cfg.Pipeline.Concurrency).
		Msg("Application initialization complete")

	return app, nil
}

// Close gracefully shuts down all services in reverse dependency order
func (a *App) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application...")

	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	if a.Pool != nil {
		done := make(chan struct{})
		go func() {
			a.Pool.Shutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.Logger.Warn().Msg("Shutdown deadline reached before pipeline drained")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service close failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}

func parseTimeoutClient(timeout string) (*http.Client, error) {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: d}, nil
}
