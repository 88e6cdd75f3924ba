package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/eodhd"
	"github.com/ternarybob/stockstory/internal/handlers"
	"github.com/ternarybob/stockstory/internal/services/aggregator"
	"github.com/ternarybob/stockstory/internal/services/chat"
	"github.com/ternarybob/stockstory/internal/services/ledger"
	"github.com/ternarybob/stockstory/internal/services/llm"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/prices"
	"github.com/ternarybob/stockstory/internal/services/ranking"
	"github.com/ternarybob/stockstory/internal/services/scraper"
	"github.com/ternarybob/stockstory/internal/services/search"
	"github.com/ternarybob/stockstory/internal/services/session"
	"github.com/ternarybob/stockstory/internal/services/status"
	"github.com/ternarybob/stockstory/internal/services/story"
	"github.com/ternarybob/stockstory/internal/services/summary"
	"github.com/ternarybob/stockstory/internal/services/tools"
	"github.com/ternarybob/stockstory/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager *storage.Manager

	// Shared services
	Ledger     *ledger.Ledger
	LLMService *llm.Service
	Sessions   *session.Service
	Status     *status.Service

	// Price analysis
	Resolver  *prices.TickerResolver
	Segmenter *prices.Segmenter

	// News pipeline
	Browser      *scraper.Browser
	Orchestrator *pipeline.Orchestrator
	Composer     *story.Composer

	// Tools and conversation
	Toolset     *tools.Toolset
	Router      *tools.Router
	ChatService *chat.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	ChatHandler   *handlers.ChatHandler
	StoryHandler  *handlers.StoryHandler
	UsageHandler  *handlers.UsageHandler
	StatusHandler *handlers.StatusHandler
	SummaryHub    *handlers.SummaryHub
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// The hub is the pipeline's summary sink, so it exists before the services
	app.SummaryHub = handlers.NewSummaryHub(&cfg.WebSocket, logger)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Float64("significance_threshold", cfg.Pipeline.SignificanceThreshold).
		Strs("outlets", cfg.Scraper.Outlets).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the session store (Badger)
func (a *App) initDatabase() error {
	manager, err := storage.NewManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	a.Sessions = session.NewService(manager.SessionStorage(), a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Bool("in_memory", a.Config.Storage.InMemory).
		Msg("Storage layer initialized")
	return nil
}

// initServices builds the services in dependency order:
// ledger -> completion -> prices -> search/scrape -> rank/summarize -> orchestrator -> tools -> chat
func (a *App) initServices() error {
	cfg := a.Config

	a.Ledger = ledger.New()
	a.Status = status.NewService(a.Logger)
	a.LLMService = llm.NewService(cfg, a.Ledger, a.Logger)

	// Prices
	client := eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithMinInterval(cfg.EODHD.RateLimit.Duration),
		eodhd.WithHTTPClient(&http.Client{Timeout: cfg.EODHD.Timeout.Duration}),
		eodhd.WithLogger(a.Logger),
	)
	a.Resolver = prices.NewTickerResolver(a.LLMService, a.Logger)
	a.Segmenter = prices.NewSegmenter(eodhd.NewPriceProvider(client), a.Logger,
		prices.WithThreshold(cfg.Pipeline.SignificanceThreshold),
		prices.WithBackoff(retryBackoff(cfg.Pipeline)),
	)

	// Search
	serp := search.NewSerpClient(cfg.Search.APIKey, a.Logger,
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithTimeout(cfg.Search.Timeout.Duration),
	)
	planner := search.NewPlanner(serp, search.PlannerConfig{
		Num:     cfg.Search.Num,
		Pause:   cfg.Search.Pause.Duration,
		Domains: cfg.Scraper.Outlets,
	}, a.Logger)

	// Scrape
	a.Browser = scraper.NewBrowser(scraper.BrowserConfig{
		Headless:       cfg.Scraper.Headless,
		UserAgent:      cfg.Scraper.UserAgent,
		PageWait:       cfg.Scraper.PageWait.Duration,
		ConsentTimeout: cfg.Scraper.ConsentTimeout.Duration,
		Timeout:        cfg.Scraper.Timeout.Duration,
	}, a.Logger)
	registry := scraper.NewRegistry(a.Browser, scraper.NewCookieStore(cfg.Scraper.CookieDir), a.Ledger, a.Logger)

	// Rank, summarize, publish
	ranker := ranking.NewRanker(a.LLMService, ranking.Config{
		TopN:         cfg.Pipeline.TopN,
		ExcerptChars: cfg.Pipeline.ExcerptChars,
	}, a.Logger)
	summarizer := summary.NewSummarizer(a.LLMService, cfg.Pipeline.SummaryWords, a.Logger)

	a.Orchestrator = pipeline.NewOrchestrator(
		planner,
		aggregator.NewAggregator(registry, a.Logger),
		ranker,
		summarizer,
		a.SummaryHub,
		a.Logger,
		pipeline.WithObserver(a.Status.Observe),
		pipeline.WithRunObserver(a.Status),
	)
	a.Composer = story.NewComposer(a.LLMService, a.Logger)

	// Tools and conversation
	a.Toolset = tools.NewToolset(a.Resolver, a.Segmenter, a.Orchestrator, a.Composer, a.Ledger, a.Logger)
	a.Router = tools.NewRouter(a.Toolset, a.Logger)

	agent := chat.NewAgentLoop(a.LLMService, a.Router, cfg.Pipeline.SignificanceThreshold, nil, a.Logger)
	a.ChatService = chat.NewService(agent, a.Sessions, a.Ledger, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.Logger)
	a.StoryHandler = handlers.NewStoryHandler(a.Segmenter, a.Toolset, a.Logger)
	a.UsageHandler = handlers.NewUsageHandler(a.Ledger, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Status, a.SummaryHub, a.Logger)
}

// retryBackoff returns the configured waits, capped to FetchRetries entries
func retryBackoff(cfg common.PipelineConfig) []time.Duration {
	backoff := common.Durations(cfg.RetryBackoff)
	if cfg.FetchRetries >= 0 && cfg.FetchRetries < len(backoff) {
		backoff = backoff[:cfg.FetchRetries]
	}
	return backoff
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Browser != nil {
		a.Browser.Close()
		a.Logger.Info().Msg("Browser closed")
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	if a.Ledger != nil {
		usage := a.Ledger.Totals()
		a.Logger.Info().
			Int64("input_tokens", usage.InputTokens).
			Int64("output_tokens", usage.OutputTokens).
			Msg("Final token usage")
	}

	return nil
}
