package app

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/butler"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/config"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/keyring"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/provider"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/scheduler"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store/kv"
)

// App holds every initialized component. Commands pull what they need from
// it instead of constructing their own.
type App struct {
	Config *config.Config

	KV        *kv.Store
	Jobs      *store.JobStore
	Persist   *store.PersistentStore
	Artifacts *store.ArtifactStore

	Keys      *keyring.Keyring
	Providers *provider.Registry
	Invoker   *provider.Invoker

	Analyzer  *butler.Analyzer
	Scheduler *scheduler.Scheduler
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if err := app.initStores(); err != nil {
		return nil, err
	}
	if err := app.initProviders(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initAnalyzer(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initScheduler()

	log.Debug("Application initialization complete.")
	return app, nil
}

// Close releases everything NewApp opened. The scheduler must already be
// stopped by the caller that started it.
func (a *App) Close() {
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			log.Errorf("Error closing data store: %v", err)
		}
	}
}

func (a *App) initStores() error {
	db, err := kv.NewStore(a.Config.DataDir)
	if err != nil {
		return fmt.Errorf("init data store: %w", err)
	}
	a.KV = db
	a.Jobs = store.NewJobStore()
	a.Persist = store.NewPersistentStore(db)
	a.Artifacts = store.NewArtifactStore(db)
	return nil
}

func (a *App) initProviders() error {
	a.Keys = keyring.New()
	a.Providers = provider.NewRegistry()

	for id, pc := range a.Config.Providers {
		a.Keys.SetKeys(id, pc.APIKeys)
		cfg := provider.Config{
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
			Version:     pc.Version,
		}
		switch id {
		case "openai":
			a.Providers.Register(provider.NewOpenAI(cfg))
		case "gemini":
			a.Providers.Register(provider.NewGemini(cfg))
		case "anthropic":
			a.Providers.Register(provider.NewAnthropic(cfg))
		default:
			log.Warnf("Ignoring unsupported provider %q in config", id)
		}
	}

	a.Invoker = provider.NewInvoker(a.Providers, a.Keys)
	return nil
}

func (a *App) initAnalyzer() error {
	id, pc, err := a.Config.ActiveProvider()
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}
	a.Analyzer = butler.NewAnalyzer(
		&butler.FileRepository{},
		a.Invoker,
		a.Artifacts,
		butler.AnalyzerConfig{
			ProviderID:       id,
			Model:            pc.Model,
			SystemPrompt:     a.Config.SystemPrompt(),
			TaskPrompt:       a.Config.TaskPrompt(),
			MaxDocumentChars: a.Config.Analysis.MaxDocumentChars,
		},
	)
	return nil
}

func (a *App) initScheduler() {
	a.Scheduler = scheduler.New(a.Jobs, a.Persist, a.Analyzer.WorkFunc(), scheduler.Config{
		Concurrency:  a.Config.Scheduler.Concurrency,
		BatchSize:    a.Config.Scheduler.BatchSize,
		PollInterval: time.Duration(a.Config.Scheduler.PollIntervalSeconds) * time.Second,
	})
}

func (a *App) cleanupPartialInit() {
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			log.Errorf("Error closing data store during cleanup: %v", err)
		}
	}
}
