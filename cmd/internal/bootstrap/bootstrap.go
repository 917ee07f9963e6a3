package bootstrap

import (
	"context"
	"os"

	"brandpulse/analyzer"
	"brandpulse/config"
	"brandpulse/fetcher"
	"brandpulse/gemini"
	"brandpulse/logger"
	"brandpulse/pipeline"
	"brandpulse/scraper"
	"brandpulse/store"
)

// App bundles the wired components shared by the entrypoints.
type App struct {
	Config       *config.AppConfig
	Log          logger.Logger
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
}

// New loads configuration and wires the whole pipeline. A missing Gemini
// key degrades the analyzer to lexical-only mode instead of failing.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadFromDir()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Logging.Level)

	var completer analyzer.Completer
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		client, cErr := gemini.NewClient(ctx, apiKey, cfg.Analysis.Model)
		if cErr != nil {
			log.Warnf("gemini client unavailable, falling back to lexical analysis: %v", cErr)
		} else {
			completer = client
		}
	} else {
		log.Warn("GEMINI_API_KEY is not set, falling back to lexical analysis")
	}

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var extractorOpts []scraper.Option
	for _, src := range cfg.Sources {
		if src.Render {
			extractorOpts = append(extractorOpts, scraper.WithRenderer(scraper.RenderHTML))
			break
		}
	}

	orch := pipeline.New(pipeline.Deps{
		Fetcher:    fetcher.New(cfg.Fetch, log),
		Extractor:  scraper.NewExtractor(cfg.Fetch, cfg.Sources, log, extractorOpts...),
		Classifier: analyzer.New(completer, cfg.Analysis, log),
		Store:      st,
		Config:     cfg,
		Log:        log,
	})

	return &App{Config: cfg, Log: log, Store: st, Orchestrator: orch}, nil
}

func newStore(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (store.Store, error) {
	if cfg.Storage.Backend == "mongo" {
		return store.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDBName, log)
	}
	return store.NewCSVStore(cfg.Storage.DataDir, log)
}
