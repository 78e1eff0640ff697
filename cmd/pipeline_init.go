package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/classify"
	"github.com/kulmaganbetov/china-factories-bot/internal/evidence"
	"github.com/kulmaganbetov/china-factories-bot/internal/pipeline"
	"github.com/kulmaganbetov/china-factories-bot/internal/scrape"
	"github.com/kulmaganbetov/china-factories-bot/internal/search"
	"github.com/kulmaganbetov/china-factories-bot/internal/store"
	"github.com/kulmaganbetov/china-factories-bot/pkg/llm"
	"github.com/kulmaganbetov/china-factories-bot/pkg/serpapi"
)

// pipelineEnv holds the opened store and assembled pipeline shared by the
// search/serve/bot commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured backend and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline wires every stage. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.RequireSearch(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	serpClient := serpapi.NewClient(cfg.SerpAPI.Key,
		serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
		serpapi.WithEngine(cfg.SerpAPI.Engine),
		serpapi.WithRateLimit(cfg.Search.RatePerSec),
	)
	adapter := search.NewAdapter(serpClient, cfg.Search)

	fetcher := scrape.NewHTTPFetcher(cfg.Scrape)
	sites := scrape.NewExtractor(fetcher, cfg.Scrape)

	vocab := evidence.DefaultVocabulary()
	if cfg.Evidence.VocabPath != "" {
		vocab, err = evidence.LoadVocabulary(cfg.Evidence.VocabPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load vocabulary")
		}
		zap.L().Info("vocabulary loaded", zap.String("path", cfg.Evidence.VocabPath))
	}
	ev := evidence.NewExtractor(vocab)

	// A missing model credential is not fatal: classification falls back to
	// the deterministic rules.
	var llmClient llm.Client
	if key := cfg.LLMKey(); key != "" {
		llmClient, err = llm.New(llm.Options{
			Provider: cfg.LLM.Provider,
			APIKey:   key,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	} else {
		zap.L().Warn("llm credential not set, classification runs rules-only")
	}
	classifier := classify.New(llmClient, cfg.LLM)

	p := pipeline.New(cfg, st, adapter, sites, ev, classifier)
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
