// Package pipeline runs one verification end to end: build queries, discover
// candidate sites, read each site, extract evidence, classify, rank. Stages
// are injected as narrow interfaces so each can be replaced in tests; the
// concrete implementations live in internal/search, internal/scrape,
// internal/evidence and internal/classify.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/internal/query"
	"github.com/kulmaganbetov/china-factories-bot/internal/store"
)

// Discoverer finds candidate supplier sites for an ordered query list.
type Discoverer interface {
	Discover(ctx context.Context, queries []string) []model.SearchCandidate
}

// SiteExtractor reads one candidate site into a text corpus.
type SiteExtractor interface {
	Extract(ctx context.Context, candidate model.SearchCandidate) (*model.SiteCorpus, error)
}

// EvidenceExtractor derives the evidence record from a corpus.
type EvidenceExtractor interface {
	Extract(corpus *model.SiteCorpus) model.Evidence
}

// Classifier labels one candidate from its evidence.
type Classifier interface {
	Classify(ctx context.Context, req model.ProductRequest, candidate model.SearchCandidate, ev model.Evidence) model.Verdict
}

// Pipeline orchestrates a verification run.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	search     Discoverer
	sites      SiteExtractor
	evidence   EvidenceExtractor
	classifier Classifier
}

// New creates a Pipeline with all stage dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	search Discoverer,
	sites SiteExtractor,
	ev EvidenceExtractor,
	classifier Classifier,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		search:     search,
		sites:      sites,
		evidence:   ev,
		classifier: classifier,
	}
}

// Run creates a run record and executes it synchronously, returning the
// completed run. The product name is the only required input.
func (p *Pipeline) Run(ctx context.Context, req model.ProductRequest) (*model.Run, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, eris.New("pipeline: product name required")
	}

	run, err := p.store.CreateRun(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return p.Execute(ctx, run)
}

// Execute runs the phases for an already-created run record. The HTTP server
// and the bot create the record first so they can hand out its ID before the
// work finishes.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) (*model.Run, error) {
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("product", run.Request.Name))
	log.Info("pipeline: run starting")

	setStatus := func(status model.RunStatus) {
		run.Status = status
		if err := p.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
			log.Warn("pipeline: status update failed", zap.Error(err))
		}
	}

	setStatus(model.RunStatusSearching)
	queries := query.Build(run.Request, query.Options{
		IncludeMarketplaces: p.cfg.Search.IncludeMarketplaces,
	})
	candidates := p.search.Discover(ctx, queries)
	if err := ctx.Err(); err != nil {
		return p.fail(ctx, run, log, eris.Wrap(err, "pipeline: search phase"))
	}

	found := len(candidates)
	if limit := p.maxCandidates(); found > limit {
		log.Info("pipeline: capping candidates", zap.Int("found", found), zap.Int("cap", limit))
		candidates = candidates[:limit]
	}

	setStatus(model.RunStatusVerifying)
	records, err := p.verify(ctx, run.Request, candidates)
	if err != nil {
		return p.fail(ctx, run, log, err)
	}

	result := &model.RunResult{
		CandidatesFound:    found,
		CandidatesVerified: len(records),
		Suppliers:          Rank(records),
	}
	result.Tally()

	run.Result = result
	run.Status = model.RunStatusComplete
	if err := p.store.CompleteRun(context.WithoutCancel(ctx), run.ID, result); err != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(err))
	}

	log.Info("pipeline: run complete",
		zap.Int("found", found),
		zap.Int("verified", len(records)),
		zap.Int("manufacturers", result.Manufacturers),
		zap.Int("traders", result.Traders),
		zap.Int("unclear", result.Unclear),
	)
	return run, nil
}

// verify reads, extracts and classifies the candidates concurrently. A
// candidate whose site cannot be read is dropped with a warning; only a
// cancelled context aborts the whole phase.
func (p *Pipeline) verify(ctx context.Context, req model.ProductRequest, candidates []model.SearchCandidate) ([]model.SupplierRecord, error) {
	records := make([]*model.SupplierRecord, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			corpus, err := p.sites.Extract(gCtx, candidate)
			if err != nil {
				zap.L().Warn("pipeline: candidate dropped",
					zap.String("url", candidate.URL),
					zap.Error(err),
				)
				return nil
			}

			ev := p.evidence.Extract(corpus)
			verdict := p.classifier.Classify(gCtx, req, candidate, ev)
			records[i] = &model.SupplierRecord{
				Candidate: candidate,
				Evidence:  ev,
				Verdict:   verdict,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: verification interrupted")
	}

	out := make([]model.SupplierRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// fail records the outcome and returns the failed run. ctx is usually
// already cancelled on this path, so the store write gets a detached copy.
func (p *Pipeline) fail(ctx context.Context, run *model.Run, log *zap.Logger, err error) (*model.Run, error) {
	run.Status = model.RunStatusFailed
	run.Error = err.Error()
	if failErr := p.store.FailRun(context.WithoutCancel(ctx), run.ID, run.Error); failErr != nil {
		log.Warn("pipeline: fail-run update failed", zap.Error(failErr))
	}
	log.Error("pipeline: run failed", zap.Error(err))
	return run, err
}

func (p *Pipeline) maxCandidates() int {
	if n := p.cfg.Pipeline.MaxCandidates; n > 0 {
		return n
	}
	return 5
}

func (p *Pipeline) workers() int {
	if n := p.cfg.Pipeline.Workers; n > 0 {
		return n
	}
	return 3
}
