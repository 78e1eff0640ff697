// Package search filters raw organic search results into supplier
// candidates: one site per registrable domain, marketplaces and documents
// excluded, total count capped.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/pkg/serpapi"
)

// Adapter runs queries against the search provider and accepts candidates.
type Adapter struct {
	client     serpapi.Client
	maxQueries int
	maxResults int
	timeout    time.Duration
}

// NewAdapter wires a provider client with the run caps from cfg.
func NewAdapter(client serpapi.Client, cfg config.SearchConfig) *Adapter {
	return &Adapter{
		client:     client,
		maxQueries: cfg.MaxQueries,
		maxResults: cfg.MaxResults,
		timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

// Discover issues the queries in order (up to the query cap) and returns
// accepted candidates in query order, then provider order. A failed query is
// logged and skipped; all queries failing yields an empty slice, never an
// error, so the caller reports "no candidates found" instead of crashing.
func (a *Adapter) Discover(ctx context.Context, queries []string) []model.SearchCandidate {
	log := zap.L().With(zap.Int("queries", len(queries)))

	seen := make(map[string]struct{})
	candidates := make([]model.SearchCandidate, 0, a.maxResults)

	n := min(len(queries), a.maxQueries)
	for _, q := range queries[:n] {
		if len(candidates) >= a.maxResults || ctx.Err() != nil {
			break
		}

		qctx, cancel := context.WithTimeout(ctx, a.timeout)
		resp, err := a.client.Search(qctx, q, a.maxResults)
		cancel()
		if err != nil {
			log.Warn("search query failed", zap.String("query", q), zap.Error(err))
			continue
		}

		for _, r := range resp.OrganicResults {
			if len(candidates) >= a.maxResults {
				break
			}
			cand, ok := accept(r, seen)
			if !ok {
				continue
			}
			candidates = append(candidates, cand)
		}
	}

	log.Info("search complete", zap.Int("candidates", len(candidates)))
	return candidates
}

// accept applies the per-result filters: parseable URL, not a document
// link, registrable domain neither excluded nor already seen this run.
func accept(r serpapi.OrganicResult, seen map[string]struct{}) (model.SearchCandidate, bool) {
	link := strings.TrimSpace(r.Link)
	if link == "" || isDocumentURL(link) {
		return model.SearchCandidate{}, false
	}

	domain, err := RegistrableDomain(link)
	if err != nil {
		zap.L().Debug("skipping unparseable result", zap.String("link", link), zap.Error(err))
		return model.SearchCandidate{}, false
	}
	if Excluded(domain) {
		return model.SearchCandidate{}, false
	}
	if _, dup := seen[domain]; dup {
		return model.SearchCandidate{}, false
	}
	seen[domain] = struct{}{}

	return model.SearchCandidate{
		URL:     link,
		Title:   r.Title,
		Snippet: r.Snippet,
		Domain:  domain,
	}, true
}
