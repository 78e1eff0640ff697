// Package scrape turns an accepted search candidate into a bounded
// plain-text corpus: the homepage plus at most one about/products page.
// Text budgets keep the corpus small enough for evidence extraction and a
// single model prompt regardless of how large the site is.
package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// Extractor builds a SiteCorpus per candidate through a pluggable Fetcher.
type Extractor struct {
	fetcher   Fetcher
	homepage  int
	secondary int
	total     int
}

// NewExtractor wires a fetcher with the text budgets from cfg. Zero budgets
// get the standard defaults.
func NewExtractor(f Fetcher, cfg config.ScrapeConfig) *Extractor {
	home := cfg.HomepageChars
	if home <= 0 {
		home = 5000
	}
	sec := cfg.SecondaryChars
	if sec <= 0 {
		sec = 3000
	}
	total := cfg.TotalChars
	if total <= 0 {
		total = 8000
	}
	return &Extractor{fetcher: f, homepage: home, secondary: sec, total: total}
}

// Extract fetches the candidate's homepage and at most one secondary page
// and returns their visible text. A homepage failure drops the candidate;
// a secondary failure degrades to a homepage-only corpus. The fetcher is
// called at most twice per candidate.
func (e *Extractor) Extract(ctx context.Context, candidate model.SearchCandidate) (*model.SiteCorpus, error) {
	page, err := e.fetcher.Fetch(ctx, candidate.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: homepage %s", candidate.URL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse %s", candidate.URL)
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(candidate.URL)
	}

	// Scan anchors before docText prunes the nav blocks the links live in.
	role, link, hasLink := secondaryLink(doc, base)

	homeText := docText(doc, e.homepage)
	if homeText == "" {
		return nil, eris.Errorf("scrape: no text on %s", candidate.URL)
	}

	corpus := &model.SiteCorpus{
		URL:   candidate.URL,
		Pages: map[model.PageRole]string{model.PageHomepage: homeText},
	}
	aggregate := homeText

	if hasLink {
		secText, err := e.fetchSecondary(ctx, link)
		switch {
		case err != nil:
			zap.L().Debug("secondary page skipped",
				zap.String("url", link),
				zap.Error(err),
			)
		case secText != "":
			corpus.Pages[role] = secText
			aggregate += "\n\n" + secText
		}
	}

	corpus.Aggregate = truncate(aggregate, e.total)
	return corpus, nil
}

// fetchSecondary is the one extra fetch a candidate gets.
func (e *Extractor) fetchSecondary(ctx context.Context, link string) (string, error) {
	page, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return "", err
	}
	return docText(doc, e.secondary), nil
}
