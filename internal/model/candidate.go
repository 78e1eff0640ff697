package model

// SearchCandidate is one accepted organic search result. URL is unique
// within a run; Domain is the registrable domain the adapter deduplicated
// on.
type SearchCandidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain"`
}

// PageRole identifies which page of a candidate site a text block came from.
type PageRole string

const (
	PageHomepage PageRole = "homepage"
	PageAbout    PageRole = "about"
	PageProducts PageRole = "products"
)

// SiteCorpus holds the extracted plain text for one candidate, keyed by
// page role, plus the capped aggregate used for evidence extraction. The
// corpus is discarded once evidence has been derived.
type SiteCorpus struct {
	URL       string              `json:"url"`
	Pages     map[PageRole]string `json:"pages"`
	Aggregate string              `json:"aggregate"`
}
