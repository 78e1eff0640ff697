// Package serpapi provides a client for the SerpAPI organic search API.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/kulmaganbetov/china-factories-bot/internal/retry"
)

const defaultBaseURL = "https://serpapi.com/search"

// Client defines the SerpAPI search operations.
type Client interface {
	// Search runs one organic web search and returns up to count results.
	Search(ctx context.Context, query string, count int) (*SearchResponse, error)
}

// SearchResponse is the parsed SerpAPI response. Fields beyond the organic
// results are ignored.
type SearchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
}

// OrganicResult is a single organic search hit.
type OrganicResult struct {
	Position int    `json:"position"`
	Link     string `json:"link"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Option configures the SerpAPI client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithEngine selects the search engine backend (default "google").
func WithEngine(engine string) Option {
	return func(c *httpClient) {
		c.engine = engine
	}
}

// WithRateLimit paces search calls to n requests per second.
func WithRateLimit(n float64) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	engine  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		engine:  "google",
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchReply carries the raw response through the retry loop so Search
// can report non-retryable statuses together with their body.
type searchReply struct {
	body   []byte
	status int
}

// retryDo executes an HTTP request, rerunning it on transient failures
// (retryable status, network error) with backoff. Non-retryable statuses
// come back as a reply, not an error.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) (searchReply, error) {
	cfg := retry.Config{Attempts: 3, BaseDelay: time.Second, Op: "serpapi search"}
	return retry.Do(ctx, cfg, func(ctx context.Context) (searchReply, error) {
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			return searchReply{}, eris.Wrap(err, "serpapi: do request")
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return searchReply{}, eris.Wrap(err, "serpapi: read response body")
		}

		reply := searchReply{body: body, status: resp.StatusCode}
		if se := (&retry.StatusError{Code: resp.StatusCode}); se.Transient() {
			return reply, eris.Wrap(se, "serpapi: search")
		}
		return reply, nil
	})
}

func (c *httpClient) Search(ctx context.Context, query string, count int) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "serpapi: rate limit wait")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: parse base url")
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(count))
	q.Set("engine", c.engine)
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	reply, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: request failed")
	}

	if reply.status != http.StatusOK {
		return nil, eris.Errorf("serpapi: unexpected status %d: %s", reply.status, string(reply.body))
	}

	var result SearchResponse
	if err := json.Unmarshal(reply.body, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}

	return &result, nil
}
