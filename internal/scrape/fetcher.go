package scrape

import (
	"compress/gzip"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/retry"
)

// Browser-like headers; many supplier sites serve bot user agents an empty
// shell or a challenge page.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9,zh-CN,zh;q=0.8"
)

// Page is one fetched document, decoded to UTF-8.
type Page struct {
	URL      string // as requested
	FinalURL string // after redirects
	HTML     string
}

// Fetcher is the content source for site extraction. Production uses
// HTTPFetcher; tests supply an in-memory fake.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// HTTPFetcher fetches pages with per-host pacing and one retry on transient
// failures. Candidate sites are often slow or intermittently flaky; more
// than one retry is not worth the run time since a failed candidate is
// simply dropped.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
	hostRate     rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher builds the production fetcher from scrape config. Zero
// values get working defaults so a partially filled config still fetches.
func NewHTTPFetcher(cfg config.ScrapeConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 512 * 1024
	}
	hostRate := rate.Limit(cfg.HostRatePerSec)
	if hostRate <= 0 {
		hostRate = 1
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		maxBodyBytes: maxBody,
		hostRate:     hostRate,
		limiters:     make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the pacing limiter for host, creating it on first use.
// Hosts are not known before a run, so the map grows lazily.
func (f *HTTPFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.hostRate, 1)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch GETs rawURL and returns the page decoded to UTF-8. Non-2xx status,
// non-HTML content, and anti-bot interstitials are errors; the caller drops
// the candidate.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, eris.Errorf("scrape: invalid url %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("scrape: unsupported scheme %q in %s", u.Scheme, rawURL)
	}

	cfg := retry.Config{Attempts: 2, BaseDelay: time.Second, Op: "scrape fetch"}
	return retry.Do(ctx, cfg, func(ctx context.Context) (*Page, error) {
		return f.fetchOnce(ctx, u)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, u *url.URL) (*Page, error) {
	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "scrape: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: get %s", u)
	}
	defer func() { _ = resp.Body.Close() }()

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "scrape: gzip reader for %s", u)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	raw, err := io.ReadAll(io.LimitReader(body, f.maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: read body of %s", u)
	}

	// Block detection first: a challenged 403/503 is a dead end, not a
	// transient server error worth retrying.
	if kind := detectBlock(resp, raw); kind != blockNone {
		return nil, eris.Errorf("scrape: blocked (%s) at %s", kind, u)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Wrapf(&retry.StatusError{Code: resp.StatusCode}, "scrape: get %s", u)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, eris.Errorf("scrape: non-html content %q from %s", contentType, u)
	}

	html, err := decodeToUTF8(raw, contentType)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: decode %s", u)
	}

	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{URL: u.String(), FinalURL: finalURL, HTML: html}, nil
}

// isHTML accepts text/html and xhtml. Servers that omit the header get the
// benefit of the doubt; everything declared as something else is rejected.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// decodeToUTF8 converts the raw body using the declared or sniffed charset.
// Chinese supplier sites still commonly serve GBK or GB2312.
func decodeToUTF8(data []byte, contentType string) (string, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if utf8.Valid(data) {
			return string(data), nil
		}
		return "", eris.Wrap(err, "charset decode")
	}
	return string(decoded), nil
}
