package search

import (
	"net"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/publicsuffix"
)

// excludedDomains lists marketplaces, wikis, and social networks whose
// results are never supplier candidates.
var excludedDomains = []string{
	"alibaba.com",
	"made-in-china.com",
	"indiamart.com",
	"globalsources.com",
	"wikipedia.org",
	"linkedin.com",
}

// RegistrableDomain returns the dedupe key for a result URL: the effective
// TLD plus one label, so en.example.com.cn and www.example.com.cn collapse
// to the same company site. IP literals and unlisted hosts fall back to the
// bare host without a www prefix.
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "search: parse url %q", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", eris.Errorf("search: no host in url %q", rawURL)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www."), nil
	}
	return etld, nil
}

// Excluded reports whether the domain (or a parent of it) is on the fixed
// exclusion list.
func Excluded(domain string) bool {
	for _, blocked := range excludedDomains {
		if domain == blocked || strings.HasSuffix(domain, "."+blocked) {
			return true
		}
	}
	return false
}

// isDocumentURL reports whether the URL points straight at a document
// rather than a page worth scraping.
func isDocumentURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
