package scrape

import (
	"net/http"
	"strings"
)

// blockKind names the anti-bot wall a response hit.
type blockKind string

const (
	blockNone    blockKind = ""
	blockCDN     blockKind = "cdn_challenge"
	blockCaptcha blockKind = "captcha"
	blockShell   blockKind = "js_shell"
)

// Challenge pages are small; a full site that merely embeds a captcha
// widget on its contact form is well past this size.
const challengePageMax = 4096

// detectBlock spots anti-bot interstitials so the candidate is dropped
// instead of being classified from challenge-page text. Supplier sites sit
// behind Cloudflare or Aliyun WAF often enough that this is worth checking
// on every fetch.
func detectBlock(resp *http.Response, body []byte) blockKind {
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return blockCDN
		}
	}

	lower := strings.ToLower(string(body))

	for _, marker := range []string{
		"checking your browser",
		"cf-browser-verification",
		"attention required! | cloudflare",
	} {
		if strings.Contains(lower, marker) {
			return blockCDN
		}
	}

	if len(body) < challengePageMax {
		for _, marker := range []string{"captcha", "滑动验证", "安全验证"} {
			if strings.Contains(lower, marker) {
				return blockCaptcha
			}
		}
		// All-noscript bootstrap pages carry no server-rendered text.
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return blockShell
		}
	}

	return blockNone
}
