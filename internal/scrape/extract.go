package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// aboutVocab maps anchor keywords to the role of the page they lead to,
// checked in order with first match winning. Native-script terms catch
// Chinese-only navigation.
var aboutVocab = []struct {
	term string
	role model.PageRole
}{
	{"about", model.PageAbout},
	{"company", model.PageAbout},
	{"profile", model.PageAbout},
	{"关于", model.PageAbout},
	{"公司", model.PageAbout},
	{"products", model.PageProducts},
	{"产品", model.PageProducts},
}

// maxAnchorScan bounds how many anchors are inspected when looking for a
// secondary page link.
const maxAnchorScan = 50

var whitespaceRe = regexp.MustCompile(`\s+`)

// docText strips non-content elements and returns the page's visible text,
// whitespace-collapsed and truncated to budget characters. It removes nodes
// from doc, so anchor scanning must happen before calling it.
func docText(doc *goquery.Document, budget int) string {
	doc.Find("script, style, noscript, nav, footer, header").Remove()

	sel := doc.Find("body")
	var text string
	if sel.Length() > 0 {
		text = sel.Text()
	} else {
		text = doc.Text()
	}
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return truncate(text, budget)
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// secondaryLink scans the first maxAnchorScan anchors for an about/company
// or products link and resolves the first match against base. Only same-host
// targets qualify; the crawl never leaves the candidate's site.
func secondaryLink(doc *goquery.Document, base *url.URL) (model.PageRole, string, bool) {
	var (
		role  model.PageRole
		found string
	)
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxAnchorScan {
			return false
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lowHref := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lowHref, "javascript:") ||
			strings.HasPrefix(lowHref, "mailto:") ||
			strings.HasPrefix(lowHref, "tel:") {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		res := base.ResolveReference(ref)
		if res.Host != base.Host || (res.Scheme != "http" && res.Scheme != "https") {
			return true
		}
		res.Fragment = ""
		if res.String() == base.String() {
			return true
		}

		hay := lowHref + " " + strings.ToLower(s.Text())
		for _, v := range aboutVocab {
			if strings.Contains(hay, v.term) {
				role = v.role
				found = res.String()
				return false
			}
		}
		return true
	})
	return role, found, found != ""
}
