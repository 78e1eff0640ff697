// Package evidence derives a structured signal record from site text.
// Everything here is pure string work: the same corpus always yields the
// same evidence, which is what makes the rule fallback reproducible.
package evidence

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// maxListEntries caps every evidence list so classifier prompts stay
// bounded no matter how keyword-stuffed a site is.
const maxListEntries = 5

// sampleChars is how much corpus text survives into the evidence record.
const sampleChars = 500

// certPatterns are the certification markers worth reporting, keyed by
// their canonical display form. One entry per marker, so the output list
// is deduplicated by construction.
var certPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"ISO 9001", regexp.MustCompile(`(?i)ISO\s*9001`)},
	{"ISO 14001", regexp.MustCompile(`(?i)ISO\s*14001`)},
	{"SGS", regexp.MustCompile(`(?i)SGS`)},
	{"CIQ", regexp.MustCompile(`(?i)CIQ`)},
	{"GMP", regexp.MustCompile(`(?i)GMP`)},
	{"REACH", regexp.MustCompile(`(?i)REACH`)},
	{"production license", regexp.MustCompile(`(?i)production license`)},
}

var (
	capacityRe = regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*(MT|tons?|tonnes?)\s*(?:per|/)?\s*(year|annually)`)
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+|00)86[\s\-]?(?:\d[\s\-]?){9,11}\d`)
)

// Extractor scans corpus text against a vocabulary.
type Extractor struct {
	vocab Vocabulary
}

// NewExtractor builds an extractor. Vocabulary terms are normalized to
// lower case once here instead of on every scan.
func NewExtractor(vocab Vocabulary) *Extractor {
	return &Extractor{vocab: Vocabulary{
		Manufacturer: lowerTerms(vocab.Manufacturer),
		Trader:       lowerTerms(vocab.Trader),
		Address:      lowerTerms(vocab.Address),
		Packaging:    lowerTerms(vocab.Packaging),
	}}
}

func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Extract derives evidence from the corpus aggregate. It never fails:
// text with no signals yields a record with every field empty, and the
// classifier resolves that to unclear.
func (e *Extractor) Extract(corpus *model.SiteCorpus) model.Evidence {
	var ev model.Evidence
	if corpus == nil || strings.TrimSpace(corpus.Aggregate) == "" {
		return ev
	}

	// Fold full-width digits and Latin before matching so native-script
	// pages hit the same ASCII patterns. Ideographs are left alone.
	text := width.Narrow.String(corpus.Aggregate)
	lower := strings.ToLower(text)

	for _, term := range e.vocab.Manufacturer {
		if strings.Contains(lower, term) {
			ev.KeywordsFound = append(ev.KeywordsFound, model.KeywordTagManufacturer+":"+term)
		}
	}
	for _, term := range e.vocab.Trader {
		if strings.Contains(lower, term) {
			ev.KeywordsFound = append(ev.KeywordsFound, model.KeywordTagTrader+":"+term)
		}
	}

	for _, cp := range certPatterns {
		if cp.re.MatchString(text) {
			ev.Certificates = append(ev.Certificates, cp.name)
		}
	}

	// At most the first capacity figure; absence stays empty and is never
	// inferred from other signals.
	ev.ProductionCapacity = capacityRe.FindString(text)

	for _, term := range e.vocab.Address {
		if strings.Contains(lower, term) {
			ev.AddressIndicators = append(ev.AddressIndicators, term)
		}
	}
	for _, term := range e.vocab.Packaging {
		if strings.Contains(lower, term) {
			ev.PackagingCapability = append(ev.PackagingCapability, term)
		}
	}

	ev.ContactInfo.Email = emailRe.FindString(text)
	ev.ContactInfo.Phone = phoneRe.FindString(text)

	ev.KeywordsFound = capList(ev.KeywordsFound)
	ev.Certificates = capList(ev.Certificates)
	ev.AddressIndicators = capList(ev.AddressIndicators)
	ev.PackagingCapability = capList(ev.PackagingCapability)

	ev.ContentSample = clip(corpus.Aggregate, sampleChars)
	return ev
}

func capList(list []string) []string {
	if len(list) > maxListEntries {
		return list[:maxListEntries]
	}
	return list
}

// clip cuts s to at most n characters without splitting a rune.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
