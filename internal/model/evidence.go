package model

import "strings"

// Keyword tags record which vocabulary a matched term came from. Tagged
// keywords look like "manufacturer:own factory" or "trader:distributor".
const (
	KeywordTagManufacturer = "manufacturer"
	KeywordTagTrader       = "trader"
)

// ContactInfo holds at most one email and one phone found on a site.
// Absent fields stay empty; they are never defaulted.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Evidence is the structured signal record derived deterministically from a
// candidate's site text. All list fields are deduplicated and length-capped
// so downstream prompts stay bounded.
type Evidence struct {
	KeywordsFound       []string    `json:"keywords_found"`
	AddressIndicators   []string    `json:"address_indicators"`
	Certificates        []string    `json:"certificates"`
	ProductionCapacity  string      `json:"production_capacity,omitempty"`
	PackagingCapability []string    `json:"packaging_capability"`
	ContactInfo         ContactInfo `json:"contact_info"`
	ContentSample       string      `json:"content_sample,omitempty"`
}

// Empty reports whether no signal of any kind was extracted.
func (e Evidence) Empty() bool {
	return len(e.KeywordsFound) == 0 &&
		len(e.AddressIndicators) == 0 &&
		len(e.Certificates) == 0 &&
		e.ProductionCapacity == "" &&
		len(e.PackagingCapability) == 0 &&
		e.ContactInfo.Email == "" &&
		e.ContactInfo.Phone == ""
}

// CountKeywords returns how many found keywords carry the given tag.
func (e Evidence) CountKeywords(tag string) int {
	prefix := tag + ":"
	n := 0
	for _, kw := range e.KeywordsFound {
		if strings.HasPrefix(kw, prefix) {
			n++
		}
	}
	return n
}
