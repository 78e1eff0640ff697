package model

// ProductRequest describes the product a buyer wants sourced. Name is the
// only required field; the rest are free-text context for queries and
// prompts. Requests are immutable for the lifetime of a run.
type ProductRequest struct {
	Name      string `json:"name"`
	CASNumber string `json:"cas_number,omitempty"`
	Purity    string `json:"purity,omitempty"`
	Volume    string `json:"volume,omitempty"`
	Packaging string `json:"packaging,omitempty"`
	Incoterm  string `json:"incoterm,omitempty"`
}
