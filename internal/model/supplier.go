package model

// SupplierRecord ties a candidate to its evidence and verdict. Records are
// immutable once ranked; a run's output is an ordered slice of them.
type SupplierRecord struct {
	Candidate SearchCandidate `json:"candidate"`
	Evidence  Evidence        `json:"evidence"`
	Verdict   Verdict         `json:"verdict"`
}
