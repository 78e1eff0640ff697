package model

import "time"

// RunStatus tracks a verification run through its phases.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusSearching RunStatus = "searching"
	RunStatusVerifying RunStatus = "verifying"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one verification run as recorded in the store.
type Run struct {
	ID        string         `json:"id"`
	Request   ProductRequest `json:"request"`
	Status    RunStatus      `json:"status"`
	Result    *RunResult     `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RunResult summarizes a completed run.
type RunResult struct {
	CandidatesFound    int              `json:"candidates_found"`
	CandidatesVerified int              `json:"candidates_verified"`
	Manufacturers      int              `json:"manufacturers"`
	Traders            int              `json:"traders"`
	Unclear            int              `json:"unclear"`
	Suppliers          []SupplierRecord `json:"suppliers"`
}

// Tally recomputes the per-label counts from the supplier slice.
func (r *RunResult) Tally() {
	r.Manufacturers, r.Traders, r.Unclear = 0, 0, 0
	for _, s := range r.Suppliers {
		switch s.Verdict.Classification {
		case LabelManufacturer:
			r.Manufacturers++
		case LabelTrader:
			r.Traders++
		default:
			r.Unclear++
		}
	}
}
