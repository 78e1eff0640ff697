package model

// Label is the three-way supplier classification.
type Label string

const (
	LabelManufacturer Label = "manufacturer"
	LabelTrader       Label = "trader"
	LabelUnclear      Label = "unclear"
)

// Valid reports whether l is one of the three known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelManufacturer, LabelTrader, LabelUnclear:
		return true
	}
	return false
}

// Rank orders labels for result ranking: manufacturers sort before traders,
// traders before unclear. Unknown labels sort last.
func (l Label) Rank() int {
	switch l {
	case LabelManufacturer:
		return 0
	case LabelTrader:
		return 1
	default:
		return 2
	}
}

// VerdictMethod records which classification path produced a verdict.
type VerdictMethod string

const (
	MethodLLM   VerdictMethod = "llm"
	MethodRules VerdictMethod = "rules"
)

// Verdict is the classification output for one candidate.
type Verdict struct {
	Classification Label         `json:"classification"`
	Confidence     int           `json:"confidence"`
	Reasoning      string        `json:"reasoning"`
	Method         VerdictMethod `json:"method"`
}
