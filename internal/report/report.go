// Package report renders completed runs: a JSON results document, an XLSX
// workbook for buyers who live in spreadsheets, and a plain-text summary for
// terminal output.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// Document is the JSON results file for one completed run.
type Document struct {
	Product         string                 `json:"product"`
	CASNumber       string                 `json:"cas_number,omitempty"`
	GeneratedAt     time.Time              `json:"generated_at"`
	TotalCandidates int                    `json:"total_candidates"`
	Suppliers       []model.SupplierRecord `json:"suppliers"`
}

// NewDocument assembles the results document from a finished run.
func NewDocument(req model.ProductRequest, result *model.RunResult) Document {
	doc := Document{
		Product:     req.Name,
		CASNumber:   req.CASNumber,
		GeneratedAt: time.Now().UTC(),
	}
	if result != nil {
		doc.TotalCandidates = result.CandidatesFound
		doc.Suppliers = result.Suppliers
	}
	if doc.Suppliers == nil {
		doc.Suppliers = []model.SupplierRecord{}
	}
	return doc
}

// WriteJSON writes the document to path, indented, UTF-8 as-is.
func WriteJSON(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal document")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// Summary renders a run result as readable text for terminal output.
func Summary(req model.ProductRequest, result *model.RunResult) string {
	var b strings.Builder

	product := req.Name
	if req.CASNumber != "" {
		product += " (CAS " + req.CASNumber + ")"
	}
	fmt.Fprintf(&b, "Supplier verification: %s\n", product)

	if result == nil {
		b.WriteString("No result recorded.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Candidates: %d found, %d verified\n", result.CandidatesFound, result.CandidatesVerified)
	fmt.Fprintf(&b, "Verdicts: %d manufacturer, %d trader, %d unclear\n\n",
		result.Manufacturers, result.Traders, result.Unclear)

	if len(result.Suppliers) == 0 {
		b.WriteString("No candidate supplier sites could be verified.\n")
		return b.String()
	}

	for i, s := range result.Suppliers {
		name := s.Candidate.Title
		if name == "" {
			name = s.Candidate.Domain
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		fmt.Fprintf(&b, "   %s\n", s.Candidate.URL)
		fmt.Fprintf(&b, "   %s (%d%%, %s)\n",
			s.Verdict.Classification, s.Verdict.Confidence, s.Verdict.Method)
		if s.Evidence.ProductionCapacity != "" {
			fmt.Fprintf(&b, "   Capacity: %s\n", s.Evidence.ProductionCapacity)
		}
		if len(s.Evidence.Certificates) > 0 {
			fmt.Fprintf(&b, "   Certificates: %s\n", strings.Join(s.Evidence.Certificates, ", "))
		}
		if s.Evidence.ContactInfo.Email != "" {
			fmt.Fprintf(&b, "   Email: %s\n", s.Evidence.ContactInfo.Email)
		}
		if s.Verdict.Reasoning != "" {
			fmt.Fprintf(&b, "   %s\n", s.Verdict.Reasoning)
		}
		b.WriteString("\n")
	}
	return b.String()
}
