package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// xlsxColumns defines the ordered workbook columns.
var xlsxColumns = []string{
	"Rank",
	"Company",
	"Website",
	"Classification",
	"Confidence",
	"Method",
	"Production Capacity",
	"Certificates",
	"Email",
	"Phone",
	"Reasoning",
}

// WriteXLSX writes the document's suppliers to an XLSX workbook at path.
func WriteXLSX(path string, doc Document) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Suppliers")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxColumns {
		header.AddCell().Value = col
	}

	for i, s := range doc.Suppliers {
		row := sheet.AddRow()
		for _, cell := range buildXLSXRow(i+1, s) {
			row.AddCell().Value = cell
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// buildXLSXRow maps a supplier record to a workbook row, in column order.
func buildXLSXRow(rank int, s model.SupplierRecord) []string {
	name := s.Candidate.Title
	if name == "" {
		name = s.Candidate.Domain
	}
	return []string{
		strconv.Itoa(rank),
		name,
		s.Candidate.URL,
		string(s.Verdict.Classification),
		strconv.Itoa(s.Verdict.Confidence),
		string(s.Verdict.Method),
		s.Evidence.ProductionCapacity,
		strings.Join(s.Evidence.Certificates, ", "),
		s.Evidence.ContactInfo.Email,
		s.Evidence.ContactInfo.Phone,
		s.Verdict.Reasoning,
	}
}
