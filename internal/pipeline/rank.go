package pipeline

import (
	"sort"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// Rank orders records for output: manufacturers first, then traders, then
// unclear; within a label, higher confidence first. The sort is stable, so
// records that tie on both keys keep their discovery order.
func Rank(records []model.SupplierRecord) []model.SupplierRecord {
	sort.SliceStable(records, func(i, j int) bool {
		ri := records[i].Verdict.Classification.Rank()
		rj := records[j].Verdict.Classification.Rank()
		if ri != rj {
			return ri < rj
		}
		return records[i].Verdict.Confidence > records[j].Verdict.Confidence
	})
	return records
}
