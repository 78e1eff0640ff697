package classify

import (
	"fmt"
	"strings"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// Rule weights and thresholds. This path is the authoritative fallback:
// the model is a best-effort enhancement, these numbers always produce a
// verdict. Note the margin: a side must beat the other by more than
// labelMargin or the verdict collapses to unclear, so a lone pair of
// trader keywords (score 20) is not enough to label a trader.
const (
	keywordWeight  = 10
	capacityWeight = 30
	addressWeight  = 20
	certWeight     = 10
	labelMargin    = 20
	maxRuleConf    = 90
	unclearConf    = 50
)

// classifyByRules derives a verdict from evidence alone. Deterministic:
// identical evidence yields an identical verdict, reasoning included.
func classifyByRules(ev model.Evidence) model.Verdict {
	mfrKeywords := ev.CountKeywords(model.KeywordTagManufacturer)
	traderKeywords := ev.CountKeywords(model.KeywordTagTrader)

	mfrScore := keywordWeight * mfrKeywords
	traderScore := keywordWeight * traderKeywords

	var signals []string
	if mfrKeywords > 0 {
		signals = append(signals, fmt.Sprintf("%d manufacturer keywords", mfrKeywords))
	}
	if traderKeywords > 0 {
		signals = append(signals, fmt.Sprintf("%d trader keywords", traderKeywords))
	}
	if ev.ProductionCapacity != "" {
		mfrScore += capacityWeight
		signals = append(signals, "production capacity stated")
	}
	if len(ev.AddressIndicators) > 0 {
		mfrScore += addressWeight
		signals = append(signals, "industrial address")
	}
	if len(ev.Certificates) > 0 {
		mfrScore += certWeight
		signals = append(signals, fmt.Sprintf("%d certificates", len(ev.Certificates)))
	}

	verdict := model.Verdict{Method: model.MethodRules}
	switch {
	case mfrScore > traderScore+labelMargin:
		verdict.Classification = model.LabelManufacturer
		verdict.Confidence = min(mfrScore, maxRuleConf)
	case traderScore > mfrScore+labelMargin:
		verdict.Classification = model.LabelTrader
		verdict.Confidence = min(traderScore, maxRuleConf)
	default:
		verdict.Classification = model.LabelUnclear
		verdict.Confidence = unclearConf
	}

	detail := "no extracted signals"
	if len(signals) > 0 {
		detail = strings.Join(signals, ", ")
	}
	verdict.Reasoning = fmt.Sprintf("rule scores manufacturer=%d trader=%d (%s)",
		mfrScore, traderScore, detail)
	return verdict
}
