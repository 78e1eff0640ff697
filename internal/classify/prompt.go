package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

const systemPrompt = "You are an expert in Chinese chemical industry. Return only valid JSON."

const userPromptTemplate = `Analyze this Chinese chemical company and classify it.

Company: %s
Website: %s
Product context: %s

Extracted signals:
- Manufacturer keywords found: %s
- Trading keywords found: %s
- Certificates: %s
- Production capacity: %s
- Address indicators: %s
- Packaging capability: %s

Content sample (first 500 chars):
%s

Weight factory ownership, production capacity figures, and industrial
addresses over generic "supplier" or "leading company" wording.

Classify this company as:
- "manufacturer" if they own production facilities/factory
- "trader" if they are a trading/sourcing company without own production
- "unclear" if insufficient information

Return ONLY valid JSON with this structure:
{
  "classification": "manufacturer" | "trader" | "unclear",
  "confidence": <0-100>,
  "reasoning": "<1-2 sentences explaining the decision>"
}`

// buildUserPrompt embeds the evidence record, never the raw corpus; the
// content sample is the only page text the model sees.
func buildUserPrompt(candidate model.SearchCandidate, req model.ProductRequest, ev model.Evidence) string {
	product := strings.TrimSpace(req.Name)
	if req.CASNumber != "" {
		product += " (CAS " + req.CASNumber + ")"
	}

	capacity := ev.ProductionCapacity
	if capacity == "" {
		capacity = "Not mentioned"
	}

	return fmt.Sprintf(userPromptTemplate,
		orNone(candidate.Title),
		candidate.URL,
		orNone(product),
		joinOrNone(taggedTerms(ev.KeywordsFound, model.KeywordTagManufacturer)),
		joinOrNone(taggedTerms(ev.KeywordsFound, model.KeywordTagTrader)),
		joinOrNone(ev.Certificates),
		capacity,
		joinOrNone(ev.AddressIndicators),
		joinOrNone(ev.PackagingCapability),
		ev.ContentSample,
	)
}

// taggedTerms returns the keywords carrying the given tag, prefix stripped.
func taggedTerms(keywords []string, tag string) []string {
	prefix := tag + ":"
	var terms []string
	for _, kw := range keywords {
		if strings.HasPrefix(kw, prefix) {
			terms = append(terms, strings.TrimPrefix(kw, prefix))
		}
	}
	return terms
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

// parseVerdict decodes the model response strictly: exactly the three
// expected fields, a known label, confidence within range. Anything else is
// an error and the caller falls back to rules instead of trusting a
// half-read answer.
func parseVerdict(raw string) (model.Verdict, error) {
	text := cleanJSON(raw)

	var resp struct {
		Classification string `json:"classification"`
		Confidence     int    `json:"confidence"`
		Reasoning      string `json:"reasoning"`
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return model.Verdict{}, eris.Wrap(err, "classify: parse model response")
	}

	label := model.Label(strings.ToLower(strings.TrimSpace(resp.Classification)))
	if !label.Valid() {
		return model.Verdict{}, eris.Errorf("classify: invalid label %q", resp.Classification)
	}
	if resp.Confidence < 0 || resp.Confidence > 100 {
		return model.Verdict{}, eris.Errorf("classify: confidence %d out of range", resp.Confidence)
	}

	return model.Verdict{
		Classification: label,
		Confidence:     resp.Confidence,
		Reasoning:      strings.TrimSpace(resp.Reasoning),
		Method:         model.MethodLLM,
	}, nil
}

// cleanJSON extracts a JSON object from text that may carry markdown code
// fences or prose wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
