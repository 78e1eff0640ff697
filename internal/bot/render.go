package bot

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

const (
	maxCompanyRunes   = 60
	maxReasoningRunes = 100
	maxCertsShown     = 3
)

// renderResults formats ranked suppliers as one Telegram HTML message. All
// site-derived text is escaped; titles and reasoning are truncated so a
// five-supplier message stays under Telegram's 4096-character limit.
func renderResults(suppliers []model.SupplierRecord) string {
	if len(suppliers) == 0 {
		return notFoundMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Найдено поставщиков: %d</b>\n\n", len(suppliers))

	for i, s := range suppliers {
		icon, label := verdictBadge(s.Verdict.Classification)
		company := s.Candidate.Title
		if company == "" {
			company = s.Candidate.Domain
		}

		fmt.Fprintf(&b, "%s <b>#%d: %s</b>\n", icon, i+1, html.EscapeString(truncateRunes(company, maxCompanyRunes)))
		fmt.Fprintf(&b, "   Тип: %s\n", label)
		fmt.Fprintf(&b, "   Уверенность: %d%%\n", s.Verdict.Confidence)

		if s.Evidence.ProductionCapacity != "" {
			fmt.Fprintf(&b, "   🏗️ Мощность: %s\n", html.EscapeString(s.Evidence.ProductionCapacity))
		}
		if certs := s.Evidence.Certificates; len(certs) > 0 {
			if len(certs) > maxCertsShown {
				certs = certs[:maxCertsShown]
			}
			fmt.Fprintf(&b, "   📜 Сертификаты: %s\n", html.EscapeString(strings.Join(certs, ", ")))
		}

		fmt.Fprintf(&b, "   🔗 <a href=\"%s\">%s</a>\n", html.EscapeString(s.Candidate.URL), html.EscapeString(linkText(s.Candidate)))
		if s.Verdict.Reasoning != "" {
			fmt.Fprintf(&b, "   💡 %s\n", html.EscapeString(truncateRunes(s.Verdict.Reasoning, maxReasoningRunes)))
		}
		b.WriteString("\n")
	}

	b.WriteString("💡 <i>Используйте /search для нового поиска</i>")
	return b.String()
}

// buildSummary echoes the collected request before the search starts.
func buildSummary(req model.ProductRequest) string {
	return fmt.Sprintf(summaryFormat,
		html.EscapeString(req.Name),
		orPlaceholder(req.CASNumber, "не указан"),
		orPlaceholder(req.Volume, "не указан"),
		orPlaceholder(req.Packaging, "не указана"),
	)
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return html.EscapeString(v)
}

func verdictBadge(label model.Label) (icon, name string) {
	switch label {
	case model.LabelManufacturer:
		return "🏭", "ПРОИЗВОДИТЕЛЬ"
	case model.LabelTrader:
		return "🏢", "ТОРГОВАЯ КОМПАНИЯ"
	default:
		return "❓", "НЕЯСНО"
	}
}

func linkText(c model.SearchCandidate) string {
	if c.Domain != "" {
		return c.Domain
	}
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.URL
}

// truncateRunes cuts by runes so Chinese titles are never split mid-character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
