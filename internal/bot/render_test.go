package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

func supplier(title, url, domain string, verdict model.Verdict) model.SupplierRecord {
	return model.SupplierRecord{
		Candidate: model.SearchCandidate{URL: url, Title: title, Domain: domain},
		Verdict:   verdict,
	}
}

func TestRenderResults(t *testing.T) {
	mfr := supplier("Hualong Chemical Co., Ltd.", "https://www.hualongchem.com", "hualongchem.com", model.Verdict{
		Classification: model.LabelManufacturer,
		Confidence:     85,
		Reasoning:      "production facilities described on site",
		Method:         model.MethodLLM,
	})
	mfr.Evidence.ProductionCapacity = "50,000 MT per year"
	mfr.Evidence.Certificates = []string{"ISO 9001", "SGS"}

	trd := supplier("Sino Chem Trading", "https://sinochemtrade.com.cn", "sinochemtrade.com.cn", model.Verdict{
		Classification: model.LabelTrader,
		Confidence:     70,
		Reasoning:      "describes itself as a distributor",
		Method:         model.MethodRules,
	})

	out := renderResults([]model.SupplierRecord{mfr, trd})

	assert.Contains(t, out, "Найдено поставщиков: 2")
	assert.Contains(t, out, "🏭 <b>#1: Hualong Chemical Co., Ltd.</b>")
	assert.Contains(t, out, "Тип: ПРОИЗВОДИТЕЛЬ")
	assert.Contains(t, out, "Уверенность: 85%")
	assert.Contains(t, out, "🏗️ Мощность: 50,000 MT per year")
	assert.Contains(t, out, "📜 Сертификаты: ISO 9001, SGS")
	assert.Contains(t, out, `<a href="https://www.hualongchem.com">hualongchem.com</a>`)
	assert.Contains(t, out, "💡 production facilities described on site")
	assert.Contains(t, out, "🏢 <b>#2: Sino Chem Trading</b>")
	assert.Contains(t, out, "Тип: ТОРГОВАЯ КОМПАНИЯ")
	assert.Contains(t, out, "<i>Используйте /search для нового поиска</i>")
}

func TestRenderResults_UnclearBadge(t *testing.T) {
	rec := supplier("", "https://example.cn/page", "example.cn", model.Verdict{
		Classification: model.LabelUnclear,
		Confidence:     50,
		Method:         model.MethodRules,
	})

	out := renderResults([]model.SupplierRecord{rec})

	assert.Contains(t, out, "❓ <b>#1: example.cn</b>", "domain stands in for a missing title")
	assert.Contains(t, out, "Тип: НЕЯСНО")
	assert.NotContains(t, out, "Мощность")
	assert.NotContains(t, out, "Сертификаты")
}

func TestRenderResults_EscapesSiteText(t *testing.T) {
	rec := supplier("AB<C> & Co", "https://abc.cn", "abc.cn", model.Verdict{
		Classification: model.LabelManufacturer,
		Confidence:     60,
		Reasoning:      "claims <b>own</b> plant",
		Method:         model.MethodLLM,
	})

	out := renderResults([]model.SupplierRecord{rec})

	assert.Contains(t, out, "AB&lt;C&gt; &amp; Co")
	assert.Contains(t, out, "claims &lt;b&gt;own&lt;/b&gt; plant")
}

func TestRenderResults_TruncatesByRunes(t *testing.T) {
	longTitle := strings.Repeat("化", 80)
	rec := supplier(longTitle, "https://example.cn", "example.cn", model.Verdict{
		Classification: model.LabelManufacturer,
		Confidence:     60,
		Method:         model.MethodRules,
	})

	out := renderResults([]model.SupplierRecord{rec})

	assert.Contains(t, out, strings.Repeat("化", 60))
	assert.NotContains(t, out, strings.Repeat("化", 61))
}

func TestRenderResults_CapsCertificates(t *testing.T) {
	rec := supplier("Plant", "https://example.cn", "example.cn", model.Verdict{
		Classification: model.LabelManufacturer,
		Confidence:     60,
		Method:         model.MethodRules,
	})
	rec.Evidence.Certificates = []string{"ISO 9001", "ISO 14001", "SGS", "REACH", "GMP"}

	out := renderResults([]model.SupplierRecord{rec})

	assert.Contains(t, out, "Сертификаты: ISO 9001, ISO 14001, SGS")
	assert.NotContains(t, out, "REACH")
}

func TestRenderResults_Empty(t *testing.T) {
	assert.Equal(t, notFoundMessage, renderResults(nil))
}

func TestBuildSummary(t *testing.T) {
	full := buildSummary(model.ProductRequest{
		Name:      "Sulfuric Acid",
		CASNumber: "7664-93-9",
		Volume:    "100 MT",
		Packaging: "Drums",
	})
	assert.Contains(t, full, "🧪 Продукт: Sulfuric Acid")
	assert.Contains(t, full, "🔢 CAS: 7664-93-9")
	assert.Contains(t, full, "📊 Объём: 100 MT")
	assert.Contains(t, full, "📦 Упаковка: Drums")

	sparse := buildSummary(model.ProductRequest{Name: "Methanol"})
	assert.Contains(t, sparse, "🔢 CAS: не указан")
	assert.Contains(t, sparse, "📊 Объём: не указан")
	assert.Contains(t, sparse, "📦 Упаковка: не указана")
}
