package evidence

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Vocabulary holds the term lists the extractor scans for. The built-in
// defaults cover the chemical-supplier domain in English and Chinese; a
// YAML file can replace individual lists for another vertical without a
// rebuild.
type Vocabulary struct {
	Manufacturer []string `yaml:"manufacturer"`
	Trader       []string `yaml:"trader"`
	Address      []string `yaml:"address"`
	Packaging    []string `yaml:"packaging"`
}

// DefaultVocabulary returns the built-in term lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Manufacturer: []string{
			"manufacturer", "factory", "plant", "production line",
			"workshop", "manufacturing facility", "own factory",
			"制造商", "工厂", "生产线", "车间", "生产厂家",
		},
		Trader: []string{
			"trading company", "import export", "sourcing",
			"agent", "distributor", "贸易公司", "进出口",
		},
		Address: []string{
			"industrial park", "development zone", "economic zone",
			"工业园区", "开发区",
		},
		Packaging: []string{
			"bulk", "iso tank", "tanker", "drum", "ibc", "jumbo bag",
			"桶装", "散装",
		},
	}
}

// LoadVocabulary reads term-list overrides from a YAML file under a
// top-level "vocabulary" key. Lists absent from the file keep their
// defaults, so a file can override a single list. An empty path returns
// the defaults; a read or parse failure returns the defaults along with
// the error so the caller can choose to continue.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return vocab, eris.Wrapf(err, "evidence: read vocabulary %s", path)
	}

	var file struct {
		Vocabulary Vocabulary `yaml:"vocabulary"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return vocab, eris.Wrapf(err, "evidence: parse vocabulary %s", path)
	}

	o := file.Vocabulary
	if len(o.Manufacturer) > 0 {
		vocab.Manufacturer = o.Manufacturer
	}
	if len(o.Trader) > 0 {
		vocab.Trader = o.Trader
	}
	if len(o.Address) > 0 {
		vocab.Address = o.Address
	}
	if len(o.Packaging) > 0 {
		vocab.Packaging = o.Packaging
	}
	return vocab, nil
}
