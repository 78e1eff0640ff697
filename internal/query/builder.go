// Package query turns a product request into search-engine queries. Building
// is pure: no network, no randomness, stable output order.
package query

import (
	"fmt"
	"strings"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// marketplaceSites are only used to widen discovery; results from these
// domains never survive the search adapter's exclusion filter.
var marketplaceSites = []string{"made-in-china.com", "alibaba.com"}

// Options control optional query families.
type Options struct {
	IncludeMarketplaces bool
}

// Build returns an ordered, deduplicated query list for the request, most
// specific first. The native-script queries use literal Chinese terms since
// search relevance depends on exact script matching.
func Build(req model.ProductRequest, opts Options) []string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil
	}

	queries := make([]string, 0, 8)
	if cas := strings.TrimSpace(req.CASNumber); cas != "" {
		queries = append(queries, fmt.Sprintf("%s CAS %s manufacturer China", name, cas))
	}
	queries = append(queries,
		fmt.Sprintf("%s manufacturer China", name),
		fmt.Sprintf("%s factory China supplier", name),
		fmt.Sprintf("%s 生产厂家 中国", name),
		fmt.Sprintf("%s 制造商", name),
		fmt.Sprintf("%s producer site:.cn", name),
	)
	if opts.IncludeMarketplaces {
		for _, site := range marketplaceSites {
			queries = append(queries, fmt.Sprintf("%s supplier site:%s", name, site))
		}
	}

	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
