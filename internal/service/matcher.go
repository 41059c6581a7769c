package service

import (
	"strings"

	"inventorypro/internal/model"
)

// MinMatchScore is the lowest fuzzy score accepted by LookupProduct.
const MinMatchScore = 40

// Matcher scores how well a free-text query names a product, 0..100.
type Matcher interface {
	Score(query, name string) int
}

// TokenMatcher scores full containment (either direction) as 100 and
// otherwise the share of query tokens found among the name's tokens.
type TokenMatcher struct{}

func (TokenMatcher) Score(query, name string) int {
	q := normalize(query)
	n := normalize(name)
	if q == "" || n == "" {
		return 0
	}
	if strings.Contains(n, q) || strings.Contains(q, n) {
		return 100
	}

	qTokens := strings.Fields(q)
	nTokens := strings.Fields(n)
	matched := 0
	for _, qt := range qTokens {
		for _, nt := range nTokens {
			if strings.Contains(nt, qt) || strings.Contains(qt, nt) {
				matched++
				break
			}
		}
	}
	return 100 * matched / len(qTokens)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LookupProduct resolves query against catalog with the default TokenMatcher.
func LookupProduct(query string, catalog []model.Product) (*model.Product, error) {
	return LookupProductWith(TokenMatcher{}, query, catalog)
}

// LookupProductWith tries, in order: exact barcode, exact id, then the best
// fuzzy name match among in-stock products scoring at least MinMatchScore.
// Ties keep the first product in catalog order.
func LookupProductWith(m Matcher, query string, catalog []model.Product) (*model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNotFound
	}

	for i := range catalog {
		if catalog[i].Barcode != "" && catalog[i].Barcode == query {
			p := catalog[i]
			return &p, nil
		}
	}
	for i := range catalog {
		if strings.EqualFold(catalog[i].ID.String(), query) {
			p := catalog[i]
			return &p, nil
		}
	}

	best, bestScore := -1, 0
	for i := range catalog {
		if !catalog[i].InStock() {
			continue
		}
		if score := m.Score(query, catalog[i].Name); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < MinMatchScore {
		return nil, ErrNotFound
	}
	p := catalog[best]
	return &p, nil
}
