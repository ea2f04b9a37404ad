package product

import (
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
)

// Product is a catalog item as returned by the predictive database.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Tags     string  `json:"tags,omitempty"`
	Category string  `json:"category,omitempty"`
}

// FromHit converts a product hit. Missing fields stay zero.
func FromHit(h hit.Hit) Product {
	price, _ := h.Float("price")
	return Product{
		ID:       h.String("id"),
		Name:     h.String("name"),
		Price:    price,
		Tags:     h.String("tags"),
		Category: h.String("category"),
	}
}

// FromHits converts product hits, dropping those without an id.
func FromHits(hits []hit.Hit) []Product {
	out := make([]Product, 0, len(hits))
	for _, h := range hits {
		p := FromHit(h)
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NameContains reports a case-insensitive substring match on the name.
func (p Product) NameContains(s string) bool {
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(s))
}
