package catalog

import (
	"sort"

	"storefront/internal/models"
)

const DefaultPageSize = 12

type Page struct {
	Items      []models.Product `json:"products"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int              `json:"totalProducts"`
	TotalPages int              `json:"totalPages"`
}

// Paginate slices products using a 1-indexed page number. A page past the
// end yields an empty Items slice, never an error.
func Paginate(products []models.Product, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	total := len(products)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	result := Page{
		Items:      []models.Product{},
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}

	// Compared before multiplying so a huge page cannot overflow start.
	if page > pages {
		return result
	}
	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}

	result.Items = append(result.Items, products[start:end]...)
	return result
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Facets lists the values a client can filter the given products by.
type Facets struct {
	Categories []string   `json:"categories"`
	Brands     []string   `json:"brands"`
	Colors     []string   `json:"colors"`
	Sizes      []string   `json:"sizes"`
	PriceRange PriceRange `json:"priceRange"`
}

func BuildFacets(products []models.Product) Facets {
	categories := map[string]struct{}{}
	brands := map[string]struct{}{}
	colors := map[string]struct{}{}
	sizes := map[string]struct{}{}

	var pr PriceRange
	for i, p := range products {
		add(categories, p.Category)
		add(brands, p.Brand)
		for _, c := range p.Colors {
			add(colors, c)
		}
		for _, s := range p.Sizes {
			add(sizes, s)
		}

		if i == 0 || p.Price < pr.Min {
			pr.Min = p.Price
		}
		if i == 0 || p.Price > pr.Max {
			pr.Max = p.Price
		}
	}

	return Facets{
		Categories: keys(categories),
		Brands:     keys(brands),
		Colors:     keys(colors),
		Sizes:      keys(sizes),
		PriceRange: pr,
	}
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
