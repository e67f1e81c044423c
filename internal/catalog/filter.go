// Package catalog filters, sorts and paginates product listings. Every
// function here is pure: inputs are never mutated and no state is shared.
package catalog

import (
	"math"
	"sort"
	"strings"

	"storefront/internal/models"
)

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortName      SortKey = "name"
)

// All is the sentinel meaning "no constraint" for category-like fields.
const All = "all"

// Descriptor holds the user-chosen constraints. Zero values mean "no
// constraint"; MinPrice/MaxPrice are pointers so that 0 can be a real bound.
type Descriptor struct {
	Category    string
	Subcategory string
	Gender      string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
	Colors      []string
	Sizes       []string
	Search      string
	Sort        SortKey
}

// Apply returns the products that satisfy every constraint in d, ordered by
// d.Sort. Filtering always happens before sorting.
func Apply(products []models.Product, d Descriptor) []models.Product {
	preds := d.predicates()

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matchesAll(&p, preds) {
			out = append(out, p)
		}
	}

	sortProducts(out, d.Sort)
	return out
}

type predicate func(p *models.Product) bool

func matchesAll(p *models.Product, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

func (d Descriptor) predicates() []predicate {
	var preds []predicate

	if active(d.Category) {
		preds = append(preds, func(p *models.Product) bool { return p.Category == d.Category })
	}
	if active(d.Subcategory) {
		preds = append(preds, func(p *models.Product) bool { return p.Subcategory == d.Subcategory })
	}
	if active(d.Gender) {
		preds = append(preds, func(p *models.Product) bool {
			return p.Gender == d.Gender || p.Gender == "unisex"
		})
	}
	if d.Brand != "" {
		brand := strings.ToLower(d.Brand)
		preds = append(preds, func(p *models.Product) bool {
			return strings.Contains(strings.ToLower(p.Brand), brand)
		})
	}
	if d.MinPrice != nil || d.MaxPrice != nil {
		lo, hi := d.priceBounds()
		preds = append(preds, func(p *models.Product) bool { return p.Price >= lo && p.Price <= hi })
	}
	if len(d.Colors) > 0 {
		preds = append(preds, func(p *models.Product) bool { return intersects(p.Colors, d.Colors) })
	}
	if len(d.Sizes) > 0 {
		preds = append(preds, func(p *models.Product) bool { return intersects(p.Sizes, d.Sizes) })
	}
	if term := strings.TrimSpace(d.Search); term != "" {
		term = strings.ToLower(term)
		preds = append(preds, func(p *models.Product) bool { return matchesSearch(p, term) })
	}

	return preds
}

// priceBounds returns the inclusive range. An inverted range stays inverted
// and therefore matches nothing.
func (d Descriptor) priceBounds() (float64, float64) {
	lo, hi := 0.0, math.Inf(1)
	if d.MinPrice != nil {
		lo = *d.MinPrice
	}
	if d.MaxPrice != nil {
		hi = *d.MaxPrice
	}
	return lo, hi
}

func active(v string) bool {
	return v != "" && v != All
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func matchesSearch(p *models.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// sortProducts orders in place; callers pass a slice they own. Ties keep
// their input order.
func sortProducts(products []models.Product, key SortKey) {
	var less func(a, b *models.Product) bool

	switch key {
	case SortPriceLow:
		less = func(a, b *models.Product) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b *models.Product) bool { return a.Price > b.Price }
	case SortRating:
		less = func(a, b *models.Product) bool { return a.Rating > b.Rating }
	case SortName:
		less = func(a, b *models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		// newest and unknown keys keep catalog order
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(&products[i], &products[j])
	})
}
