package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ParseDescriptor reads the listing query parameters. Anything malformed is
// dropped and treated as no constraint.
func ParseDescriptor(q url.Values) Descriptor {
	return Descriptor{
		Category:    strings.TrimSpace(q.Get("category")),
		Subcategory: strings.TrimSpace(q.Get("subcategory")),
		Gender:      strings.TrimSpace(q.Get("gender")),
		Brand:       strings.TrimSpace(q.Get("brand")),
		MinPrice:    parsePrice(q.Get("minPrice")),
		MaxPrice:    parsePrice(q.Get("maxPrice")),
		Colors:      parseList(q["color"]),
		Sizes:       parseList(q["size"]),
		Search:      firstNonEmpty(q.Get("search"), q.Get("q")),
		Sort:        SortKey(q.Get("sort")),
	}
}

// ParsePaging reads page and limit, falling back to 1 and DefaultPageSize.
func ParsePaging(q url.Values) (page, limit int) {
	page, limit = 1, DefaultPageSize
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseList accepts both repeated params and comma-separated values.
func parseList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
