// Package area resolves merchant-typed delivery area names into a carrier's
// controlled area catalog.
package area

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/tournevent/courier/pkg/shipper"
)

const (
	minFuzzyScore = 0.5
	sampleSize    = 10

	scoreExact    = 1.0
	scoreContains = 0.8
)

// Area is one entry of a carrier's area catalog.
type Area struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	PostCode string `json:"post_code,omitempty"`
	District string `json:"district,omitempty"`
}

// Catalog lists a carrier's areas. An empty district means the whole catalog.
type Catalog interface {
	Areas(ctx context.Context, district string) ([]Area, error)
}

// Resolver matches free-text area names against a Catalog.
type Resolver struct {
	carrier string
	catalog Catalog
}

// NewResolver creates a resolver over catalog; carrier labels errors.
func NewResolver(carrier string, catalog Catalog) *Resolver {
	return &Resolver{carrier: carrier, catalog: catalog}
}

// Resolve finds the catalog area for query, looking inside the city's
// district first and then in the full catalog.
func (r *Resolver) Resolve(ctx context.Context, city, query string) (Area, error) {
	q := Normalize(query)
	if q == "" {
		return Area{}, shipper.AreaResolutionError(r.carrier,
			fmt.Sprintf("area %q is empty after normalization", query))
	}

	city = strings.TrimSpace(city)
	inCity, err := r.catalog.Areas(ctx, city)
	if err != nil {
		return Area{}, err
	}
	if a, ok := Match(q, inCity); ok {
		return a, nil
	}
	if city == "" {
		return Area{}, shipper.AreaResolutionError(r.carrier,
			fmt.Sprintf("no area matches %q; candidates: %s", query, sampleNames(inCity)))
	}

	all, err := r.catalog.Areas(ctx, "")
	if err != nil {
		return Area{}, err
	}
	if a, ok := Match(q, all); ok {
		return a, nil
	}

	return Area{}, shipper.AreaResolutionError(r.carrier,
		fmt.Sprintf("no area matches %q in %q; candidates: %s", query, city, sampleNames(inCity)))
}

// Match picks the best catalog entry for an already normalized query.
// Rules are applied across the whole catalog in order: exact, containment,
// then the best fuzzy score at or above 0.5.
func Match(q string, catalog []Area) (Area, bool) {
	names := make([]string, len(catalog))
	for i, a := range catalog {
		names[i] = Normalize(a.Name)
	}

	for i, n := range names {
		if n != "" && n == q {
			return catalog[i], true
		}
	}
	for i, n := range names {
		if n != "" && (strings.Contains(n, q) || strings.Contains(q, n)) {
			return catalog[i], true
		}
	}

	best, bestScore, bestDist := -1, 0.0, 0
	for i, n := range names {
		if n == "" {
			continue
		}
		s := Score(q, n)
		if s < minFuzzyScore {
			continue
		}
		d := levenshtein.ComputeDistance(q, n)
		if best < 0 || s > bestScore || (s == bestScore && d < bestDist) {
			best, bestScore, bestDist = i, s, d
		}
	}
	if best < 0 {
		return Area{}, false
	}
	return catalog[best], true
}

// Score rates how alike two normalized names are: 1 for equal, 0.8 when one
// contains the other, otherwise the share of the shorter name's characters
// that also occur in the longer one.
func Score(a, b string) float64 {
	switch {
	case a == b:
		return scoreExact
	case a == "" || b == "":
		return 0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return scoreContains
	}

	shorter, longer := []rune(a), b
	if len(shorter) > len([]rune(b)) {
		shorter, longer = []rune(b), a
	}
	hits, total := 0, 0
	for _, c := range shorter {
		if c == ' ' {
			continue
		}
		total++
		if strings.ContainsRune(longer, c) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// Normalize lowercases s, drops parenthetical parts and punctuation, and
// collapses whitespace: "Mohammadpur(Dhaka)" -> "mohammadpur".
func Normalize(s string) string {
	s = parenthetical.ReplaceAllString(strings.ToLower(s), " ")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func sampleNames(areas []Area) string {
	n := min(len(areas), sampleSize)
	if n == 0 {
		return "none"
	}
	names := make([]string, n)
	for i := range n {
		names[i] = areas[i].Name
	}
	return strings.Join(names, ", ")
}
