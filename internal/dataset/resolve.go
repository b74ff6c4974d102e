package dataset

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// conceptPatterns maps business concepts to header substrings, checked
// in order. The first column whose name contains a pattern wins.
var conceptPatterns = []struct {
	concept  string
	patterns []string
}{
	{"customer", []string{"customer", "client", "user", "buyer", "name", "account"}},
	{"sales", []string{"sales", "revenue", "amount", "total", "value", "price", "cost"}},
	{"quantity", []string{"quantity", "qty", "count", "number", "orders"}},
	{"region", []string{"region", "location", "city", "state", "country", "area", "territory"}},
	{"category", []string{"category", "type", "class", "group", "segment", "product"}},
	{"date", []string{"date", "time", "created", "updated", "order_date", "purchase"}},
}

// conceptAliases maps user vocabulary to a concept key.
var conceptAliases = map[string]string{
	"customer": "customer", "customers": "customer", "client": "customer", "clients": "customer",
	"sales": "sales", "revenue": "sales", "amount": "sales", "total": "sales",
	"quantity": "quantity", "qty": "quantity", "count": "quantity", "orders": "quantity",
	"region": "region", "location": "region", "area": "region",
	"category": "category", "type": "category", "product": "category",
	"date": "date", "time": "date",
}

// SmartColumns identifies key business columns by name patterns.
// Returns concept → column name for every concept with a match.
func SmartColumns(f *Frame) map[string]string {
	names := f.ColumnNames()
	result := make(map[string]string)

	for _, cp := range conceptPatterns {
		for _, pattern := range cp.patterns {
			found := ""
			for _, name := range names {
				if strings.Contains(strings.ToLower(name), pattern) {
					found = name
					break
				}
			}
			if found != "" {
				result[cp.concept] = found
				break
			}
		}
	}

	return result
}

// Resolve maps a user-supplied term to an actual column name.
// Resolution order: exact match (case-insensitive), smart concept
// mapping, fuzzy match. Returns "" when nothing is close enough.
func Resolve(f *Frame, term string) string {
	if term == "" {
		return ""
	}
	lower := strings.ToLower(term)

	for _, name := range f.ColumnNames() {
		if strings.ToLower(name) == lower {
			return name
		}
	}

	if concept, ok := conceptAliases[lower]; ok {
		if col, ok := SmartColumns(f)[concept]; ok {
			return col
		}
	}

	best, score := closestMatch(f.ColumnNames(), term)
	if score >= 0.6 {
		return best
	}
	return ""
}

// Closest returns up to n column names similar to the given term,
// most similar first, for error suggestions.
func Closest(f *Frame, term string, n int) []string {
	type scored struct {
		name  string
		score float64
	}

	var candidates []scored
	for _, name := range f.ColumnNames() {
		s := similarity(name, term)
		if s >= 0.4 {
			candidates = append(candidates, scored{name, s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

func closestMatch(names []string, term string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, name := range names {
		if s := similarity(name, term); s > bestScore {
			best = name
			bestScore = s
		}
	}
	return best, bestScore
}

// similarity converts edit distance into a 0..1 score.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
