// Package reputation folds 6529 REP rating logs into per-category totals.
//
// Each counted log entry contributes its new_rating as a signed delta to
// the running total of its category. The category with the greatest total
// is the profile's headline reputation; ties keep the category seen first.
package reputation

import (
	"regexp"
	"strings"
)

// Entry is a single rating change as it matters for aggregation.
type Entry struct {
	Target       string // handle of the rated profile
	Category     string
	Delta        int64
	ChangeReason string
}

// Category is one category's running total.
type Category struct {
	Name  string
	Total int64
}

// Result holds category totals in first-seen order plus the winner.
type Result struct {
	Categories   []Category
	Highest      string
	HighestTotal int64
}

var (
	profileReason = regexp.MustCompile(`^Profile`)
	lineArtist    = regexp.MustCompile(`Line (\d+) Artist`)
)

// Counts reports whether e contributes to handle's reputation: it must
// target handle (case-insensitively), carry a category, and not be a
// profile-driven adjustment.
func Counts(e Entry, handle string) bool {
	if !strings.EqualFold(strings.TrimSpace(e.Target), strings.TrimSpace(handle)) {
		return false
	}
	if e.Category == "" {
		return false
	}
	return !profileReason.MatchString(e.ChangeReason)
}

// Aggregate folds entries for handle. An empty or fully filtered input
// yields a Result with no Highest.
func Aggregate(entries []Entry, handle string) Result {
	var res Result
	index := make(map[string]int)
	for _, e := range entries {
		if !Counts(e, handle) {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(res.Categories)
			index[e.Category] = i
			res.Categories = append(res.Categories, Category{Name: e.Category})
		}
		res.Categories[i].Total += e.Delta
	}

	for i, c := range res.Categories {
		if i == 0 || c.Total > res.HighestTotal {
			res.Highest = c.Name
			res.HighestTotal = c.Total
		}
	}
	return res
}

// Total returns the total for category, or 0 if it was never seen.
func (r Result) Total(category string) int64 {
	for _, c := range r.Categories {
		if c.Name == category {
			return c.Total
		}
	}
	return 0
}

// LineNumber returns the digits of the first "Line N Artist" category with
// a positive total, or "" if there is none.
func (r Result) LineNumber() string {
	for _, c := range r.Categories {
		if c.Total <= 0 {
			continue
		}
		if m := lineArtist.FindStringSubmatch(c.Name); m != nil {
			return m[1]
		}
	}
	return ""
}
