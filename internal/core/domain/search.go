package domain

import (
	"sort"
	"strings"
)

// PersonSort selects the ordering of person search results.
type PersonSort string

// Available orderings.
const (
	// SortByName orders by full name, case-insensitively.
	SortByName PersonSort = "name"

	// SortByConfidence orders by confidence, highest first.
	SortByConfidence PersonSort = "confidence"

	// SortByOccurrences orders by occurrence count, highest first.
	SortByOccurrences PersonSort = "occurrences"
)

// IsValid returns true if the ordering is recognised.
func (s PersonSort) IsValid() bool {
	switch s {
	case SortByName, SortByConfidence, SortByOccurrences:
		return true
	default:
		return false
	}
}

// Default paging limits.
const (
	DefaultSearchLimit     = 200
	DefaultOccurrenceLimit = 1000
)

// PersonSearchFilters configures a person search.
type PersonSearchFilters struct {
	// CaseID restricts results to one case. Empty means all cases.
	CaseID string

	// Query matches case-insensitively as a substring of name, tax code,
	// address, city, email or phone.
	Query string

	HasTaxCode bool
	HasDOB     bool
	HasAddress bool
	HasTitle   bool

	// MinConfidence drops persons below this confidence.
	MinConfidence float64

	Sort   PersonSort
	Limit  int
	Offset int
}

// Normalized returns a copy with defaults applied.
func (f PersonSearchFilters) Normalized() PersonSearchFilters {
	if !f.Sort.IsValid() {
		f.Sort = SortByName
	}
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether a person satisfies the filters.
// Paging and ordering are not applied.
func (f PersonSearchFilters) Matches(p Person) bool {
	if f.CaseID != "" && p.CaseID != f.CaseID {
		return false
	}
	if f.HasTaxCode && p.TaxCode == "" {
		return false
	}
	if f.HasDOB && p.DOB == "" {
		return false
	}
	if f.HasAddress && p.Address == "" {
		return false
	}
	if f.HasTitle && len(p.Titles) == 0 {
		return false
	}
	if p.Confidence < f.MinConfidence {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, v := range []string{p.FullName, p.TaxCode, p.Address, p.City, p.Email, p.Phone} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// SortPersons orders persons in place. Ties fall back to name, then id.
func SortPersons(persons []Person, by PersonSort) {
	byName := func(a, b Person) bool {
		an, bn := strings.ToLower(a.FullName), strings.ToLower(b.FullName)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	}
	sort.SliceStable(persons, func(i, j int) bool {
		a, b := persons[i], persons[j]
		switch by {
		case SortByConfidence:
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
		case SortByOccurrences:
			if a.OccurrenceCount != b.OccurrenceCount {
				return a.OccurrenceCount > b.OccurrenceCount
			}
		}
		return byName(a, b)
	})
}
