package transaction

import (
	"sort"
)

// FilterState is the ephemeral view predicate selected by the user.
// Zero values mean "unset": an unset field imposes no constraint.
type FilterState struct {
	Month int    // 1-12, 0 = all months
	Year  int    // 0 = all years
	Type  string // "" = both types
}

// IsZero reports whether no filter field is set.
func (f FilterState) IsZero() bool {
	return f.Month == 0 && f.Year == 0 && f.Type == ""
}

// Matches reports whether t satisfies every set field of the filter.
// Month and year match against the transaction date, not the creation
// instant.
func (f FilterState) Matches(t Transaction) bool {
	if f.Month != 0 && int(t.Date.Month()) != f.Month {
		return false
	}
	if f.Year != 0 && t.Date.Year() != f.Year {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

// Filter returns a new slice with the transactions matching f, sorted by
// date descending (most recent first). The input is never mutated, and the
// sort is stable so equal dates keep their relative order. When the filter
// is entirely unset the predicate pass is skipped and only the ordering
// step applies.
func Filter(list []Transaction, f FilterState) []Transaction {
	out := make([]Transaction, 0, len(list))
	if f.IsZero() {
		out = append(out, list...)
	} else {
		for _, t := range list {
			if f.Matches(t) {
				out = append(out, t)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Years returns the distinct years present in the list, most recent first.
// Zero (invalid) dates are skipped. This feeds the year selector.
func Years(list []Transaction) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, t := range list {
		if t.Date.IsZero() {
			continue
		}
		y := t.Date.Year()
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
