package license

import (
	"strings"
	"time"
)

type Filter string

const (
	FilterAll          Filter = "all"
	FilterActive       Filter = "active"
	FilterInactive     Filter = "inactive"
	FilterExpired      Filter = "expired"
	FilterMonthly      Filter = "monthly"
	FilterActivated    Filter = "activated"
	FilterNotActivated Filter = "not-activated"
)

var Filters = []Filter{
	FilterAll, FilterActive, FilterInactive, FilterExpired,
	FilterMonthly, FilterActivated, FilterNotActivated,
}

// ParseFilter maps unknown values to FilterAll.
func ParseFilter(s string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Filters {
		if f == known {
			return f
		}
	}
	return FilterAll
}

func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterInactive:
		return "Inactive"
	case FilterExpired:
		return "Expired"
	case FilterMonthly:
		return "Monthly"
	case FilterActivated:
		return "Activated"
	case FilterNotActivated:
		return "Not activated"
	}
	return "All"
}

func (f Filter) Matches(l *License, now time.Time) bool {
	switch f {
	case FilterActive:
		return l.StatusAt(now) == StatusActive
	case FilterInactive:
		return l.StatusAt(now) == StatusInactive
	case FilterExpired:
		return l.StatusAt(now) == StatusExpired
	case FilterMonthly:
		return l.IsMonthly()
	case FilterActivated:
		return l.IsActivated()
	case FilterNotActivated:
		return !l.IsActivated()
	}
	return true
}

// MatchesSearch is a case-insensitive substring match on key, email and name.
// An empty query matches everything.
func MatchesSearch(l *License, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.LicenseKey), q) ||
		strings.Contains(strings.ToLower(l.CustomerEmail), q) ||
		strings.Contains(strings.ToLower(l.CustomerName), q)
}

// Select returns the licenses matching both the filter and the search query,
// preserving order. The input slice is not modified.
func Select(licenses []License, filter Filter, query string, now time.Time) []License {
	out := make([]License, 0, len(licenses))
	for i := range licenses {
		l := &licenses[i]
		if filter.Matches(l, now) && MatchesSearch(l, query) {
			out = append(out, *l)
		}
	}
	return out
}
