package dashboard

import (
	"strings"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
)

const (
	pageLinks         = 5
	licenseKeyLength  = 22
	activityDetailLen = 50
	noDetails         = "No details"
	dateLayout        = "Jan 2, 2006"
	notSet            = "Not set"
)

// Options carries the configurable parts of the view model.
type Options struct {
	LicensesPerPage   int
	ActivitiesPerPage int
	Prices            Prices
	Policy            RevenuePolicy
}

// Query is what the operator asked to see.
type Query struct {
	Filter       license.Filter `form:"filter" json:"filter"`
	Search       string         `form:"search" json:"search"`
	LicensePage  int            `form:"page" json:"page"`
	ActivityPage int            `form:"activityPage" json:"activityPage"`
}

// Normalized clamps unknown filters to all and trims the search text.
func (q Query) Normalized() Query {
	q.Filter = license.ParseFilter(string(q.Filter))
	q.Search = strings.TrimSpace(q.Search)
	return q
}

type LicenseRow struct {
	Key             string         `json:"licenseKey"`
	ShortKey        string         `json:"shortKey"`
	CustomerName    string         `json:"customerName"`
	CustomerEmail   string         `json:"customerEmail"`
	Type            license.Type   `json:"type"`
	Status          license.Status `json:"status"`
	StatusClass     string         `json:"statusClass"`
	Activated       bool           `json:"activated"`
	Renewals        int            `json:"renewals"`
	Expires         string         `json:"expires"`
	DaysLeft        int            `json:"daysLeft"`
	DaysLeftDisplay string         `json:"daysLeftDisplay"`
	DaysLeftTone    license.Tone   `json:"daysLeftTone"`
	IsStripe        bool           `json:"isStripe"`
}

type ActivityRow struct {
	Type          activity.Type `json:"type"`
	Icon          string        `json:"icon"`
	Title         string        `json:"title"`
	Details       string        `json:"details"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	When          string        `json:"when"`
}

type Stats struct {
	Total         int `json:"totalLicenses"`
	Active        int `json:"activeLicenses"`
	Expired       int `json:"expiredLicenses"`
	Inactive      int `json:"inactiveLicenses"`
	Activated     int `json:"activatedLicenses"`
	Stripe        int `json:"stripeLicenses"`
	Manual        int `json:"manualLicenses"`
	ExpiringSoon  int `json:"expiringSoon"`
	TotalRenewals int `json:"totalRenewals"`
}

type FilterOption struct {
	Value    license.Filter `json:"value"`
	Label    string         `json:"label"`
	Selected bool           `json:"selected"`
}

// View is everything a dashboard page renders, derived from one snapshot.
type View struct {
	Query          Query          `json:"query"`
	Filters        []FilterOption `json:"-"`
	Licenses       []LicenseRow   `json:"licenses"`
	LicensePage    Page           `json:"licensePage"`
	LicenseLinks   Window         `json:"-"`
	Matching       int            `json:"matching"`
	Activities     []ActivityRow  `json:"activities"`
	ActivityPage   Page           `json:"activityPage"`
	ActivityLinks  Window         `json:"-"`
	Stats          Stats          `json:"stats"`
	Revenue        Revenue        `json:"revenue"`
	Degraded       bool           `json:"degraded"`
	Stale          bool           `json:"stale"`
	PendingDeletes []string       `json:"pendingDeletes,omitempty"`
	FetchedAt      time.Time      `json:"fetchedAt"`
}

// Build derives the view from a snapshot. Stats and revenue cover every
// license; the table shows the filtered, paginated subset.
func Build(s *snapshot.Snapshot, q Query, opts Options, now time.Time) *View {
	if s == nil {
		s = &snapshot.Snapshot{}
	}
	q = q.Normalized()

	selected := license.Select(s.Licenses, q.Filter, q.Search, now)
	lp := Paginate(len(selected), opts.LicensesPerPage, q.LicensePage)
	ap := Paginate(len(s.Activities), opts.ActivitiesPerPage, q.ActivityPage)
	q.LicensePage = lp.Current
	q.ActivityPage = ap.Current

	v := &View{
		Query:          q,
		Filters:        filterOptions(q.Filter),
		LicensePage:    lp,
		LicenseLinks:   lp.Numbers(pageLinks),
		Matching:       len(selected),
		ActivityPage:   ap,
		ActivityLinks:  ap.Numbers(pageLinks),
		Stats:          ComputeStats(s.Licenses, now),
		Revenue:        CalculateRevenue(s.Licenses, opts.Policy, opts.Prices, now),
		Degraded:       s.Degraded,
		PendingDeletes: s.Tombstones,
		FetchedAt:      s.FetchedAt,
	}

	page := Slice(selected, lp)
	v.Licenses = make([]LicenseRow, 0, len(page))
	for i := range page {
		v.Licenses = append(v.Licenses, NewLicenseRow(&page[i], now))
	}

	acts := Slice(s.Activities, ap)
	v.Activities = make([]ActivityRow, 0, len(acts))
	for i := range acts {
		v.Activities = append(v.Activities, NewActivityRow(&acts[i]))
	}
	return v
}

func NewLicenseRow(l *license.License, now time.Time) LicenseRow {
	status := l.StatusAt(now)
	daysLeft := l.DaysLeftAt(now)
	return LicenseRow{
		Key:             l.LicenseKey,
		ShortKey:        license.Truncate(l.LicenseKey, licenseKeyLength),
		CustomerName:    l.CustomerName,
		CustomerEmail:   l.CustomerEmail,
		Type:            l.Type(),
		Status:          status,
		StatusClass:     StatusClass(status),
		Activated:       l.IsActivated(),
		Renewals:        max(l.RenewalCount, 0),
		Expires:         FormatDate(l.ExpiresAt),
		DaysLeft:        daysLeft,
		DaysLeftDisplay: license.FormatDaysLeft(daysLeft),
		DaysLeftTone:    license.DaysLeftTone(daysLeft),
		IsStripe:        l.IsStripe(),
	}
}

func NewActivityRow(a *activity.Activity) ActivityRow {
	details := a.Details
	if details == "" {
		details = noDetails
	}
	return ActivityRow{
		Type:          a.Type,
		Icon:          a.Type.Icon(),
		Title:         a.Type.Title(),
		Details:       license.Truncate(details, activityDetailLen),
		CustomerEmail: a.CustomerEmail,
		When:          FormatDateTime(a.Timestamp),
	}
}

// ComputeStats counts over the unfiltered license list.
func ComputeStats(licenses []license.License, now time.Time) Stats {
	st := Stats{Total: len(licenses)}
	for i := range licenses {
		l := &licenses[i]
		switch l.StatusAt(now) {
		case license.StatusActive:
			st.Active++
			if d := l.DaysLeftAt(now); d >= 0 && d <= 7 {
				st.ExpiringSoon++
			}
		case license.StatusExpired:
			st.Expired++
		case license.StatusInactive:
			st.Inactive++
		}
		if l.IsActivated() {
			st.Activated++
		}
		if l.IsStripe() {
			st.Stripe++
		} else {
			st.Manual++
		}
		if l.RenewalCount > 0 {
			st.TotalRenewals += l.RenewalCount
		}
	}
	return st
}

// Details is the single-license page.
type Details struct {
	Row           LicenseRow      `json:"row"`
	License       license.License `json:"license"`
	Plan          license.Plan    `json:"plan"`
	Days          int             `json:"days"`
	Created       string          `json:"created"`
	LastRenewal   string          `json:"lastRenewal,omitempty"`
	LastValidated string          `json:"lastValidated,omitempty"`
	// Value is what the license has earned so far; zero for manual licenses.
	Value float64 `json:"value"`
}

func NewDetails(l *license.License, prices Prices, now time.Time) *Details {
	d := &Details{
		Row:     NewLicenseRow(l, now),
		License: *l,
		Plan:    l.Plan,
		Days:    l.Days,
		Created: FormatDateTime(l.CreatedAt),
	}
	if d.Plan == "" {
		d.Plan = license.PlanMonthly
	}
	if d.Days == 0 {
		d.Days = license.MonthlyDays
	}
	if l.LastRenewalAt != nil {
		d.LastRenewal = FormatDateTime(l.LastRenewalAt)
	}
	if l.LastValidated != nil {
		d.LastValidated = FormatDateTime(l.LastValidated)
	}
	if l.IsStripe() {
		price := prices.Monthly
		if l.IsYearly() {
			price = prices.Yearly
		}
		d.Value = roundCents(float64(max(l.RenewalCount, 0)+1) * price)
	}
	return d
}

func StatusClass(s license.Status) string {
	switch s {
	case license.StatusActive:
		return "status-active"
	case license.StatusExpired:
		return "status-expired"
	}
	return "status-inactive"
}

func FormatDate(t *time.Time) string {
	if t == nil {
		return notSet
	}
	return t.Format(dateLayout)
}

// FormatDateTime renders "Jan 2, 2006, 3pm" or "Jan 2, 2006, 3:04pm".
func FormatDateTime(t *time.Time) string {
	if t == nil {
		return notSet
	}
	clock := t.Format("3:04pm")
	clock = strings.Replace(clock, ":00", "", 1)
	return t.Format(dateLayout) + ", " + clock
}

func filterOptions(current license.Filter) []FilterOption {
	opts := make([]FilterOption, len(license.Filters))
	for i, f := range license.Filters {
		opts[i] = FilterOption{Value: f, Label: f.Label(), Selected: f == current}
	}
	return opts
}
