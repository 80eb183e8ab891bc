package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
)

var testOptions = Options{LicensesPerPage: 12, ActivitiesPerPage: 5, Prices: testPrices, Policy: PolicyPerRenewal}

func manyLicenses(n int, now time.Time) []license.License {
	out := make([]license.License, n)
	for i := range out {
		out[i] = license.License{
			LicenseKey:    fmt.Sprintf("KEY-%03d", i),
			CustomerEmail: fmt.Sprintf("user%d@example.com", i),
			Plan:          license.PlanTrial,
			Days:          7,
			IsActive:      i%2 == 0,
			ExpiresAt:     at(now.Add(3 * 24 * time.Hour)),
			IsManual:      true,
		}
	}
	return out
}

func TestBuildClampsPageAfterShrink(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s := &snapshot.Snapshot{Licenses: manyLicenses(30, now)}

	v := Build(s, Query{LicensePage: 3}, testOptions, now)
	if v.LicensePage.Current != 3 || len(v.Licenses) != 6 {
		t.Fatalf("page 3 of 30: got page %d with %d rows", v.LicensePage.Current, len(v.Licenses))
	}

	s.Licenses = s.Licenses[:13]
	v = Build(s, Query{LicensePage: 3}, testOptions, now)
	if v.LicensePage.Total != 2 || v.LicensePage.Current != 2 {
		t.Fatalf("expected clamp to page 2 of 2, got %d of %d", v.LicensePage.Current, v.LicensePage.Total)
	}
	if len(v.Licenses) != 1 || v.Licenses[0].Key != "KEY-012" {
		t.Fatalf("unexpected rows: %+v", v.Licenses)
	}
}

func TestBuildFiltersTableButNotStats(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s := &snapshot.Snapshot{Licenses: manyLicenses(10, now)}

	v := Build(s, Query{Filter: license.FilterInactive}, testOptions, now)
	if v.Matching != 5 || len(v.Licenses) != 5 {
		t.Fatalf("inactive filter: matching=%d rows=%d", v.Matching, len(v.Licenses))
	}
	for _, r := range v.Licenses {
		if r.Status != license.StatusInactive {
			t.Fatalf("row %s has status %s", r.Key, r.Status)
		}
	}
	if v.Stats.Total != 10 || v.Stats.Active != 5 || v.Stats.Inactive != 5 || v.Stats.ExpiringSoon != 5 {
		t.Fatalf("stats must cover every license: %+v", v.Stats)
	}
	if v.Stats.Manual != 10 || v.Stats.Stripe != 0 {
		t.Fatalf("unexpected type counts: %+v", v.Stats)
	}
}

func TestBuildUnknownFilterFallsBackToAll(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s := &snapshot.Snapshot{Licenses: manyLicenses(3, now)}
	v := Build(s, Query{Filter: "nope"}, testOptions, now)
	if v.Query.Filter != license.FilterAll || v.Matching != 3 {
		t.Fatalf("unexpected query %+v matching %d", v.Query, v.Matching)
	}
	selected := 0
	for _, f := range v.Filters {
		if f.Selected {
			selected++
			if f.Value != license.FilterAll {
				t.Fatalf("wrong filter selected: %s", f.Value)
			}
		}
	}
	if selected != 1 {
		t.Fatalf("exactly one filter option must be selected, got %d", selected)
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	v := Build(nil, Query{LicensePage: 4, ActivityPage: 9}, testOptions, time.Now())
	if v.LicensePage.Current != 1 || v.ActivityPage.Current != 1 {
		t.Fatalf("empty lists stay on page 1: %+v %+v", v.LicensePage, v.ActivityPage)
	}
	if len(v.Licenses) != 0 || len(v.Activities) != 0 {
		t.Fatalf("expected empty rows")
	}
}

func TestActivityRows(t *testing.T) {
	ts := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	long := "Created license for a customer with a very long explanation attached to it"
	s := &snapshot.Snapshot{Activities: []activity.Activity{
		{Type: activity.TypeLicenseCreated, Details: long, Timestamp: &ts},
		{Type: "license_validated"},
	}}
	v := Build(s, Query{}, testOptions, ts)
	if len(v.Activities) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(v.Activities))
	}
	first := v.Activities[0]
	if first.Icon != "fa-key" || first.Title != "License Created" || len([]rune(first.Details)) != 50 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.When != "Apr 1, 2026, 3pm" {
		t.Fatalf("unexpected timestamp format %q", first.When)
	}
	second := v.Activities[1]
	if second.Title != "Validation" || second.Details != "No details" {
		t.Fatalf("unexpected second row: %+v", second)
	}
}

func TestLicenseRowPresentation(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	l := license.License{
		LicenseKey:           "MONTH-SORV-ABC1-2345-6789-DEF0",
		Plan:                 license.PlanMonthly,
		IsActive:             true,
		ExpiresAt:            at(now.Add(5 * 24 * time.Hour)),
		StripeSubscriptionID: "sub_1",
		DeviceID:             "DEV",
	}
	r := NewLicenseRow(&l, now)
	if r.ShortKey != "MONTH-SORV-ABC1-234..." || r.Status != license.StatusActive || r.StatusClass != "status-active" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.DaysLeftDisplay != "5d left" || r.DaysLeftTone != license.ToneDanger || !r.Activated || r.Type != license.TypeStripe {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.Expires != "Apr 6, 2026" {
		t.Fatalf("unexpected expiry %q", r.Expires)
	}
}

func TestDetailsValue(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	stripe := license.License{LicenseKey: "S", Plan: license.PlanYearly, Days: 365, StripeSubscriptionID: "sub", RenewalCount: 1, LastRenewalAt: at(now)}
	if d := NewDetails(&stripe, testPrices, now); d.Value != 199.98 || d.LastRenewal == "" {
		t.Fatalf("unexpected details: %+v", d)
	}
	manual := license.License{LicenseKey: "M", IsManual: true}
	d := NewDetails(&manual, testPrices, now)
	if d.Value != 0 || d.Plan != license.PlanMonthly || d.Days != 30 {
		t.Fatalf("unexpected manual details: %+v", d)
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2026, 1, 9, 9, 5, 0, 0, time.UTC)
	if got := FormatDateTime(&ts); got != "Jan 9, 2026, 9:05am" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDateTime(nil); got != "Not set" {
		t.Fatalf("got %q", got)
	}
}
