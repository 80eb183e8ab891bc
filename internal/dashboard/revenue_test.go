package dashboard

import (
	"testing"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

var testPrices = Prices{Monthly: 9.99, Yearly: 99.99}

func at(t time.Time) *time.Time { return &t }

func revenueFixture(now time.Time) []license.License {
	return []license.License{
		// Stripe monthly, live, renewed twice.
		{LicenseKey: "S-MONTH", Plan: license.PlanMonthly, Days: 30, IsActive: true,
			CreatedAt: at(now.Add(-45 * 24 * time.Hour)), ExpiresAt: at(now.Add(15 * 24 * time.Hour)),
			StripeSubscriptionID: "sub_1", RenewalCount: 2, LastRenewalAt: at(now.Add(-15 * 24 * time.Hour))},
		// Stripe monthly, deactivated.
		{LicenseKey: "S-OFF", Plan: license.PlanMonthly, Days: 30, IsActive: false,
			CreatedAt: at(now.Add(-20 * 24 * time.Hour)), ExpiresAt: at(now.Add(10 * 24 * time.Hour)),
			StripeSubscriptionID: "sub_2"},
		// Stripe yearly.
		{LicenseKey: "S-YEAR", Plan: license.PlanYearly, Days: 365, IsActive: true,
			CreatedAt: at(now.Add(-10 * 24 * time.Hour)), ExpiresAt: at(now.Add(355 * 24 * time.Hour)),
			StripeSubscriptionID: "sub_3"},
		// Manual monthly: excluded by the per-renewal policy.
		{LicenseKey: "M-MONTH", Plan: license.PlanMonthly, Days: 30, IsActive: true, IsManual: true,
			CreatedAt: at(now.Add(-10 * 24 * time.Hour)), ExpiresAt: at(now.Add(20 * 24 * time.Hour))},
		// Manual trial.
		{LicenseKey: "M-TRIAL", Plan: license.PlanTrial, Days: 7, IsActive: true, IsManual: true,
			CreatedAt: at(now.Add(-2 * 24 * time.Hour)), ExpiresAt: at(now.Add(5 * 24 * time.Hour))},
	}
}

func TestPerRenewalRevenue(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	r := CalculateRevenue(revenueFixture(now), PolicyPerRenewal, testPrices, now)

	// S-MONTH: 3 x 9.99, S-OFF: 9.99, S-YEAR: 99.99.
	if r.Lifetime != 139.95 {
		t.Fatalf("lifetime: got %.2f want 139.95", r.Lifetime)
	}
	if r.Monthly != 9.99 {
		t.Fatalf("monthly: got %.2f want 9.99", r.Monthly)
	}
	if r.TotalRenewals != 2 {
		t.Fatalf("renewals: got %d want 2", r.TotalRenewals)
	}
	if r.Policy != PolicyPerRenewal {
		t.Fatalf("unexpected policy %s", r.Policy)
	}
}

func TestManualLicensesDoNotAffectPerRenewalRevenue(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	manualOnly := []license.License{
		{LicenseKey: "M", Plan: license.PlanMonthly, Days: 30, IsActive: true, IsManual: true, StripeSubscriptionID: "sub_x", ExpiresAt: at(now.Add(time.Hour))},
	}
	r := CalculateRevenue(manualOnly, PolicyPerRenewal, testPrices, now)
	if r.Lifetime != 0 || r.Monthly != 0 {
		t.Fatalf("manual license counted: %+v", r)
	}
}

func TestAverageMonthLength(t *testing.T) {
	if want := time.Duration(30.44 * 24 * float64(time.Hour)); averageMonth != want {
		t.Fatalf("averageMonth = %v, want %v", averageMonth, want)
	}
}

func TestElapsedMonthsRevenue(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	created := now.Add(-time.Duration(2 * float64(averageMonth)))
	ls := []license.License{
		{LicenseKey: "M", Plan: license.PlanMonthly, IsActive: true, IsManual: true, CreatedAt: at(created), ExpiresAt: at(now.Add(24 * time.Hour))},
		{LicenseKey: "Y", Plan: license.PlanYearly, Days: 365, IsActive: true},
	}
	r := CalculateRevenue(ls, PolicyElapsedMonths, testPrices, now)
	if r.Lifetime != 119.97 {
		t.Fatalf("lifetime: got %.2f want 119.97", r.Lifetime)
	}
	if r.Monthly != 9.99 {
		t.Fatalf("monthly: got %.2f want 9.99", r.Monthly)
	}
}

func TestElapsedMonthsStopsAtExpiry(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	created := now.Add(-time.Duration(3 * float64(averageMonth)))
	expired := created.Add(averageMonth)
	ls := []license.License{{LicenseKey: "M", Plan: license.PlanMonthly, IsActive: true, CreatedAt: at(created), ExpiresAt: at(expired)}}
	r := CalculateRevenue(ls, PolicyElapsedMonths, testPrices, now)
	if r.Lifetime != 9.99 {
		t.Fatalf("lifetime: got %.2f want 9.99", r.Lifetime)
	}
	if r.Monthly != 0 {
		t.Fatalf("expired license must not count monthly: %.2f", r.Monthly)
	}
}

func TestRevenueIsPureAcrossPolicySwitches(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ls := revenueFixture(now)

	first := CalculateRevenue(ls, PolicyPerRenewal, testPrices, now)
	_ = CalculateRevenue(ls, PolicyElapsedMonths, testPrices, now)
	second := CalculateRevenue(ls, PolicyPerRenewal, testPrices, now)
	if first != second {
		t.Fatalf("same input gave different output: %+v vs %+v", first, second)
	}

	alone := CalculateRevenue(ls, PolicyElapsedMonths, testPrices, now)
	again := CalculateRevenue(ls, PolicyElapsedMonths, testPrices, now)
	if alone != again {
		t.Fatalf("elapsed policy not deterministic: %+v vs %+v", alone, again)
	}
}

func TestParseRevenuePolicy(t *testing.T) {
	if p, err := ParseRevenuePolicy(""); err != nil || p != PolicyPerRenewal {
		t.Fatalf("empty policy should default: %v %v", p, err)
	}
	if _, err := ParseRevenuePolicy("guess"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
