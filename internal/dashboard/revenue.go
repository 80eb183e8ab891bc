package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

type RevenuePolicy string

const (
	// PolicyPerRenewal counts one price per Stripe purchase plus one per
	// recorded renewal. Manual licenses never count. This is the default.
	PolicyPerRenewal RevenuePolicy = "per-renewal"
	// PolicyElapsedMonths integrates the monthly price over each monthly
	// license's elapsed active lifetime, manual licenses included.
	PolicyElapsedMonths RevenuePolicy = "elapsed-months"
)

// averageMonth is 30.44 days.
const averageMonth = 730*time.Hour + 33*time.Minute + 36*time.Second

func ParseRevenuePolicy(s string) (RevenuePolicy, error) {
	switch RevenuePolicy(s) {
	case PolicyPerRenewal, "":
		return PolicyPerRenewal, nil
	case PolicyElapsedMonths:
		return PolicyElapsedMonths, nil
	}
	return "", fmt.Errorf("unknown revenue policy %q", s)
}

type Prices struct {
	Monthly float64
	Yearly  float64
}

type Revenue struct {
	Policy        RevenuePolicy `json:"policy"`
	Monthly       float64       `json:"monthlyRevenue"`
	Lifetime      float64       `json:"lifetimeRevenue"`
	TotalRenewals int           `json:"totalRenewals"`
}

// CalculateRevenue is a pure fold over licenses.
func CalculateRevenue(licenses []license.License, policy RevenuePolicy, prices Prices, now time.Time) Revenue {
	var r Revenue
	switch policy {
	case PolicyElapsedMonths:
		r = elapsedMonths(licenses, prices, now)
	default:
		policy = PolicyPerRenewal
		r = perRenewal(licenses, prices, now)
	}
	r.Policy = policy
	r.Monthly = roundCents(r.Monthly)
	r.Lifetime = roundCents(r.Lifetime)
	return r
}

func perRenewal(licenses []license.License, prices Prices, now time.Time) Revenue {
	var r Revenue
	for i := range licenses {
		l := &licenses[i]
		if !l.IsStripe() {
			continue
		}
		switch {
		case l.BillsMonthly():
			renewals := l.RenewalCount
			if renewals < 0 {
				renewals = 0
			}
			r.Lifetime += prices.Monthly * float64(1+renewals)
			r.TotalRenewals += renewals
			if l.IsLive(now) {
				r.Monthly += prices.Monthly
			}
		case l.IsYearly():
			r.Lifetime += prices.Yearly
		}
	}
	return r
}

func elapsedMonths(licenses []license.License, prices Prices, now time.Time) Revenue {
	var r Revenue
	for i := range licenses {
		l := &licenses[i]
		if l.RenewalCount > 0 {
			r.TotalRenewals += l.RenewalCount
		}
		switch {
		case l.BillsMonthly():
			if l.CreatedAt != nil {
				end := now
				if l.ExpiresAt != nil && l.ExpiresAt.Before(end) {
					end = *l.ExpiresAt
				}
				if elapsed := end.Sub(*l.CreatedAt); elapsed > 0 {
					r.Lifetime += prices.Monthly * (float64(elapsed) / float64(averageMonth))
				}
			}
			if l.IsLive(now) {
				r.Monthly += prices.Monthly
			}
		case l.IsYearly():
			r.Lifetime += prices.Yearly
		}
	}
	return r
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
