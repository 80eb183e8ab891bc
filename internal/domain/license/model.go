package license

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
	PlanTrial   Plan = "trial"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusExpired  Status = "Expired"
	StatusUnknown  Status = "Unknown"
)

type Type string

const (
	TypeManual Type = "MANUAL"
	TypeStripe Type = "STRIPE"
)

const (
	MonthlyDays = 30
	YearlyDays  = 365
)

// AllowedDurations are the plan lengths an operator may issue manually.
var AllowedDurations = []int{3, 7, 30, 365}

// License mirrors the record served by the backend's admin endpoints.
type License struct {
	LicenseKey           string     `json:"licenseKey"`
	CustomerEmail        string     `json:"customerEmail"`
	CustomerName         string     `json:"customerName,omitempty"`
	Plan                 Plan       `json:"plan,omitempty"`
	Days                 int        `json:"days,omitempty"`
	IsActive             bool       `json:"isActive"`
	CreatedAt            *time.Time `json:"createdAt,omitempty"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
	LastValidated        *time.Time `json:"lastValidated,omitempty"`
	LastRenewalAt        *time.Time `json:"lastRenewalAt,omitempty"`
	DeviceID             string     `json:"deviceId,omitempty"`
	DeviceName           string     `json:"deviceName,omitempty"`
	ValidationCount      int        `json:"validationCount"`
	RenewalCount         int        `json:"renewalCount"`
	IsManual             bool       `json:"isManual"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId,omitempty"`
	StripeCustomerID     string     `json:"stripeCustomerId,omitempty"`
}

// Normalize fixes records where a first purchase was counted as a renewal.
func (l *License) Normalize() {
	if l.RenewalCount == 1 && l.LastRenewalAt == nil {
		l.RenewalCount = 0
	}
}

func (l *License) StatusAt(now time.Time) Status {
	if !l.IsActive {
		return StatusInactive
	}
	if l.ExpiresAt == nil {
		return StatusUnknown
	}
	if l.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return StatusActive
}

// DaysLeftAt returns the whole days until expiry rounded up, or -1 when the
// license is inactive or has no expiry.
func (l *License) DaysLeftAt(now time.Time) int {
	if !l.IsActive || l.ExpiresAt == nil {
		return -1
	}
	days := l.ExpiresAt.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

func (l *License) IsActivated() bool {
	return strings.TrimSpace(l.DeviceID) != ""
}

func (l *License) Type() Type {
	if l.IsStripe() {
		return TypeStripe
	}
	return TypeManual
}

func (l *License) IsStripe() bool {
	return l.StripeSubscriptionID != "" && !l.IsManual
}

// IsMonthly treats a missing plan as monthly and a missing day count as 30.
func (l *License) IsMonthly() bool {
	plan := l.Plan
	if plan == "" {
		plan = PlanMonthly
	}
	days := l.Days
	if days == 0 {
		days = MonthlyDays
	}
	return plan == PlanMonthly || days == MonthlyDays
}

// BillsMonthly is the strict variant used for revenue: no defaults applied.
func (l *License) BillsMonthly() bool {
	return l.Plan == PlanMonthly || l.Days == MonthlyDays
}

func (l *License) IsYearly() bool {
	return l.Plan == PlanYearly || l.Days == YearlyDays
}

// IsLive reports an active license whose expiry is still ahead of now.
func (l *License) IsLive(now time.Time) bool {
	return l.IsActive && l.ExpiresAt != nil && l.ExpiresAt.After(now)
}

func IsAllowedDuration(days int) bool {
	for _, d := range AllowedDurations {
		if d == days {
			return true
		}
	}
	return false
}

func FormatDaysLeft(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return ""
	case daysLeft == 0:
		return "Expires today"
	case daysLeft == 1:
		return "1 day left"
	}
	return strconv.Itoa(daysLeft) + "d left"
}

type Tone string

const (
	ToneGood   Tone = "good"
	ToneWarn   Tone = "warn"
	ToneDanger Tone = "danger"
	ToneMuted  Tone = "muted"
)

func DaysLeftTone(daysLeft int) Tone {
	switch {
	case daysLeft > 30:
		return ToneGood
	case daysLeft > 7:
		return ToneWarn
	case daysLeft >= 0:
		return ToneDanger
	}
	return ToneMuted
}

func Truncate(text string, maxLength int) string {
	r := []rune(text)
	if len(r) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
