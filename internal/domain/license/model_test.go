package license

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T {
	return &v
}

func TestStatusDerivation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		lic  License
		want Status
	}{
		{"inactive ignores dates", License{IsActive: false, ExpiresAt: ptr(now.Add(48 * time.Hour))}, StatusInactive},
		{"inactive with past expiry", License{IsActive: false, ExpiresAt: ptr(now.Add(-48 * time.Hour))}, StatusInactive},
		{"active future expiry", License{IsActive: true, ExpiresAt: ptr(now.Add(5 * 24 * time.Hour))}, StatusActive},
		{"active expiring exactly now", License{IsActive: true, ExpiresAt: ptr(now)}, StatusActive},
		{"active past expiry", License{IsActive: true, ExpiresAt: ptr(now.Add(-24 * time.Hour))}, StatusExpired},
		{"active without expiry", License{IsActive: true}, StatusUnknown},
	}

	for _, tc := range cases {
		if got := tc.lic.StatusAt(now); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestDaysLeftScenario(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	live := License{IsActive: true, ExpiresAt: ptr(now.Add(5 * 24 * time.Hour))}
	if got := live.DaysLeftAt(now); got != 5 {
		t.Fatalf("days left: got %d want 5", got)
	}
	if got := FormatDaysLeft(live.DaysLeftAt(now)); got != "5d left" {
		t.Fatalf("display: got %q", got)
	}

	partial := License{IsActive: true, ExpiresAt: ptr(now.Add(30 * time.Hour))}
	if got := partial.DaysLeftAt(now); got != 2 {
		t.Fatalf("partial day should round up: got %d", got)
	}

	inactive := License{IsActive: false, ExpiresAt: ptr(now.Add(5 * 24 * time.Hour))}
	if got := inactive.DaysLeftAt(now); got != -1 {
		t.Fatalf("inactive days left: got %d", got)
	}
}

func TestFormatDaysLeft(t *testing.T) {
	cases := map[int]string{-1: "", 0: "Expires today", 1: "1 day left", 12: "12d left"}
	for in, want := range cases {
		if got := FormatDaysLeft(in); got != want {
			t.Fatalf("FormatDaysLeft(%d) = %q want %q", in, got, want)
		}
	}
	if DaysLeftTone(31) != ToneGood || DaysLeftTone(8) != ToneWarn || DaysLeftTone(0) != ToneDanger || DaysLeftTone(-1) != ToneMuted {
		t.Fatalf("unexpected tones")
	}
}

func TestTypeAndActivation(t *testing.T) {
	stripe := License{StripeSubscriptionID: "sub_1"}
	if stripe.Type() != TypeStripe {
		t.Fatalf("expected stripe type")
	}
	manualWithSub := License{StripeSubscriptionID: "sub_1", IsManual: true}
	if manualWithSub.Type() != TypeManual {
		t.Fatalf("manual flag must win over subscription id")
	}
	if (&License{DeviceID: "   "}).IsActivated() {
		t.Fatalf("blank device id must not count as activated")
	}
	if !(&License{DeviceID: "DEV-1"}).IsActivated() {
		t.Fatalf("device id should mark activation")
	}
}

func TestNormalizeRenewalCount(t *testing.T) {
	fresh := License{RenewalCount: 1}
	fresh.Normalize()
	if fresh.RenewalCount != 0 {
		t.Fatalf("first purchase should not count as renewal")
	}

	renewed := License{RenewalCount: 1, LastRenewalAt: ptr(time.Now())}
	renewed.Normalize()
	if renewed.RenewalCount != 1 {
		t.Fatalf("real renewal must be kept")
	}
}

func TestAllowedDurations(t *testing.T) {
	for _, d := range []int{3, 7, 30, 365} {
		if !IsAllowedDuration(d) {
			t.Fatalf("%d should be allowed", d)
		}
	}
	for _, d := range []int{0, 1, 14, 31, 366} {
		if IsAllowedDuration(d) {
			t.Fatalf("%d should be rejected", d)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 20); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("MONTH-SORV-ABC1-2345-6789-DEF0", 22); got != "MONTH-SORV-ABC1-234..." {
		t.Fatalf("got %q", got)
	}
}
