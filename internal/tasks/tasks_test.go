package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/sorvide-admin/internal/backend/backendtest"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

const serviceToken = "service-token"

var digestOpts = dashboard.Options{
	Prices: dashboard.Prices{Monthly: 9.99, Yearly: 99.99},
	Policy: dashboard.PolicyPerRenewal,
}

func at(now time.Time, d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestDigestPublishesGauges(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := backendtest.New(serviceToken)
	api.Licenses = []license.License{
		{LicenseKey: "A", IsActive: true, ExpiresAt: at(now, 20*24*time.Hour), Plan: license.PlanMonthly, StripeSubscriptionID: "sub_1", RenewalCount: 2, LastRenewalAt: at(now, -time.Hour)},
		{LicenseKey: "B", IsActive: true, ExpiresAt: at(now, 3*24*time.Hour), IsManual: true},
		{LicenseKey: "C", IsActive: true, ExpiresAt: at(now, -24*time.Hour)},
		{LicenseKey: "D", IsActive: false},
	}
	metrics := NewDigestMetrics(nil)
	h := NewDigestHandler(api, serviceToken, digestOpts, metrics, zap.NewNop())
	h.now = func() time.Time { return now }

	task, err := NewDashboardDigestTask()
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}

	checks := map[string]float64{"total": 4, "active": 2, "expired": 1, "expiring": 1}
	for state, want := range checks {
		if got := testutil.ToFloat64(metrics.licenses.WithLabelValues(state)); got != want {
			t.Fatalf("licenses{state=%q} = %v, want %v", state, got, want)
		}
	}
	if got := testutil.ToFloat64(metrics.revenue.WithLabelValues("monthly")); got != 9.99 {
		t.Fatalf("monthly revenue = %v", got)
	}
	if got := testutil.ToFloat64(metrics.revenue.WithLabelValues("lifetime")); got != 29.97 {
		t.Fatalf("lifetime revenue = %v", got)
	}
	if got := testutil.ToFloat64(metrics.updatedAt); got != float64(now.Unix()) {
		t.Fatalf("updatedAt = %v", got)
	}
}

func TestDigestWithoutTokenIsNoop(t *testing.T) {
	api := backendtest.New(serviceToken)
	h := NewDigestHandler(api, "", digestOpts, NewDigestMetrics(nil), zap.NewNop())
	task, _ := NewDashboardDigestTask()

	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if n := api.Count("ListLicenses"); n != 0 {
		t.Fatalf("backend must not be called without a token, got %d calls", n)
	}
}

func TestDigestBackendFailureIsRetried(t *testing.T) {
	api := backendtest.New(serviceToken)
	api.Fail("ListLicenses", ierr.ErrNetwork)
	h := NewDigestHandler(api, serviceToken, digestOpts, NewDigestMetrics(nil), zap.NewNop())
	task, _ := NewDashboardDigestTask()

	err := h.ProcessTask(context.Background(), task)
	if !errors.Is(err, ierr.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("backend failures must stay retryable")
	}
}

func TestDigestRejectsWrongTaskType(t *testing.T) {
	h := NewDigestHandler(backendtest.New(serviceToken), serviceToken, digestOpts, NewDigestMetrics(nil), zap.NewNop())
	if err := h.ProcessTask(context.Background(), asynq.NewTask(TypeAuditPrune, nil)); err == nil {
		t.Fatalf("expected error for foreign task type")
	}
}

type stubPruner struct {
	removed int64
	err     error
	calls   int
}

func (p *stubPruner) Prune(ctx context.Context) (int64, error) {
	p.calls++
	return p.removed, p.err
}

func TestAuditPrune(t *testing.T) {
	p := &stubPruner{removed: 3}
	h := NewAuditPruneHandler(p, zap.NewNop())
	task, err := NewAuditPruneTask()
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("pruner calls = %d", p.calls)
	}

	p.err = errors.New("db down")
	if err := h.ProcessTask(context.Background(), task); err == nil {
		t.Fatalf("expected prune failure to surface")
	}
}
