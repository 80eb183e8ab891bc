package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/backend/backendtest"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"github.com/makkenzo/sorvide-admin/internal/storage/memstorage"
	"go.uber.org/zap"
)

const (
	testPassword = "admin-secret"
	cookieName   = "sorvide_admin_session"
)

type testApp struct {
	api    *backendtest.Fake
	router *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	api := backendtest.New(testPassword)
	expires := time.Now().Add(20 * 24 * time.Hour)
	api.Licenses = []license.License{
		{LicenseKey: "SORV-AAAA-1111", CustomerEmail: "alice@example.com", CustomerName: "Alice", Plan: license.PlanMonthly, Days: 30, IsActive: true, ExpiresAt: &expires, StripeSubscriptionID: "sub_1"},
		{LicenseKey: "SORV-BBBB-2222", CustomerEmail: "bob@example.com", IsActive: true, IsManual: true, ExpiresAt: &expires},
	}

	sessionCfg := &config.SessionConfig{Lifetime: 8 * time.Hour, CookieName: cookieName, Issuer: "sorvide-admin"}
	sessions := memstorage.NewSessionStore()
	snapshots := memstorage.NewSnapshotStore()
	notifier := service.NewNotifier(memstorage.NewNotificationStore(), &config.NotificationConfig{
		DefaultDuration: 3 * time.Second,
		FadeOut:         300 * time.Millisecond,
		PendingTTL:      time.Hour,
	}, logger)
	auditService := service.NewAuditService(memstorage.NewAuditStore(), &config.AuditConfig{PageSize: 50}, logger)
	authService := service.NewAuthService(api, sessions, snapshots, notifier, auditService, sessionCfg, &config.AuthConfig{}, []byte("0123456789abcdef0123456789abcdef"), logger)
	dashboardService, err := service.NewDashboardService(api, snapshots, notifier, authService,
		&config.DashboardConfig{LicensesPerPage: 12, ActivitiesPerPage: 5, MonthlyPrice: 9.99, YearlyPrice: 99.99},
		&config.StorageConfig{SnapshotTTL: time.Hour},
		logger,
	)
	if err != nil {
		t.Fatalf("dashboard service: %v", err)
	}
	licenseService := service.NewLicenseService(api, dashboardService, notifier, auditService, logger)
	activityService := service.NewActivityService(api, dashboardService, notifier, auditService, logger)

	web := NewWebHandler(authService, dashboardService, licenseService, activityService, auditService, notifier, sessionCfg, logger)
	hs := &Handlers{
		Web:       web,
		Export:    NewExportHandler(dashboardService, web, logger),
		Auth:      NewAuthHandler(authService, notifier, logger),
		License:   NewLicenseHandler(licenseService, dashboardService, notifier, logger),
		Dashboard: NewDashboardHandler(dashboardService, activityService, auditService, notifier, logger),
		Health:    NewHealthHandler(nil, nil, logger),
	}

	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	RegisterRoutes(router, hs, Middlewares{
		Cookie: middleware.CookieAuthMiddleware(authService, cookieName, sessionCfg.CookieSecure, logger),
		Bearer: middleware.AuthMiddleware(authService, logger),
		Errors: middleware.ErrorHandlerMiddleware(logger),
	})
	return &testApp{api: api, router: router}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) form(path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return a.do(req)
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return a.do(req)
}

func (a *testApp) call(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := a.form("/login", url.Values{"password": {testPassword}}, nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("login: status %d location %q", w.Code, w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("login did not set the session cookie")
	return nil
}

func (a *testApp) apiLogin(t *testing.T) string {
	t.Helper()
	w := a.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Password: testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("api login: %d %s", w.Code, w.Body.String())
	}
	var res dto.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || res.AccessToken == "" {
		t.Fatalf("api login response: %s", w.Body.String())
	}
	return res.AccessToken
}

func TestPagesRequireSession(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != middleware.LoginPath {
		t.Fatalf("expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginPageShowsError(t *testing.T) {
	app := newTestApp(t)
	w := app.form("/login", url.Values{"password": {"wrong"}}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid admin password") {
		t.Fatalf("login error not rendered: %s", w.Body.String())
	}
}

func TestDashboardAfterLogin(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	w := app.get("/", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"SORV-AAAA-1111", "alice@example.com", "Admin login successful!", "STRIPE", "MANUAL"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard is missing %q", want)
		}
	}

	// The toast is consumed by the first render.
	w = app.get("/", cookie)
	if strings.Contains(w.Body.String(), "Admin login successful!") {
		t.Fatalf("toast must only render once")
	}
}

func TestDashboardSearch(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	w := app.get("/?search=bob", cookie)
	body := w.Body.String()
	if !strings.Contains(body, "bob@example.com") || strings.Contains(body, "alice@example.com") {
		t.Fatalf("search not applied")
	}
}

func TestCreateLicenseFlow(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	app.get("/", cookie)

	w := app.form("/licenses", url.Values{"email": {"carol@example.com"}, "name": {"Carol"}, "days": {"30"}}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create: %d", w.Code)
	}
	body := app.get("/", cookie).Body.String()
	if !strings.Contains(body, "License created successfully for 30 days!") || !strings.Contains(body, "carol@example.com") {
		t.Fatalf("created license or toast missing")
	}
}

func TestCreateLicenseValidationToast(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	app.form("/licenses", url.Values{"email": {"nope"}, "days": {"7"}}, cookie)

	body := app.get("/", cookie).Body.String()
	if !strings.Contains(body, "Please enter a valid email address") {
		t.Fatalf("validation toast missing")
	}
	if app.api.Count("CreateLicense") != 0 {
		t.Fatalf("invalid form reached the backend")
	}
}

func TestConfirmDeleteWarnsAboutStripe(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	app.get("/", cookie)

	body := app.get("/licenses/SORV-AAAA-1111/delete", cookie).Body.String()
	if !strings.Contains(body, "Stripe subscription license") {
		t.Fatalf("stripe warning missing")
	}
	body = app.get("/licenses/SORV-BBBB-2222/delete", cookie).Body.String()
	if !strings.Contains(body, "permanently removed") {
		t.Fatalf("manual warning missing")
	}
}

func TestRejectedTokenRedirectsToExpiredLogin(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	app.api.Token = "rotated"

	w := app.get("/", cookie)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != middleware.ExpiredLoginPath {
		t.Fatalf("expected expired redirect, got %d %q", w.Code, w.Header().Get("Location"))
	}
	w = app.get("/", cookie)
	if w.Header().Get("Location") != middleware.LoginPath {
		t.Fatalf("closed session must not restore, got %q", w.Header().Get("Location"))
	}
}

func TestExportCSV(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	w := app.get("/licenses/export.csv?search=alice", cookie)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "License Key,") || !strings.HasPrefix(lines[1], "SORV-AAAA-1111,Alice,") {
		t.Fatalf("unexpected csv:\n%s", w.Body.String())
	}
}

func TestAPIRequiresBearer(t *testing.T) {
	app := newTestApp(t)
	w := app.call(http.MethodGet, "/api/v1/licenses", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var res dto.APIErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Code != "UNAUTHENTICATED" {
		t.Fatalf("unexpected error body %+v", res)
	}
}

func TestAPILicenses(t *testing.T) {
	app := newTestApp(t)
	token := app.apiLogin(t)

	w := app.call(http.MethodGet, "/api/v1/licenses?filter=active", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var list dto.LicenseListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || list.Matching != 2 || list.Page.Total != 1 {
		t.Fatalf("unexpected list %+v %v", list, err)
	}

	w = app.call(http.MethodGet, "/api/v1/licenses?filter=bogus", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown filter must be rejected, got %d", w.Code)
	}
}

func TestAPICreateValidation(t *testing.T) {
	app := newTestApp(t)
	token := app.apiLogin(t)

	w := app.call(http.MethodPost, "/api/v1/licenses", token, dto.CreateLicenseRequest{Email: "a@b.co", Days: 12})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var res dto.APIErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Code != "VALIDATION_ERROR" || res.Message != "License duration must be 3, 7, 30 or 365 days" {
		t.Fatalf("unexpected error body %+v", res)
	}

	w = app.call(http.MethodPost, "/api/v1/licenses", token, dto.CreateLicenseRequest{Email: "a@b.co", Days: 7})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
}

func TestAPIDegradedDelete(t *testing.T) {
	app := newTestApp(t)
	token := app.apiLogin(t)
	app.call(http.MethodGet, "/api/v1/dashboard", token, nil)
	app.api.Fail("DeleteLicense", ierr.ErrNetwork)

	w := app.call(http.MethodDelete, "/api/v1/licenses/SORV-BBBB-2222", token, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", w.Code, w.Body.String())
	}
	var res dto.DeleteLicenseResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Degraded || res.Message != "License removed from local view (backend delete endpoint needed)" {
		t.Fatalf("unexpected response %+v", res)
	}

	w = app.call(http.MethodDelete, "/api/v1/licenses/UNKNOWN", token, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("unknown key while unreachable must fail, got %d", w.Code)
	}
}

func TestAPIRevenue(t *testing.T) {
	app := newTestApp(t)
	token := app.apiLogin(t)

	w := app.call(http.MethodGet, "/api/v1/revenue", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revenue: %d", w.Code)
	}
	var res dto.RevenueResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// One active Stripe monthly license without renewals.
	if res.Monthly != 9.99 || res.Lifetime != 9.99 || res.Currency != "USD" {
		t.Fatalf("unexpected revenue %+v", res)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/healthz", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"database":"disabled"`) {
		t.Fatalf("unexpected health %d %s", w.Code, w.Body.String())
	}
}
