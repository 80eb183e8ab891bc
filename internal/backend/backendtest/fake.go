// Package backendtest provides an in-memory backend for tests.
package backendtest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
)

// Fake serves licenses and activity from memory. Token is both the admin
// password and the only accepted admin token. Errs injects a failure per
// method name, e.g. Errs["DeleteLicense"] = ierr.ErrNetwork.
type Fake struct {
	mu         sync.Mutex
	Token      string
	Licenses   []license.License
	Activities []activity.Activity
	Errs       map[string]error
	Calls      []string
	Emails     []backend.SendLicenseEmailRequest
	TestEmails []string
	HealthInfo backend.Health
	seq        int
}

var _ backend.API = (*Fake)(nil)

func New(token string) *Fake {
	return &Fake{
		Token:      token,
		Errs:       make(map[string]error),
		HealthInfo: backend.Health{Status: "healthy", MongoDB: "connected"},
	}
}

func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[method] = err
}

func (f *Fake) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *Fake) enter(method, token string, needsToken bool) error {
	f.Calls = append(f.Calls, method)
	if err := f.Errs[method]; err != nil {
		return err
	}
	if needsToken && token != f.Token {
		return &ierr.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized", Endpoint: method}
	}
	return nil
}

func (f *Fake) CheckAuth(ctx context.Context, password string) (*backend.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CheckAuth", "", false); err != nil {
		return nil, err
	}
	if password != f.Token {
		return &backend.AuthResult{Success: false, Error: "Invalid admin password"}, nil
	}
	return &backend.AuthResult{Success: true}, nil
}

func (f *Fake) ListLicenses(ctx context.Context, token string, filter license.Filter, search string) ([]license.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListLicenses", token, true); err != nil {
		return nil, err
	}
	return license.Select(f.Licenses, filter, search, time.Now()), nil
}

func (f *Fake) GetLicense(ctx context.Context, token, key string) (*license.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetLicense", token, true); err != nil {
		return nil, err
	}
	if i := f.index(key); i >= 0 {
		l := f.Licenses[i]
		return &l, nil
	}
	return nil, &ierr.APIError{StatusCode: http.StatusNotFound, Message: "License not found", Endpoint: "GetLicense"}
}

func (f *Fake) CreateLicense(ctx context.Context, token string, req backend.CreateLicenseRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateLicense", token, true); err != nil {
		return "", err
	}
	f.seq++
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, req.Days)
	key := fmt.Sprintf("SORV-TEST-%04d", f.seq)
	f.Licenses = append(f.Licenses, license.License{
		LicenseKey:    key,
		CustomerEmail: req.Email,
		CustomerName:  req.Name,
		Days:          req.Days,
		IsActive:      true,
		IsManual:      true,
		CreatedAt:     &now,
		ExpiresAt:     &expires,
	})
	f.Activities = append([]activity.Activity{{Type: activity.TypeLicenseCreated, Details: key, Timestamp: &now, CustomerEmail: req.Email}}, f.Activities...)
	return key, nil
}

func (f *Fake) DeactivateLicense(ctx context.Context, token, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeactivateLicense", token, true); err != nil {
		return err
	}
	i := f.index(key)
	if i < 0 {
		return &ierr.APIError{StatusCode: http.StatusBadRequest, Message: "License not found", Endpoint: "DeactivateLicense"}
	}
	f.Licenses[i].IsActive = false
	return nil
}

func (f *Fake) DeleteLicense(ctx context.Context, token, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteLicense", token, true); err != nil {
		return err
	}
	i := f.index(key)
	if i < 0 {
		return &ierr.APIError{StatusCode: http.StatusBadRequest, Message: "License not found", Endpoint: "DeleteLicense"}
	}
	f.Licenses = append(f.Licenses[:i], f.Licenses[i+1:]...)
	return nil
}

func (f *Fake) SendLicenseEmail(ctx context.Context, token string, req backend.SendLicenseEmailRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SendLicenseEmail", token, true); err != nil {
		return err
	}
	f.Emails = append(f.Emails, req)
	return nil
}

func (f *Fake) SendTestEmail(ctx context.Context, token, email string, emailType backend.EmailType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SendTestEmail", token, true); err != nil {
		return err
	}
	f.TestEmails = append(f.TestEmails, string(emailType)+":"+email)
	return nil
}

func (f *Fake) ListActivity(ctx context.Context, token string) ([]activity.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListActivity", token, true); err != nil {
		return nil, err
	}
	return append([]activity.Activity{}, f.Activities...), nil
}

func (f *Fake) ClearActivity(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ClearActivity", token, true); err != nil {
		return err
	}
	f.Activities = nil
	return nil
}

func (f *Fake) Stats(ctx context.Context, token string) (*backend.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Stats", token, true); err != nil {
		return nil, err
	}
	st := &backend.Stats{TotalLicenses: len(f.Licenses)}
	for i := range f.Licenses {
		if f.Licenses[i].IsActive {
			st.ActiveLicenses++
		}
	}
	return st, nil
}

func (f *Fake) Health(ctx context.Context) (*backend.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Health", "", false); err != nil {
		return nil, err
	}
	h := f.HealthInfo
	return &h, nil
}

func (f *Fake) index(key string) int {
	for i := range f.Licenses {
		if f.Licenses[i].LicenseKey == key {
			return i
		}
	}
	return -1
}
