package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
	tokenHeader    = "x-admin-token"
)

// API is the surface of the Sorvide backend used by the console.
type API interface {
	CheckAuth(ctx context.Context, password string) (*AuthResult, error)
	ListLicenses(ctx context.Context, token string, filter license.Filter, search string) ([]license.License, error)
	GetLicense(ctx context.Context, token, key string) (*license.License, error)
	CreateLicense(ctx context.Context, token string, req CreateLicenseRequest) (string, error)
	DeactivateLicense(ctx context.Context, token, key string) error
	DeleteLicense(ctx context.Context, token, key string) error
	SendLicenseEmail(ctx context.Context, token string, req SendLicenseEmailRequest) error
	SendTestEmail(ctx context.Context, token, email string, emailType EmailType) error
	ListActivity(ctx context.Context, token string) ([]activity.Activity, error)
	ClearActivity(ctx context.Context, token string) error
	Stats(ctx context.Context, token string) (*Stats, error)
	Health(ctx context.Context) (*Health, error)
}

// Client talks to the backend over HTTP. Every call gets its own timeout and
// is attempted exactly once.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *Metrics
	logger     *zap.Logger
}

var _ API = (*Client)(nil)

func NewClient(cfg *config.BackendConfig, metrics *Metrics, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		metrics:    metrics,
		logger:     logger.Named("BackendClient"),
	}
}

type call struct {
	method   string
	path     string
	endpoint string
	token    string
	query    url.Values
	body     any
	// raw skips the success envelope check.
	raw bool
}

func (c *Client) CheckAuth(ctx context.Context, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/check-auth",
		endpoint: "/admin/check-auth",
		body:     checkAuthRequest{Token: password},
		raw:      true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListLicenses(ctx context.Context, token string, filter license.Filter, search string) ([]license.License, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", string(filter))
	}
	q.Set("search", search)

	var res licensesResponse
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/licenses",
		endpoint: "/admin/licenses",
		token:    token,
		query:    q,
	}, &res); err != nil {
		return nil, err
	}
	for i := range res.Licenses {
		res.Licenses[i].Normalize()
	}
	if res.Licenses == nil {
		res.Licenses = []license.License{}
	}
	return res.Licenses, nil
}

func (c *Client) GetLicense(ctx context.Context, token, key string) (*license.License, error) {
	var res licenseResponse
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/license/" + url.PathEscape(key),
		endpoint: "/admin/license/:key",
		token:    token,
	}, &res); err != nil {
		return nil, err
	}
	res.License.Normalize()
	return &res.License, nil
}

// CreateLicense returns the generated key, read from license.key or
// license.licenseKey depending on the backend revision.
func (c *Client) CreateLicense(ctx context.Context, token string, req CreateLicenseRequest) (string, error) {
	var res createLicenseResponse
	if err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/create-license",
		endpoint: "/admin/create-license",
		token:    token,
		body:     req,
	}, &res); err != nil {
		return "", err
	}
	if res.License.Key != "" {
		return res.License.Key, nil
	}
	return res.License.LicenseKey, nil
}

func (c *Client) DeactivateLicense(ctx context.Context, token, key string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/deactivate-license",
		endpoint: "/admin/deactivate-license",
		token:    token,
		body:     deactivateRequest{LicenseKey: key},
	}, nil)
}

func (c *Client) DeleteLicense(ctx context.Context, token, key string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/admin/license/" + url.PathEscape(key),
		endpoint: "/admin/license/:key",
		token:    token,
	}, nil)
}

func (c *Client) SendLicenseEmail(ctx context.Context, token string, req SendLicenseEmailRequest) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/send-license-email",
		endpoint: "/admin/send-license-email",
		token:    token,
		body:     req,
	}, nil)
}

func (c *Client) SendTestEmail(ctx context.Context, token, email string, emailType EmailType) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/send-test-email",
		endpoint: "/admin/send-test-email",
		token:    token,
		body:     sendTestEmailRequest{Email: email, EmailType: emailType},
	}, nil)
}

func (c *Client) ListActivity(ctx context.Context, token string) ([]activity.Activity, error) {
	var res activityResponse
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/activity",
		endpoint: "/admin/activity",
		token:    token,
	}, &res); err != nil {
		return nil, err
	}
	if res.Activities == nil {
		res.Activities = []activity.Activity{}
	}
	return res.Activities, nil
}

func (c *Client) ClearActivity(ctx context.Context, token string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/admin/activity",
		endpoint: "/admin/activity",
		token:    token,
	}, nil)
}

func (c *Client) Stats(ctx context.Context, token string) (*Stats, error) {
	var res statsResponse
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/stats",
		endpoint: "/admin/stats",
		token:    token,
	}, &res); err != nil {
		return nil, err
	}
	return &res.Stats, nil
}

// Health hits the unauthenticated liveness endpoint, which has no envelope.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var res Health
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/health",
		endpoint: "/health",
		raw:      true,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	outcome := "ok"
	defer func() { c.metrics.observe(cl.endpoint, outcome, time.Since(start)) }()

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			outcome = "encode_error"
			return fmt.Errorf("%w: encode %s body: %v", ierr.ErrInternalServer, cl.endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		outcome = "encode_error"
		return fmt.Errorf("%w: build request %s: %v", ierr.ErrInternalServer, cl.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.Set(tokenHeader, cl.token)
	}

	c.logger.Debug("Calling backend", zap.String("method", cl.method), zap.String("endpoint", cl.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome, err = transportError(ctx, cl, err)
		c.logger.Warn("Backend call failed", zap.String("endpoint", cl.endpoint), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome, err = transportError(ctx, cl, err)
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &ierr.APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API Error: %d", resp.StatusCode),
			Endpoint:   cl.endpoint,
		}
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
		}
		if resp.StatusCode == http.StatusUnauthorized {
			outcome = "unauthorized"
		} else {
			outcome = "api_error"
		}
		c.logger.Warn("Backend returned an error",
			zap.String("endpoint", cl.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if !cl.raw {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			outcome = "decode_error"
			return fmt.Errorf("%w: decode %s response: %v", ierr.ErrBackend, cl.endpoint, err)
		}
		if env.Success != nil && !*env.Success {
			outcome = "rejected"
			msg := env.Error
			if msg == "" {
				msg = env.Message
			}
			if msg == "" {
				msg = "Request failed"
			}
			return &ierr.APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: cl.endpoint}
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			outcome = "decode_error"
			return fmt.Errorf("%w: decode %s response: %v", ierr.ErrBackend, cl.endpoint, err)
		}
	}
	return nil
}

func transportError(ctx context.Context, cl call, err error) (string, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout", fmt.Errorf("%w: %s %s", ierr.ErrTimeout, cl.method, cl.endpoint)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", fmt.Errorf("%w: %s %s", ierr.ErrTimeout, cl.method, cl.endpoint)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled", fmt.Errorf("%s %s: %w", cl.method, cl.endpoint, err)
	}
	return "network", fmt.Errorf("%w: %s %s: %v", ierr.ErrNetwork, cl.method, cl.endpoint, err)
}
