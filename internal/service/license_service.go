package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// DeleteResult tells whether a delete reached the backend.
type DeleteResult struct {
	Degraded bool
}

type LicenseService struct {
	api       backend.API
	dashboard *DashboardService
	notifier  *Notifier
	audit     *AuditService
	now       func() time.Time
	logger    *zap.Logger
}

func NewLicenseService(api backend.API, dashboardService *DashboardService, notifier *Notifier, auditService *AuditService, logger *zap.Logger) *LicenseService {
	return &LicenseService{
		api:       api,
		dashboard: dashboardService,
		notifier:  notifier,
		audit:     auditService,
		now:       time.Now,
		logger:    logger.Named("LicenseService"),
	}
}

func (s *LicenseService) CreateLicense(ctx context.Context, sess *session.Session, req *dto.CreateLicenseRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return "", ierr.Public(ierr.ErrValidation, "Please enter customer email")
	}
	if !ValidEmail(email) {
		return "", ierr.Public(ierr.ErrValidation, "Please enter a valid email address")
	}
	if !license.IsAllowedDuration(req.Days) {
		return "", ierr.Public(ierr.ErrValidation, "License duration must be 3, 7, 30 or 365 days")
	}

	s.logger.Info("Creating license", zap.String("email", email), zap.Int("days", req.Days))

	var key string
	err := s.dashboard.mutate(ctx, sess, func(ctx context.Context) error {
		var err error
		key, err = s.api.CreateLicense(ctx, sess.AdminToken, backend.CreateLicenseRequest{
			Email: email,
			Name:  strings.TrimSpace(req.Name),
			Days:  req.Days,
		})
		return err
	})
	if err != nil {
		s.fail(ctx, sess, audit.ActionCreateLicense, "", "Failed to create license", err)
		return "", err
	}

	s.audit.Record(ctx, sess, audit.ActionCreateLicense, key, audit.OutcomeSuccess, fmt.Sprintf("%s, %d days", email, req.Days))
	s.notifier.Success(ctx, sess.ID, CreatedMessage(key, req.Days))
	s.logger.Info("License created", zap.String("key", key))
	return key, nil
}

// CreatedMessage is the confirmation shown after a manual license is issued.
func CreatedMessage(key string, days int) string {
	msg := fmt.Sprintf("License created successfully for %d days!", days)
	if days == license.MonthlyDays {
		msg += " (Manual license - does not affect revenue)"
	}
	if key != "" {
		msg += " Key: " + key
	}
	return msg
}

func (s *LicenseService) DeactivateLicense(ctx context.Context, sess *session.Session, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ierr.Public(ierr.ErrValidation, "License key is required")
	}

	err := s.dashboard.mutate(ctx, sess, func(ctx context.Context) error {
		return s.api.DeactivateLicense(ctx, sess.AdminToken, key)
	})
	if err != nil {
		s.fail(ctx, sess, audit.ActionDeactivate, key, "Failed to deactivate license", err)
		return err
	}

	s.audit.Record(ctx, sess, audit.ActionDeactivate, key, audit.OutcomeSuccess, "")
	s.notifier.Success(ctx, sess.ID, "License deactivated successfully")
	return nil
}

// DeleteLicense removes a license on the backend. When the backend cannot be
// reached, or has no delete endpoint, the license is removed from this
// session's snapshot only and tombstoned until the next successful fetch.
func (s *LicenseService) DeleteLicense(ctx context.Context, sess *session.Session, key string) (*DeleteResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ierr.Public(ierr.ErrValidation, "License key is required")
	}

	var degraded bool
	err := s.dashboard.locked(sess.ID, func() error {
		err := s.api.DeleteLicense(ctx, sess.AdminToken, key)
		if err == nil {
			current, _ := s.dashboard.snapshots.Get(ctx, sess.ID)
			filter, search := queryOf(current)
			if _, err := s.dashboard.reloadLocked(ctx, sess, current, filter, search); err != nil {
				if errors.Is(err, ierr.ErrUnauthorized) {
					return err
				}
				s.logger.Warn("Reload after delete failed", zap.Error(err))
			}
			return nil
		}
		if !ierr.IsUnreachable(err) {
			return err
		}

		snap, getErr := s.dashboard.snapshots.Get(ctx, sess.ID)
		if getErr != nil || snap == nil || !snap.RemoveLocal(key) {
			return err
		}
		if putErr := s.dashboard.snapshots.Put(ctx, sess.ID, snap, s.dashboard.snapshotTTL); putErr != nil {
			s.logger.Error("Failed to store degraded snapshot", zap.Error(putErr))
			return err
		}
		s.logger.Warn("Backend delete unavailable, removed license locally", zap.String("key", key), zap.Error(err))
		degraded = true
		return nil
	})
	err = s.dashboard.checkAuth(ctx, sess, err)
	if err != nil {
		s.fail(ctx, sess, audit.ActionDelete, key, "Failed to delete license", err)
		return nil, err
	}

	if degraded {
		s.audit.Record(ctx, sess, audit.ActionDeleteLocal, key, audit.OutcomeDegraded, "backend unreachable, removed from local view")
		s.notifier.Warning(ctx, sess.ID, "License removed from local view (backend delete endpoint needed)")
		return &DeleteResult{Degraded: true}, nil
	}

	s.audit.Record(ctx, sess, audit.ActionDelete, key, audit.OutcomeSuccess, "")
	s.notifier.Success(ctx, sess.ID, "License deleted successfully")
	return &DeleteResult{}, nil
}

func (s *LicenseService) SendLicenseEmail(ctx context.Context, sess *session.Session, key string, req *dto.SendLicenseEmailRequest) error {
	key = strings.TrimSpace(key)
	email := strings.TrimSpace(req.CustomerEmail)
	if key == "" || email == "" {
		return ierr.Public(ierr.ErrValidation, "License key and customer email are required")
	}
	if !ValidEmail(email) {
		return ierr.Public(ierr.ErrValidation, "Please enter a valid email address")
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	err := s.api.SendLicenseEmail(ctx, sess.AdminToken, backend.SendLicenseEmailRequest{
		LicenseKey:    key,
		CustomerEmail: email,
		CustomerName:  name,
	})
	if err = s.dashboard.checkAuth(ctx, sess, err); err != nil {
		s.fail(ctx, sess, audit.ActionSendEmail, key, "Failed to send email", err)
		return err
	}

	s.audit.Record(ctx, sess, audit.ActionSendEmail, key, audit.OutcomeSuccess, email)
	s.notifier.Success(ctx, sess.ID, "License email sent successfully!")
	return nil
}

func (s *LicenseService) SendTestEmail(ctx context.Context, sess *session.Session, req *dto.SendTestEmailRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return ierr.Public(ierr.ErrValidation, "Please enter an email address")
	}
	if !ValidEmail(email) {
		return ierr.Public(ierr.ErrValidation, "Please enter a valid email address")
	}
	emailType := backend.EmailType(req.EmailType)
	if emailType == "" {
		emailType = backend.EmailPayment
	}
	if emailType != backend.EmailPayment && emailType != backend.EmailRenewal {
		return ierr.Public(ierr.ErrValidation, "Email type must be payment or renewal")
	}

	err := s.api.SendTestEmail(ctx, sess.AdminToken, email, emailType)
	if err = s.dashboard.checkAuth(ctx, sess, err); err != nil {
		s.fail(ctx, sess, audit.ActionSendTestEmail, "", "Failed to send test email", err)
		return err
	}

	s.audit.Record(ctx, sess, audit.ActionSendTestEmail, "", audit.OutcomeSuccess, fmt.Sprintf("%s to %s", emailType, email))
	s.notifier.Success(ctx, sess.ID, fmt.Sprintf("%s test email sent successfully!", emailType))
	return nil
}

func (s *LicenseService) Details(ctx context.Context, sess *session.Session, key string) (*dashboard.Details, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ierr.Public(ierr.ErrValidation, "License key is required")
	}
	lic, err := s.api.GetLicense(ctx, sess.AdminToken, key)
	if err = s.dashboard.checkAuth(ctx, sess, err); err != nil {
		return nil, err
	}
	return dashboard.NewDetails(lic, s.dashboard.opts.Prices, s.now()), nil
}

// Health asks the backend for its liveness and leaves a toast describing it.
func (s *LicenseService) Health(ctx context.Context, sess *session.Session) (*backend.Health, error) {
	h, err := s.api.Health(ctx)
	if err != nil {
		var apiErr *ierr.APIError
		if errors.As(err, &apiErr) {
			s.notifier.Error(ctx, sess.ID, "Backend is not responding")
		} else {
			s.notifier.Error(ctx, sess.ID, "Cannot connect to backend")
		}
		return nil, err
	}
	s.notifier.Success(ctx, sess.ID, fmt.Sprintf("System is %s. MongoDB: %s", h.Status, h.MongoDB))
	return h, nil
}

// fail records a failed action and leaves an error toast, unless the
// session was just closed.
func (s *LicenseService) fail(ctx context.Context, sess *session.Session, action audit.Action, key, prefix string, err error) {
	s.audit.Record(ctx, sess, action, key, audit.OutcomeFailure, ierr.Message(err))
	if errors.Is(err, ierr.ErrSessionExpired) {
		return
	}
	s.notifier.Error(ctx, sess.ID, prefix+": "+ierr.Message(err))
	s.logger.Warn(prefix, zap.String("key", key), zap.Error(err))
}
