package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionSubject = "admin"

type sessionClaims struct {
	Source session.AuthSource `json:"src"`
	jwt.RegisteredClaims
}

// LoginResult is a fresh session plus the signed credential that names it.
type LoginResult struct {
	Session *session.Session
	Token   string
}

type AuthService struct {
	api          backend.API
	sessions     session.Repository
	snapshots    snapshot.Repository
	notifier     *Notifier
	audit        *AuditService
	cfg          *config.SessionConfig
	fallbackHash []byte
	signingKey   []byte
	now          func() time.Time
	logger       *zap.Logger
}

func NewAuthService(
	api backend.API,
	sessions session.Repository,
	snapshots snapshot.Repository,
	notifier *Notifier,
	auditService *AuditService,
	cfg *config.SessionConfig,
	authCfg *config.AuthConfig,
	signingKey []byte,
	logger *zap.Logger,
) *AuthService {
	s := &AuthService{
		api:        api,
		sessions:   sessions,
		snapshots:  snapshots,
		notifier:   notifier,
		audit:      auditService,
		cfg:        cfg,
		signingKey: signingKey,
		now:        time.Now,
		logger:     logger.Named("AuthService"),
	}
	if authCfg.FallbackPasswordHash != "" {
		s.fallbackHash = []byte(authCfg.FallbackPasswordHash)
	}
	return s
}

func (s *AuthService) lifetime() time.Duration {
	if s.cfg.Lifetime <= 0 {
		return 8 * time.Hour
	}
	return s.cfg.Lifetime
}

// Login verifies the admin password against the backend and opens a session.
// When the backend cannot be reached, or has no auth endpoint, the password is
// checked against the configured bcrypt hash instead.
func (s *AuthService) Login(ctx context.Context, password, remoteAddr string) (*LoginResult, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, ierr.Public(ierr.ErrValidation, "Please enter the admin password")
	}

	source, err := s.verify(ctx, password)
	if err != nil {
		s.audit.Record(ctx, &session.Session{RemoteAddr: remoteAddr}, audit.ActionLogin, "", audit.OutcomeFailure, ierr.Message(err))
		return nil, err
	}

	now := s.now()
	sess := &session.Session{
		ID:         uuid.NewString(),
		AdminToken: password,
		LoginAt:    now,
		ExpiresAt:  now.Add(s.lifetime()),
		RemoteAddr: remoteAddr,
		Source:     source,
	}
	if err := s.sessions.Save(ctx, sess, s.lifetime()); err != nil {
		s.logger.Error("Failed to save session", zap.Error(err))
		return nil, fmt.Errorf("%w: could not store session: %v", ierr.ErrInternalServer, err)
	}

	token, err := s.sign(sess)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("%w: could not sign session: %v", ierr.ErrInternalServer, err)
	}

	s.audit.Record(ctx, sess, audit.ActionLogin, "", audit.OutcomeSuccess, string(source))
	s.notifier.Success(ctx, sess.ID, "Admin login successful!")
	s.logger.Info("Operator logged in", zap.String("sessionID", sess.ID), zap.String("source", string(source)))

	return &LoginResult{Session: sess, Token: token}, nil
}

func (s *AuthService) verify(ctx context.Context, password string) (session.AuthSource, error) {
	res, err := s.api.CheckAuth(ctx, password)
	switch {
	case err == nil && res.Success:
		return session.SourceBackend, nil
	case err == nil:
		msg := res.Error
		if msg == "" {
			msg = "Invalid password"
		}
		return "", ierr.Public(ierr.ErrInvalidCredentials, msg)
	case ierr.IsUnreachable(err):
		s.logger.Warn("Auth endpoint unavailable, using local fallback", zap.Error(err))
		return s.verifyFallback(password)
	}
	s.logger.Error("Auth check failed", zap.Error(err))
	return "", ierr.Public(ierr.ErrBackend, "Authentication error: "+ierr.Message(err))
}

func (s *AuthService) verifyFallback(password string) (session.AuthSource, error) {
	if len(s.fallbackHash) == 0 {
		return "", ierr.Public(ierr.ErrInvalidCredentials, "Authentication failed. Please try again.")
	}
	if err := bcrypt.CompareHashAndPassword(s.fallbackHash, []byte(password)); err != nil {
		return "", ierr.Public(ierr.ErrInvalidCredentials, "Invalid admin password")
	}
	return session.SourceFallback, nil
}

func (s *AuthService) sign(sess *session.Session) (string, error) {
	claims := sessionClaims{
		Source: sess.Source,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sessionSubject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(sess.LoginAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// Restore resolves a session credential. A session older than its lifetime
// is logged out and reported as ErrSessionExpired.
func (s *AuthService) Restore(ctx context.Context, credential string) (*session.Session, error) {
	if credential == "" {
		return nil, ierr.ErrSessionNotFound
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithSubject(sessionSubject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ID != "" {
			s.expire(ctx, claims.ID)
			return nil, ierr.ErrSessionExpired
		}
		s.logger.Debug("Rejected session credential", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	sess, err := s.sessions.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ierr.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: could not load session: %v", ierr.ErrInternalServer, err)
	}

	if sess.ExpiredAt(s.now(), s.lifetime()) {
		s.expire(ctx, sess.ID)
		return nil, ierr.ErrSessionExpired
	}
	return sess, nil
}

func (s *AuthService) expire(ctx context.Context, sessionID string) {
	s.logger.Info("Session expired", zap.String("sessionID", sessionID))
	s.reset(ctx, sessionID)
}

// Logout ends the session and drops everything derived from it.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	s.reset(ctx, sess.ID)
	s.audit.Record(ctx, sess, audit.ActionLogout, "", audit.OutcomeSuccess, "")
	s.logger.Info("Operator logged out", zap.String("sessionID", sess.ID))
	return nil
}

// ForceLogout is used when the backend rejects the session's token.
func (s *AuthService) ForceLogout(ctx context.Context, sess *session.Session) {
	s.reset(ctx, sess.ID)
	s.audit.Record(ctx, sess, audit.ActionLogout, "", audit.OutcomeFailure, "backend rejected admin token")
	s.logger.Warn("Backend rejected admin token, session closed", zap.String("sessionID", sess.ID))
}

func (s *AuthService) reset(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete session", zap.String("sessionID", sessionID), zap.Error(err))
	}
	if err := s.snapshots.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete snapshot", zap.String("sessionID", sessionID), zap.Error(err))
	}
	s.notifier.Clear(ctx, sessionID)
}

// HashPassword produces the value for auth.fallbackPasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
