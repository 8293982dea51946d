package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/mail"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/sessions"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/pkg/validate"
	"github.com/Skotchmaster/shopfront/services/auth/internal/transport"
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	CheckDummy(password string) bool
}

type Validator interface {
	Validate(i any) error
}

type AuthService struct {
	Store    identity.Store
	Hasher   PasswordHasher
	Tokens   *tokens.Service
	Sessions sessions.Store
	Mailer   mail.Notifier
	Events   events.Publisher
	Metrics  *metrics.Metrics

	ResetTTL     time.Duration
	ResetURLBase string
	CallTimeout  time.Duration

	Validator Validator
	Now       func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var defaultValidator = validate.New()

func (s *AuthService) validator() Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *AuthService) epochs() sessions.Store {
	if s.Sessions == nil {
		return sessions.Nop{}
	}
	return s.Sessions
}

func (s *AuthService) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return server.WithTimeout(ctx, s.CallTimeout)
}

func (s *AuthService) emit(ctx context.Context, typ, key string, data any) {
	events.Emit(ctx, s.Events, s.CallTimeout, events.TopicUser, events.New(typ, key, data))
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*identity.Summary, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Name = identity.NormalizeName(req.Name)
	req.Email = identity.NormalizeEmail(req.Email)
	req.NIC = identity.NormalizeNIC(req.NIC)
	req.ContactNumber = identity.NormalizePhone(req.ContactNumber)

	if err := s.validator().Validate(req); err != nil {
		s.Metrics.Observe("register", "invalid")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	cctx, cancel := s.call(ctx)
	field, found, err := s.Store.FindConflict(cctx, req.Email, req.NIC, req.ContactNumber, uuid.Nil)
	cancel()
	if err != nil {
		return nil, infra("find conflict", err)
	}
	if found {
		l.Warn("register_error", "status", 400, "reason", "user already exists", "field", field)
		s.Metrics.Observe("register", "conflict")
		return nil, fmt.Errorf("%w: %s already taken", ErrConflict, field)
	}

	pwHash, err := s.Hasher.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: hash password: %w", ErrInternal, err)
	}

	user := &identity.Identity{
		Name:          req.Name,
		NIC:           req.NIC,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		PasswordHash:  pwHash,
	}

	cctx, cancel = s.call(ctx)
	err = s.Store.Create(cctx, user)
	cancel()
	if err != nil {
		var dup *identity.DuplicateError
		if errors.As(err, &dup) {
			l.Warn("register_error", "status", 400, "reason", "unique index rejected insert", "field", dup.Field)
			s.Metrics.Observe("register", "conflict")
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, infra("create identity", err)
	}

	summary := user.Summary()
	s.Metrics.Observe("register", "success")
	s.emit(ctx, "user_registered", user.ID.String(), summary)
	l.Info("register_successful", "user_id", user.ID)
	return &summary, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = identity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	cctx, cancel := s.call(ctx)
	user, err := s.Store.FindByEmail(cctx, email)
	cancel()
	switch {
	case errors.Is(err, identity.ErrNotFound):
		// keep timing in line with the wrong-password path
		s.Hasher.CheckDummy(password)
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		s.Metrics.Observe("login", "failure")
		return nil, ErrUnauthorized
	case err != nil:
		return nil, infra("find identity", err)
	}

	if !s.Hasher.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		s.Metrics.Observe("login", "failure")
		return nil, ErrUnauthorized
	}

	id := user.ID.String()
	tctx, cancel := s.call(ctx)
	defer cancel()
	accessToken, accessExp, err := s.Tokens.IssueAccessToken(tctx, id)
	if err != nil {
		return nil, infra("issue access token", err)
	}
	refreshToken, refreshExp, err := s.Tokens.IssueRefreshToken(tctx, id)
	if err != nil {
		return nil, infra("issue refresh token", err)
	}

	s.Metrics.Observe("login", "success")
	l.Info("login_successful", "user_id", id)
	return &transport.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user.View(),
	}, nil
}

// VerifySession resolves an access token to the identity it was issued for.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*identity.Identity, error) {
	tctx, cancel := s.call(ctx)
	claims, err := s.Tokens.Verify(tctx, token)
	cancel()
	if err != nil {
		return nil, tokenError(err)
	}
	return s.lookupSubject(ctx, claims.Subject)
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return "", time.Time{}, fmt.Errorf("%w: no refresh token provided", ErrUnauthorized)
	}
	tctx, cancel := s.call(ctx)
	claims, err := s.Tokens.VerifyRefresh(tctx, refreshToken)
	cancel()
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return "", time.Time{}, tokenError(err)
	}
	if _, err := s.lookupSubject(ctx, claims.Subject); err != nil {
		return "", time.Time{}, err
	}

	tctx, cancel = s.call(ctx)
	defer cancel()
	token, exp, err := s.Tokens.IssueAccessToken(tctx, claims.Subject)
	if err != nil {
		return "", time.Time{}, infra("issue access token", err)
	}
	s.Metrics.Observe("refresh", "success")
	return token, exp, nil
}

// Logout invalidates every token issued to the identity so far.
func (s *AuthService) Logout(ctx context.Context, identityID string) error {
	cctx, cancel := s.call(ctx)
	defer cancel()
	if _, err := s.epochs().Bump(cctx, identityID); err != nil {
		return infra("bump session epoch", err)
	}
	s.emit(ctx, "user_logged_out", identityID, nil)
	return nil
}

func (s *AuthService) Ready(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

func (s *AuthService) lookupSubject(ctx context.Context, subject string) (*identity.Identity, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrUnauthorized)
	}

	cctx, cancel := s.call(ctx)
	defer cancel()
	user, err := s.Store.FindByID(cctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}
	if err != nil {
		return nil, infra("find identity", err)
	}
	return user, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, tokens.ErrSessionLookup):
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}
