package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/services/auth/internal/transport"
)

// ForgotPassword stores a fresh reset token for the account and mails the
// link. When the mail cannot be delivered the token is withdrawn again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	email = identity.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	cctx, cancel := s.call(ctx)
	user, err := s.Store.FindByEmail(cctx, email)
	cancel()
	if errors.Is(err, identity.ErrNotFound) {
		l.Warn("forgot_password_failed", "status", 404, "reason", "user not found")
		return ErrNotFound
	}
	if err != nil {
		return infra("find identity", err)
	}

	raw, digest, err := tokens.NewResetToken()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	cctx, cancel = s.call(ctx)
	err = s.Store.SetResetToken(cctx, user.ID, digest, s.now().Add(s.ResetTTL))
	cancel()
	if err != nil {
		return infra("store reset token", err)
	}

	link := strings.TrimRight(s.ResetURLBase, "/") + "/" + raw

	cctx, cancel = s.call(ctx)
	sendErr := s.Mailer.SendResetLink(cctx, user.Email, link)
	cancel()
	if sendErr != nil {
		l.Error("forgot_password_failed", "status", 500, "reason", "reset mail not delivered", "error", sendErr)
		s.Metrics.Observe("password_reset_mail", "failure")

		// the request context may already be past its deadline
		cleanupCtx, cancel := s.call(context.WithoutCancel(ctx))
		defer cancel()
		if err := s.Store.ClearResetToken(cleanupCtx, user.ID, digest); err != nil {
			l.Error("reset_token_rollback_failed", "user_id", user.ID, "error", err)
			return fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(sendErr, err))
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}

	s.Metrics.Observe("password_reset_mail", "success")
	s.emit(ctx, "password_reset_requested", user.ID.String(), nil)
	l.Info("reset_mail_sent", "user_id", user.ID)
	return nil
}

// ResetPassword spends a reset token. A token works once and only before
// its expiry; afterwards every session of the account is invalidated.
func (s *AuthService) ResetPassword(ctx context.Context, req transport.ResetPasswordRequest) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if req.Token == "" {
		return ErrInvalidOrExpired
	}
	if err := s.validator().Validate(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	pwHash, err := s.Hasher.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %w", ErrInternal, err)
	}

	cctx, cancel := s.call(ctx)
	user, err := s.Store.ConsumeResetToken(cctx, tokens.Sha256Hex(req.Token), s.now(), pwHash)
	cancel()
	if errors.Is(err, identity.ErrResetTokenInvalid) {
		l.Warn("reset_password_failed", "status", 400, "reason", "invalid or expired reset token")
		s.Metrics.Observe("password_reset", "failure")
		return ErrInvalidOrExpired
	}
	if err != nil {
		return infra("consume reset token", err)
	}

	cctx, cancel = s.call(ctx)
	_, err = s.epochs().Bump(cctx, user.ID.String())
	cancel()
	if err != nil {
		l.Error("session_revoke_failed", "user_id", user.ID, "error", err)
	}

	s.Metrics.Observe("password_reset", "success")
	s.emit(ctx, "password_reset", user.ID.String(), nil)
	l.Info("reset_password_successful", "user_id", user.ID)
	return nil
}
