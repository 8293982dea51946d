package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/services/auth/internal/service"
	"github.com/Skotchmaster/shopfront/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// httpError maps a service error to its status and a message that is safe
// to show to clients.
func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "User already exists with this email or NIC or contactNumber"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrInvalidOrExpired):
		return http.StatusBadRequest, "Invalid or expired reset token"
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusInternalServerError, "Failed to send reset email"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		code, msg := httpError(err)
		l.Warn("register_failed", "status", code, "error", err)
		return c.JSON(code, echo.Map{"success": false, "message": msg})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		code, msg := httpError(err)
		l.Warn("login_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, msg)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Login successful",
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"user":         res.User,
	})
}

// Verify reports whether the bearer token is a live access token. It
// answers with a {valid} body instead of relying on the auth middleware.
func (h *AuthHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify")

	token, ok := middleware.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		l.Warn("verify_failed", "status", 401, "reason", "no token provided")
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "message": "No token provided"})
	}

	user, err := h.Svc.VerifySession(ctx, token)
	if err != nil {
		code, _ := httpError(err)
		if code == http.StatusUnauthorized {
			l.Warn("verify_failed", "status", code, "error", err)
			return c.JSON(code, echo.Map{"valid": false, "message": "Invalid token"})
		}
		l.Error("verify_failed", "status", code, "error", err)
		return c.JSON(code, echo.Map{"valid": false, "message": http.StatusText(code)})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"user":  user.View(),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	token, exp, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		code, msg := httpError(err)
		if code == http.StatusUnauthorized {
			msg = "Invalid refresh token"
		}
		l.Warn("refresh_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, msg)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": token,
		"expiresAt":   exp,
	})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("forgot_password_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		code, msg := httpError(err)
		l.Warn("forgot_password_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, msg)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset email sent"})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_password_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ResetPassword(ctx, req); err != nil {
		code, msg := httpError(err)
		l.Warn("reset_password_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, msg)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully"})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	if err := h.Svc.Logout(ctx, userID); err != nil {
		code, msg := httpError(err)
		l.Error("logout_failed", "status", code, "reason", "cannot revoke sessions", "error", err)
		return echo.NewHTTPError(code, msg)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
